package bip32

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"

	"cosmos-core/pkg/errno"
)

// deriveStep 单步 CKDpriv，测试中替换以模拟无效子密钥
var deriveStep = func(parent *hdkeychain.ExtendedKey, index uint32) (*hdkeychain.ExtendedKey, error) {
	return parent.Derive(index)
}

// ExtendedKey 私钥 + 链码。使用完毕后调用 Zero。
type ExtendedKey struct {
	key *hdkeychain.ExtendedKey
}

// MasterKey 由种子计算主密钥 (HMAC-SHA512, key = "Bitcoin seed")
func MasterKey(seed []byte) (*ExtendedKey, error) {
	if len(seed) < hdkeychain.MinSeedBytes || len(seed) > hdkeychain.MaxSeedBytes {
		return nil, errno.Newf(errno.ErrInvalidSeed, "got %d bytes, want [%d, %d]",
			len(seed), hdkeychain.MinSeedBytes, hdkeychain.MaxSeedBytes)
	}

	// 版本号只影响 xprv 序列化，这里不使用
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		if errors.Is(err, hdkeychain.ErrUnusableSeed) {
			return nil, errno.Wrap(errno.ErrInvalidMasterKey, err, "")
		}
		return nil, errno.Wrap(errno.ErrInvalidSeed, err, "")
	}
	return &ExtendedKey{key: key}, nil
}

// DeriveChild 派生子私钥。index 不含硬化位。
// 若某个索引得到无效密钥 (IL >= n 或子私钥为 0)，跳过该索引尝试 index+1，
// 返回实际使用的索引。跳过不会越过硬化边界。
func (k *ExtendedKey) DeriveChild(index uint32, hardened bool) (*ExtendedKey, uint32, error) {
	if index >= HardenedKeyStart {
		return nil, 0, errno.Newf(errno.ErrInvalidPath, "index %d out of range", index)
	}

	for attempt := uint32(0); attempt < MaxDeriveAttempts; attempt++ {
		candidate := index + attempt
		if candidate >= HardenedKeyStart {
			break
		}

		seg := PathSegment{Index: candidate, Hardened: hardened}
		child, err := deriveStep(k.key, seg.ChildIndex())
		if err == nil {
			return &ExtendedKey{key: child}, candidate, nil
		}
		if !errors.Is(err, hdkeychain.ErrInvalidChild) {
			return nil, 0, errno.Wrap(errno.ErrInvalidChildKey, err, seg.String())
		}
	}

	return nil, 0, errno.Newf(errno.ErrDerivationFailed, "no valid child from index %d", index)
}

// PrivateKey 返回 secp256k1 私钥
func (k *ExtendedKey) PrivateKey() (*btcec.PrivateKey, error) {
	priv, err := k.key.ECPrivKey()
	if err != nil {
		return nil, errno.Wrap(errno.ErrInvalidPrivKey, err, "")
	}
	return priv, nil
}

// PublicKey 返回 33 字节压缩公钥
func (k *ExtendedKey) PublicKey() ([]byte, error) {
	pub, err := k.key.ECPubKey()
	if err != nil {
		return nil, errno.Wrap(errno.ErrInvalidPubKey, err, "")
	}
	return pub.SerializeCompressed(), nil
}

func (k *ExtendedKey) ChainCode() []byte {
	return k.key.ChainCode()
}

func (k *ExtendedKey) Depth() uint8 {
	return k.key.Depth()
}

// ChildIndex 带硬化位的索引
func (k *ExtendedKey) ChildIndex() uint32 {
	return k.key.ChildIndex()
}

// Zero 清除私钥和链码
func (k *ExtendedKey) Zero() {
	if k != nil && k.key != nil {
		k.key.Zero()
	}
}

// KeyPair 派生结果。Path 为实际使用的路径，发生跳过时与请求的路径不同。
type KeyPair struct {
	Path DerivationPath
	priv *btcec.PrivateKey
	pub  []byte
}

func (kp *KeyPair) PrivateKey() *btcec.PrivateKey {
	return kp.priv
}

// PublicKey 返回压缩公钥的副本
func (kp *KeyPair) PublicKey() []byte {
	out := make([]byte, len(kp.pub))
	copy(out, kp.pub)
	return out
}

// Zero 清除私钥
func (kp *KeyPair) Zero() {
	if kp != nil && kp.priv != nil {
		kp.priv.Zero()
		kp.priv = nil
	}
}

// DerivePath 从种子出发沿路径派生密钥对，中间密钥随即清除
func DerivePath(seed []byte, path DerivationPath) (*KeyPair, error) {
	master, err := MasterKey(seed)
	if err != nil {
		return nil, err
	}
	return deriveFrom(master, path)
}

// deriveFrom 会清除 start 以及所有中间密钥
func deriveFrom(start *ExtendedKey, path DerivationPath) (*KeyPair, error) {
	current := start
	defer func() { current.Zero() }()

	used := make(DerivationPath, 0, len(path))
	for _, seg := range path {
		child, index, err := current.DeriveChild(seg.Index, seg.Hardened)
		if err != nil {
			return nil, err
		}
		current.Zero()
		current = child
		used = append(used, PathSegment{Index: index, Hardened: seg.Hardened})
	}

	priv, err := current.PrivateKey()
	if err != nil {
		return nil, err
	}
	return &KeyPair{
		Path: used,
		priv: priv,
		pub:  priv.PubKey().SerializeCompressed(),
	}, nil
}

// Wallet 实现 HDWallet 接口，持有主密钥
type Wallet struct {
	masterKey *ExtendedKey
	seed      []byte
}

// NewMasterKeyFromSeed 使用 BIP-39 种子创建钱包
func NewMasterKeyFromSeed(seed []byte) (*Wallet, error) {
	master, err := MasterKey(seed)
	if err != nil {
		return nil, err
	}
	s := make([]byte, len(seed))
	copy(s, seed)
	return &Wallet{masterKey: master, seed: s}, nil
}

func (w *Wallet) MasterKey() *ExtendedKey {
	return w.masterKey
}

// DerivePath 解析路径并派生密钥对
// 支持格式: m/44'/118'/0'/0/0 或 m/44h/118h/0h/0/0
func (w *Wallet) DerivePath(path string) (*KeyPair, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return w.Derive(p)
}

// Derive 派生已解析的路径
func (w *Wallet) Derive(path DerivationPath) (*KeyPair, error) {
	// deriveFrom 会清除起点，所以每次从种子重建主密钥
	master, err := MasterKey(w.seed)
	if err != nil {
		return nil, err
	}
	return deriveFrom(master, path)
}

// Zero 清除主密钥和种子
func (w *Wallet) Zero() {
	w.masterKey.Zero()
	for i := range w.seed {
		w.seed[i] = 0
	}
}
