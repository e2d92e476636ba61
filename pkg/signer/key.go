package signer

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"

	"cosmos-core/pkg/address"
	"cosmos-core/pkg/bip32"
	"cosmos-core/pkg/bip39"
	"cosmos-core/pkg/errno"
)

// PrivateKey secp256k1 私钥，标量在 [1, n-1]。用完调用 Zero。
type PrivateKey struct {
	key *btcec.PrivateKey
}

// NewPrivateKey 由 32 字节大端标量构造
func NewPrivateKey(raw []byte) (*PrivateKey, error) {
	if len(raw) != btcec.PrivKeyBytesLen {
		return nil, errno.Newf(errno.ErrInvalidPrivKey, "got %d bytes, want %d", len(raw), btcec.PrivKeyBytesLen)
	}
	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(raw); overflow || scalar.IsZero() {
		return nil, errno.New(errno.ErrInvalidPrivKey, "scalar out of range [1, n-1]")
	}
	scalar.Zero()
	key, _ := btcec.PrivKeyFromBytes(raw)
	return &PrivateKey{key: key}, nil
}

// FromKeyPair 接管 bip32 派生出的私钥
func FromKeyPair(kp *bip32.KeyPair) (*PrivateKey, error) {
	if kp == nil || kp.PrivateKey() == nil {
		return nil, errno.New(errno.ErrInvalidPrivKey, "key pair has been zeroed")
	}
	return &PrivateKey{key: kp.PrivateKey()}, nil
}

// PrivateKeyFromSecret 把任意秘密映射到合法私钥: sha256(secret) mod (n-1) + 1
func PrivateKeyFromSecret(secret []byte) *PrivateKey {
	sum := sha256.Sum256(secret)
	nMinus1 := new(big.Int).Sub(btcec.S256().N, big.NewInt(1))

	d := new(big.Int).SetBytes(sum[:])
	d.Mod(d, nMinus1)
	d.Add(d, big.NewInt(1))

	var buf [btcec.PrivKeyBytesLen]byte
	d.FillBytes(buf[:])
	key, _ := btcec.PrivKeyFromBytes(buf[:])
	for i := range buf {
		buf[i] = 0
	}
	return &PrivateKey{key: key}
}

// ParsePrivateKey 接受 64 位十六进制私钥或助记词。
// 助记词时按 passphrase 和 path 派生。
func ParsePrivateKey(text, passphrase string, path bip32.DerivationPath) (*PrivateKey, error) {
	text = strings.TrimSpace(text)
	if len(text) == 2*btcec.PrivKeyBytesLen {
		if raw, err := hex.DecodeString(text); err == nil {
			defer zeroBytes(raw)
			return NewPrivateKey(raw)
		}
	}

	seed, err := bip39.SeedFromPhrase(text, passphrase)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(seed)

	kp, err := bip32.DerivePath(seed, path)
	if err != nil {
		return nil, err
	}
	return FromKeyPair(kp)
}

func (k *PrivateKey) valid() bool {
	return k != nil && k.key != nil
}

// PubKey 33 字节压缩公钥
func (k *PrivateKey) PubKey() []byte {
	if !k.valid() {
		return nil
	}
	return k.key.PubKey().SerializeCompressed()
}

// Address 私钥对应的账户地址
func (k *PrivateKey) Address(hrp string) (address.Address, error) {
	if !k.valid() {
		return address.Address{}, errno.New(errno.ErrInvalidPrivKey, "key has been zeroed")
	}
	return address.FromPublicKey(k.PubKey(), hrp)
}

// Bytes 32 字节标量的副本，调用方负责清除
func (k *PrivateKey) Bytes() []byte {
	if !k.valid() {
		return nil
	}
	return k.key.Serialize()
}

// Zero 清除标量，之后不可再用于签名
func (k *PrivateKey) Zero() {
	if k.valid() {
		k.key.Zero()
		k.key = nil
	}
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
