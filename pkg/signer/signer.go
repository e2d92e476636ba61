package signer

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"cosmos-core/pkg/bip32"
	"cosmos-core/pkg/errno"
	"cosmos-core/pkg/tx"
)

// SignatureSize r‖s
const SignatureSize = 64

// Signature 64 字节紧凑签名 r‖s，s 为低半区
type Signature [SignatureSize]byte

func (s Signature) Bytes() []byte {
	return s[:]
}

func (s Signature) String() string {
	return hex.EncodeToString(s[:])
}

// SignatureFromBytes 解析 64 字节签名
func SignatureFromBytes(b []byte) (Signature, error) {
	var sig Signature
	if len(b) != SignatureSize {
		return sig, errno.Newf(errno.ErrInvalidSignature, "got %d bytes, want %d", len(b), SignatureSize)
	}
	copy(sig[:], b)
	return sig, nil
}

// Sign 对 32 字节摘要做 RFC6979 确定性 ECDSA 签名
func Sign(key *PrivateKey, digest [32]byte) (Signature, error) {
	var sig Signature
	if !key.valid() {
		return sig, errno.New(errno.ErrInvalidPrivKey, "key has been zeroed")
	}
	// SignCompact 输出 恢复字节‖r‖s，s 已规范为低半区
	compact := ecdsa.SignCompact(key.key, digest[:], true)
	copy(sig[:], compact[1:])
	return sig, nil
}

// Verify 验证签名。高半区的 s、越界的 r/s 以及无效公钥都返回 false。
func Verify(pubKey []byte, digest [32]byte, sig Signature) bool {
	pub, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return false
	}

	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow || r.IsZero() {
		return false
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow || s.IsZero() {
		return false
	}
	if s.IsOverHalfOrder() {
		return false
	}
	return ecdsa.NewSignature(&r, &s).Verify(digest[:], pub)
}

// SignDoc 签名前检查私钥与文档中的公钥一致
func SignDoc(key *PrivateKey, doc *tx.SignDoc) (Signature, error) {
	if !key.valid() {
		return Signature{}, errno.New(errno.ErrInvalidPrivKey, "key has been zeroed")
	}
	if !bytes.Equal(key.PubKey(), doc.Signer().PubKey) {
		return Signature{}, errno.New(errno.ErrInvalidPrivKey, "key does not match sign doc public key")
	}
	return Sign(key, tx.Digest(doc))
}

// AssembleSignedTx 组装可广播的 TxRaw。
// 签名数必须与签名者数一致，且每个签名都能被文档中的公钥验证。
func AssembleSignedTx(doc *tx.SignDoc, sigs ...Signature) ([]byte, error) {
	if len(sigs) != 1 {
		return nil, errno.Newf(errno.ErrInvalidSignature, "got %d signatures for 1 signer", len(sigs))
	}
	digest := tx.Digest(doc)
	if !Verify(doc.Signer().PubKey, digest, sigs[0]) {
		return nil, errno.New(errno.ErrInvalidSignature, "signature does not verify")
	}

	raw := &tx.TxRaw{
		BodyBytes:     doc.BodyBytes(),
		AuthInfoBytes: doc.AuthInfoBytes(),
		Signatures:    [][]byte{sigs[0].Bytes()},
	}
	return raw.Marshal(), nil
}

// WithKey 派生私钥并在 fn 返回后清除，包括出错和 panic 的情况
func WithKey(seed []byte, path bip32.DerivationPath, fn func(*PrivateKey) error) error {
	kp, err := bip32.DerivePath(seed, path)
	if err != nil {
		return err
	}
	defer kp.Zero()

	key, err := FromKeyPair(kp)
	if err != nil {
		return err
	}
	defer key.Zero()

	return fn(key)
}
