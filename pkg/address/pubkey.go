package address

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"

	"cosmos-core/pkg/errno"
)

// aminoPubKeyPrefix amino 编码的 secp256k1 公钥前缀 (tendermint/PubKeySecp256k1)
var aminoPubKeyPrefix = []byte{0xeb, 0x5a, 0xe9, 0x87, 0x21}

// PubKeyBech32 把压缩公钥编码为 amino bech32，例如 cosmospub1addwnpep...
func PubKeyBech32(compressed []byte, hrp string) (string, error) {
	if _, err := btcec.ParsePubKey(compressed); err != nil || len(compressed) != btcec.PubKeyBytesLenCompressed {
		return "", errno.Newf(errno.ErrInvalidPubKey, "want %d byte compressed key", btcec.PubKeyBytesLenCompressed)
	}
	payload := make([]byte, 0, len(aminoPubKeyPrefix)+len(compressed))
	payload = append(payload, aminoPubKeyPrefix...)
	payload = append(payload, compressed...)
	return EncodeData(hrp, payload)
}

// PubKeyFromBech32 PubKeyBech32 的逆操作
func PubKeyFromBech32(text, expectedHRP string) ([]byte, error) {
	hrp, data, err := DecodeData(text)
	if err != nil {
		return nil, err
	}
	if hrp != expectedHRP {
		return nil, errno.Newf(errno.ErrUnknownHRP, "got %q, want %q", hrp, expectedHRP)
	}
	if !bytes.HasPrefix(data, aminoPubKeyPrefix) {
		return nil, errno.New(errno.ErrInvalidPubKey, "missing amino secp256k1 prefix")
	}
	return compressPubKey(data[len(aminoPubKeyPrefix):])
}

// ParsePubKey 接受 amino bech32、hex 或 base64 编码的公钥，返回压缩形式
func ParsePubKey(text, pubHRP string) ([]byte, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return nil, errno.New(errno.ErrInvalidPubKey, "empty")
	case strings.HasPrefix(strings.ToLower(text), pubHRP+"1"):
		return PubKeyFromBech32(text, pubHRP)
	}

	if raw, err := hex.DecodeString(text); err == nil {
		return compressPubKey(raw)
	}
	if raw, err := base64.StdEncoding.DecodeString(text); err == nil {
		return compressPubKey(raw)
	}
	return nil, errno.New(errno.ErrInvalidPubKey, "not bech32, hex or base64")
}

// compressPubKey 校验点在曲线上，并统一为 33 字节压缩格式
func compressPubKey(raw []byte) ([]byte, error) {
	pub, err := btcec.ParsePubKey(raw)
	if err != nil {
		return nil, errno.Wrap(errno.ErrInvalidPubKey, err, "")
	}
	return pub.SerializeCompressed(), nil
}
