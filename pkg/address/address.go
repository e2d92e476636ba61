package address

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"

	"cosmos-core/pkg/errno"
)

const (
	// DigestSize 账户地址长度，RIPEMD160(SHA256(pubkey))
	DigestSize = 20
	// ModuleAddrSize 模块账户和 ICA 使用的 32 字节地址
	ModuleAddrSize = 32
)

// Address 带 HRP 的账户地址
type Address struct {
	hrp  string
	data []byte
}

// FromPublicKey 由 33 字节压缩公钥计算地址
func FromPublicKey(compressed []byte, hrp string) (Address, error) {
	if len(compressed) != btcec.PubKeyBytesLenCompressed {
		return Address{}, errno.Newf(errno.ErrInvalidPubKey, "got %d bytes, want %d", len(compressed), btcec.PubKeyBytesLenCompressed)
	}
	if _, err := btcec.ParsePubKey(compressed); err != nil {
		return Address{}, errno.Wrap(errno.ErrInvalidPubKey, err, "")
	}
	if err := checkHRP(hrp); err != nil {
		return Address{}, err
	}
	return Address{hrp: hrp, data: btcutil.Hash160(compressed)}, nil
}

// FromBytes 用已有的摘要构造地址
func FromBytes(hrp string, data []byte) (Address, error) {
	if err := checkHRP(hrp); err != nil {
		return Address{}, err
	}
	if len(data) != DigestSize && len(data) != ModuleAddrSize {
		return Address{}, errno.Newf(errno.ErrInvalidLength, "got %d bytes", len(data))
	}
	return Address{hrp: hrp, data: bytes.Clone(data)}, nil
}

// Decode 解析 bech32 地址并检查 HRP
func Decode(text, expectedHRP string) (Address, error) {
	hrp, data, err := DecodeData(text)
	if err != nil {
		return Address{}, err
	}
	if hrp != expectedHRP {
		return Address{}, errno.Newf(errno.ErrUnknownHRP, "got %q, want %q", hrp, expectedHRP)
	}
	if len(data) != DigestSize && len(data) != ModuleAddrSize {
		return Address{}, errno.Newf(errno.ErrInvalidLength, "got %d bytes", len(data))
	}
	return Address{hrp: hrp, data: data}, nil
}

func (a Address) HRP() string {
	return a.hrp
}

// Bytes 返回地址摘要的副本
func (a Address) Bytes() []byte {
	return bytes.Clone(a.data)
}

func (a Address) Empty() bool {
	return len(a.data) == 0
}

func (a Address) Equal(other Address) bool {
	return a.hrp == other.hrp && bytes.Equal(a.data, other.data)
}

// WithHRP 换前缀，例如 cosmos -> cosmosvaloper
func (a Address) WithHRP(hrp string) (Address, error) {
	return FromBytes(hrp, a.data)
}

// String 返回小写 bech32 编码
func (a Address) String() string {
	if a.Empty() {
		return ""
	}
	s, err := EncodeData(a.hrp, a.data)
	if err != nil {
		// hrp 和长度在构造时已校验
		panic(err)
	}
	return s
}

// Encode 同 String，保留显式的错误返回
func (a Address) Encode() (string, error) {
	if a.Empty() {
		return "", errno.New(errno.ErrInvalidLength, "empty address")
	}
	return EncodeData(a.hrp, a.data)
}

// EncodeData 将任意字节编码为 bech32 (BIP-173 多项式)
func EncodeData(hrp string, data []byte) (string, error) {
	if err := checkHRP(hrp); err != nil {
		return "", err
	}
	conv, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		return "", errno.Wrap(errno.ErrMalformedEncoding, err, "regroup to 5 bits")
	}
	s, err := bech32.Encode(hrp, conv)
	if err != nil {
		return "", mapBech32Error(err)
	}
	return s, nil
}

// DecodeData 解析 bech32 字符串，返回小写 HRP 和 8-bit 数据。
// 大小写混合的输入被拒绝，全大写的输入按小写处理。
func DecodeData(text string) (string, []byte, error) {
	hrp, data, version, err := bech32.DecodeGeneric(text)
	if err != nil {
		return "", nil, mapBech32Error(err)
	}
	if version != bech32.Version0 {
		return "", nil, errno.New(errno.ErrAddressChecksum, "bech32m checksum not accepted")
	}
	conv, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, errno.Wrap(errno.ErrInvalidLength, err, "regroup to 8 bits")
	}
	return hrp, conv, nil
}

func checkHRP(hrp string) error {
	if hrp == "" {
		return errno.New(errno.ErrUnknownHRP, "empty prefix")
	}
	for i := 0; i < len(hrp); i++ {
		c := hrp[i]
		if c < 33 || c > 126 || (c >= 'A' && c <= 'Z') {
			return errno.Newf(errno.ErrUnknownHRP, "invalid prefix %q", hrp)
		}
	}
	return nil
}

// mapBech32Error 把 bech32 库的错误归类到地址错误码
func mapBech32Error(err error) error {
	var (
		checksum   bech32.ErrInvalidChecksum
		nonCharset bech32.ErrNonCharsetChar
		badChar    bech32.ErrInvalidCharacter
		mixed      bech32.ErrMixedCase
		length     bech32.ErrInvalidLength
		sep        bech32.ErrInvalidSeparatorIndex
	)
	switch {
	case errors.As(err, &checksum):
		return errno.Wrap(errno.ErrAddressChecksum, err, "")
	case errors.As(err, &nonCharset), errors.As(err, &badChar), errors.As(err, &mixed):
		return errno.Wrap(errno.ErrInvalidCharacter, err, "")
	case errors.As(err, &length), errors.As(err, &sep):
		return errno.Wrap(errno.ErrInvalidLength, err, "")
	default:
		return errno.Wrap(errno.ErrMalformedEncoding, err, fmt.Sprintf("%T", err))
	}
}

// Codec 绑定了 HRP 的编解码器，HRP 来自配置
type Codec struct {
	HRP string
}

func NewCodec(hrp string) Codec {
	return Codec{HRP: hrp}
}

func (c Codec) FromPublicKey(compressed []byte) (Address, error) {
	return FromPublicKey(compressed, c.HRP)
}

func (c Codec) Decode(text string) (Address, error) {
	return Decode(text, c.HRP)
}

// PubKeyHRP 账户公钥的 amino bech32 前缀，例如 cosmospub
func (c Codec) PubKeyHRP() string {
	return c.HRP + "pub"
}

// ValidatorHRP 验证人操作地址前缀，例如 cosmosvaloper
func (c Codec) ValidatorHRP() string {
	return c.HRP + "valoper"
}
