package tx

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"

	"cosmos-core/pkg/coin"
	"cosmos-core/pkg/dec"
	"cosmos-core/pkg/errno"
)

// SignerData 签名者在链上的信息，由调用方查询后传入
type SignerData struct {
	ChainID       string
	AccountNumber uint64
	Sequence      uint64
	// PubKey 33 字节压缩公钥
	PubKey []byte
}

// Body 交易内容
type Body struct {
	Messages      []Msg
	Memo          string
	TimeoutHeight uint64
}

// Fee 手续费。Amount 在构造 SignDoc 时会被排序。
type Fee struct {
	Amount   coin.Coins
	GasLimit uint64
	Payer    string
	Granter  string
}

// FeeFromGasPrice fee = ceil(gasLimit × price)
func FeeFromGasPrice(gasLimit uint64, price dec.Dec, denom string) (Fee, error) {
	if price.IsNegative() {
		return Fee{}, errno.Newf(errno.ErrNegativeAmount, "gas price %s", price)
	}
	amount := price.MulInt(new(big.Int).SetUint64(gasLimit)).CeilInt()
	c, err := coin.NewCoin(denom, amount)
	if err != nil {
		return Fee{}, err
	}
	coins, err := coin.NewCoins(c)
	if err != nil {
		return Fee{}, err
	}
	return Fee{Amount: coins, GasLimit: gasLimit}, nil
}

// SignDoc 待签名的规范字节，构造后不可修改
type SignDoc struct {
	mode          SignMode
	signBytes     []byte
	bodyBytes     []byte
	authInfoBytes []byte
	signer        SignerData
}

// BuildSignDoc 构造规范的待签名文档。
// 相同输入总是得到相同字节：币种按 denom 排序，protobuf 按字段号顺序输出，JSON 按键排序。
func BuildSignDoc(signer SignerData, body Body, fee Fee, mode SignMode) (*SignDoc, error) {
	if !mode.valid() {
		return nil, errno.Newf(errno.ErrInvalidSignMode, "%d", int(mode))
	}
	if signer.ChainID == "" {
		return nil, errno.New(errno.ErrInvalidTx, "empty chain id")
	}
	if len(signer.PubKey) != btcec.PubKeyBytesLenCompressed {
		return nil, errno.Newf(errno.ErrInvalidPubKey, "got %d bytes, want compressed key", len(signer.PubKey))
	}
	if _, err := btcec.ParsePubKey(signer.PubKey); err != nil {
		return nil, errno.Wrap(errno.ErrInvalidPubKey, err, "")
	}
	if len(body.Messages) == 0 {
		return nil, errno.New(errno.ErrInvalidTx, "no messages")
	}

	amount, err := coin.NewCoins(fee.Amount...)
	if err != nil {
		return nil, err
	}
	fee.Amount = amount
	signer.PubKey = bytes.Clone(signer.PubKey)

	bodyBytes, err := marshalBody(body)
	if err != nil {
		return nil, err
	}
	authInfoBytes := marshalAuthInfo(signer, fee, mode)

	doc := &SignDoc{
		mode:          mode,
		bodyBytes:     bodyBytes,
		authInfoBytes: authInfoBytes,
		signer:        signer,
	}
	switch mode {
	case SignModeDirect:
		doc.signBytes = marshalDirectSignDoc(bodyBytes, authInfoBytes, signer.ChainID, signer.AccountNumber)
	case SignModeLegacyJSON:
		doc.signBytes, err = marshalLegacySignDoc(signer, body, fee)
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (d *SignDoc) Mode() SignMode {
	return d.mode
}

// Bytes 待签名字节的副本
func (d *SignDoc) Bytes() []byte {
	return bytes.Clone(d.signBytes)
}

// BodyBytes TxBody 的 protobuf 编码，两种模式下都用于组装 TxRaw
func (d *SignDoc) BodyBytes() []byte {
	return bytes.Clone(d.bodyBytes)
}

// AuthInfoBytes AuthInfo 的 protobuf 编码
func (d *SignDoc) AuthInfoBytes() []byte {
	return bytes.Clone(d.authInfoBytes)
}

func (d *SignDoc) Signer() SignerData {
	s := d.signer
	s.PubKey = bytes.Clone(s.PubKey)
	return s
}

// Digest 待签名字节的 SHA-256
func Digest(doc *SignDoc) [32]byte {
	return sha256.Sum256(doc.signBytes)
}

// TxHash 交易哈希：TxRaw 字节的 SHA-256，大写十六进制
func TxHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
