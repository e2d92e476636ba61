package tx

import (
	"encoding/json"

	"cosmos-core/pkg/coin"
	"cosmos-core/pkg/errno"
	"cosmos-core/pkg/pbwire"
)

// Msg 交易中的一条消息。内容由调用方决定，这里只负责编码。
type Msg interface {
	// TypeURL protobuf Any 的类型，例如 /cosmos.bank.v1beta1.MsgSend
	TypeURL() string
	// MarshalProto 消息本身的 protobuf 编码
	MarshalProto() ([]byte, error)
	// AminoName legacy-json 模式下的 type 字段，例如 cosmos-sdk/MsgSend
	AminoName() string
	// AminoValue legacy-json 模式下的 value 字段，任何可被 encoding/json 编码的值
	AminoValue() (any, error)
}

// RawMsg 外部已编码好的消息
type RawMsg struct {
	URL   string
	Value []byte
	// Amino 和 AminoJSON 只在 legacy-json 模式下需要
	Amino     string
	AminoJSON json.RawMessage
}

func (m RawMsg) TypeURL() string {
	return m.URL
}

func (m RawMsg) MarshalProto() ([]byte, error) {
	return m.Value, nil
}

func (m RawMsg) AminoName() string {
	return m.Amino
}

func (m RawMsg) AminoValue() (any, error) {
	if m.Amino == "" || len(m.AminoJSON) == 0 {
		return nil, errno.Newf(errno.ErrInvalidTx, "%s has no amino form", m.URL)
	}
	return m.AminoJSON, nil
}

const (
	MsgSendTypeURL = "/cosmos.bank.v1beta1.MsgSend"
	MsgSendAmino   = "cosmos-sdk/MsgSend"
)

// MsgSend cosmos.bank.v1beta1.MsgSend
type MsgSend struct {
	FromAddress string
	ToAddress   string
	Amount      coin.Coins
}

// NewMsgSend 金额会被排序合并
func NewMsgSend(from, to string, amount ...coin.Coin) (*MsgSend, error) {
	coins, err := coin.NewCoins(amount...)
	if err != nil {
		return nil, err
	}
	msg := &MsgSend{FromAddress: from, ToAddress: to, Amount: coins}
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	return msg, nil
}

// ValidateBasic 只检查格式，不涉及链上状态
func (m *MsgSend) ValidateBasic() error {
	if m.FromAddress == "" || m.ToAddress == "" {
		return errno.New(errno.ErrInvalidTx, "missing from or to address")
	}
	if m.Amount.IsZero() {
		return errno.New(errno.ErrInvalidCoin, "send amount is empty")
	}
	return m.Amount.Validate()
}

func (m *MsgSend) TypeURL() string {
	return MsgSendTypeURL
}

func (m *MsgSend) MarshalProto() ([]byte, error) {
	amount, err := coin.NewCoins(m.Amount...)
	if err != nil {
		return nil, err
	}
	var b []byte
	b = pbwire.AppendString(b, 1, m.FromAddress)
	b = pbwire.AppendString(b, 2, m.ToAddress)
	b = appendCoins(b, 3, amount)
	return b, nil
}

func (m *MsgSend) AminoName() string {
	return MsgSendAmino
}

func (m *MsgSend) AminoValue() (any, error) {
	amount, err := coin.NewCoins(m.Amount...)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"from_address": m.FromAddress,
		"to_address":   m.ToAddress,
		"amount":       aminoCoins(amount),
	}, nil
}

type aminoCoin struct {
	Amount string `json:"amount"`
	Denom  string `json:"denom"`
}

// aminoCoins 空集合输出 [] 而不是 null
func aminoCoins(coins coin.Coins) []aminoCoin {
	out := make([]aminoCoin, 0, len(coins))
	for _, c := range coins {
		out = append(out, aminoCoin{Amount: c.AmountString(), Denom: c.Denom})
	}
	return out
}
