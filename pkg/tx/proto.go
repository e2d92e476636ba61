package tx

import (
	"cosmos-core/pkg/coin"
	"cosmos-core/pkg/errno"
	"cosmos-core/pkg/pbwire"
)

// SecpPubKeyTypeURL secp256k1 公钥的 Any 类型
const SecpPubKeyTypeURL = "/cosmos.crypto.secp256k1.PubKey"

// marshalAny google.protobuf.Any
func marshalAny(typeURL string, value []byte) []byte {
	var b []byte
	b = pbwire.AppendString(b, 1, typeURL)
	b = pbwire.AppendBytes(b, 2, value)
	return b
}

// marshalCoin cosmos.base.v1beta1.Coin，amount 为十进制字符串
func marshalCoin(c coin.Coin) []byte {
	var b []byte
	b = pbwire.AppendString(b, 1, c.Denom)
	b = pbwire.AppendString(b, 2, c.AmountString())
	return b
}

func appendCoins(b []byte, num pbwire.Number, coins coin.Coins) []byte {
	for _, c := range coins {
		b = pbwire.AppendMessage(b, num, marshalCoin(c))
	}
	return b
}

func marshalPubKeyAny(compressed []byte) []byte {
	var key []byte
	key = pbwire.AppendBytes(key, 1, compressed)
	return marshalAny(SecpPubKeyTypeURL, key)
}

// marshalBody cosmos.tx.v1beta1.TxBody
func marshalBody(body Body) ([]byte, error) {
	var b []byte
	for i, msg := range body.Messages {
		if msg.TypeURL() == "" {
			return nil, errno.Newf(errno.ErrInvalidTx, "message %d has no type url", i)
		}
		value, err := msg.MarshalProto()
		if err != nil {
			return nil, errno.Wrapf(errno.ErrInvalidTx, err, "message %d %s", i, msg.TypeURL())
		}
		b = pbwire.AppendMessage(b, 1, marshalAny(msg.TypeURL(), value))
	}
	b = pbwire.AppendString(b, 2, body.Memo)
	b = pbwire.AppendUvarint(b, 3, body.TimeoutHeight)
	return b, nil
}

// marshalFee cosmos.tx.v1beta1.Fee
func marshalFee(fee Fee) []byte {
	var b []byte
	b = appendCoins(b, 1, fee.Amount)
	b = pbwire.AppendUvarint(b, 2, fee.GasLimit)
	b = pbwire.AppendString(b, 3, fee.Payer)
	b = pbwire.AppendString(b, 4, fee.Granter)
	return b
}

// marshalAuthInfo cosmos.tx.v1beta1.AuthInfo，单签名者
func marshalAuthInfo(signer SignerData, fee Fee, mode SignMode) []byte {
	var single []byte
	single = pbwire.AppendUvarint(single, 1, mode.protoValue())
	var modeInfo []byte
	modeInfo = pbwire.AppendMessage(modeInfo, 1, single)

	var info []byte
	info = pbwire.AppendMessage(info, 1, marshalPubKeyAny(signer.PubKey))
	info = pbwire.AppendMessage(info, 2, modeInfo)
	info = pbwire.AppendUvarint(info, 3, signer.Sequence)

	var b []byte
	b = pbwire.AppendMessage(b, 1, info)
	b = pbwire.AppendMessage(b, 2, marshalFee(fee))
	return b
}

// marshalDirectSignDoc cosmos.tx.v1beta1.SignDoc
func marshalDirectSignDoc(bodyBytes, authInfoBytes []byte, chainID string, accountNumber uint64) []byte {
	var b []byte
	b = pbwire.AppendBytes(b, 1, bodyBytes)
	b = pbwire.AppendBytes(b, 2, authInfoBytes)
	b = pbwire.AppendString(b, 3, chainID)
	b = pbwire.AppendUvarint(b, 4, accountNumber)
	return b
}

// TxRaw cosmos.tx.v1beta1.TxRaw，广播用的签名交易
type TxRaw struct {
	BodyBytes     []byte
	AuthInfoBytes []byte
	Signatures    [][]byte
}

// Marshal 编码为 protobuf
func (t *TxRaw) Marshal() []byte {
	var b []byte
	b = pbwire.AppendBytes(b, 1, t.BodyBytes)
	b = pbwire.AppendBytes(b, 2, t.AuthInfoBytes)
	for _, sig := range t.Signatures {
		b = pbwire.AppendRepeatedBytes(b, 3, sig)
	}
	return b
}

// UnmarshalTxRaw 解码 TxRaw，未知字段忽略
func UnmarshalTxRaw(data []byte) (*TxRaw, error) {
	var t TxRaw
	err := pbwire.Walk(data, func(f pbwire.Field) error {
		if !f.IsBytes() {
			return nil
		}
		switch f.Num {
		case 1:
			t.BodyBytes = f.Bytes
		case 2:
			t.AuthInfoBytes = f.Bytes
		case 3:
			t.Signatures = append(t.Signatures, f.Bytes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(t.BodyBytes) == 0 || len(t.AuthInfoBytes) == 0 {
		return nil, errno.New(errno.ErrInvalidTx, "missing body or auth info")
	}
	return &t, nil
}

// FeeFromAuthInfo 从 AuthInfo 编码中取出手续费
func FeeFromAuthInfo(authInfo []byte) (Fee, error) {
	var fee Fee
	var coins []coin.Coin
	err := pbwire.Walk(authInfo, func(f pbwire.Field) error {
		if f.Num != 2 || !f.IsBytes() {
			return nil
		}
		return pbwire.Walk(f.Bytes, func(ff pbwire.Field) error {
			switch ff.Num {
			case 1:
				c, err := unmarshalCoin(ff.Bytes)
				if err != nil {
					return err
				}
				coins = append(coins, c)
			case 2:
				fee.GasLimit = ff.Varint
			case 3:
				fee.Payer = string(ff.Bytes)
			case 4:
				fee.Granter = string(ff.Bytes)
			}
			return nil
		})
	})
	if err != nil {
		return Fee{}, err
	}
	if fee.Amount, err = coin.NewCoins(coins...); err != nil {
		return Fee{}, err
	}
	return fee, nil
}

// unmarshalCoin cosmos.base.v1beta1.Coin{denom, amount}
func unmarshalCoin(data []byte) (coin.Coin, error) {
	var denom, amount string
	err := pbwire.Walk(data, func(f pbwire.Field) error {
		switch f.Num {
		case 1:
			denom = string(f.Bytes)
		case 2:
			amount = string(f.Bytes)
		}
		return nil
	})
	if err != nil {
		return coin.Coin{}, err
	}
	return coin.ParseCoin(amount + denom)
}
