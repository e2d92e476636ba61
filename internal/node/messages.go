package node

import (
	"cosmos-core/pkg/errno"
	"cosmos-core/pkg/pbwire"
)

const (
	methodAccount     = "/cosmos.auth.v1beta1.Query/Account"
	methodBroadcastTx = "/cosmos.tx.v1beta1.Service/BroadcastTx"
	methodGetTx       = "/cosmos.tx.v1beta1.Service/GetTx"

	baseAccountTypeURL = "/cosmos.auth.v1beta1.BaseAccount"

	// BROADCAST_MODE_SYNC: 等待 CheckTx 结果
	broadcastModeSync = 2
)

// wrappedAccounts 把 BaseAccount 放在嵌套字段里的账户类型，值为到 BaseAccount 的嵌套层数
// (每层都是 field 1)
var wrappedAccounts = map[string]int{
	"/cosmos.auth.v1beta1.ModuleAccount":               1,
	"/cosmos.vesting.v1beta1.BaseVestingAccount":       1,
	"/cosmos.vesting.v1beta1.ContinuousVestingAccount": 2,
	"/cosmos.vesting.v1beta1.DelayedVestingAccount":    2,
	"/cosmos.vesting.v1beta1.PeriodicVestingAccount":   2,
	"/cosmos.vesting.v1beta1.PermanentLockedAccount":   2,
	"/ethermint.types.v1.EthAccount":                   1,
	"/injective.types.v1beta1.EthAccount":              1,
}

// AccountInfo 签名需要的账户信息
type AccountInfo struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
	// PubKey 链上记录的压缩公钥，首次发送交易前为空
	PubKey []byte
}

// TxResponse cosmos.base.abci.v1beta1.TxResponse 中用到的字段
type TxResponse struct {
	Height    int64
	TxHash    string
	Codespace string
	Code      uint32
	Data      string
	RawLog    string
	Info      string
	GasWanted int64
	GasUsed   int64
	Timestamp string
}

func encodeAccountRequest(address string) []byte {
	return pbwire.AppendString(nil, 1, address)
}

func encodeBroadcastRequest(txBytes []byte) []byte {
	var b []byte
	b = pbwire.AppendBytes(b, 1, txBytes)
	b = pbwire.AppendUvarint(b, 2, broadcastModeSync)
	return b
}

func encodeGetTxRequest(hash string) []byte {
	return pbwire.AppendString(nil, 1, hash)
}

// decodeAccountResponse QueryAccountResponse{account: Any}
func decodeAccountResponse(data []byte) (*AccountInfo, error) {
	anyBytes, err := bytesField(data, 1)
	if err != nil {
		return nil, err
	}
	typeURL, value, err := decodeAny(anyBytes)
	if err != nil {
		return nil, err
	}

	if typeURL != baseAccountTypeURL {
		depth, ok := wrappedAccounts[typeURL]
		if !ok {
			return nil, errno.Newf(errno.ErrMalformedEncoding, "unsupported account type %q", typeURL)
		}
		for i := 0; i < depth; i++ {
			if value, err = bytesField(value, 1); err != nil {
				return nil, err
			}
		}
	}
	return decodeBaseAccount(value)
}

// decodeBaseAccount BaseAccount{address, pub_key, account_number, sequence}
func decodeBaseAccount(data []byte) (*AccountInfo, error) {
	var info AccountInfo
	err := pbwire.Walk(data, func(f pbwire.Field) error {
		switch f.Num {
		case 1:
			info.Address = string(f.Bytes)
		case 2:
			_, value, err := decodeAny(f.Bytes)
			if err != nil {
				return err
			}
			key, err := bytesField(value, 1)
			if err != nil {
				return err
			}
			info.PubKey = key
		case 3:
			info.AccountNumber = f.Varint
		case 4:
			info.Sequence = f.Varint
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// decodeBroadcastResponse BroadcastTxResponse{tx_response = 1}
func decodeBroadcastResponse(data []byte) (*TxResponse, error) {
	resp, err := bytesField(data, 1)
	if err != nil {
		return nil, err
	}
	return decodeTxResponse(resp)
}

// decodeGetTxResponse GetTxResponse{tx = 1, tx_response = 2}
func decodeGetTxResponse(data []byte) (*TxResponse, error) {
	resp, err := bytesField(data, 2)
	if err != nil {
		return nil, err
	}
	return decodeTxResponse(resp)
}

func decodeTxResponse(data []byte) (*TxResponse, error) {
	var r TxResponse
	err := pbwire.Walk(data, func(f pbwire.Field) error {
		switch f.Num {
		case 1:
			r.Height = int64(f.Varint)
		case 2:
			r.TxHash = string(f.Bytes)
		case 3:
			r.Codespace = string(f.Bytes)
		case 4:
			r.Code = uint32(f.Varint)
		case 5:
			r.Data = string(f.Bytes)
		case 6:
			r.RawLog = string(f.Bytes)
		case 8:
			r.Info = string(f.Bytes)
		case 9:
			r.GasWanted = int64(f.Varint)
		case 10:
			r.GasUsed = int64(f.Varint)
		case 12:
			r.Timestamp = string(f.Bytes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func decodeAny(data []byte) (string, []byte, error) {
	var typeURL string
	var value []byte
	err := pbwire.Walk(data, func(f pbwire.Field) error {
		switch f.Num {
		case 1:
			typeURL = string(f.Bytes)
		case 2:
			value = f.Bytes
		}
		return nil
	})
	return typeURL, value, err
}

// bytesField 取第一个指定字段号的长度前缀字段，缺失时返回空
func bytesField(data []byte, num pbwire.Number) ([]byte, error) {
	var out []byte
	found := false
	err := pbwire.Walk(data, func(f pbwire.Field) error {
		if !found && f.Num == num && f.IsBytes() {
			out = f.Bytes
			found = true
		}
		return nil
	})
	return out, err
}
