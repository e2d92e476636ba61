package node

import (
	"strings"

	"cosmos-core/pkg/coin"
	"cosmos-core/pkg/errno"
)

const sdkCodespace = "sdk"

// cosmos-sdk types/errors 中注册的错误码
var sdkErrors = map[uint32]string{
	2:  "tx parse error",
	3:  "invalid sequence",
	4:  "unauthorized",
	5:  "insufficient funds",
	6:  "unknown request",
	7:  "invalid address",
	8:  "invalid pubkey",
	9:  "unknown address",
	10: "invalid coins",
	11: "out of gas",
	12: "memo too large",
	13: "insufficient fee",
	14: "maximum number of signatures exceeded",
	15: "no signatures supplied",
	16: "failed to marshal JSON bytes",
	17: "failed to unmarshal JSON bytes",
	18: "invalid request",
	19: "tx already in mempool",
	20: "mempool is full",
	21: "tx too large",
	22: "key not found",
	23: "invalid account password",
	24: "tx intended signer does not match the given signer",
	25: "invalid gas adjustment",
	26: "invalid height",
	27: "invalid version",
	28: "invalid chain-id",
	29: "invalid type",
	30: "tx timeout height",
	31: "unknown extension options",
	32: "incorrect account sequence",
	33: "failed packing protobuf message to Any",
	34: "failed unpacking protobuf message from Any",
	35: "internal logic error",
	36: "conflict",
	37: "feature not supported",
	38: "not found",
	39: "Internal IO error",
	40: "error in app.toml",
	41: "invalid gas limit",
}

// CheckTxResponse 把非零 code 转成错误。
// 手续费不足和 gas 不足单独分类，调用方可以据此调整后重试。
func CheckTxResponse(resp *TxResponse) error {
	if resp == nil || resp.Code == 0 {
		return nil
	}
	desc := resp.RawLog
	if resp.Codespace == sdkCodespace {
		if name, ok := sdkErrors[resp.Code]; ok && desc == "" {
			desc = name
		}
		switch resp.Code {
		case 13:
			return errno.Newf(errno.ErrInsufficientFee, "tx %s: %s", resp.TxHash, desc)
		case 11:
			return errno.Newf(errno.ErrOutOfGas, "tx %s: %s", resp.TxHash, desc)
		}
	}
	return errno.Newf(errno.ErrTxFailed, "tx %s: codespace=%s code=%d: %s", resp.TxHash, resp.Codespace, resp.Code, desc)
}

// FeeHint 节点拒绝交易时给出的最低要求
type FeeHint struct {
	// MinFees 节点要求的最低手续费，为空表示不是手续费问题
	MinFees coin.Coins
	// GasUsed 执行实际消耗的 gas，超过 gas limit 时非零
	GasUsed uint64
}

// MinFeesAndGas 从失败的响应中提取最低手续费或所需 gas。
// gas 超限优先于手续费判断；无法解析时返回 false。
func MinFeesAndGas(resp *TxResponse) (FeeHint, bool) {
	if resp == nil {
		return FeeHint{}, false
	}
	if resp.GasUsed > resp.GasWanted {
		return FeeHint{GasUsed: uint64(resp.GasUsed)}, true
	}
	if resp.Codespace != sdkCodespace || resp.Code != 13 {
		return FeeHint{}, false
	}

	// "insufficient fees; got: 1uatom required: 5000uatom,10stake: insufficient fee"
	parts := strings.Split(resp.RawLog, ":")
	if len(parts) < 3 {
		return FeeHint{}, false
	}
	fees, err := coin.ParseCoins(parts[2])
	if err != nil || fees.IsZero() {
		return FeeHint{}, false
	}
	return FeeHint{MinFees: fees}, true
}
