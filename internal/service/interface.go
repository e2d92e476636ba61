package service

import (
	"context"

	"cosmos-core/internal/node"
	"cosmos-core/pkg/coin"
	"cosmos-core/pkg/wallet/types"
)

// SignerService 单账户的签名和发送流程
type SignerService interface {
	// Address 返回配置路径对应的 bech32 地址
	Address(ctx context.Context) (string, error)

	// BuildUnsigned 查询账户状态并构造待签名交易 (Online)。
	// from 为空时使用本地密钥的地址，否则不接触密钥。
	BuildUnsigned(ctx context.Context, from, to string, amount coin.Coins, memo string) (*types.UnsignedTransaction, error)

	// SignOffline 用交易中给出的 account number 和 sequence 签名，不访问节点
	SignOffline(ctx context.Context, unsigned *types.UnsignedTransaction) (*types.SignedTransaction, error)

	// Broadcast 广播已签名交易并检查 CheckTx 结果
	Broadcast(ctx context.Context, signed *types.SignedTransaction) (*node.TxResponse, error)

	// Send 查询账户、签名、广播，按配置等待上链
	Send(ctx context.Context, to string, amount coin.Coins, memo string) (*SendResult, error)
}

// NodeClient internal/node.Client 中用到的部分
type NodeClient interface {
	Account(ctx context.Context, address string) (*node.AccountInfo, error)
	Broadcast(ctx context.Context, txBytes []byte) (*node.TxResponse, error)
	WaitForTx(ctx context.Context, hash string) (*node.TxResponse, error)
}

var _ NodeClient = (*node.Client)(nil)

// SendResult Send 的结果。Response 为广播或上链后的响应。
type SendResult struct {
	Signed   *types.SignedTransaction
	Response *node.TxResponse
}
