package node

import (
	"context"
	"errors"
	"time"

	"cosmos-core/pkg/errno"
	"cosmos-core/pkg/logger"
	"cosmos-core/pkg/monitor"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

const defaultPollInterval = time.Second

// Client 节点 gRPC 客户端。只做单次请求，不重试。
type Client struct {
	conn         *grpc.ClientConn
	timeout      time.Duration
	pollInterval time.Duration
	log          *zap.Logger
}

// Option 配置 Client
type Option func(*Client)

// WithTimeout 单次请求超时，0 表示只受调用方 ctx 控制
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithPollInterval WaitForTx 的轮询间隔
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// New 连接节点的 gRPC 端口 (明文，一般是 localhost:9090)
func New(addr string, opts ...Option) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(monitor.UnaryClientInterceptor()),
	)
	if err != nil {
		return nil, errno.Wrap(errno.ErrNodeUnavailable, err, addr)
	}
	return NewWithConn(conn, opts...), nil
}

// NewWithConn 复用已有连接，Close 时会关闭它
func NewWithConn(conn *grpc.ClientConn, opts ...Option) *Client {
	c := &Client{
		conn:         conn,
		pollInterval: defaultPollInterval,
		log:          logger.Named("node"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.conn.Close()
}

// Account 查询账户的 account number 和 sequence
func (c *Client) Account(ctx context.Context, address string) (*AccountInfo, error) {
	reply, err := c.invoke(ctx, methodAccount, encodeAccountRequest(address))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errno.Wrap(errno.ErrAccountNotFound, err, address)
		}
		return nil, err
	}
	info, err := decodeAccountResponse(reply)
	if err != nil {
		return nil, err
	}
	c.log.Debug("account loaded",
		zap.String("address", address),
		zap.Uint64("account_number", info.AccountNumber),
		zap.Uint64("sequence", info.Sequence),
	)
	return info, nil
}

// Broadcast 以 SYNC 模式广播 TxRaw 字节，返回 CheckTx 结果。
// 非零 code 不作为错误返回，由调用方用 CheckTxResponse 判断。
func (c *Client) Broadcast(ctx context.Context, txBytes []byte) (*TxResponse, error) {
	reply, err := c.invoke(ctx, methodBroadcastTx, encodeBroadcastRequest(txBytes))
	if err != nil {
		return nil, err
	}
	resp, err := decodeBroadcastResponse(reply)
	if err != nil {
		return nil, err
	}
	c.log.Info("tx broadcast",
		zap.String("txhash", resp.TxHash),
		zap.Uint32("code", resp.Code),
		zap.String("codespace", resp.Codespace),
	)
	return resp, nil
}

// GetTx 按哈希查询已上链的交易
func (c *Client) GetTx(ctx context.Context, hash string) (*TxResponse, error) {
	reply, err := c.invoke(ctx, methodGetTx, encodeGetTxRequest(hash))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errno.Wrap(errno.ErrTxNotFound, err, hash)
		}
		return nil, err
	}
	return decodeGetTxResponse(reply)
}

// WaitForTx 轮询直到交易上链或 ctx 结束
func (c *Client) WaitForTx(ctx context.Context, hash string) (*TxResponse, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		resp, err := c.GetTx(ctx, hash)
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, errno.ErrTxNotFound) {
			return nil, err
		}
		c.log.Debug("tx not yet included", zap.String("txhash", hash))

		select {
		case <-ctx.Done():
			return nil, errno.Wrap(errno.ErrTxNotFound, ctx.Err(), hash)
		case <-ticker.C:
		}
	}
}

func (c *Client) invoke(ctx context.Context, method string, req []byte) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	reply := new(rawMessage)
	err := c.conn.Invoke(ctx, method, &rawMessage{data: req}, reply, grpc.ForceCodec(rawCodec{}))
	if err != nil {
		switch status.Code(err) {
		case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
			c.log.Warn("node request failed", zap.String("method", method), zap.Error(err))
			return nil, errno.Wrap(errno.ErrNodeUnavailable, err, method)
		}
		return nil, err
	}
	return reply.data, nil
}
