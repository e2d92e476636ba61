package service

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"math/big"
	"time"

	"go.uber.org/zap"

	"cosmos-core/internal/node"
	"cosmos-core/pkg/address"
	"cosmos-core/pkg/bip32"
	"cosmos-core/pkg/coin"
	"cosmos-core/pkg/config"
	"cosmos-core/pkg/dec"
	"cosmos-core/pkg/errno"
	"cosmos-core/pkg/logger"
	"cosmos-core/pkg/monitor"
	"cosmos-core/pkg/signer"
	"cosmos-core/pkg/tx"
	"cosmos-core/pkg/wallet/types"
)

type signerService struct {
	chainID   string
	codec     address.Codec
	denom     string
	gasLimit  uint64
	gasPrice  dec.Dec
	mode      tx.SignMode
	path      bip32.DerivationPath
	waitForTx bool

	seeds SeedSource
	node  NodeClient
	log   *zap.Logger
}

// NewSignerService 按链配置组装服务。nodeClient 为 nil 时只能离线签名。
func NewSignerService(cfg config.ChainConfig, seeds SeedSource, nodeClient NodeClient) (SignerService, error) {
	if cfg.ChainID == "" {
		return nil, errno.New(errno.ErrInvalidTx, "empty chain id")
	}
	mode, err := tx.ParseSignMode(cfg.SignMode)
	if err != nil {
		return nil, err
	}
	path, err := bip32.ParsePath(cfg.HDPath)
	if err != nil {
		return nil, err
	}
	gasPrice, err := dec.Parse(cfg.GasPrice)
	if err != nil {
		return nil, err
	}
	if err := coin.ValidateDenom(cfg.Denom); err != nil {
		return nil, err
	}
	if seeds == nil {
		return nil, errno.New(errno.ErrInvalidSeed, "no seed source")
	}

	return &signerService{
		chainID:   cfg.ChainID,
		codec:     address.NewCodec(cfg.Bech32Prefix),
		denom:     cfg.Denom,
		gasLimit:  cfg.GasLimit,
		gasPrice:  gasPrice,
		mode:      mode,
		path:      path,
		waitForTx: cfg.WaitForTx,
		seeds:     seeds,
		node:      nodeClient,
		log:       logger.Named("signer"),
	}, nil
}

func (s *signerService) Address(ctx context.Context) (string, error) {
	var addr string
	err := s.withKey(ctx, s.path, func(key *signer.PrivateKey) error {
		a, err := key.Address(s.codec.HRP)
		if err != nil {
			return err
		}
		addr = a.String()
		return nil
	})
	return addr, err
}

func (s *signerService) BuildUnsigned(ctx context.Context, from, to string, amount coin.Coins, memo string) (*types.UnsignedTransaction, error) {
	if err := s.checkTransfer(to, amount); err != nil {
		return nil, err
	}
	if from == "" {
		addr, err := s.Address(ctx)
		if err != nil {
			return nil, err
		}
		from = addr
	} else if _, err := s.codec.Decode(from); err != nil {
		return nil, err
	}
	return s.buildUnsigned(ctx, from, to, amount, memo)
}

func (s *signerService) checkTransfer(to string, amount coin.Coins) error {
	if s.node == nil {
		return errno.New(errno.ErrNodeUnavailable, "no node configured")
	}
	if _, err := s.codec.Decode(to); err != nil {
		return err
	}
	if amount.IsZero() {
		return errno.New(errno.ErrInvalidCoin, "empty amount")
	}
	return amount.Validate()
}

func (s *signerService) buildUnsigned(ctx context.Context, from, to string, amount coin.Coins, memo string) (*types.UnsignedTransaction, error) {
	account, err := s.node.Account(ctx, from)
	if err != nil {
		return nil, err
	}
	fee, err := tx.FeeFromGasPrice(s.gasLimit, s.gasPrice, s.denom)
	if err != nil {
		return nil, err
	}

	return &types.UnsignedTransaction{
		ChainID:        s.chainID,
		From:           from,
		To:             to,
		Amount:         amount.String(),
		Memo:           memo,
		AccountNumber:  account.AccountNumber,
		Sequence:       account.Sequence,
		GasLimit:       fee.GasLimit,
		Fee:            fee.Amount.String(),
		SignMode:       s.mode.String(),
		DerivationPath: s.path.String(),
	}, nil
}

// pendingTx 已解析、待签名的交易
type pendingTx struct {
	unsigned *types.UnsignedTransaction
	chainID  string
	mode     tx.SignMode
	path     bip32.DerivationPath
	body     tx.Body
	fee      tx.Fee
}

func (s *signerService) SignOffline(ctx context.Context, unsigned *types.UnsignedTransaction) (*types.SignedTransaction, error) {
	p, err := s.prepare(unsigned)
	if err != nil {
		return nil, err
	}

	var signed *types.SignedTransaction
	err = s.withKey(ctx, p.path, func(key *signer.PrivateKey) error {
		var signErr error
		signed, signErr = s.sign(key, p)
		return signErr
	})
	if err != nil {
		return nil, err
	}
	return signed, nil
}

// prepare 按配置补全缺省字段并解析金额和地址，不接触密钥
func (s *signerService) prepare(unsigned *types.UnsignedTransaction) (*pendingTx, error) {
	if unsigned == nil {
		return nil, errno.New(errno.ErrInvalidTx, "nil transaction")
	}

	p := &pendingTx{unsigned: unsigned, chainID: unsigned.ChainID, mode: s.mode, path: s.path}
	if p.chainID == "" {
		p.chainID = s.chainID
	}
	if unsigned.SignMode != "" {
		m, err := tx.ParseSignMode(unsigned.SignMode)
		if err != nil {
			return nil, err
		}
		p.mode = m
	}
	if unsigned.DerivationPath != "" {
		path, err := bip32.ParsePath(unsigned.DerivationPath)
		if err != nil {
			return nil, err
		}
		p.path = path
	}

	amount, err := coin.ParseCoins(unsigned.Amount)
	if err != nil {
		return nil, err
	}
	feeAmount, err := coin.ParseCoins(unsigned.Fee)
	if err != nil {
		return nil, err
	}
	if _, err := s.codec.Decode(unsigned.To); err != nil {
		return nil, err
	}
	msg, err := tx.NewMsgSend(unsigned.From, unsigned.To, amount...)
	if err != nil {
		return nil, err
	}
	p.body = tx.Body{
		Messages:      []tx.Msg{msg},
		Memo:          unsigned.Memo,
		TimeoutHeight: unsigned.TimeoutHeight,
	}
	p.fee = tx.Fee{Amount: feeAmount, GasLimit: unsigned.GasLimit}
	return p, nil
}

// sign 用已派生的私钥签名。私钥地址必须与 From 一致。
func (s *signerService) sign(key *signer.PrivateKey, p *pendingTx) (*types.SignedTransaction, error) {
	unsigned := p.unsigned
	from, err := key.Address(s.codec.HRP)
	if err != nil {
		return nil, err
	}
	if from.String() != unsigned.From {
		return nil, errno.Newf(errno.ErrInvalidTx, "from %s does not match key %s at %s", unsigned.From, from, p.path)
	}

	doc, err := tx.BuildSignDoc(tx.SignerData{
		ChainID:       p.chainID,
		AccountNumber: unsigned.AccountNumber,
		Sequence:      unsigned.Sequence,
		PubKey:        key.PubKey(),
	}, p.body, p.fee, p.mode)
	if err != nil {
		return nil, err
	}
	sig, err := signer.SignDoc(key, doc)
	if err != nil {
		return nil, err
	}
	raw, err := signer.AssembleSignedTx(doc, sig)
	if err != nil {
		return nil, err
	}

	signed := &types.SignedTransaction{
		TxHash:    tx.TxHash(raw),
		TxBytes:   base64.StdEncoding.EncodeToString(raw),
		SignMode:  p.mode.String(),
		Signature: sig.String(),
		PubKey:    hex.EncodeToString(key.PubKey()),
	}

	monitor.Business.SignaturesTotal.WithLabelValues(p.mode.String()).Inc()
	s.log.Info("transaction signed",
		zap.String("txhash", signed.TxHash),
		zap.String("chain_id", p.chainID),
		zap.String("sign_mode", p.mode.String()),
		zap.Uint64("sequence", unsigned.Sequence),
	)
	return signed, nil
}

func (s *signerService) Broadcast(ctx context.Context, signed *types.SignedTransaction) (*node.TxResponse, error) {
	if s.node == nil {
		return nil, errno.New(errno.ErrNodeUnavailable, "no node configured")
	}
	raw, err := signed.RawTx()
	if err != nil {
		return nil, errno.Wrap(errno.ErrMalformedEncoding, err, "tx_bytes")
	}
	txRaw, err := tx.UnmarshalTxRaw(raw)
	if err != nil {
		return nil, err
	}

	resp, err := s.node.Broadcast(ctx, raw)
	if err != nil {
		monitor.Business.BroadcastTotal.WithLabelValues(s.chainID, "error").Inc()
		return nil, err
	}
	if err := node.CheckTxResponse(resp); err != nil {
		monitor.Business.BroadcastTotal.WithLabelValues(s.chainID, "rejected").Inc()
		fields := []zap.Field{
			zap.String("txhash", resp.TxHash),
			zap.String("codespace", resp.Codespace),
			zap.Uint32("code", resp.Code),
		}
		if hint, ok := node.MinFeesAndGas(resp); ok {
			fields = append(fields, zap.Stringer("min_fees", hint.MinFees), zap.Uint64("gas_used", hint.GasUsed))
		}
		s.log.Warn("transaction rejected", fields...)
		return resp, err
	}

	monitor.Business.BroadcastTotal.WithLabelValues(s.chainID, "accepted").Inc()
	s.recordFee(txRaw)
	return resp, nil
}

func (s *signerService) Send(ctx context.Context, to string, amount coin.Coins, memo string) (*SendResult, error) {
	if err := s.checkTransfer(to, amount); err != nil {
		return nil, err
	}

	// 只取一次种子：地址、账户查询和签名在同一个密钥作用域内完成
	var signed *types.SignedTransaction
	err := s.withKey(ctx, s.path, func(key *signer.PrivateKey) error {
		from, err := key.Address(s.codec.HRP)
		if err != nil {
			return err
		}
		unsigned, err := s.buildUnsigned(ctx, from.String(), to, amount, memo)
		if err != nil {
			return err
		}
		p, err := s.prepare(unsigned)
		if err != nil {
			return err
		}
		signed, err = s.sign(key, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := s.Broadcast(ctx, signed)
	result := &SendResult{Signed: signed, Response: resp}
	if err != nil {
		return result, err
	}
	if !s.waitForTx {
		return result, nil
	}

	included, err := s.node.WaitForTx(ctx, signed.TxHash)
	if err != nil {
		return result, err
	}
	monitor.Business.TxConfirmDuration.Observe(time.Since(start).Seconds())
	result.Response = included
	if err := node.CheckTxResponse(included); err != nil {
		return result, err
	}
	s.log.Info("transaction included",
		zap.String("txhash", included.TxHash),
		zap.Int64("height", included.Height),
		zap.Int64("gas_used", included.GasUsed),
	)
	return result, nil
}

// withKey 取种子、派生私钥并执行 fn，结束后清除种子和私钥
func (s *signerService) withKey(ctx context.Context, path bip32.DerivationPath, fn func(*signer.PrivateKey) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	seed, err := s.seeds(ctx)
	if err != nil {
		return err
	}
	defer clear(seed)

	monitor.Business.KeyDerivationsTotal.Inc()
	return signer.WithKey(seed, path, fn)
}

// recordFee 从 AuthInfo 中取手续费计入指标
func (s *signerService) recordFee(raw *tx.TxRaw) {
	fee, err := tx.FeeFromAuthInfo(raw.AuthInfoBytes)
	if err != nil {
		s.log.Debug("fee not recorded", zap.Error(err))
		return
	}
	for _, c := range fee.Amount {
		f, _ := new(big.Float).SetInt(c.Amount()).Float64()
		monitor.Business.FeeAmountTotal.WithLabelValues(c.Denom).Add(f)
	}
}
