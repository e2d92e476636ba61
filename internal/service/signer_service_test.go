package service

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosmos-core/internal/node"
	"cosmos-core/pkg/coin"
	"cosmos-core/pkg/config"
	"cosmos-core/pkg/errno"
	"cosmos-core/pkg/keystore"
	"cosmos-core/pkg/monitor"
	"cosmos-core/pkg/signer"
	"cosmos-core/pkg/tx"
	"cosmos-core/pkg/wallet/types"
)

const (
	purseMnemonic = "purse sure leg gap above pull rescue glass circle attract erupt can sail gasp shy clarify inflict anger sketch hobby scare mad reject where"
	purseAddress  = "cosmos1t0sgxmpxafdfjd3k6kgg50kdgn4muh5t0phml6"
	recipient     = "cosmos1nx7vqq8hsy8chwe27mcr4cmazdwus7zjl2ds0p"
)

type fakeNode struct {
	mu        sync.Mutex
	account   *node.AccountInfo
	accErr    error
	response  *node.TxResponse
	included  *node.TxResponse
	broadcast [][]byte
	waited    []string
}

func (f *fakeNode) Account(_ context.Context, address string) (*node.AccountInfo, error) {
	if f.accErr != nil {
		return nil, f.accErr
	}
	info := *f.account
	info.Address = address
	return &info, nil
}

func (f *fakeNode) Broadcast(_ context.Context, txBytes []byte) (*node.TxResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcast = append(f.broadcast, txBytes)
	resp := *f.response
	resp.TxHash = tx.TxHash(txBytes)
	return &resp, nil
}

func (f *fakeNode) WaitForTx(_ context.Context, hash string) (*node.TxResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waited = append(f.waited, hash)
	resp := *f.included
	resp.TxHash = hash
	return &resp, nil
}

func testChainConfig() config.ChainConfig {
	return config.ChainConfig{
		ChainID:      "cosmoshub-4",
		Bech32Prefix: "cosmos",
		Denom:        "uatom",
		GasLimit:     200000,
		GasPrice:     "0.025",
		SignMode:     "direct",
		HDPath:       "m/44'/118'/0'/0/0",
	}
}

func newTestService(t *testing.T, cfg config.ChainConfig, n NodeClient) SignerService {
	t.Helper()
	svc, err := NewSignerService(cfg, MnemonicSeed(purseMnemonic, ""), n)
	require.NoError(t, err)
	return svc
}

func TestNewSignerServiceRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.ChainConfig)
		want   errno.Errno
	}{
		{"sign mode", func(c *config.ChainConfig) { c.SignMode = "textual" }, errno.ErrInvalidSignMode},
		{"hd path", func(c *config.ChainConfig) { c.HDPath = "m/44'/x" }, errno.ErrInvalidPath},
		{"gas price", func(c *config.ChainConfig) { c.GasPrice = "cheap" }, errno.ErrInvalidDecimal},
		{"denom", func(c *config.ChainConfig) { c.Denom = "1a" }, errno.ErrInvalidDenom},
		{"chain id", func(c *config.ChainConfig) { c.ChainID = "" }, errno.ErrInvalidTx},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testChainConfig()
			tt.mutate(&cfg)
			_, err := NewSignerService(cfg, MnemonicSeed(purseMnemonic, ""), nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAddress(t *testing.T) {
	svc := newTestService(t, testChainConfig(), nil)
	addr, err := svc.Address(context.Background())
	require.NoError(t, err)
	assert.Equal(t, purseAddress, addr)
}

func TestAddressCancelledContext(t *testing.T) {
	svc := newTestService(t, testChainConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Address(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildUnsigned(t *testing.T) {
	fake := &fakeNode{account: &node.AccountInfo{AccountNumber: 7, Sequence: 3}}
	svc := newTestService(t, testChainConfig(), fake)

	amount, err := coin.ParseCoins("1000uatom")
	require.NoError(t, err)

	unsigned, err := svc.BuildUnsigned(context.Background(), "", recipient, amount, "hello")
	require.NoError(t, err)
	assert.Equal(t, "cosmoshub-4", unsigned.ChainID)
	assert.Equal(t, purseAddress, unsigned.From)
	assert.Equal(t, recipient, unsigned.To)
	assert.Equal(t, "1000uatom", unsigned.Amount)
	assert.Equal(t, uint64(7), unsigned.AccountNumber)
	assert.Equal(t, uint64(3), unsigned.Sequence)
	assert.Equal(t, uint64(200000), unsigned.GasLimit)
	assert.Equal(t, "5000uatom", unsigned.Fee)
	assert.Equal(t, "direct", unsigned.SignMode)
	assert.Equal(t, "m/44'/118'/0'/0/0", unsigned.DerivationPath)
}

func TestBuildUnsignedForWatchOnlyAddress(t *testing.T) {
	fake := &fakeNode{account: &node.AccountInfo{AccountNumber: 1, Sequence: 0}}
	failing := func(context.Context) ([]byte, error) {
		return nil, errno.New(errno.ErrKeystoreAuth, "no keys on this machine")
	}
	svc, err := NewSignerService(testChainConfig(), failing, fake)
	require.NoError(t, err)

	amount, err := coin.ParseCoins("1uatom")
	require.NoError(t, err)
	unsigned, err := svc.BuildUnsigned(context.Background(), recipient, purseAddress, amount, "")
	require.NoError(t, err)
	assert.Equal(t, recipient, unsigned.From)
	assert.Equal(t, uint64(1), unsigned.AccountNumber)
}

func TestBuildUnsignedErrors(t *testing.T) {
	amount, err := coin.ParseCoins("1uatom")
	require.NoError(t, err)

	offline := newTestService(t, testChainConfig(), nil)
	_, err = offline.BuildUnsigned(context.Background(), "", recipient, amount, "")
	assert.ErrorIs(t, err, errno.ErrNodeUnavailable)

	missing := newTestService(t, testChainConfig(), &fakeNode{accErr: errno.New(errno.ErrAccountNotFound, purseAddress)})
	_, err = missing.BuildUnsigned(context.Background(), "", recipient, amount, "")
	assert.ErrorIs(t, err, errno.ErrAccountNotFound)

	_, err = missing.BuildUnsigned(context.Background(), "", "osmo1nx7vqq8hsy8chwe27mcr4cmazdwus7zj5xwmhr", amount, "")
	assert.Error(t, err)

	_, err = missing.BuildUnsigned(context.Background(), "", recipient, coin.Coins{}, "")
	assert.ErrorIs(t, err, errno.ErrInvalidCoin)
}

func unsignedFixture(mode string) *types.UnsignedTransaction {
	return &types.UnsignedTransaction{
		ChainID:        "cosmoshub-4",
		From:           purseAddress,
		To:             recipient,
		Amount:         "1000uatom",
		Memo:           "offline",
		AccountNumber:  7,
		Sequence:       3,
		GasLimit:       200000,
		Fee:            "5000uatom",
		SignMode:       mode,
		DerivationPath: "m/44'/118'/0'/0/0",
	}
}

func TestSignOffline(t *testing.T) {
	for _, mode := range []string{"direct", "legacy-json"} {
		t.Run(mode, func(t *testing.T) {
			svc := newTestService(t, testChainConfig(), nil)

			before := testutil.ToFloat64(monitor.Business.SignaturesTotal.WithLabelValues(mode))
			signed, err := svc.SignOffline(context.Background(), unsignedFixture(mode))
			require.NoError(t, err)
			assert.Equal(t, before+1, testutil.ToFloat64(monitor.Business.SignaturesTotal.WithLabelValues(mode)))

			raw, err := signed.RawTx()
			require.NoError(t, err)
			assert.Equal(t, tx.TxHash(raw), signed.TxHash)
			assert.Equal(t, mode, signed.SignMode)

			txRaw, err := tx.UnmarshalTxRaw(raw)
			require.NoError(t, err)
			require.Len(t, txRaw.Signatures, 1)
			assert.Equal(t, signed.Signature, hex.EncodeToString(txRaw.Signatures[0]))

			// 重新构造文档验证签名
			pub, err := hex.DecodeString(signed.PubKey)
			require.NoError(t, err)
			amount, _ := coin.ParseCoins("1000uatom")
			fee, _ := coin.ParseCoins("5000uatom")
			msg, err := tx.NewMsgSend(purseAddress, recipient, amount...)
			require.NoError(t, err)
			signMode, err := tx.ParseSignMode(mode)
			require.NoError(t, err)
			doc, err := tx.BuildSignDoc(
				tx.SignerData{ChainID: "cosmoshub-4", AccountNumber: 7, Sequence: 3, PubKey: pub},
				tx.Body{Messages: []tx.Msg{msg}, Memo: "offline"},
				tx.Fee{Amount: fee, GasLimit: 200000},
				signMode,
			)
			require.NoError(t, err)
			sig, err := signer.SignatureFromBytes(txRaw.Signatures[0])
			require.NoError(t, err)
			assert.True(t, signer.Verify(pub, tx.Digest(doc), sig))
			assert.Equal(t, doc.BodyBytes(), txRaw.BodyBytes)

			// 确定性签名：相同输入得到相同交易
			again, err := svc.SignOffline(context.Background(), unsignedFixture(mode))
			require.NoError(t, err)
			assert.Equal(t, signed.TxBytes, again.TxBytes)
		})
	}
}

func TestSignOfflineDefaultsFromConfig(t *testing.T) {
	svc := newTestService(t, testChainConfig(), nil)
	u := unsignedFixture("")
	u.ChainID = ""
	u.DerivationPath = ""

	signed, err := svc.SignOffline(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "direct", signed.SignMode)
}

func TestSignOfflineErrors(t *testing.T) {
	svc := newTestService(t, testChainConfig(), nil)

	tests := []struct {
		name   string
		mutate func(*types.UnsignedTransaction)
		want   errno.Errno
	}{
		{"other key", func(u *types.UnsignedTransaction) { u.DerivationPath = "m/44'/118'/0'/0/1" }, errno.ErrInvalidTx},
		{"bad amount", func(u *types.UnsignedTransaction) { u.Amount = "ten atoms" }, errno.ErrInvalidCoin},
		{"bad fee", func(u *types.UnsignedTransaction) { u.Fee = "-5uatom" }, errno.ErrInvalidCoin},
		{"bad recipient", func(u *types.UnsignedTransaction) { u.To = "cosmos1nx7vqq8hsy8chwe27mcr4cmazdwus7zjl2ds0q" }, errno.ErrAddressChecksum},
		{"bad mode", func(u *types.UnsignedTransaction) { u.SignMode = "textual" }, errno.ErrInvalidSignMode},
		{"bad path", func(u *types.UnsignedTransaction) { u.DerivationPath = "m//0" }, errno.ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := unsignedFixture("direct")
			tt.mutate(u)
			_, err := svc.SignOffline(context.Background(), u)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := svc.SignOffline(context.Background(), nil)
	assert.ErrorIs(t, err, errno.ErrInvalidTx)
}

func TestSend(t *testing.T) {
	cfg := testChainConfig()
	cfg.WaitForTx = true
	fake := &fakeNode{
		account:  &node.AccountInfo{AccountNumber: 7, Sequence: 3},
		response: &node.TxResponse{Code: 0},
		included: &node.TxResponse{Height: 1234, GasUsed: 81000},
	}
	svc := newTestService(t, cfg, fake)

	accepted := monitor.Business.BroadcastTotal.WithLabelValues("cosmoshub-4", "accepted")
	before := testutil.ToFloat64(accepted)
	feeBefore := testutil.ToFloat64(monitor.Business.FeeAmountTotal.WithLabelValues("uatom"))

	amount, err := coin.ParseCoins("1000uatom")
	require.NoError(t, err)
	result, err := svc.Send(context.Background(), recipient, amount, "")
	require.NoError(t, err)

	require.Len(t, fake.broadcast, 1)
	assert.Equal(t, tx.TxHash(fake.broadcast[0]), result.Signed.TxHash)
	assert.Equal(t, []string{result.Signed.TxHash}, fake.waited)
	assert.Equal(t, int64(1234), result.Response.Height)
	assert.Equal(t, before+1, testutil.ToFloat64(accepted))
	assert.Equal(t, feeBefore+5000, testutil.ToFloat64(monitor.Business.FeeAmountTotal.WithLabelValues("uatom")))
}

func TestSendAcquiresKeyOnce(t *testing.T) {
	fake := &fakeNode{
		account:  &node.AccountInfo{AccountNumber: 7, Sequence: 3},
		response: &node.TxResponse{Code: 0},
	}
	calls := 0
	seeds := func(ctx context.Context) ([]byte, error) {
		calls++
		return MnemonicSeed(purseMnemonic, "")(ctx)
	}
	svc, err := NewSignerService(testChainConfig(), seeds, fake)
	require.NoError(t, err)

	derivations := testutil.ToFloat64(monitor.Business.KeyDerivationsTotal)
	amount, err := coin.ParseCoins("1000uatom")
	require.NoError(t, err)
	result, err := svc.Send(context.Background(), recipient, amount, "memo")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, derivations+1, testutil.ToFloat64(monitor.Business.KeyDerivationsTotal))
	assert.NotEmpty(t, result.Signed.TxHash)

	// 账户查询失败时不签名，也只取一次种子
	calls = 0
	fake.accErr = errno.New(errno.ErrAccountNotFound, purseAddress)
	_, err = svc.Send(context.Background(), recipient, amount, "")
	assert.ErrorIs(t, err, errno.ErrAccountNotFound)
	assert.Equal(t, 1, calls)
}

func TestSendRejected(t *testing.T) {
	fake := &fakeNode{
		account: &node.AccountInfo{AccountNumber: 7, Sequence: 3},
		response: &node.TxResponse{
			Codespace: "sdk",
			Code:      13,
			RawLog:    "insufficient fees; got: 5000uatom required: 6000uatom: insufficient fee",
		},
	}
	svc := newTestService(t, testChainConfig(), fake)

	amount, err := coin.ParseCoins("1uatom")
	require.NoError(t, err)
	result, err := svc.Send(context.Background(), recipient, amount, "")
	assert.ErrorIs(t, err, errno.ErrInsufficientFee)
	require.NotNil(t, result)
	assert.Equal(t, uint32(13), result.Response.Code)
	assert.Empty(t, fake.waited)
}

func TestBroadcastRejectsGarbage(t *testing.T) {
	svc := newTestService(t, testChainConfig(), &fakeNode{})

	_, err := svc.Broadcast(context.Background(), &types.SignedTransaction{TxBytes: "!!"})
	assert.ErrorIs(t, err, errno.ErrMalformedEncoding)

	_, err = svc.Broadcast(context.Background(), &types.SignedTransaction{TxBytes: "AA=="})
	assert.Error(t, err)
}

func TestKeystoreSeed(t *testing.T) {
	encrypted, err := keystore.EncryptMnemonicWithParams(purseMnemonic, "correct horse", keystore.LightScrypt)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, encrypted.SaveToFile(path))

	svc, err := NewSignerService(testChainConfig(), KeystoreSeed(path, "correct horse", ""), nil)
	require.NoError(t, err)
	addr, err := svc.Address(context.Background())
	require.NoError(t, err)
	assert.Equal(t, purseAddress, addr)

	wrong, err := NewSignerService(testChainConfig(), KeystoreSeed(path, "battery staple", ""), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err = wrong.Address(ctx)
	assert.ErrorIs(t, err, errno.ErrKeystoreAuth)
}
