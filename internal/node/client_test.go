package node

import (
	"bytes"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"cosmos-core/pkg/errno"
	"cosmos-core/pkg/pbwire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const testAddr = "cosmos1ua2tqgyey0pd9wqqpfmczk2a7f2kuu4vj7ytd9"

// fakeNode 按方法名分发原始请求字节
type fakeNode struct {
	mu       sync.Mutex
	handlers map[string]func(req []byte) ([]byte, error)
	calls    map[string]int
}

func (f *fakeNode) handle(_ any, stream grpc.ServerStream) error {
	method, _ := grpc.MethodFromServerStream(stream)
	req := new(rawMessage)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}

	f.mu.Lock()
	h, ok := f.handlers[method]
	f.calls[method]++
	f.mu.Unlock()
	if !ok {
		return status.Errorf(codes.Unimplemented, "unknown method %s", method)
	}

	reply, err := h(req.data)
	if err != nil {
		return err
	}
	return stream.SendMsg(&rawMessage{data: reply})
}

func (f *fakeNode) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func startNode(t *testing.T, handlers map[string]func([]byte) ([]byte, error), opts ...Option) (*Client, *fakeNode) {
	t.Helper()

	fake := &fakeNode{handlers: handlers, calls: map[string]int{}}
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(
		grpc.ForceServerCodec(rawCodec{}),
		grpc.UnknownServiceHandler(fake.handle),
	)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	client := NewWithConn(conn, opts...)
	t.Cleanup(func() { _ = client.Close() })
	return client, fake
}

func encodeAny(typeURL string, value []byte) []byte {
	b := pbwire.AppendString(nil, 1, typeURL)
	return pbwire.AppendMessage(b, 2, value)
}

func encodeBaseAccount(address string, pubKey []byte, number, sequence uint64) []byte {
	b := pbwire.AppendString(nil, 1, address)
	if pubKey != nil {
		b = pbwire.AppendMessage(b, 2, encodeAny("/cosmos.crypto.secp256k1.PubKey", pbwire.AppendBytes(nil, 1, pubKey)))
	}
	b = pbwire.AppendUvarint(b, 3, number)
	return pbwire.AppendUvarint(b, 4, sequence)
}

func encodeTxResponse(r TxResponse) []byte {
	b := pbwire.AppendUvarint(nil, 1, uint64(r.Height))
	b = pbwire.AppendString(b, 2, r.TxHash)
	b = pbwire.AppendString(b, 3, r.Codespace)
	b = pbwire.AppendUvarint(b, 4, uint64(r.Code))
	b = pbwire.AppendString(b, 6, r.RawLog)
	b = pbwire.AppendUvarint(b, 9, uint64(r.GasWanted))
	return pbwire.AppendUvarint(b, 10, uint64(r.GasUsed))
}

func requestString(t *testing.T, req []byte, num pbwire.Number) string {
	t.Helper()
	v, err := bytesField(req, num)
	assert.NoError(t, err)
	return string(v)
}

func TestAccount(t *testing.T) {
	pubKey := bytes.Repeat([]byte{0x02}, 33)
	base := encodeBaseAccount(testAddr, pubKey, 42, 7)

	tests := []struct {
		name    string
		account []byte
	}{
		{"base account", encodeAny(baseAccountTypeURL, base)},
		{"module account", encodeAny("/cosmos.auth.v1beta1.ModuleAccount",
			pbwire.AppendMessage(nil, 1, base))},
		{"continuous vesting", encodeAny("/cosmos.vesting.v1beta1.ContinuousVestingAccount",
			pbwire.AppendMessage(nil, 1, pbwire.AppendMessage(nil, 1, base)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := startNode(t, map[string]func([]byte) ([]byte, error){
				methodAccount: func(req []byte) ([]byte, error) {
					assert.Equal(t, testAddr, requestString(t, req, 1))
					return pbwire.AppendMessage(nil, 1, tt.account), nil
				},
			})

			info, err := client.Account(context.Background(), testAddr)
			require.NoError(t, err)
			assert.Equal(t, testAddr, info.Address)
			assert.Equal(t, uint64(42), info.AccountNumber)
			assert.Equal(t, uint64(7), info.Sequence)
			assert.Equal(t, pubKey, info.PubKey)
		})
	}
}

func TestAccountNewAccountWithoutPubKey(t *testing.T) {
	client, _ := startNode(t, map[string]func([]byte) ([]byte, error){
		methodAccount: func([]byte) ([]byte, error) {
			acc := encodeAny(baseAccountTypeURL, encodeBaseAccount(testAddr, nil, 9, 0))
			return pbwire.AppendMessage(nil, 1, acc), nil
		},
	})

	info, err := client.Account(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), info.AccountNumber)
	assert.Zero(t, info.Sequence)
	assert.Empty(t, info.PubKey)
}

func TestAccountErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler func([]byte) ([]byte, error)
		want    errno.Errno
	}{
		{
			name: "not found",
			handler: func([]byte) ([]byte, error) {
				return nil, status.Error(codes.NotFound, "account "+testAddr+" not found")
			},
			want: errno.ErrAccountNotFound,
		},
		{
			name: "unavailable",
			handler: func([]byte) ([]byte, error) {
				return nil, status.Error(codes.Unavailable, "node is syncing")
			},
			want: errno.ErrNodeUnavailable,
		},
		{
			name: "unknown account type",
			handler: func([]byte) ([]byte, error) {
				return pbwire.AppendMessage(nil, 1, encodeAny("/foo.Account", nil)), nil
			},
			want: errno.ErrMalformedEncoding,
		},
		{
			name: "truncated response",
			handler: func([]byte) ([]byte, error) {
				return []byte{0x0a, 0x05, 0x01}, nil
			},
			want: errno.ErrMalformedEncoding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := startNode(t, map[string]func([]byte) ([]byte, error){methodAccount: tt.handler})
			_, err := client.Account(context.Background(), testAddr)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBroadcast(t *testing.T) {
	txBytes := []byte{0x0a, 0x02, 0x01, 0x02}
	client, fake := startNode(t, map[string]func([]byte) ([]byte, error){
		methodBroadcastTx: func(req []byte) ([]byte, error) {
			var mode uint64
			var got []byte
			assert.NoError(t, pbwire.Walk(req, func(f pbwire.Field) error {
				switch f.Num {
				case 1:
					got = f.Bytes
				case 2:
					mode = f.Varint
				}
				return nil
			}))
			assert.Equal(t, txBytes, got)
			assert.Equal(t, uint64(broadcastModeSync), mode)

			resp := encodeTxResponse(TxResponse{TxHash: "ABCD", GasWanted: 200000, GasUsed: 0})
			return pbwire.AppendMessage(nil, 1, resp), nil
		},
	})

	resp, err := client.Broadcast(context.Background(), txBytes)
	require.NoError(t, err)
	assert.Equal(t, "ABCD", resp.TxHash)
	assert.Zero(t, resp.Code)
	assert.Equal(t, int64(200000), resp.GasWanted)
	assert.NoError(t, CheckTxResponse(resp))
	assert.Equal(t, 1, fake.callCount(methodBroadcastTx))
}

func TestBroadcastDoesNotRetry(t *testing.T) {
	client, fake := startNode(t, map[string]func([]byte) ([]byte, error){
		methodBroadcastTx: func([]byte) ([]byte, error) {
			return nil, status.Error(codes.Unavailable, "connection reset")
		},
	})

	_, err := client.Broadcast(context.Background(), []byte{0x01})
	assert.ErrorIs(t, err, errno.ErrNodeUnavailable)
	assert.Equal(t, errno.KindTransport, errno.KindOf(err))
	assert.Equal(t, 1, fake.callCount(methodBroadcastTx))
}

func TestBroadcastRejected(t *testing.T) {
	client, _ := startNode(t, map[string]func([]byte) ([]byte, error){
		methodBroadcastTx: func([]byte) ([]byte, error) {
			resp := encodeTxResponse(TxResponse{
				TxHash:    "FFFF",
				Codespace: "sdk",
				Code:      13,
				RawLog:    "insufficient fees; got: 1uatom required: 5000uatom: insufficient fee",
			})
			return pbwire.AppendMessage(nil, 1, resp), nil
		},
	})

	resp, err := client.Broadcast(context.Background(), []byte{0x01})
	require.NoError(t, err)
	assert.ErrorIs(t, CheckTxResponse(resp), errno.ErrInsufficientFee)

	hint, ok := MinFeesAndGas(resp)
	require.True(t, ok)
	assert.Equal(t, "5000uatom", hint.MinFees.String())
}

func TestWaitForTx(t *testing.T) {
	const hash = "0123ABCD"

	var mu sync.Mutex
	pending := 2
	client, fake := startNode(t, map[string]func([]byte) ([]byte, error){
		methodGetTx: func(req []byte) ([]byte, error) {
			assert.Equal(t, hash, requestString(t, req, 1))
			mu.Lock()
			defer mu.Unlock()
			if pending > 0 {
				pending--
				return nil, status.Error(codes.NotFound, "tx not found: "+hash)
			}
			return pbwire.AppendMessage(nil, 2, encodeTxResponse(TxResponse{Height: 100, TxHash: hash})), nil
		},
	}, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.WaitForTx(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, int64(100), resp.Height)
	assert.Equal(t, hash, resp.TxHash)
	assert.Equal(t, 3, fake.callCount(methodGetTx))
}

func TestWaitForTxGivesUpWithContext(t *testing.T) {
	client, _ := startNode(t, map[string]func([]byte) ([]byte, error){
		methodGetTx: func([]byte) ([]byte, error) {
			return nil, status.Error(codes.NotFound, "tx not found")
		},
	}, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.WaitForTx(ctx, "AA")
	require.Error(t, err)
	assert.Equal(t, errno.KindTransport, errno.KindOf(err))
}

func TestWaitForTxStopsOnOtherErrors(t *testing.T) {
	client, fake := startNode(t, map[string]func([]byte) ([]byte, error){
		methodGetTx: func([]byte) ([]byte, error) {
			return nil, status.Error(codes.InvalidArgument, "bad hash")
		},
	}, WithPollInterval(5*time.Millisecond))

	_, err := client.WaitForTx(context.Background(), "zz")
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, 1, fake.callCount(methodGetTx))
}
