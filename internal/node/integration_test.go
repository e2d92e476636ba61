package node

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosmos-core/pkg/errno"
)

// TestLiveNode 连接真实节点 (例如本地 simd 或 localnet)。
// 运行: COSMOS_GRPC_ADDR=localhost:9090 COSMOS_TEST_ADDRESS=cosmos1... go test -run TestLiveNode ./internal/node/
func TestLiveNode(t *testing.T) {
	addr := os.Getenv("COSMOS_GRPC_ADDR")
	if addr == "" {
		t.Skip("Skipping integration test: COSMOS_GRPC_ADDR not set")
	}

	client, err := New(addr, WithTimeout(5*time.Second))
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if account := os.Getenv("COSMOS_TEST_ADDRESS"); account != "" {
		acc, err := client.Account(ctx, account)
		require.NoError(t, err)
		assert.Equal(t, account, acc.Address)
	}

	_, err = client.GetTx(ctx, "0000000000000000000000000000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, errno.ErrTxNotFound)
}
