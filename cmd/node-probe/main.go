package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cosmos-core/internal/node"
	"cosmos-core/pkg/config"
	"cosmos-core/pkg/logger"
)

var (
	address string
	txHash  string
)

// node-probe 检查节点 gRPC 端口是否可用：查询账户，可选查询一笔交易。
var rootCmd = &cobra.Command{
	Use:          "node-probe",
	Short:        "Query an account (and optionally a tx) from the configured node",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Init()
		logger.Init(config.Global.App.Env, config.Global.App.LogLevel)
		defer logger.Sync()

		addr := config.Global.Chain.GrpcAddr
		client, err := node.New(addr, node.WithTimeout(config.Global.Chain.Timeout))
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		acc, err := client.Account(ctx, address)
		if err != nil {
			logger.Error("could not query account", zap.String("grpc_addr", addr), zap.String("address", address), zap.Error(err))
			return err
		}
		logger.Info("account",
			zap.String("address", acc.Address),
			zap.Uint64("account_number", acc.AccountNumber),
			zap.Uint64("sequence", acc.Sequence),
			zap.Bool("has_pubkey", len(acc.PubKey) > 0),
		)

		if txHash == "" {
			return nil
		}
		resp, err := client.GetTx(ctx, txHash)
		if err != nil {
			logger.Error("could not query tx", zap.String("txhash", txHash), zap.Error(err))
			return err
		}
		logger.Info("tx",
			zap.String("txhash", resp.TxHash),
			zap.Int64("height", resp.Height),
			zap.Uint32("code", resp.Code),
			zap.NamedError("check", node.CheckTxResponse(resp)),
		)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&address, "address", "", "bech32 address to query")
	rootCmd.Flags().StringVar(&txHash, "tx", "", "transaction hash to look up (optional)")
	_ = rootCmd.MarkFlagRequired("address")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
