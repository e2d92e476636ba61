package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cosmos-core/internal/node"
	"cosmos-core/pkg/config"
	"cosmos-core/pkg/wallet/types"
)

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "广播已签名的交易 (Online)",
	Long:  `读取已签名的交易文件 (Signed Tx)，通过节点 gRPC 以 SYNC 模式广播。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile, _ := cmd.Flags().GetString("input")
		if wait, _ := cmd.Flags().GetBool("wait"); wait {
			config.Global.Chain.WaitForTx = true
		}

		// 1. 读取 Signed Tx
		var signedTx types.SignedTransaction
		if err := types.ReadFile(inputFile, &signedTx); err != nil {
			return fmt.Errorf("读取文件失败: %w", err)
		}

		// 2. 连接节点
		fmt.Printf("正在连接节点: %s ...\n", config.Global.Chain.GrpcAddr)
		svc, client, cleanup, err := newService(true)
		if err != nil {
			return err
		}
		defer cleanup()

		// 3. 广播
		fmt.Printf("正在广播交易 Hash: %s ...\n", signedTx.TxHash)
		resp, err := svc.Broadcast(cmd.Context(), &signedTx)
		if err != nil {
			printFeeHint(resp)
			return fmt.Errorf("广播失败: %w", err)
		}
		fmt.Printf("✅ 广播成功! TxHash: %s\n", resp.TxHash)

		if !config.Global.Chain.WaitForTx {
			return nil
		}
		fmt.Println("等待交易上链...")
		included, err := client.WaitForTx(cmd.Context(), resp.TxHash)
		if err != nil {
			return err
		}
		if err := node.CheckTxResponse(included); err != nil {
			return err
		}
		fmt.Printf("✅ 已上链 Height: %d  GasUsed: %d\n", included.Height, included.GasUsed)
		return nil
	},
}

// printFeeHint 节点因手续费或 gas 拒绝时提示所需的值
func printFeeHint(resp *node.TxResponse) {
	hint, ok := node.MinFeesAndGas(resp)
	if !ok {
		return
	}
	if hint.GasUsed > 0 {
		fmt.Printf("提示: 实际消耗 gas %d 超过 gas limit\n", hint.GasUsed)
	}
	if !hint.MinFees.IsZero() {
		fmt.Printf("提示: 节点要求的最低手续费为 %s\n", hint.MinFees)
	}
}

func init() {
	rootCmd.AddCommand(broadcastCmd)
	broadcastCmd.Flags().StringP("input", "i", "signed.json", "已签名的交易文件")
	broadcastCmd.Flags().Bool("wait", false, "等待交易上链")
}
