package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cosmos-core/pkg/coin"
	"cosmos-core/pkg/config"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "构造、签名并广播一笔转账 (Online)",
	Long:  `查询账户状态、使用 Keystore 签名并广播 MsgSend。配置 chain.wait_for_tx 或 --wait 时等待上链。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		to, _ := cmd.Flags().GetString("to")
		amountText, _ := cmd.Flags().GetString("amount")
		memo, _ := cmd.Flags().GetString("memo")
		if wait, _ := cmd.Flags().GetBool("wait"); wait {
			config.Global.Chain.WaitForTx = true
		}

		amount, err := coin.ParseCoins(amountText)
		if err != nil {
			return err
		}

		svc, _, cleanup, err := newService(true)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.Send(cmd.Context(), to, amount, memo)
		if err != nil {
			if result != nil {
				printFeeHint(result.Response)
			}
			return fmt.Errorf("发送失败: %w", err)
		}

		fmt.Printf("✅ 发送成功! TxHash: %s\n", result.Signed.TxHash)
		if result.Response.Height > 0 {
			fmt.Printf("Height: %d  GasUsed: %d\n", result.Response.Height, result.Response.GasUsed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().String("to", "", "接收方地址")
	sendCmd.Flags().String("amount", "", "金额，例如 1000uatom")
	sendCmd.Flags().String("memo", "", "备注")
	sendCmd.Flags().Bool("wait", false, "等待交易上链")
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")
}
