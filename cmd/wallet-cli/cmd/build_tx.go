package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cosmos-core/pkg/coin"
	"cosmos-core/pkg/config"
	"cosmos-core/pkg/keystore"
	"cosmos-core/pkg/wallet/types"
)

// buildTxCmd Online 端构造交易，输出待签名文件
var buildTxCmd = &cobra.Command{
	Use:   "build-tx",
	Short: "构造未签名交易 (Online)",
	Long: `查询节点上的 account number 和 sequence，按配置的 gas price 计算手续费，输出 unsigned.json。
发送方默认取 Keystore 中记录的地址，不需要密码。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		amountText, _ := cmd.Flags().GetString("amount")
		memo, _ := cmd.Flags().GetString("memo")
		outputFile, _ := cmd.Flags().GetString("output")

		if from == "" {
			ks, err := keystore.LoadFromFile(config.Global.Wallet.KeystorePath)
			if err == nil {
				from = ks.Address
			}
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

		unsigned, err := svc.BuildUnsigned(cmd.Context(), from, to, amount, memo)
		if err != nil {
			return err
		}
		if err := types.WriteFile(outputFile, unsigned); err != nil {
			return fmt.Errorf("保存失败: %w", err)
		}

		fmt.Printf("✅ 未签名交易已构造!\n文件: %s\n", outputFile)
		fmt.Printf("Sequence: %d  Fee: %s  Gas: %d\n", unsigned.Sequence, unsigned.Fee, unsigned.GasLimit)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildTxCmd)

	buildTxCmd.Flags().String("from", "", "发送方地址 (默认取 Keystore 中的地址)")
	buildTxCmd.Flags().String("to", "", "接收方地址")
	buildTxCmd.Flags().String("amount", "", "金额，例如 1000uatom")
	buildTxCmd.Flags().String("memo", "", "备注")
	buildTxCmd.Flags().StringP("output", "o", "unsigned.json", "输出文件")

	_ = buildTxCmd.MarkFlagRequired("to")
	_ = buildTxCmd.MarkFlagRequired("amount")
}
