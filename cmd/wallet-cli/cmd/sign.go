package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cosmos-core/pkg/wallet/types"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "离线签名交易 (Offline Signing)",
	Long:  `读取未签名的交易 JSON 文件，使用 Keystore 进行签名，并输出可广播的 TxRaw。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile, _ := cmd.Flags().GetString("input")
		outputFile, _ := cmd.Flags().GetString("output")

		// 1. 读取未签名交易
		var unsignedTx types.UnsignedTransaction
		if err := types.ReadFile(inputFile, &unsignedTx); err != nil {
			return fmt.Errorf("读取交易文件失败: %w", err)
		}

		// 显示交易详情供用户确认 (Verify on Screen)
		fmt.Println("\n================ 待签名交易 ================")
		fmt.Printf("Chain ID:   %s\n", unsignedTx.ChainID)
		fmt.Printf("From:       %s\n", unsignedTx.From)
		fmt.Printf("To:         %s\n", unsignedTx.To)
		fmt.Printf("Amount:     %s\n", unsignedTx.Amount)
		fmt.Printf("Fee:        %s (gas %d)\n", unsignedTx.Fee, unsignedTx.GasLimit)
		fmt.Printf("Memo:       %s\n", unsignedTx.Memo)
		fmt.Printf("Account:    %d  Sequence: %d\n", unsignedTx.AccountNumber, unsignedTx.Sequence)
		fmt.Printf("Sign mode:  %s\n", unsignedTx.SignMode)
		fmt.Printf("Path:       %s\n", unsignedTx.DerivationPath)
		fmt.Println("============================================")

		// 2. 解密 Keystore 并签名
		svc, _, cleanup, err := newService(false)
		if err != nil {
			return err
		}
		defer cleanup()

		signedTx, err := svc.SignOffline(cmd.Context(), &unsignedTx)
		if err != nil {
			return fmt.Errorf("签名失败: %w", err)
		}

		// 3. 输出结果
		if err := types.WriteFile(outputFile, signedTx); err != nil {
			return fmt.Errorf("保存结果失败: %w", err)
		}

		fmt.Printf("\n✅ 签名成功!\n")
		fmt.Printf("TxHash: %s\n", signedTx.TxHash)
		fmt.Printf("已保存到: %s\n", outputFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signCmd)
	signCmd.Flags().StringP("input", "i", "unsigned.json", "未签名的交易文件路径")
	signCmd.Flags().StringP("output", "o", "signed.json", "签名后的输出文件路径")
}
