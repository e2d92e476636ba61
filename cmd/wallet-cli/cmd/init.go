package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cosmos-core/internal/service"
	"cosmos-core/pkg/bip39"
	"cosmos-core/pkg/config"
	"cosmos-core/pkg/keystore"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "初始化一个新的钱包 (生成助记词并加密保存)",
	Long:  `生成新的 BIP-39 助记词，并使用用户输入的密码进行加密，保存为 Keystore 文件。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile := config.Global.Wallet.KeystorePath
		if _, err := os.Stat(outputFile); err == nil {
			return fmt.Errorf("文件 %s 已存在。请先删除或指定其他文件名", outputFile)
		}
		words, _ := cmd.Flags().GetInt("words")
		bitSize, err := entropyBits(words)
		if err != nil {
			return err
		}

		fmt.Println("正在初始化新钱包...")
		fmt.Println("请设置一个强密码来保护您的助记词。")

		// 1. 输入密码
		password, err := readPassword("输入密码: ")
		if err != nil {
			return err
		}
		confirmPassword, err := readPassword("确认密码: ")
		if err != nil {
			return err
		}
		if password != confirmPassword {
			return fmt.Errorf("两次输入的密码不一致")
		}
		if len(password) < 6 {
			return fmt.Errorf("密码长度至少需要 6 位")
		}

		// 2. 生成助记词
		fmt.Println("正在生成助记词...")
		mnemonic, err := bip39.NewMnemonicService().GenerateMnemonic(bitSize)
		if err != nil {
			return err
		}

		// 3. 计算默认路径的地址，写入 Keystore 供在线端构造交易
		cfg := config.Global
		svc, err := service.NewSignerService(cfg.Chain, service.MnemonicSeed(mnemonic.String(), cfg.Wallet.Passphrase), nil)
		if err != nil {
			return err
		}
		addr, err := svc.Address(context.Background())
		if err != nil {
			return err
		}

		// 4. 加密并保存
		fmt.Println("正在加密保存...")
		encryptedKey, err := keystore.EncryptMnemonic(mnemonic.String(), password)
		if err != nil {
			return err
		}
		encryptedKey.Address = addr
		if err := encryptedKey.SaveToFile(outputFile); err != nil {
			return fmt.Errorf("保存文件失败: %w", err)
		}

		fmt.Printf("\n✅ 钱包已初始化！\n")
		fmt.Printf("文件位置: %s\n", outputFile)
		fmt.Printf("您的 ID: %s\n", encryptedKey.Id)
		fmt.Printf("地址 [%s]: %s\n", cfg.Chain.HDPath, addr)
		fmt.Println("\n⚠️  警告: 请务必记住您的密码！如果丢失密码，您将无法恢复钱包。")

		fmt.Print("\n是否需要现在显示助记词以便备份? (y/N): ")
		reader := bufio.NewReader(os.Stdin)
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(strings.ToLower(input))

		if input == "y" || input == "yes" {
			fmt.Println("\n---------------------------------------------------")
			fmt.Println("助记词 (请抄写在纸上并安全保管):")
			fmt.Println(mnemonic)
			fmt.Println("---------------------------------------------------")
		}
		return nil
	},
}

// entropyBits 助记词词数转熵位数: 12 → 128, 24 → 256
func entropyBits(words int) (int, error) {
	switch words {
	case 12, 15, 18, 21, 24:
		return words / 3 * 32, nil
	default:
		return 0, fmt.Errorf("不支持的词数 %d (可选 12/15/18/21/24)", words)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Int("words", 24, "助记词词数")
}
