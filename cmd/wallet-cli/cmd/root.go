package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"cosmos-core/pkg/config"
	"cosmos-core/pkg/logger"
	"cosmos-core/pkg/monitor"
)

var cfgFile string

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "wallet-cli",
	Short: "Cosmos 钱包命令行工具",
	Long: `一个用 Go 语言编写的 Cosmos SDK 链钱包工具。
支持 BIP-39 助记词、BIP-32 分层确定性派生、bech32 地址，
以及 direct / legacy-json 两种模式的离线签名和广播。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(viper.GetViper(), cfgFile); err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		logger.Init(config.Global.App.Env, config.Global.App.LogLevel)
		monitor.Init()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := monitor.WriteTextfile(config.Global.App.MetricsFile); err != nil {
			logger.Warn("写入指标文件失败", zap.String("path", config.Global.App.MetricsFile), zap.Error(err))
		}
		logger.Sync()
	},
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "配置文件 (默认在 . 和 ./config 下查找 config.yaml)")
	flags.String("keystore", "", "Keystore 文件路径")
	flags.String("grpc", "", "节点 gRPC 地址")
	flags.String("chain-id", "", "Chain ID")
	flags.String("sign-mode", "", "签名模式: direct 或 legacy-json")
	flags.String("hd-path", "", "派生路径，例如 m/44'/118'/0'/0/0")

	_ = viper.BindPFlag("wallet.keystore_path", flags.Lookup("keystore"))
	_ = viper.BindPFlag("chain.grpc_addr", flags.Lookup("grpc"))
	_ = viper.BindPFlag("chain.chain_id", flags.Lookup("chain-id"))
	_ = viper.BindPFlag("chain.sign_mode", flags.Lookup("sign-mode"))
	_ = viper.BindPFlag("chain.hd_path", flags.Lookup("hd-path"))
}
