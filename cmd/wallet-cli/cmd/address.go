package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cosmos-core/pkg/bip32"
	"cosmos-core/pkg/config"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "显示 Keystore 中指定路径的地址",
	Long:  `解密 Keystore 并显示派生路径对应的 bech32 地址。--index 会覆盖配置中的路径，使用 m/44'/118'/<account>'/0/<index>。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("index") || cmd.Flags().Changed("account") {
			account, _ := cmd.Flags().GetUint32("account")
			index, _ := cmd.Flags().GetUint32("index")
			config.Global.Chain.HDPath = bip32.CosmosHDPath(account, index).String()
		}

		svc, _, cleanup, err := newService(false)
		if err != nil {
			return err
		}
		defer cleanup()

		addr, err := svc.Address(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("[%s] %s\n", config.Global.Chain.HDPath, addr)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addressCmd)
	addressCmd.Flags().Uint32("account", 0, "BIP-44 account")
	addressCmd.Flags().Uint32("index", 0, "BIP-44 address index")
}
