package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"cosmos-core/pkg/address"
	"cosmos-core/pkg/bip32"
	"cosmos-core/pkg/bip39"
	"cosmos-core/pkg/config"
)

// newCmd 代表 new 命令
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "生成新的助记词并显示派生地址 (不保存)",
	Long:  `生成一个新的随机 BIP-39 助记词，并显示前几个 Cosmos 账户地址。需要保存时请使用 init。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		words, _ := cmd.Flags().GetInt("words")
		count, _ := cmd.Flags().GetUint32("count")
		bitSize, err := entropyBits(words)
		if err != nil {
			return err
		}

		fmt.Println("正在生成新钱包...")
		fmt.Println("---------------------------------------------------")

		// 1. 生成助记词
		mnemonic, err := bip39.NewMnemonicService().GenerateMnemonic(bitSize)
		if err != nil {
			return err
		}
		fmt.Printf("助记词 (Mnemonic): \n%s\n", mnemonic)
		fmt.Println("---------------------------------------------------")

		// 2. 生成种子
		seed := bip39.DeriveSeed(mnemonic, config.Global.Wallet.Passphrase)
		defer clear(seed)

		wallet, err := bip32.NewMasterKeyFromSeed(seed)
		if err != nil {
			return err
		}
		defer wallet.Zero()

		// 3. 派生 m/44'/118'/0'/0/i
		codec := address.NewCodec(config.Global.Chain.Bech32Prefix)
		for i := uint32(0); i < count; i++ {
			kp, err := wallet.Derive(bip32.CosmosHDPath(0, i))
			if err != nil {
				return err
			}
			addr, err := codec.FromPublicKey(kp.PublicKey())
			if err != nil {
				kp.Zero()
				return err
			}
			pub, err := address.PubKeyBech32(kp.PublicKey(), codec.PubKeyHRP())
			kp.Zero()
			if err != nil {
				return err
			}
			fmt.Printf("[%s] %s\n", kp.Path, addr)
			fmt.Printf("    pubkey: %s\n", pub)
			fmt.Printf("    hex:    %s\n", hex.EncodeToString(kp.PublicKey()))
		}
		fmt.Println("---------------------------------------------------")
		fmt.Println("请妥善保管您的助记词！任何拥有助记词的人都可以控制该钱包的所有资产。")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().Int("words", 24, "助记词词数")
	newCmd.Flags().Uint32("count", 1, "显示的地址数量")
}
