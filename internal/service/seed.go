package service

import (
	"context"

	"cosmos-core/pkg/bip39"
	"cosmos-core/pkg/keystore"
)

// SeedSource 每次签名时提供 BIP-39 种子，调用方用完后清零
type SeedSource func(ctx context.Context) ([]byte, error)

// KeystoreSeed 从加密的 Keystore 文件解出助记词并派生种子。
// 文件每次重新读取，助记词不在内存中长期保留。
func KeystoreSeed(path, password, passphrase string) SeedSource {
	return func(ctx context.Context) ([]byte, error) {
		encrypted, err := keystore.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		mnemonic, err := keystore.DecryptMnemonic(encrypted, password)
		if err != nil {
			return nil, err
		}
		return bip39.SeedFromPhrase(mnemonic, passphrase)
	}
}

// MnemonicSeed 直接由助记词派生种子，测试和一次性命令使用
func MnemonicSeed(phrase, passphrase string) SeedSource {
	return func(ctx context.Context) ([]byte, error) {
		return bip39.SeedFromPhrase(phrase, passphrase)
	}
}
