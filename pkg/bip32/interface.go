package bip32

import (
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// HardenedKeyStart 硬化索引的起始值 (2^31)
const HardenedKeyStart uint32 = hdkeychain.HardenedKeyStart

// MaxDeriveAttempts 单个路径段最多尝试的索引个数。
// 出现无效子密钥的概率约为 2^-127，64 次失败意味着实现或输入有问题。
const MaxDeriveAttempts = 64

// HDWallet 定义了分层确定性钱包的基本行为
type HDWallet interface {
	// MasterKey 返回主扩展密钥
	MasterKey() *ExtendedKey
	// DerivePath 根据路径 (如 "m/44'/118'/0'/0/0") 派生密钥对
	DerivePath(path string) (*KeyPair, error)
}

var _ HDWallet = (*Wallet)(nil)
