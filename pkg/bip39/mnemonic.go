package bip39

import (
	"crypto/sha512"
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/unicode/norm"

	"cosmos-core/pkg/errno"
	"cosmos-core/pkg/safe_random"
)

const (
	// SeedSize BIP-39 种子长度 (512 bits)
	SeedSize = 64

	seedIterations = 2048
	seedSaltPrefix = "mnemonic"
)

// 单词 -> 索引，进程启动时构建一次，之后只读
var wordIndex map[string]int

func init() {
	words := bip39.GetWordList()
	wordIndex = make(map[string]int, len(words))
	for i, w := range words {
		wordIndex[w] = i
	}
}

// Mnemonic 是通过校验的助记词，创建后不可修改
type Mnemonic struct {
	words []string
}

// Validate 校验助记词的单词数、单词表和校验和。
// 输入先做 NFKD 规范化并按空白切分，单词大小写敏感。
func Validate(phrase string) (Mnemonic, error) {
	words := strings.Fields(norm.NFKD.String(phrase))

	switch len(words) {
	case 12, 15, 18, 21, 24:
	default:
		return Mnemonic{}, errno.Newf(errno.ErrInvalidWordCount, "got %d words, want 12, 15, 18, 21 or 24", len(words))
	}

	for i, w := range words {
		if _, ok := wordIndex[w]; !ok {
			return Mnemonic{}, errno.Newf(errno.ErrUnknownWord, "word %d %q", i+1, w)
		}
	}

	// 单词和数量都合法时，go-bip39 只可能因为校验和失败
	if _, err := bip39.EntropyFromMnemonic(strings.Join(words, " ")); err != nil {
		if errors.Is(err, bip39.ErrChecksumIncorrect) {
			return Mnemonic{}, errno.New(errno.ErrInvalidChecksum, "checksum bits do not match entropy")
		}
		return Mnemonic{}, errno.Wrap(errno.ErrInvalidChecksum, err, "entropy decode")
	}

	return Mnemonic{words: words}, nil
}

// Words 返回单词的副本
func (m Mnemonic) Words() []string {
	out := make([]string, len(m.words))
	copy(out, m.words)
	return out
}

// String 返回以单个空格连接的助记词
func (m Mnemonic) String() string {
	return strings.Join(m.words, " ")
}

// Entropy 返回助记词编码的原始熵
func (m Mnemonic) Entropy() ([]byte, error) {
	return bip39.EntropyFromMnemonic(m.String())
}

// DeriveSeed 由助记词和可选的 passphrase 派生 64 字节种子。
// PBKDF2-HMAC-SHA512, salt = "mnemonic" + NFKD(passphrase), 2048 轮。
func DeriveSeed(m Mnemonic, passphrase string) []byte {
	password := []byte(norm.NFKD.String(m.String()))
	salt := []byte(seedSaltPrefix + norm.NFKD.String(passphrase))
	return pbkdf2.Key(password, salt, seedIterations, SeedSize, sha512.New)
}

// SeedFromPhrase 校验助记词并派生种子
func SeedFromPhrase(phrase, passphrase string) ([]byte, error) {
	m, err := Validate(phrase)
	if err != nil {
		return nil, err
	}
	return DeriveSeed(m, passphrase), nil
}

// MnemonicService 提供助记词相关的功能
type MnemonicService struct{}

// NewMnemonicService 创建一个新的助记词服务实例
func NewMnemonicService() *MnemonicService {
	return &MnemonicService{}
}

// GenerateMnemonic 生成一个新的随机助记词 (BIP-39)。
// bitSize: 熵的位数，128 (12个单词) 到 256 (24个单词)，必须是 32 的倍数。
func (s *MnemonicService) GenerateMnemonic(bitSize int) (Mnemonic, error) {
	// 生成熵
	entropy, err := safe_random.Entropy(bitSize)
	if err != nil {
		return Mnemonic{}, fmt.Errorf("生成熵失败: %w", err)
	}

	// 从熵生成助记词
	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return Mnemonic{}, fmt.Errorf("生成助记词失败: %w", err)
	}

	return Validate(phrase)
}

// ValidateMnemonic 验证助记词是否有效。
func (s *MnemonicService) ValidateMnemonic(phrase string) bool {
	_, err := Validate(phrase)
	return err == nil
}

// MnemonicToSeed 将助记词转换为种子 (BIP-39 Seed)。
// password: 可选的密码 (Passphrase)，这也是 "第25个单词" 的由来。
// 如果不需要密码，传空字符串 ""。
func (s *MnemonicService) MnemonicToSeed(phrase string, password string) ([]byte, error) {
	return SeedFromPhrase(phrase, password)
}
