package bip39

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosmos-core/pkg/errno"
	"cosmos-core/pkg/safe_random"
)

const abandonPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestGenerateMnemonic(t *testing.T) {
	service := NewMnemonicService()

	// 测试 12 个单词 (128 bits)
	mnemonic12, err := service.GenerateMnemonic(128)
	if err != nil {
		t.Fatalf("生成 12 词助记词失败: %v", err)
	}
	if len(mnemonic12.Words()) != 12 {
		t.Errorf("期望 12 个单词, 得到 %d", len(mnemonic12.Words()))
	}

	// 验证生成的助记词是否有效
	if !service.ValidateMnemonic(mnemonic12.String()) {
		t.Errorf("生成的 12 词助记词无效")
	}

	// 测试 24 个单词 (256 bits)
	mnemonic24, err := service.GenerateMnemonic(256)
	if err != nil {
		t.Fatalf("生成 24 词助记词失败: %v", err)
	}
	if !service.ValidateMnemonic(mnemonic24.String()) {
		t.Errorf("生成的 24 词助记词无效")
	}

	_, err = service.GenerateMnemonic(100)
	if err == nil {
		t.Errorf("非法熵长度应当失败")
	}
}

func TestGenerateMnemonicUsesEntropySource(t *testing.T) {
	old := safe_random.Reader
	safe_random.Reader = bytes.NewReader(make([]byte, 16))
	defer func() { safe_random.Reader = old }()

	m, err := NewMnemonicService().GenerateMnemonic(128)
	require.NoError(t, err)
	assert.Equal(t, abandonPhrase, m.String())

	_, err = NewMnemonicService().GenerateMnemonic(100)
	assert.Error(t, err)
}

func TestMnemonicToSeed(t *testing.T) {
	service := NewMnemonicService()

	// 已知的测试向量 (Test Vector)
	expectedSeedHex := "5eb00bbddcf069084889a8ab9155568165f5c453ccb85e70811aaed6f6da5fc19a5ac40b389cd370d086206dec8aa6c43daea6690f20ad3d8d48b2d2ce9e38e4"

	seed, err := service.MnemonicToSeed(abandonPhrase, "")
	if err != nil {
		t.Fatalf("测试向量助记词无效: %v", err)
	}

	seedHex := hex.EncodeToString(seed)
	if seedHex != expectedSeedHex {
		t.Errorf("Seed 生成不匹配。\n预期: %s\n实际: %s", expectedSeedHex, seedHex)
	}
}

func TestDeriveSeedWithPassphrase(t *testing.T) {
	// BIP-39 官方向量，passphrase "TREZOR"
	m, err := Validate(abandonPhrase)
	require.NoError(t, err)

	seed := DeriveSeed(m, "TREZOR")
	assert.Equal(t,
		"c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04",
		hex.EncodeToString(seed))
}

func TestDeriveSeedDeterministic(t *testing.T) {
	m, err := Validate(abandonPhrase)
	require.NoError(t, err)

	first := DeriveSeed(m, "pass")
	second := DeriveSeed(m, "pass")
	assert.Equal(t, first, second)
	assert.Len(t, first, SeedSize)

	other := DeriveSeed(m, "pass2")
	assert.NotEqual(t, first, other)
}

func TestDeriveSeedNormalizesPassphrase(t *testing.T) {
	m, err := Validate(abandonPhrase)
	require.NoError(t, err)

	// "é" 的组合形式和分解形式在 NFKD 后相同
	composed := DeriveSeed(m, "caf\u00e9")
	decomposed := DeriveSeed(m, "cafe\u0301")
	assert.Equal(t, composed, decomposed)
}

func TestValidateNormalizesInput(t *testing.T) {
	m, err := Validate("  abandon abandon abandon abandon abandon abandon\tabandon abandon abandon abandon abandon about \n")
	require.NoError(t, err)
	assert.Equal(t, abandonPhrase, m.String())

	entropy, err := m.Entropy()
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 16), entropy)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		phrase string
		want   errno.Errno
	}{
		{"empty", "", errno.ErrInvalidWordCount},
		{"too short", "abandon abandon abandon", errno.ErrInvalidWordCount},
		{"thirteen words", abandonPhrase + " about", errno.ErrInvalidWordCount},
		{"unknown word", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon bitcoinz", errno.ErrUnknownWord},
		{"bad checksum", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon", errno.ErrInvalidChecksum},
		{"ten words", "hello world invalid mnemonic phrase designed to fail validation check", errno.ErrInvalidWordCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.phrase)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, errno.KindInputValidation, errno.KindOf(err))
		})
	}
}

func TestValidateIsCaseSensitive(t *testing.T) {
	for _, phrase := range []string{
		"ABANDON abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
		"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon About",
	} {
		_, err := Validate(phrase)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errno.ErrUnknownWord), "got %v", err)

		_, err = SeedFromPhrase(phrase, "")
		assert.True(t, errors.Is(err, errno.ErrUnknownWord), "got %v", err)
	}

	_, err := Validate("ABANDON abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `word 1 "ABANDON"`)
}

func TestUnknownWordDetail(t *testing.T) {
	_, err := Validate("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon xyzzy about")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `word 11 "xyzzy"`)
}
