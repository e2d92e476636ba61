package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosmos-core/pkg/bip39"
	"cosmos-core/pkg/config"
	"cosmos-core/pkg/keystore"
)

const abandonPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestEntropyBits(t *testing.T) {
	for words, bits := range map[int]int{12: 128, 15: 160, 18: 192, 21: 224, 24: 256} {
		got, err := entropyBits(words)
		require.NoError(t, err)
		assert.Equal(t, bits, got, "words=%d", words)
	}
	_, err := entropyBits(13)
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"init", "new", "address", "build-tx", "sign", "broadcast", "send"} {
		assert.True(t, names[want], want)
	}
}

func TestCachedPassword(t *testing.T) {
	reads := 0
	password := cachedPassword(func() (string, error) {
		reads++
		return "secret", nil
	})
	for i := 0; i < 3; i++ {
		pw, err := password()
		require.NoError(t, err)
		assert.Equal(t, "secret", pw)
	}
	assert.Equal(t, 1, reads)

	failed := 0
	broken := cachedPassword(func() (string, error) {
		failed++
		return "", errors.New("no tty")
	})
	_, err := broken()
	assert.Error(t, err)
	_, err = broken()
	assert.Error(t, err)
	assert.Equal(t, 1, failed)
}

func TestLazySeedFromKeystore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.json")
	encrypted, err := keystore.EncryptMnemonicWithParams(abandonPhrase, "pw", keystore.LightScrypt)
	require.NoError(t, err)
	require.NoError(t, encrypted.SaveToFile(path))

	old := config.Global
	t.Cleanup(func() { config.Global = old })
	config.Global.Wallet = config.WalletConfig{KeystorePath: path, Password: "pw"}

	want, err := bip39.SeedFromPhrase(abandonPhrase, "")
	require.NoError(t, err)

	seeds := lazySeed()
	for i := 0; i < 2; i++ {
		seed, err := seeds(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, seed)
	}
}
