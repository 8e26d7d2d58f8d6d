package keyloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerofarm/internal/logger"
)

// Well-known test vector: this key must never hold real funds.
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func writeKeysFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadKeys(t *testing.T) {
	log := logger.NewNopLogger()

	t.Run("loads keys and derives addresses", func(t *testing.T) {
		keys, err := LoadKeys(writeKeysFile(t, testKeyHex+"\n"), log)
		require.NoError(t, err)
		require.Len(t, keys, 1)

		expected, err := crypto.HexToECDSA(testKeyHex)
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(expected.PublicKey), keys[0].Address)
	})

	t.Run("accepts the 0x prefix", func(t *testing.T) {
		keys, err := LoadKeys(writeKeysFile(t, "0x"+testKeyHex+"\n"), log)
		require.NoError(t, err)
		assert.Len(t, keys, 1)
	})

	t.Run("skips blanks, comments and broken keys", func(t *testing.T) {
		content := "# ключи тестового стенда\n\n" + testKeyHex + "\nнемусор\n"
		keys, err := LoadKeys(writeKeysFile(t, content), log)
		require.NoError(t, err)
		assert.Len(t, keys, 1)
	})

	t.Run("fails when the file is missing", func(t *testing.T) {
		_, err := LoadKeys(filepath.Join(t.TempDir(), "нет.txt"), log)
		assert.ErrorIs(t, err, ErrKeysFileNotFound)
	})

	t.Run("fails when no valid keys remain", func(t *testing.T) {
		_, err := LoadKeys(writeKeysFile(t, "# пусто\nmusor\n"), log)
		assert.ErrorIs(t, err, ErrNoValidKeysFound)
	})
}
