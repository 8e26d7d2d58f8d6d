package keyloader

import (
	"bufio"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"zerofarm/internal/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrKeysFileNotFound   = errors.New("key file not found")
	ErrKeysFileReadFailed = errors.New("failed to read key file")
	ErrInvalidKey         = errors.New("invalid private key format")
	ErrNoValidKeysFound   = errors.New("no valid private keys found in the file")
)

// LoadedKey stores the private key and derived address loaded from a source.
type LoadedKey struct {
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address
}

// LoadKeys reads private keys from a file, one per line, optionally prefixed
// with "0x". Lines starting with '#' or empty lines are ignored.
func LoadKeys(path string, log logger.Logger) ([]*LoadedKey, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("файл ключей '%s': %w", path, ErrKeysFileNotFound)
		}
		return nil, fmt.Errorf("чтение файла ключей '%s': %w: %w", path, ErrKeysFileReadFailed, err)
	}
	defer file.Close()

	var loadedKeys []*LoadedKey
	scanner := bufio.NewScanner(file)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key := parseKey(strings.TrimPrefix(line, "0x"), lineNumber, path, log)
		if key != nil {
			loadedKeys = append(loadedKeys, key)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("сканирование файла ключей '%s': %w: %w", path, ErrKeysFileReadFailed, err)
	}

	if len(loadedKeys) == 0 {
		log.Error("В файле не найдено валидных приватных ключей", "file", path)
		return nil, fmt.Errorf("%w в файле '%s'", ErrNoValidKeysFound, path)
	}

	return loadedKeys, nil
}

// parseKey converts a hex private key string into a LoadedKey.
// Returns nil if the key is invalid, logging a warning.
func parseKey(privateKeyHex string, lineNumber int, filePath string, log logger.Logger) *LoadedKey {
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		log.Warn("Неверный формат приватного ключа",
			"line", lineNumber, "file", filePath, "error", ErrInvalidKey)
		return nil
	}

	return &LoadedKey{
		PrivateKey: privateKey,
		Address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}
}
