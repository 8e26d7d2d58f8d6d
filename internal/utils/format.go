package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

var etherScale = new(big.Float).SetInt(big.NewInt(params.Ether))

// ToWei converts a decimal string (representing Ether units) to *big.Int (Wei).
func ToWei(decimalAmount string) (*big.Int, error) {
	amountFloat, _, err := big.ParseFloat(decimalAmount, 10, 256, big.ToNearestEven)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга строки '%s' в число: %w", decimalAmount, err)
	}

	amountFloat.Mul(amountFloat, etherScale)

	weiAmount := new(big.Int)
	amountFloat.Int(weiAmount)

	return weiAmount, nil
}

// FormatAmount renders a float amount as a decimal string with up to six
// fractional digits, trailing zeros trimmed.
func FormatAmount(amount float64) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", amount), "0"), ".")
	if s == "" {
		return "0"
	}
	return s
}

// FromWei converts a *big.Int (Wei) to a decimal string (Ether units).
func FromWei(weiAmount *big.Int) string {
	if weiAmount == nil {
		return "0"
	}
	amountFloat := new(big.Float).SetInt(weiAmount)
	amountFloat.Quo(amountFloat, etherScale)
	s := strings.TrimRight(strings.TrimRight(amountFloat.Text('f', 18), "0"), ".")
	if s == "" {
		return "0"
	}
	return s
}
