package types

// TokenSymbol identifies a token tracked per wallet.
type TokenSymbol string

const (
	TokenA0GI TokenSymbol = "A0GI"
	TokenUSDT TokenSymbol = "USDT"
	TokenBTC  TokenSymbol = "BTC"
	TokenETH  TokenSymbol = "ETH"
)

// AllTokens lists every tracked token in a stable order.
func AllTokens() []TokenSymbol {
	return []TokenSymbol{TokenA0GI, TokenUSDT, TokenBTC, TokenETH}
}
