package chain

import (
	"zerofarm/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

// 0G-Newton-Testnet constants.
const (
	NetworkName = "0G-Newton-Testnet"
	ChainID     = 16600
)

// TokenAddresses maps tracked tokens to their contract addresses.
// The zero address marks the native token.
var TokenAddresses = map[types.TokenSymbol]common.Address{
	types.TokenA0GI: common.HexToAddress("0x0000000000000000000000000000000000000000"),
	types.TokenUSDT: common.HexToAddress("0x201eba5cc46d216ce6dc03f6a759e8e766e956ae"),
	types.TokenBTC:  common.HexToAddress("0xd54ab76474b5025dba69f3b8eff7c824af009c5f"),
	types.TokenETH:  common.HexToAddress("0x8ae88b2b35f15d6320d77ab8ec7e3410f78376f6"),
}

// DexRouters maps DEX names from task params to router contract addresses.
var DexRouters = map[string]common.Address{
	"zero_g_hub": common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
	"zero_dex":   common.HexToAddress("0x33d9B68db9704c6d4E75453156e8BD8C2DEa4526"),
}

// WrappedA0GI is the wrapped native token, used as the first hop when
// swapping out of the native coin.
var WrappedA0GI = common.HexToAddress("0x0aab3c5bd0e58a35c5a7f57b9c5c9bff58a17dda")

// NFTCollection is the ERC-721 collection minted by the mint task and
// counted in wallet stats.
var NFTCollection = common.HexToAddress("0x20f7e27cD0FaBD87F96afC4E83A88a47E9Ce4689")

// IsNative reports whether the token is the chain's native coin.
func IsNative(token types.TokenSymbol) bool {
	return TokenAddresses[token] == (common.Address{})
}
