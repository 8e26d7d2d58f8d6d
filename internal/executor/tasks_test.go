package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerofarm/internal/types"
	"zerofarm/internal/wallet"
)

func TestPickToken(t *testing.T) {
	t.Run("falls back to the default without params", func(t *testing.T) {
		assert.Equal(t, types.TokenA0GI, pickToken(nil, types.TokenA0GI))
		assert.Equal(t, types.TokenA0GI, pickToken(map[string]interface{}{}, types.TokenA0GI))
	})

	t.Run("picks only known tokens from the list", func(t *testing.T) {
		params := map[string]interface{}{
			"tokens": []interface{}{"usdt", "DOGE", " btc "},
		}
		for i := 0; i < 30; i++ {
			token := pickToken(params, types.TokenA0GI)
			require.Contains(t, []types.TokenSymbol{types.TokenUSDT, types.TokenBTC}, token)
		}
	})

	t.Run("an all-garbage list falls back to the default", func(t *testing.T) {
		params := map[string]interface{}{"tokens": []interface{}{"DOGE", 42}}
		assert.Equal(t, types.TokenETH, pickToken(params, types.TokenETH))
	})
}

func TestPickPair(t *testing.T) {
	t.Run("parses FROM-TO strings", func(t *testing.T) {
		params := map[string]interface{}{"pairs": []interface{}{"a0gi-usdt"}}
		from, to, ok := pickPair(params)
		require.True(t, ok)
		assert.Equal(t, types.TokenSymbol("A0GI"), from)
		assert.Equal(t, types.TokenSymbol("USDT"), to)
	})

	t.Run("reports missing pairs", func(t *testing.T) {
		_, _, ok := pickPair(nil)
		assert.False(t, ok)

		_, _, ok = pickPair(map[string]interface{}{"pairs": []interface{}{"безразделителя"}})
		assert.False(t, ok)
	})
}

func TestParamHelpers(t *testing.T) {
	params := map[string]interface{}{
		"min_amount": 0.25,
		"count":      3,
		"dex":        "zero_dex",
		"empty":      "",
	}

	assert.Equal(t, 0.25, paramFloat(params, "min_amount", 1))
	assert.Equal(t, 3.0, paramFloat(params, "count", 1))
	assert.Equal(t, 1.0, paramFloat(params, "missing", 1))

	assert.Equal(t, "zero_dex", paramString(params, "dex", "zero_g_hub"))
	assert.Equal(t, "zero_g_hub", paramString(params, "empty", "zero_g_hub"))
	assert.Equal(t, "zero_g_hub", paramString(params, "missing", "zero_g_hub"))
}

func TestPickAmount(t *testing.T) {
	params := map[string]interface{}{"min_amount": 0.5, "max_amount": 0.5}
	assert.Equal(t, "0.5", pickAmount(params, 0.1, 1.0))

	// Перевернутый диапазон схлопывается в минимум.
	inverted := map[string]interface{}{"min_amount": 2.0, "max_amount": 1.0}
	assert.Equal(t, "2", pickAmount(inverted, 0.1, 1.0))
}

func TestPickRecipient(t *testing.T) {
	h := newHarness(t, &fakeActions{})

	_, err := h.wallets.Add(wallet.Account{Address: walletA})
	require.NoError(t, err)

	t.Run("a single wallet transfers to itself", func(t *testing.T) {
		assert.Equal(t, walletA, h.exec.pickRecipient(walletA))
	})

	t.Run("multiple wallets never pick the sender", func(t *testing.T) {
		_, err := h.wallets.Add(wallet.Account{Address: walletB})
		require.NoError(t, err)
		for i := 0; i < 20; i++ {
			assert.Equal(t, walletB, h.exec.pickRecipient(walletA))
		}
	})
}
