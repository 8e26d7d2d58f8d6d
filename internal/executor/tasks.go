package executor

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"zerofarm/internal/chain"
	"zerofarm/internal/scheduler"
	"zerofarm/internal/types"
	"zerofarm/internal/utils"
	"zerofarm/internal/wallet"
)

var adjectives = []string{"swift", "bright", "lucky", "silent", "golden", "frosty", "rapid", "cosmic"}
var nouns = []string{"falcon", "river", "comet", "ember", "willow", "harbor", "summit", "aurora"}

// runAction dispatches a due entry to the matching chain action, resolving
// kind-specific parameters from the task definition.
func (e *Executor) runAction(ctx context.Context, acct wallet.Account, due scheduler.Due) (*chain.Result, error) {
	switch due.Kind {
	case types.TaskClaim:
		token := pickToken(due.Def.Params, types.TokenA0GI)
		return e.actions.ClaimFaucet(ctx, acct.Address, token)

	case types.TaskSwap:
		from, to, ok := pickPair(due.Def.Params)
		if !ok {
			return nil, opError(due.Kind, "не задано ни одной пары для обмена")
		}
		amount := pickAmount(due.Def.Params, 0.1, 1.0)
		return e.actions.Swap(ctx, acct.Signer, chain.SwapRequest{
			From:   from,
			To:     to,
			Amount: amount,
			Dex:    paramString(due.Def.Params, "dex", "zero_g_hub"),
		})

	case types.TaskTransfer:
		recipient := e.pickRecipient(acct.Address)
		amount := pickAmount(due.Def.Params, 0.05, 0.5)
		return e.actions.Transfer(ctx, acct.Signer, chain.TransferRequest{
			To:     recipient,
			Token:  pickToken(due.Def.Params, types.TokenA0GI),
			Amount: amount,
		})

	case types.TaskMint:
		metadata := fmt.Sprintf("zerofarm-nft-%d", rand.Int63n(1_000_000))
		return e.actions.MintNFT(ctx, acct.Signer, metadata)

	case types.TaskRegister:
		return e.actions.RegisterDomain(ctx, acct.Signer, randomDomainName())

	case types.TaskUpload:
		return e.actions.UploadFile(ctx, acct.Signer, randomPayload())

	default:
		return nil, opError(due.Kind, "неизвестный тип задачи")
	}
}

// pickRecipient picks a random other wallet from the store as the transfer
// destination. A single-wallet setup transfers to itself.
func (e *Executor) pickRecipient(self common.Address) common.Address {
	candidates := make([]common.Address, 0)
	for _, acct := range e.wallets.List() {
		if acct.Address != self {
			candidates = append(candidates, acct.Address)
		}
	}
	if len(candidates) == 0 {
		return self
	}
	return candidates[rand.Intn(len(candidates))]
}

func pickAmount(params map[string]interface{}, defMin, defMax float64) string {
	minAmount := paramFloat(params, "min_amount", defMin)
	maxAmount := paramFloat(params, "max_amount", defMax)
	if maxAmount < minAmount {
		maxAmount = minAmount
	}
	return utils.FormatAmount(utils.RandomFloatInRange(minAmount, maxAmount))
}

// pickToken reads a "tokens" list from the params and returns a random
// valid entry, falling back to def when the list is absent or empty.
func pickToken(params map[string]interface{}, def types.TokenSymbol) types.TokenSymbol {
	raw, ok := params["tokens"].([]interface{})
	if !ok || len(raw) == 0 {
		return def
	}
	valid := make([]types.TokenSymbol, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		token := types.TokenSymbol(strings.ToUpper(strings.TrimSpace(s)))
		for _, known := range types.AllTokens() {
			if token == known {
				valid = append(valid, token)
				break
			}
		}
	}
	if len(valid) == 0 {
		return def
	}
	return valid[rand.Intn(len(valid))]
}

// pickPair reads a "pairs" list ("FROM-TO" strings) from the params and
// returns a random pair.
func pickPair(params map[string]interface{}) (types.TokenSymbol, types.TokenSymbol, bool) {
	raw, ok := params["pairs"].([]interface{})
	if !ok || len(raw) == 0 {
		return "", "", false
	}
	type pair struct{ from, to types.TokenSymbol }
	valid := make([]pair, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
		if len(parts) != 2 {
			continue
		}
		valid = append(valid, pair{
			from: types.TokenSymbol(strings.ToUpper(parts[0])),
			to:   types.TokenSymbol(strings.ToUpper(parts[1])),
		})
	}
	if len(valid) == 0 {
		return "", "", false
	}
	p := valid[rand.Intn(len(valid))]
	return p.from, p.to, true
}

func paramFloat(params map[string]interface{}, key string, def float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

func paramString(params map[string]interface{}, key, def string) string {
	if s, ok := params[key].(string); ok && s != "" {
		return s
	}
	return def
}

func randomDomainName() string {
	adj := adjectives[rand.Intn(len(adjectives))]
	noun := nouns[rand.Intn(len(nouns))]
	return fmt.Sprintf("%s-%s-%d", adj, noun, rand.Intn(10_000))
}

func randomPayload() []byte {
	size := 256 + rand.Intn(768)
	payload := make([]byte, size)
	rand.Read(payload)
	return payload
}
