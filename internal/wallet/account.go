package wallet

import (
	"zerofarm/internal/evm"
	"zerofarm/internal/keyloader"
	"zerofarm/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

// Stats are the per-wallet on-chain counters.
type Stats struct {
	TxCount  int
	NftCount int
}

// Account is the mutable state of one farming wallet. The signer owns the
// private key; the key itself is never logged or persisted.
type Account struct {
	Address  common.Address
	Name     string
	Signer   *evm.Signer
	Selected bool
	Active   bool
	Balances map[types.TokenSymbol]string
	Stats    Stats
}

// FromLoadedKey builds an account from a key loaded off disk.
func FromLoadedKey(key *keyloader.LoadedKey, name string) Account {
	return Account{
		Address:  key.Address,
		Name:     name,
		Signer:   evm.NewSigner(key.PrivateKey),
		Balances: make(map[types.TokenSymbol]string),
	}
}

// clone returns a copy safe to hand outside the store's locks.
func (a Account) clone() Account {
	balances := make(map[types.TokenSymbol]string, len(a.Balances))
	for token, amount := range a.Balances {
		balances[token] = amount
	}
	a.Balances = balances
	return a
}
