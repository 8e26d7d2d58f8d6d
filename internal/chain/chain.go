package chain

import (
	"context"
	"errors"
	"fmt"

	"zerofarm/internal/evm"
	"zerofarm/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

// ActionError describes a failed chain action. Transient errors may be
// retried; permanent ones must not be.
type ActionError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *ActionError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, kind, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// NewTransient wraps err as a retryable action error.
func NewTransient(op string, err error) error {
	return &ActionError{Op: op, Transient: true, Err: err}
}

// NewPermanent wraps err as a non-retryable action error.
func NewPermanent(op string, err error) error {
	return &ActionError{Op: op, Transient: false, Err: err}
}

// IsTransient reports whether err may be retried. Unknown errors and
// context deadlines count as transient; only an explicit permanent
// ActionError does not.
func IsTransient(err error) bool {
	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		return actionErr.Transient
	}
	return true
}

// Result is the outcome of a successfully executed chain action.
type Result struct {
	TxHash  string
	Details string
}

// SwapRequest describes one token swap.
type SwapRequest struct {
	From   types.TokenSymbol
	To     types.TokenSymbol
	Amount string // decimal string in token units
	Dex    string // key into DexRouters
}

// TransferRequest describes one token transfer.
type TransferRequest struct {
	To     common.Address
	Token  types.TokenSymbol
	Amount string // decimal string in token units
}

// Actions is the collaborator interface for on-chain and API-backed actions.
// Implementations own idempotency; the executor only classifies outcomes.
type Actions interface {
	ClaimFaucet(ctx context.Context, address common.Address, token types.TokenSymbol) (*Result, error)
	Swap(ctx context.Context, signer *evm.Signer, req SwapRequest) (*Result, error)
	Transfer(ctx context.Context, signer *evm.Signer, req TransferRequest) (*Result, error)
	MintNFT(ctx context.Context, signer *evm.Signer, metadata string) (*Result, error)
	RegisterDomain(ctx context.Context, signer *evm.Signer, name string) (*Result, error)
	UploadFile(ctx context.Context, signer *evm.Signer, payload []byte) (*Result, error)
}

// WalletStats are the on-chain counters shown per wallet.
type WalletStats struct {
	TxCount  int
	NftCount int
}

// BalanceQuery is the collaborator interface for reading wallet state.
type BalanceQuery interface {
	GetBalance(ctx context.Context, token types.TokenSymbol, address common.Address) (string, error)
	GetStats(ctx context.Context, address common.Address) (WalletStats, error)
}
