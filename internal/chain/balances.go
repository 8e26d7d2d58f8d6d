package chain

import (
	"context"
	"fmt"
	"math/big"

	"zerofarm/internal/evm"
	"zerofarm/internal/types"
	"zerofarm/internal/utils"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// EVMBalanceQuery implements BalanceQuery against a live EVM node.
type EVMBalanceQuery struct {
	client   evm.EVMClient
	erc20ABI abi.ABI
}

var _ BalanceQuery = (*EVMBalanceQuery)(nil)

// NewEVMBalanceQuery creates the production BalanceQuery collaborator,
// sharing the parsed ERC20 ABI with EVMActions.
func NewEVMBalanceQuery(actions *EVMActions) *EVMBalanceQuery {
	return &EVMBalanceQuery{client: actions.client, erc20ABI: actions.erc20ABI}
}

// GetBalance returns the wallet's balance of a token as a decimal string.
// All tracked tokens use 18 decimals on the testnet.
func (q *EVMBalanceQuery) GetBalance(ctx context.Context, token types.TokenSymbol, address common.Address) (string, error) {
	if IsNative(token) {
		wei, err := q.client.GetBalance(ctx, address)
		if err != nil {
			return "", fmt.Errorf("баланс нативного токена: %w", err)
		}
		return utils.FromWei(wei), nil
	}

	tokenAddr, ok := TokenAddresses[token]
	if !ok {
		return "", fmt.Errorf("неизвестный токен '%s'", token)
	}

	wei, err := q.erc721BalanceOf(ctx, tokenAddr, address)
	if err != nil {
		return "", fmt.Errorf("баланс токена %s: %w", token, err)
	}
	return utils.FromWei(wei), nil
}

// GetStats returns the transaction and NFT counters for a wallet.
func (q *EVMBalanceQuery) GetStats(ctx context.Context, address common.Address) (WalletStats, error) {
	txCount, err := q.client.GetTransactionCount(ctx, address)
	if err != nil {
		return WalletStats{}, fmt.Errorf("количество транзакций: %w", err)
	}

	nftBalance, err := q.erc721BalanceOf(ctx, NFTCollection, address)
	if err != nil {
		return WalletStats{}, fmt.Errorf("количество NFT: %w", err)
	}

	return WalletStats{
		TxCount:  int(txCount),
		NftCount: int(nftBalance.Int64()),
	}, nil
}

// erc721BalanceOf reads balanceOf(owner); the selector is shared between
// ERC20 and ERC721.
func (q *EVMBalanceQuery) erc721BalanceOf(ctx context.Context, contract, owner common.Address) (*big.Int, error) {
	data, err := q.erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, err
	}

	raw, err := q.client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data})
	if err != nil {
		return nil, err
	}

	out, err := q.erc20ABI.Unpack("balanceOf", raw)
	if err != nil {
		return nil, err
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("неожиданный тип результата balanceOf")
	}
	return balance, nil
}
