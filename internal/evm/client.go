package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"zerofarm/internal/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	// ErrNoRpcUrlsProvided indicates that no RPC URLs were provided for client creation.
	ErrNoRpcUrlsProvided = errors.New("no RPC URLs provided")
	// ErrEvmClientCreationFailed indicates that the client failed to connect to any of the provided RPC URLs.
	ErrEvmClientCreationFailed = errors.New("failed to connect to any provided EVM node")
)

// EVMClient defines the interface for interacting with an EVM compatible blockchain.
type EVMClient interface {
	Close()
	GetChainID() *big.Int
	GetBalance(ctx context.Context, address common.Address) (*big.Int, error)
	GetNonce(ctx context.Context, address common.Address) (uint64, error)
	GetTransactionCount(ctx context.Context, address common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGasLimit(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	SendRawTransaction(ctx context.Context, tx *types.Transaction) error
	WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Client wraps the go-ethereum client and provides helper methods.
type Client struct {
	ethClient *ethclient.Client
	chainID   *big.Int
	log       logger.Logger
}

var _ EVMClient = (*Client)(nil)

// NewClient creates a new EVM client, trying the RPC URLs in order until one answers.
func NewClient(ctx context.Context, log logger.Logger, rpcUrls []string) (*Client, error) {
	if len(rpcUrls) == 0 {
		return nil, ErrNoRpcUrlsProvided
	}

	log.Info("Подключение к EVM узлу...", "rpc_count", len(rpcUrls))
	var lastErr error

	for i, url := range rpcUrls {
		log.Debug("Попытка подключения", "rpc_url", url, "attempt", i+1)

		dialCtx, dialCancel := context.WithTimeout(ctx, 10*time.Second)
		client, err := ethclient.DialContext(dialCtx, url)
		dialCancel()
		if err != nil {
			log.Warn("Не удалось подключиться к EVM узлу", "url", url, "error", err)
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		chainCtx, chainCancel := context.WithTimeout(ctx, 5*time.Second)
		chainID, err := client.ChainID(chainCtx)
		chainCancel()
		if err != nil {
			log.Warn("Подключено, но не удалось получить ChainID", "url", url, "error", err)
			client.Close()
			lastErr = err
			continue
		}

		log.Success("Подключено к EVM узлу", "url", url, "chain_id", chainID.String())
		return &Client{ethClient: client, chainID: chainID, log: log}, nil
	}

	log.Error("Не удалось подключиться ни к одному из указанных EVM узлов", "last_error", lastErr)
	return nil, fmt.Errorf("%w: %w", ErrEvmClientCreationFailed, lastErr)
}

// Close terminates the underlying RPC connection.
func (c *Client) Close() {
	if c.ethClient != nil {
		c.log.Debug("Закрытие соединения с EVM клиентом")
		c.ethClient.Close()
	}
}

// GetChainID returns the chain ID associated with the client connection.
func (c *Client) GetChainID() *big.Int {
	return c.chainID
}

// GetBalance retrieves the native token balance for a given address.
func (c *Client) GetBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	return c.ethClient.BalanceAt(ctx, address, nil)
}

// GetNonce retrieves the next pending nonce for an account.
func (c *Client) GetNonce(ctx context.Context, address common.Address) (uint64, error) {
	return c.ethClient.PendingNonceAt(ctx, address)
}

// GetTransactionCount retrieves the confirmed transaction count for an account.
func (c *Client) GetTransactionCount(ctx context.Context, address common.Address) (uint64, error) {
	return c.ethClient.NonceAt(ctx, address, nil)
}

// SuggestGasPrice suggests a gas price for legacy transactions.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return c.ethClient.SuggestGasPrice(ctx)
}

// SuggestGasTipCap suggests a gas tip cap for EIP-1559 transactions.
func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return c.ethClient.SuggestGasTipCap(ctx)
}

// EstimateGasLimit estimates the gas needed for a transaction.
func (c *Client) EstimateGasLimit(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return c.ethClient.EstimateGas(ctx, msg)
}

// CallContract executes a read-only contract call at the latest block.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, nil)
}

// SendRawTransaction sends a signed transaction to the network.
func (c *Client) SendRawTransaction(ctx context.Context, tx *types.Transaction) error {
	c.log.Debug("Отправка подписанной транзакции", "tx_hash", tx.Hash().Hex())
	if err := c.ethClient.SendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("sending transaction failed: %w", err)
	}
	return nil
}

// WaitForReceipt waits for a transaction receipt, polling the network.
func (c *Client) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	c.log.Debug("Ожидание квитанции транзакции", "tx_hash", txHash.Hex())
	for {
		receipt, err := c.ethClient.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("error fetching receipt: %w", err)
		}

		select {
		case <-time.After(3 * time.Second):
		case <-ctx.Done():
			c.log.Warn("Контекст отменен во время ожидания квитанции", "tx_hash", txHash.Hex())
			return nil, ctx.Err()
		}
	}
}
