package chain

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"zerofarm/internal/config"
	"zerofarm/internal/evm"
	"zerofarm/internal/logger"
	"zerofarm/internal/utils"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
)

const erc20ABIJSON = `[
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"transfer","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

const routerABIJSON = `[
	{"name":"swapExactTokensForTokens","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]},
	{"name":"swapExactETHForTokens","type":"function","stateMutability":"payable","inputs":[{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]}
]`

// EVMActions implements Actions against a live EVM node plus the hub HTTP
// services. Swap and transfer go on-chain; claim, mint, register and upload
// go through the corresponding hub APIs.
type EVMActions struct {
	client    evm.EVMClient
	api       *apiClient
	erc20ABI  abi.ABI
	routerABI abi.ABI
	log       logger.Logger
}

var _ Actions = (*EVMActions)(nil)

// NewEVMActions creates the production Actions collaborator.
func NewEVMActions(client evm.EVMClient, endpoints config.EndpointsConfig, log logger.Logger) (*EVMActions, error) {
	erc20, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing erc20 abi: %w", err)
	}
	router, err := abi.JSON(strings.NewReader(routerABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing router abi: %w", err)
	}

	return &EVMActions{
		client:    client,
		api:       newAPIClient(endpoints, &http.Client{Timeout: 25 * time.Second}),
		erc20ABI:  erc20,
		routerABI: router,
		log:       log,
	}, nil
}

// Transfer sends native coin or an ERC20 token to another address.
func (a *EVMActions) Transfer(ctx context.Context, signer *evm.Signer, req TransferRequest) (*Result, error) {
	const op = "transfer"

	amountWei, err := utils.ToWei(req.Amount)
	if err != nil {
		return nil, NewPermanent(op, err)
	}

	var txHash common.Hash
	if IsNative(req.Token) {
		txHash, err = a.sendAndWait(ctx, signer, req.To, amountWei, nil, 21000)
	} else {
		var data []byte
		data, err = a.erc20ABI.Pack("transfer", req.To, amountWei)
		if err != nil {
			return nil, NewPermanent(op, err)
		}
		txHash, err = a.sendAndWait(ctx, signer, TokenAddresses[req.Token], big.NewInt(0), data, 0)
	}
	if err != nil {
		return nil, classifySendErr(op, err)
	}

	return &Result{
		TxHash:  txHash.Hex(),
		Details: fmt.Sprintf("Переведено %s %s на %s", req.Amount, req.Token, req.To.Hex()),
	}, nil
}

// Swap exchanges one token for another through a V2-style DEX router.
func (a *EVMActions) Swap(ctx context.Context, signer *evm.Signer, req SwapRequest) (*Result, error) {
	const op = "swap"

	router, ok := DexRouters[req.Dex]
	if !ok {
		return nil, NewPermanent(op, fmt.Errorf("неизвестный DEX '%s'", req.Dex))
	}

	amountWei, err := utils.ToWei(req.Amount)
	if err != nil {
		return nil, NewPermanent(op, err)
	}

	deadline := big.NewInt(time.Now().Add(10 * time.Minute).Unix())
	amountOutMin := big.NewInt(0) // farming traffic, slippage is not the point

	var data []byte
	var value *big.Int
	if IsNative(req.From) {
		path := []common.Address{WrappedA0GI, TokenAddresses[req.To]}
		data, err = a.routerABI.Pack("swapExactETHForTokens", amountOutMin, path, signer.Address(), deadline)
		value = amountWei
	} else {
		approveData, packErr := a.erc20ABI.Pack("approve", router, amountWei)
		if packErr != nil {
			return nil, NewPermanent(op, packErr)
		}
		if _, approveErr := a.sendAndWait(ctx, signer, TokenAddresses[req.From], big.NewInt(0), approveData, 0); approveErr != nil {
			return nil, classifySendErr(op, approveErr)
		}

		path := []common.Address{TokenAddresses[req.From], TokenAddresses[req.To]}
		data, err = a.routerABI.Pack("swapExactTokensForTokens", amountWei, amountOutMin, path, signer.Address(), deadline)
		value = big.NewInt(0)
	}
	if err != nil {
		return nil, NewPermanent(op, err)
	}

	txHash, err := a.sendAndWait(ctx, signer, router, value, data, 0)
	if err != nil {
		return nil, classifySendErr(op, err)
	}

	return &Result{
		TxHash:  txHash.Hex(),
		Details: fmt.Sprintf("Обмен %s %s -> %s через %s", req.Amount, req.From, req.To, req.Dex),
	}, nil
}

// sendAndWait builds, signs and broadcasts a transaction, then waits for its
// receipt. A receipt with a failed status is returned as an error.
func (a *EVMActions) sendAndWait(ctx context.Context, signer *evm.Signer, to common.Address, value *big.Int, data []byte, gasLimit uint64) (common.Hash, error) {
	from := signer.Address()

	nonce, err := a.client.GetNonce(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("получение nonce: %w", err)
	}

	gasPrice, err := a.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("получение цены газа: %w", err)
	}
	gasTip, err := a.client.SuggestGasTipCap(ctx)
	if err != nil {
		gasTip = big.NewInt(0)
	}

	if gasLimit == 0 {
		gasLimit, err = a.client.EstimateGasLimit(ctx, ethereum.CallMsg{
			From: from, To: &to, Value: value, Data: data,
		})
		if err != nil {
			return common.Hash{}, fmt.Errorf("оценка лимита газа: %w", err)
		}
	}

	tx := coretypes.NewTx(&coretypes.DynamicFeeTx{
		ChainID:   a.client.GetChainID(),
		Nonce:     nonce,
		GasTipCap: gasTip,
		GasFeeCap: gasPrice,
		Gas:       gasLimit,
		To:        &to,
		Value:     value,
		Data:      data,
	})

	signedTx, err := signer.SignTx(tx, a.client.GetChainID())
	if err != nil {
		return common.Hash{}, err
	}

	if err := a.client.SendRawTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, err
	}

	receipt, err := a.client.WaitForReceipt(ctx, signedTx.Hash())
	if err != nil {
		return common.Hash{}, err
	}
	if receipt.Status != coretypes.ReceiptStatusSuccessful {
		return common.Hash{}, fmt.Errorf("транзакция %s отклонена сетью (status=%d)", signedTx.Hash().Hex(), receipt.Status)
	}

	return signedTx.Hash(), nil
}

// classifySendErr maps broadcast failures onto the retry taxonomy. Balance
// and nonce problems won't heal on retry; everything else might.
func classifySendErr(op string, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "insufficient funds") ||
		strings.Contains(msg, "execution reverted") ||
		strings.Contains(msg, "invalid address") {
		return NewPermanent(op, err)
	}
	return NewTransient(op, err)
}
