package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"zerofarm/internal/config"
	"zerofarm/internal/evm"
	"zerofarm/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

// apiClient talks to the hub HTTP services (faucet, mint, domain, storage).
type apiClient struct {
	endpoints config.EndpointsConfig
	http      *http.Client
}

func newAPIClient(endpoints config.EndpointsConfig, httpClient *http.Client) *apiClient {
	return &apiClient{endpoints: endpoints, http: httpClient}
}

type apiResponse struct {
	Success bool   `json:"success"`
	TxHash  string `json:"txHash"`
	Amount  string `json:"amount"`
	TokenID int64  `json:"tokenId"`
	Domain  string `json:"domain"`
	FileURL string `json:"fileUrl"`
	Message string `json:"message"`
}

// postJSON sends the request and decodes the standard hub response shape.
// 4xx answers are permanent, 5xx and 429 transient.
func (c *apiClient) postJSON(ctx context.Context, op, url string, body interface{}) (*apiResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, NewPermanent(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, NewPermanent(op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, NewTransient(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, NewTransient(op, err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, NewTransient(op, fmt.Errorf("сервис ответил %d: %s", resp.StatusCode, raw))
	}
	if resp.StatusCode >= 400 {
		return nil, NewPermanent(op, fmt.Errorf("сервис ответил %d: %s", resp.StatusCode, raw))
	}

	var decoded apiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, NewTransient(op, fmt.Errorf("неожиданный ответ сервиса: %w", err))
	}
	if !decoded.Success {
		return nil, NewPermanent(op, fmt.Errorf("сервис отклонил запрос: %s", decoded.Message))
	}

	return &decoded, nil
}

// signedPayload authenticates a request by signing its address field.
func signedPayload(signer *evm.Signer, fields map[string]interface{}) (map[string]interface{}, error) {
	addr := signer.Address().Hex()
	sig, err := signer.SignPersonalMessage([]byte(addr))
	if err != nil {
		return nil, err
	}
	fields["address"] = addr
	fields["signature"] = "0x" + hex.EncodeToString(sig)
	return fields, nil
}

// ClaimFaucet requests test tokens from the hub faucet.
func (a *EVMActions) ClaimFaucet(ctx context.Context, address common.Address, token types.TokenSymbol) (*Result, error) {
	const op = "claim"

	resp, err := a.api.postJSON(ctx, op, a.api.endpoints.Faucet, map[string]interface{}{
		"address": address.Hex(),
		"token":   string(token),
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		TxHash:  resp.TxHash,
		Details: fmt.Sprintf("Кран выдал %s %s", resp.Amount, token),
	}, nil
}

// MintNFT mints one item of the hub collection for the wallet.
func (a *EVMActions) MintNFT(ctx context.Context, signer *evm.Signer, metadata string) (*Result, error) {
	const op = "mint"

	body, err := signedPayload(signer, map[string]interface{}{"metadata": metadata})
	if err != nil {
		return nil, NewPermanent(op, err)
	}

	resp, err := a.api.postJSON(ctx, op, a.api.endpoints.Mint, body)
	if err != nil {
		return nil, err
	}

	return &Result{
		TxHash:  resp.TxHash,
		Details: fmt.Sprintf("Сминчен NFT #%d", resp.TokenID),
	}, nil
}

// RegisterDomain registers a name for the wallet through the hub registrar.
func (a *EVMActions) RegisterDomain(ctx context.Context, signer *evm.Signer, name string) (*Result, error) {
	const op = "register"

	body, err := signedPayload(signer, map[string]interface{}{"name": name})
	if err != nil {
		return nil, NewPermanent(op, err)
	}

	resp, err := a.api.postJSON(ctx, op, a.api.endpoints.Domain, body)
	if err != nil {
		return nil, err
	}

	return &Result{
		TxHash:  resp.TxHash,
		Details: fmt.Sprintf("Зарегистрирован домен %s", resp.Domain),
	}, nil
}

// UploadFile stores a payload in 0G Storage on behalf of the wallet.
func (a *EVMActions) UploadFile(ctx context.Context, signer *evm.Signer, payload []byte) (*Result, error) {
	const op = "upload"

	body, err := signedPayload(signer, map[string]interface{}{
		"data": "0x" + hex.EncodeToString(payload),
	})
	if err != nil {
		return nil, NewPermanent(op, err)
	}

	resp, err := a.api.postJSON(ctx, op, a.api.endpoints.Storage, body)
	if err != nil {
		return nil, err
	}

	return &Result{
		TxHash:  resp.TxHash,
		Details: fmt.Sprintf("Файл загружен: %s", resp.FileURL),
	}, nil
}
