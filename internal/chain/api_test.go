package chain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerofarm/internal/config"
	"zerofarm/internal/logger"
)

func newTestAPIClient(url string) *apiClient {
	return newAPIClient(config.EndpointsConfig{Faucet: url}, &http.Client{Timeout: 5 * time.Second})
}

func TestPostJSON(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes a successful response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.Write([]byte(`{"success":true,"txHash":"0xdead","amount":"10"}`))
		}))
		defer srv.Close()

		resp, err := newTestAPIClient(srv.URL).postJSON(ctx, "claim", srv.URL, map[string]interface{}{"address": "0x1"})
		require.NoError(t, err)
		assert.Equal(t, "0xdead", resp.TxHash)
		assert.Equal(t, "10", resp.Amount)
	})

	t.Run("treats 4xx as permanent", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad request", http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := newTestAPIClient(srv.URL).postJSON(ctx, "claim", srv.URL, nil)
		require.Error(t, err)
		assert.False(t, IsTransient(err))
	})

	t.Run("treats 5xx as transient", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "internal", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := newTestAPIClient(srv.URL).postJSON(ctx, "claim", srv.URL, nil)
		require.Error(t, err)
		assert.True(t, IsTransient(err))
	})

	t.Run("treats 429 as transient", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := newTestAPIClient(srv.URL).postJSON(ctx, "claim", srv.URL, nil)
		require.Error(t, err)
		assert.True(t, IsTransient(err))
	})

	t.Run("a rejected request is permanent", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"message":"кран исчерпан"}`))
		}))
		defer srv.Close()

		_, err := newTestAPIClient(srv.URL).postJSON(ctx, "claim", srv.URL, nil)
		require.Error(t, err)
		assert.False(t, IsTransient(err))
		assert.Contains(t, err.Error(), "кран исчерпан")
	})

	t.Run("an unreachable service is transient", func(t *testing.T) {
		_, err := newTestAPIClient("http://127.0.0.1:1").postJSON(ctx, "claim", "http://127.0.0.1:1", nil)
		require.Error(t, err)
		assert.True(t, IsTransient(err))
	})

	t.Run("garbage in the body is transient", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>maintenance</html>"))
		}))
		defer srv.Close()

		_, err := newTestAPIClient(srv.URL).postJSON(ctx, "claim", srv.URL, nil)
		require.Error(t, err)
		assert.True(t, IsTransient(err))
	})
}

func TestClaimFaucet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"txHash":"0xfee","amount":"5"}`))
	}))
	defer srv.Close()

	actions, err := NewEVMActions(nil, config.EndpointsConfig{Faucet: srv.URL}, logger.NewNopLogger())
	require.NoError(t, err)

	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	result, err := actions.ClaimFaucet(context.Background(), addr, "A0GI")
	require.NoError(t, err)
	assert.Equal(t, "0xfee", result.TxHash)
	assert.Contains(t, result.Details, "A0GI")
}
