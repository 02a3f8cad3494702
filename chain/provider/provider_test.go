package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daniellrra/bako-safe-api/chain"
	"github.com/Daniellrra/bako-safe-api/chain/provider"
	"github.com/Daniellrra/bako-safe-api/utils/unittest"
)

func newClient(t *testing.T, handler http.Handler) *provider.Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return provider.NewClient(unittest.Logger(), provider.Config{
		URL:            srv.URL,
		RequestTimeout: time.Second,
	})
}

func TestSubmit(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/transactions", r.URL.Path)

		var body struct {
			Payload   string   `json:"payload"`
			Witnesses []string `json:"witnesses"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "0xdead", body.Payload)
		assert.Equal(t, []string{"0x01", "0x02"}, body.Witnesses)

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "0xabc"})
	}))

	id, err := client.Submit(context.Background(), []byte{0xde, 0xad}, [][]byte{{0x01}, {0x02}})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", id)
}

func TestSubmitRejected(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient fee", http.StatusBadRequest)
	}))

	_, err := client.Submit(context.Background(), []byte{0x01}, nil)
	require.Error(t, err)
	assert.True(t, chain.IsSubmissionError(err))
	assert.Contains(t, err.Error(), "insufficient fee")
}

func TestTxStatus(t *testing.T) {
	cases := []struct {
		response string
		fee      string
		expected chain.TxState
	}{
		{response: "pending", expected: chain.TxStatePending},
		{response: "submitted", expected: chain.TxStatePending},
		{response: "success", fee: "0.000012", expected: chain.TxStateSuccess},
		{response: "failure", fee: "0.000009", expected: chain.TxStateFailed},
	}

	for _, tc := range cases {
		t.Run(tc.response, func(t *testing.T) {
			client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/v1/transactions/0xabc", r.URL.Path)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"status": tc.response,
					"fee":    tc.fee,
				})
			}))

			result, err := client.TxStatus(context.Background(), "0xabc")
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result.State)
			assert.Equal(t, tc.fee, result.FeeUsed)
		})
	}
}

func TestTxStatusUnknown(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "sideways"})
	}))

	_, err := client.TxStatus(context.Background(), "0xabc")
	require.Error(t, err)
	assert.True(t, chain.IsVerificationError(err))
}

// After enough consecutive failures, the breaker opens and calls fail fast
// without touching the provider.
func TestBreakerOpens(t *testing.T) {
	var hits int
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	for i := 0; i < 10; i++ {
		_, err := client.TxStatus(context.Background(), "0xabc")
		require.Error(t, err)
	}
	assert.Less(t, hits, 10)
}
