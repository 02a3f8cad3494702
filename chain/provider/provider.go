// Package provider implements chain.Client against the HTTP API of a chain
// provider node.
package provider

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/Daniellrra/bako-safe-api/chain"
)

const (
	defaultRequestTimeout = 15 * time.Second

	// breaker settings: stop hitting a provider that failed 5 times in a
	// row, probe again after the open period expires
	breakerConsecutiveFailures = 5
	breakerOpenPeriod          = 30 * time.Second
)

// Config parameterizes the provider client.
type Config struct {
	URL            string
	RequestTimeout time.Duration
}

// Client talks to the provider node over HTTP. All calls go through a
// circuit breaker so a dead provider fails fast instead of tying up
// submission and reconciliation paths in timeouts.
type Client struct {
	log     zerolog.Logger
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

var _ chain.Client = (*Client)(nil)

func NewClient(log zerolog.Logger, conf Config) *Client {
	timeout := conf.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "chain-provider",
		Timeout: breakerOpenPeriod,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFailures
		},
	})

	return &Client{
		log:     log.With().Str("component", "chain_provider").Logger(),
		url:     strings.TrimRight(conf.URL, "/"),
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
	}
}

type submitRequest struct {
	Payload   string   `json:"payload"`
	Witnesses []string `json:"witnesses"`
}

type submitResponse struct {
	ID string `json:"id"`
}

type statusResponse struct {
	Status string `json:"status"`
	Fee    string `json:"fee"`
}

func (c *Client) Submit(ctx context.Context, payload []byte, witnesses [][]byte) (string, error) {
	body := submitRequest{
		Payload:   "0x" + hex.EncodeToString(payload),
		Witnesses: make([]string, 0, len(witnesses)),
	}
	for _, w := range witnesses {
		body.Witnesses = append(body.Witnesses, "0x"+hex.EncodeToString(w))
	}

	var resp submitResponse
	err := c.do(ctx, http.MethodPost, "/v1/transactions", body, &resp)
	if err != nil {
		return "", chain.NewSubmissionError(err)
	}
	if resp.ID == "" {
		return "", chain.NewSubmissionError(fmt.Errorf("provider returned empty transaction id"))
	}

	c.log.Debug().Str("chain_tx_id", resp.ID).Msg("transaction submitted")
	return resp.ID, nil
}

func (c *Client) TxStatus(ctx context.Context, chainTxID string) (chain.StatusResult, error) {
	var resp statusResponse
	err := c.do(ctx, http.MethodGet, "/v1/transactions/"+chainTxID, nil, &resp)
	if err != nil {
		return chain.StatusResult{}, chain.NewVerificationError(err)
	}

	result := chain.StatusResult{FeeUsed: resp.Fee}
	switch resp.Status {
	case "pending", "submitted":
		result.State = chain.TxStatePending
	case "success":
		result.State = chain.TxStateSuccess
	case "failure", "failed":
		result.State = chain.TxStateFailed
	default:
		return chain.StatusResult{}, chain.NewVerificationError(
			fmt.Errorf("provider returned unknown status %q", resp.Status))
	}

	return result, nil
}

func (c *Client) do(ctx context.Context, method string, path string, body interface{}, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		var reader io.Reader
		if body != nil {
			encoded, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("could not encode request: %w", err)
			}
			reader = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.url+path, reader)
		if err != nil {
			return nil, fmt.Errorf("could not create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(detail))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		if err != nil {
			return nil, fmt.Errorf("could not decode response: %w", err)
		}

		return nil, nil
	})
	return err
}
