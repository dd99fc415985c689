/**
 * @description
 * Client for the external ledger RPC gateway. It fetches the latest network
 * blockhash, builds value-transfer envelopes from the custodial treasury
 * wallet, signs them with the treasury key, and submits them for settlement.
 * The wire format is JSON-RPC 2.0 and is owned by the gateway; this client
 * consumes it opaquely.
 */
package ledgerclient

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client is a client for the ledger RPC gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	signingKey ed25519.PrivateKey
}

// NewClient creates a new ledger client. The signing key is the base64-encoded
// 32-byte ed25519 seed of the custodial treasury wallet; an empty key yields a
// client that can read the chain but refuses to submit transfers.
func NewClient(baseURL, base64SigningKey string) (*Client, error) {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	if strings.TrimSpace(base64SigningKey) != "" {
		seed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(base64SigningKey))
		if err != nil {
			return nil, fmt.Errorf("failed to decode treasury signing key: %w", err)
		}
		if len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("treasury signing key must be a %d-byte seed, got %d bytes", ed25519.SeedSize, len(seed))
		}
		c.signingKey = ed25519.NewKeyFromSeed(seed)
	}

	return c, nil
}

// CanSign reports whether the client holds a treasury signing key.
func (c *Client) CanSign() bool {
	return c.signingKey != nil
}

// TreasuryPublicKey returns the base64-encoded public half of the treasury key.
func (c *Client) TreasuryPublicKey() string {
	if c.signingKey == nil {
		return ""
	}
	pub := c.signingKey.Public().(ed25519.PublicKey)
	return base64.StdEncoding.EncodeToString(pub)
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// transferEnvelope is the signed submission payload for sendTransfer.
type transferEnvelope struct {
	Payer           string `json:"payer"`
	Recipient       string `json:"recipient"`
	Lamports        int64  `json:"lamports"`
	RecentBlockhash string `json:"recent_blockhash"`
	SignerPublicKey string `json:"signer_public_key"`
	Signature       string `json:"signature"`
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("ledger RPC base URL is not configured")
	}

	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %s request to ledger gateway: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("ledger gateway returned error status %d for %s", resp.StatusCode, method)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("ledger gateway rejected %s: %s (code %d)", method, rpcResp.Error.Message, rpcResp.Error.Code)
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// GetLatestBlockhash fetches the current network checkpoint hash required
// for the ledger to accept a transfer.
func (c *Client) GetLatestBlockhash(ctx context.Context) (string, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getLatestBlockhash", nil, &result); err != nil {
		return "", err
	}
	if result.Value.Blockhash == "" {
		return "", fmt.Errorf("ledger gateway returned an empty blockhash")
	}
	return result.Value.Blockhash, nil
}

// SubmitTransfer signs and submits one value transfer and returns the
// settlement signature assigned by the ledger.
func (c *Client) SubmitTransfer(ctx context.Context, payer, recipient string, amountLamports int64) (string, error) {
	if c.signingKey == nil {
		return "", fmt.Errorf("treasury signing key is not configured; cannot authorize transfer from %s", payer)
	}
	if amountLamports <= 0 {
		return "", fmt.Errorf("transfer amount must be positive, got %d", amountLamports)
	}

	blockhash, err := c.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch recent blockhash for payer %s: %w", payer, err)
	}

	envelope := transferEnvelope{
		Payer:           payer,
		Recipient:       recipient,
		Lamports:        amountLamports,
		RecentBlockhash: blockhash,
		SignerPublicKey: c.TreasuryPublicKey(),
	}
	envelope.Signature = base64.StdEncoding.EncodeToString(
		ed25519.Sign(c.signingKey, signingMessage(envelope)),
	)

	var signature string
	if err := c.call(ctx, "sendTransfer", []interface{}{envelope}, &signature); err != nil {
		return "", fmt.Errorf("transfer submission failed for payer %s: %w", payer, err)
	}
	if signature == "" {
		return "", fmt.Errorf("ledger gateway returned an empty signature for payer %s", payer)
	}
	return signature, nil
}

// signingMessage is the canonical byte sequence the treasury key signs.
// The gateway verifies the same encoding.
func signingMessage(e transferEnvelope) []byte {
	return []byte(fmt.Sprintf("%s|%s|%s|%d", e.RecentBlockhash, e.Payer, e.Recipient, e.Lamports))
}
