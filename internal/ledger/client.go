// Package ledger implements the delivery client for the remote ledger service.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/paisaflow/paisaflow/internal/model"
	"github.com/paisaflow/paisaflow/internal/service"
)

const defaultTimeout = 30 * time.Second

// Client pushes normalized transactions to the remote ledger over an
// authenticated channel. It holds no persistent state: after a successful
// Submit the ledger is the sole owner of the record.
type Client struct {
	session    service.SessionProvider
	httpClient *http.Client
	baseURL    string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a delivery client for the ledger at baseURL.
func NewClient(baseURL string, session service.SessionProvider, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		session: session,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ledger wire types.
type submitRequest struct {
	Name            string  `json:"name"`
	Amount          float64 `json:"amount"`
	Category        string  `json:"category"`
	Note            string  `json:"note"`
	PaymentMethod   string  `json:"payment_method,omitempty"`
	ReferenceID     string  `json:"reference_id,omitempty"`
	IsAuto          bool    `json:"is_auto"`
	TransactionDate string  `json:"transaction_date"`
	Source          string  `json:"source"`
}

type submitResponse struct {
	ID string `json:"id"`
}

type patchRequest struct {
	Category           *string `json:"category,omitempty"`
	SatisfactionRating *int    `json:"satisfaction_rating,omitempty"`
}

// Submit creates the transaction on the remote ledger and returns its
// ledger id. A missing token short-circuits with ErrUnauthenticated before
// any network call; a 401 triggers exactly one refresh-and-retry.
func (c *Client) Submit(ctx context.Context, txn model.Transaction) (string, error) {
	name := txn.Vendor
	if name == "" {
		name = "Unknown " + string(txn.Direction)
	}

	payload, err := json.Marshal(submitRequest{
		Name:            name,
		Amount:          txn.Amount,
		Category:        txn.Category,
		Note:            txn.RawText,
		PaymentMethod:   string(txn.PaymentMethod),
		ReferenceID:     txn.ReferenceID,
		IsAuto:          txn.IsAuto,
		TransactionDate: txn.OccurredAt.Format(time.RFC3339),
		Source:          string(txn.Source),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode transaction: %w", err)
	}

	body, err := c.send(ctx, http.MethodPost, c.baseURL+"/transactions", payload)
	if err != nil {
		return "", err
	}

	var resp submitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: malformed ledger response: %v", ErrDeliveryFailed, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: ledger response missing transaction id", ErrDeliveryFailed)
	}

	slog.Debug("Transaction delivered", "ledger_id", resp.ID, "amount", txn.Amount)
	return resp.ID, nil
}

// Patch applies a partial update to an existing ledger transaction.
// The operation is idempotent: applying the same patch twice yields the
// same stored state.
func (c *Client) Patch(ctx context.Context, id string, fields service.PatchFields) error {
	if fields.Category == nil && fields.Satisfaction == nil {
		return nil
	}

	payload, err := json.Marshal(patchRequest{
		Category:           fields.Category,
		SatisfactionRating: fields.Satisfaction,
	})
	if err != nil {
		return fmt.Errorf("failed to encode patch: %w", err)
	}

	_, err = c.send(ctx, http.MethodPatch, c.baseURL+"/transactions/"+id, payload)
	return err
}

// send performs one authenticated request, refreshing the token at most
// once on a 401 response.
func (c *Client) send(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	token, ok := c.session.CurrentToken(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: no session token available", ErrUnauthenticated)
	}

	body, status, err := c.doOnce(ctx, method, url, payload, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	if status == http.StatusUnauthorized {
		slog.Debug("Ledger rejected token, refreshing session", "method", method)

		token, err = c.session.Refresh(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: token refresh failed: %v", ErrUnauthenticated, err)
		}

		body, status, err = c.doOnce(ctx, method, url, payload, token)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}
		if status == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: token rejected after refresh", ErrUnauthenticated)
		}
	}

	if status >= 400 {
		return nil, fmt.Errorf("%w: ledger returned %d: %s", ErrDeliveryFailed, status, summarize(body))
	}

	return body, nil
}

func (c *Client) doOnce(ctx context.Context, method, url string, payload []byte, token string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

func summarize(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
