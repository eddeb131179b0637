package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailbill/backend/internal/domain/returns"
)

// ErrLoyaltyUnavailable indicates the loyalty service could not be
// reached
var ErrLoyaltyUnavailable = errors.New("loyalty: service unavailable")

// ErrLoyaltyRejected indicates the loyalty service rejected the credit
var ErrLoyaltyRejected = errors.New("loyalty: credit rejected")

// LoyaltyClient calls the loyalty service to credit points for POINTS
// refunds. It implements returns.PointsLedger.
type LoyaltyClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewLoyaltyClient creates a client for the loyalty service.
func NewLoyaltyClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*LoyaltyClient, error) {
	if baseURL == "" {
		return nil, errors.New("loyalty: base URL is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoyaltyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

type creditPointsRequest struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Points     int64     `json:"points"`
	Reference  string    `json:"reference"`
}

type creditPointsResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// CreditPoints credits loyalty points to the customer account. The
// reference is the return number; the loyalty service deduplicates on
// it.
func (c *LoyaltyClient) CreditPoints(ctx context.Context, tenantID, customerID uuid.UUID, points int64, reference string) error {
	if points <= 0 {
		return nil
	}

	raw, err := json.Marshal(creditPointsRequest{
		TenantID:   tenantID,
		CustomerID: customerID,
		Points:     points,
		Reference:  reference,
	})
	if err != nil {
		return fmt.Errorf("loyalty: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/loyalty/credits", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("loyalty: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoyaltyUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("loyalty: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d", ErrLoyaltyRejected, resp.StatusCode)
	}

	var result creditPointsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("loyalty: failed to decode response: %w", err)
	}
	if !result.Accepted {
		return fmt.Errorf("%w: %s", ErrLoyaltyRejected, result.Message)
	}

	c.logger.Info("loyalty points credited",
		zap.String("reference", reference),
		zap.String("customer_id", customerID.String()),
		zap.Int64("points", points))
	return nil
}

var _ returns.PointsLedger = (*LoyaltyClient)(nil)
