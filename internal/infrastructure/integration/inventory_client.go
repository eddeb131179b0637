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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retailbill/backend/internal/domain/returns"
)

// maxResponseSize is the maximum allowed response size from downstream
// services (1MB)
const maxResponseSize = 1 * 1024 * 1024

// ErrInventoryUnavailable indicates the inventory service could not be
// reached
var ErrInventoryUnavailable = errors.New("inventory: service unavailable")

// ErrInventoryRejected indicates the inventory service rejected the
// restock request
var ErrInventoryRejected = errors.New("inventory: restock rejected")

// InventoryClient calls the inventory service to put returned goods
// back into stock. It implements returns.StockRestocker.
type InventoryClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewInventoryClient creates a client for the inventory service.
func NewInventoryClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*InventoryClient, error) {
	if baseURL == "" {
		return nil, errors.New("inventory: base URL is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

type restockLinePayload struct {
	ProductID     uuid.UUID       `json:"product_id"`
	VariantID     *uuid.UUID      `json:"variant_id,omitempty"`
	ProductName   string          `json:"product_name"`
	Quantity      decimal.Decimal `json:"quantity"`
	LooseQuantity decimal.Decimal `json:"loose_quantity"`
	PackSize      decimal.Decimal `json:"pack_size"`
}

type restockRequest struct {
	TenantID    uuid.UUID            `json:"tenant_id"`
	WarehouseID uuid.UUID            `json:"warehouse_id"`
	Reference   string               `json:"reference"`
	Lines       []restockLinePayload `json:"lines"`
}

type restockResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// Restock books the returned quantities back into the given warehouse.
// The reference is the return number; the inventory service uses it to
// deduplicate repeated submissions.
func (c *InventoryClient) Restock(ctx context.Context, tenantID, warehouseID uuid.UUID, returnNumber string, lines []returns.RestockLine) error {
	if len(lines) == 0 {
		return nil
	}

	payload := restockRequest{
		TenantID:    tenantID,
		WarehouseID: warehouseID,
		Reference:   returnNumber,
		Lines:       make([]restockLinePayload, len(lines)),
	}
	for i, l := range lines {
		payload.Lines[i] = restockLinePayload{
			ProductID:     l.ProductID,
			VariantID:     l.VariantID,
			ProductName:   l.ProductName,
			Quantity:      l.Quantity,
			LooseQuantity: l.Loose,
			PackSize:      l.PackSize,
		}
	}

	body, err := c.post(ctx, c.baseURL+"/api/v1/inventory/restock", payload)
	if err != nil {
		return err
	}

	var result restockResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("inventory: failed to decode response: %w", err)
	}
	if !result.Accepted {
		return fmt.Errorf("%w: %s", ErrInventoryRejected, result.Message)
	}

	c.logger.Info("restock accepted by inventory service",
		zap.String("reference", returnNumber),
		zap.String("warehouse_id", warehouseID.String()),
		zap.Int("lines", len(lines)))
	return nil
}

func (c *InventoryClient) post(ctx context.Context, url string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("inventory: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("inventory: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInventoryUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("inventory: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrInventoryRejected, resp.StatusCode)
	}
	return body, nil
}

var _ returns.StockRestocker = (*InventoryClient)(nil)
