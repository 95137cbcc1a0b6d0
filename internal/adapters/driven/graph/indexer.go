// Package graph implements the batch indexer port against a Microsoft
// Graph style external connection: items are uploaded as PUT sub-requests
// bundled into $batch calls.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/edgar-core/internal/core/domain"
	"github.com/custodia-labs/edgar-core/internal/core/ports/driven"
)

const defaultTimeout = 60 * time.Second

// Config holds the Graph indexer configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://graph.microsoft.com/v1.0".
	BaseURL string
	// ConnectionID names the external connection items are written to.
	ConnectionID string

	Tokens     driven.TokenProvider
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Indexer uploads index items in batches.
type Indexer struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

var _ driven.BatchIndexer = (*Indexer)(nil)

// NewIndexer validates the configuration and builds an Indexer.
func NewIndexer(cfg Config) (*Indexer, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("graph: base url is required: %w", domain.ErrInvalidInput)
	}
	if cfg.ConnectionID == "" {
		return nil, fmt.Errorf("graph: connection id is required: %w", domain.ErrInvalidInput)
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("graph: token provider is required: %w", domain.ErrInvalidInput)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		cfg:    cfg,
		http:   cfg.HTTPClient,
		logger: logger.With("adapter", "graph"),
	}, nil
}

// subRequest is one entry of a $batch request.
type subRequest struct {
	ID      string            `json:"id"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Body    *domain.IndexItem `json:"body"`
	Headers map[string]string `json:"headers"`
}

type batchRequest struct {
	Requests []subRequest `json:"requests"`
}

type batchResponse struct {
	Responses []struct {
		ID     string          `json:"id"`
		Status int             `json:"status"`
		Body   json.RawMessage `json:"body"`
	} `json:"responses"`
}

// IndexBatch uploads one batch of items in a single $batch call. Any failed
// sub-request fails the whole batch so the caller marks nothing processed.
func (ix *Indexer) IndexBatch(ctx context.Context, items []*domain.IndexItem) error {
	if len(items) == 0 {
		return nil
	}

	payload := batchRequest{Requests: make([]subRequest, 0, len(items))}
	for i, item := range items {
		payload.Requests = append(payload.Requests, subRequest{
			ID:      strconv.Itoa(i + 1),
			Method:  http.MethodPut,
			URL:     fmt.Sprintf("/external/connections/%s/items/%s", ix.cfg.ConnectionID, item.ID),
			Body:    item,
			Headers: map[string]string{"Content-Type": "application/json"},
		})
	}

	var result batchResponse
	if err := ix.post(ctx, "/$batch", payload, &result); err != nil {
		return err
	}

	for _, resp := range result.Responses {
		if resp.Status >= 300 {
			ix.logger.Error("batch sub-request rejected",
				"sub_request", resp.ID,
				"status", resp.Status)
			return fmt.Errorf("sub-request %s failed with status %d: %w",
				resp.ID, resp.Status, domain.ErrBatchRejected)
		}
	}

	ix.logger.Debug("batch uploaded", "items", len(items))
	return nil
}

// HealthCheck verifies the external connection exists and the token works.
func (ix *Indexer) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/external/connections/%s", ix.cfg.BaseURL, ix.cfg.ConnectionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if err := ix.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := ix.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: connection %s returned status %d",
			ix.cfg.ConnectionID, resp.StatusCode)
	}
	return nil
}

func (ix *Indexer) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ix.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := ix.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := ix.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting batch: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading batch response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("batch endpoint returned status %d: %w", resp.StatusCode, domain.ErrBatchRejected)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding batch response: %w", err)
	}
	return nil
}

func (ix *Indexer) authorize(ctx context.Context, req *http.Request) error {
	token, err := ix.cfg.Tokens.GetAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("acquiring token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}
