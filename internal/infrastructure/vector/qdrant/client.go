package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/corpusjuris/interrogator/internal/core/domain"
	"github.com/corpusjuris/interrogator/internal/infrastructure/resilience"
)

// Client reads the legal corpus from one qdrant collection. The collection
// is populated by the ingestion pipeline, which is a separate service; this
// client only searches and scrolls.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor
	scrollPage int
}

type Options struct {
	Timeout            time.Duration
	ScrollPageSize     int
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, collection string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	page := options.ScrollPageSize
	if page <= 0 {
		page = 256
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
		scrollPage: page,
	}
}

// SearchByVector runs nearest-neighbour search over the collection. The
// threshold is pushed down to qdrant so below-threshold points never leave
// the store.
func (c *Client) SearchByVector(ctx context.Context, vector []float32, k int, threshold float64) (domain.RankedList, error) {
	reqBody := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if threshold > 0 {
		reqBody["score_threshold"] = threshold
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", c.collection)
	if err := c.postJSON(ctx, path, reqBody, &searchResp, "search"); err != nil {
		return nil, err
	}

	out := make(domain.RankedList, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.RankedDocument{
			Document: documentFromPayload(r.Payload),
			Score:    r.Score,
		})
	}
	return out, nil
}

// FetchCorpus scrolls the whole collection for lexical indexing. Pages are
// walked by point offset until qdrant reports no next page.
func (c *Client) FetchCorpus(ctx context.Context) ([]domain.Document, error) {
	var (
		corpus []domain.Document
		offset any
	)
	path := fmt.Sprintf("/collections/%s/points/scroll", c.collection)

	for {
		reqBody := map[string]any{
			"limit":        c.scrollPage,
			"with_payload": true,
			"with_vector":  false,
		}
		if offset != nil {
			reqBody["offset"] = offset
		}

		var scrollResp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := c.postJSON(ctx, path, reqBody, &scrollResp, "scroll"); err != nil {
			return nil, err
		}

		for _, p := range scrollResp.Result.Points {
			corpus = append(corpus, documentFromPayload(p.Payload))
		}
		if scrollResp.Result.NextPageOffset == nil {
			return corpus, nil
		}
		offset = scrollResp.Result.NextPageOffset
	}
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	call := func(ctx context.Context) error {
		return c.doPost(ctx, path, payload, out, operation)
	}
	if c.executor != nil {
		return c.executor.Execute(ctx, "qdrant."+operation, call, classifyError)
	}
	return call(ctx)
}

func (c *Client) doPost(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{
			operation:  operation,
			statusCode: resp.StatusCode,
			status:     resp.Status,
			body:       strings.TrimSpace(string(raw)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// documentFromPayload maps a qdrant payload to a corpus document. The
// ingestion service writes the span text under "text" and locating fields
// under "metadata".
func documentFromPayload(payload map[string]any) domain.Document {
	doc := domain.Document{Content: getStringPayload(payload, "text")}
	if doc.Content == "" {
		doc.Content = getStringPayload(payload, "page_content")
	}

	raw, ok := payload["metadata"].(map[string]any)
	if !ok {
		return doc
	}
	meta := make(map[string]string, len(raw))
	for key, value := range raw {
		if s, ok := value.(string); ok {
			meta[key] = s
		}
	}
	if len(meta) > 0 {
		doc.Metadata = meta
	}
	return doc
}

func getStringPayload(payload map[string]any, key string) string {
	if value, ok := payload[key].(string); ok {
		return value
	}
	return ""
}
