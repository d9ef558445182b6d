package recommender

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

	"github.com/retailgenie/orchestrator/internal/catalog"
	pkgerrors "github.com/retailgenie/orchestrator/pkg/errors"
)

const (
	defaultTimeout            = 10 * time.Second
	defaultLimit              = 5
	errorBodyReadLimit  int64 = 1024
)

var errBaseURLRequired = errors.New("recommender base url is required")

// Gateway calls the external recommender service. Failures surface as typed
// dependency errors so the chat layer can degrade to empty results without
// losing the signal.
type Gateway struct {
	httpClient *http.Client
	baseURL    string
	limit      int
}

// Option configures optional gateway behavior.
type Option func(*Gateway)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithTimeout overrides the request timeout on the default client.
func WithTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		if timeout > 0 {
			g.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithDefaultLimit overrides the result count requested when a filter does
// not specify one.
func WithDefaultLimit(limit int) Option {
	return func(g *Gateway) {
		if limit > 0 {
			g.limit = limit
		}
	}
}

// NewGateway builds a recommender gateway for the given base URL.
func NewGateway(baseURL string, opts ...Option) (*Gateway, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	gateway := &Gateway{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limit:      defaultLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(gateway)
		}
	}
	return gateway, nil
}

// Filters narrows a recommendation query.
type Filters struct {
	Limit    int
	MinPrice *float64
	MaxPrice *float64
	Category string
}

type recommendRequest struct {
	Query    string   `json:"query"`
	TopK     int      `json:"top_k"`
	MinPrice *float64 `json:"min_price"`
	MaxPrice *float64 `json:"max_price"`
	Category *string  `json:"category"`
}

// Recommend posts the query to the recommender and returns its ranked
// products in the order the service produced them.
func (g *Gateway) Recommend(ctx context.Context, query string, filters Filters) ([]catalog.Product, error) {
	if g == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "recommender gateway not configured")
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = g.limit
	}
	payload := recommendRequest{
		Query:    query,
		TopK:     limit,
		MinPrice: filters.MinPrice,
		MaxPrice: filters.MaxPrice,
	}
	if filters.Category != "" {
		category := filters.Category
		payload.Category = &category
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal recommend request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/recommend", bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build recommend request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute recommend request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"recommend request failed")
	}

	var apiResp struct {
		Results []catalog.Product `json:"results"`
		// legacy response shape
		Items []catalog.Product `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode recommend response")
	}

	results := apiResp.Results
	if results == nil {
		results = apiResp.Items
	}
	if results == nil {
		results = []catalog.Product{}
	}
	return results, nil
}
