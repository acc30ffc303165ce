// Package search mirrors approved products into Elasticsearch and answers
// catalog queries from it.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/utafrali/shopper/internal/domain"
)

// ErrWindowExceeded is returned when a page lies beyond the result window.
var ErrWindowExceeded = errors.New("search: page beyond result window")

// Config holds the Elasticsearch connection settings.
type Config struct {
	URL   string
	Index string
}

// Engine is an Elasticsearch-backed product index.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

type productDoc struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func newProductDoc(p *domain.Product) productDoc {
	return productDoc{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Price:     p.Price,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID    string `json:"_id"`
			Error struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// New connects to Elasticsearch and creates the product index if it is missing.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Engine, error) {
	if cfg.Index == "" {
		cfg.Index = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{cfg.URL}})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	e := &Engine{client: client, indexName: cfg.Index, logger: logger}
	if err := e.ensureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ensure product index: %w", err)
	}
	return e, nil
}

// Ping checks whether the cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

func (e *Engine) ensureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.indexName}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	closeBody(res)
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer closeBody(res)
	if res.IsError() {
		return responseError("create index", res)
	}

	e.logger.Info("elasticsearch index created", slog.String("index", e.indexName))
	return nil
}

// Index adds or replaces one product document.
func (e *Engine) Index(ctx context.Context, p *domain.Product) error {
	data, err := json.Marshal(newProductDoc(p))
	if err != nil {
		return fmt.Errorf("marshal product document: %w", err)
	}

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(p.ID),
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	defer closeBody(res)
	if res.IsError() {
		return responseError("index product", res)
	}
	return nil
}

// Delete removes a product document. A missing document is not an error.
func (e *Engine) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(
		e.indexName,
		id,
		e.client.Delete.WithRefresh("true"),
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete product document: %w", err)
	}
	defer closeBody(res)
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete product document", res)
	}
	return nil
}

// BulkIndex adds or replaces many product documents in one request.
func (e *Engine) BulkIndex(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range products {
		action := map[string]any{"index": map[string]any{"_id": products[i].ID}}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("encode bulk action: %w", err)
		}
		if err := enc.Encode(newProductDoc(&products[i])); err != nil {
			return fmt.Errorf("encode bulk document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		&buf,
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithRefresh("true"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer closeBody(res)
	if res.IsError() {
		return responseError("bulk index", res)
	}

	var bulk bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if bulk.Errors {
		var msgs []string
		for _, item := range bulk.Items {
			if item.Index.Error.Type != "" {
				msgs = append(msgs, fmt.Sprintf("id=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("bulk index: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Search returns the ids of the products matching filter, in filter order,
// and the size of the whole match set. An unpaginated filter returns at
// most one result window of ids.
func (e *Engine) Search(ctx context.Context, filter domain.ProductFilter) ([]string, int, error) {
	query, err := buildQuery(filter)
	if err != nil {
		return nil, 0, err
	}
	data, err := json.Marshal(query)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal search query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("search products: %w", err)
	}
	defer closeBody(res)
	if res.IsError() {
		return nil, 0, responseError("search products", res)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]string, 0, len(sr.Hits.Hits))
	for _, hit := range sr.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, sr.Hits.Total.Value, nil
}

// buildQuery translates a catalog filter into the query DSL.
func buildQuery(f domain.ProductFilter) (map[string]any, error) {
	filters := []any{
		map[string]any{"term": map[string]any{"status": domain.ProductStatusApprove}},
		map[string]any{"range": map[string]any{"price": map[string]any{"gte": f.MinPrice, "lte": f.MaxPrice}}},
	}
	if !f.AnyCategory() {
		filters = append(filters, map[string]any{"term": map[string]any{"category": f.Category}})
	}
	if f.Search != "" {
		filters = append(filters, map[string]any{"wildcard": map[string]any{
			"name": map[string]any{
				"value":            "*" + escapeWildcard(f.Search) + "*",
				"case_insensitive": true,
			},
		}})
	}

	from, size := 0, maxResultWindow
	if f.Paginated() {
		from, size = f.Offset(), f.PerPage
		if from > maxResultWindow-size {
			return nil, ErrWindowExceeded
		}
	}

	return map[string]any{
		"query":            map[string]any{"bool": map[string]any{"filter": filters}},
		"sort":             sortClause(f.Sort),
		"from":             from,
		"size":             size,
		"_source":          false,
		"track_total_hits": true,
	}, nil
}

func sortClause(sort string) []any {
	switch sort {
	case domain.SortPriceLow:
		return []any{map[string]any{"price": "asc"}, map[string]any{"id": "asc"}}
	case domain.SortPriceHigh:
		return []any{map[string]any{"price": "desc"}, map[string]any{"id": "asc"}}
	default:
		return []any{map[string]any{"created_at": "asc"}, map[string]any{"id": "asc"}}
	}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// escapeWildcard makes every character of term match literally.
func escapeWildcard(term string) string {
	return wildcardEscaper.Replace(term)
}

func responseError(op string, res *esapi.Response) error {
	var er errorResponse
	if err := json.NewDecoder(res.Body).Decode(&er); err == nil && er.Error.Type != "" {
		return fmt.Errorf("%s: %s: %s", op, er.Error.Type, er.Error.Reason)
	}
	return fmt.Errorf("%s: unexpected status %s", op, res.Status())
}

func closeBody(res *esapi.Response) {
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
