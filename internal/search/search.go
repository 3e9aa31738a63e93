// Package search keeps an Elasticsearch index of approved resources.
// It is a secondary, non-authoritative surface layered on top of the
// listing query; the database remains the source of truth.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Bourhlef-Y/fivemarket/internal/config"
	"github.com/Bourhlef-Y/fivemarket/internal/fault"
	"github.com/Bourhlef-Y/fivemarket/internal/models"
)

type Client struct {
	ES    *elasticsearch.Client
	Index string
}

func NewClient(cfg config.Config) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: %s: %s", res.Status(), body)
	}

	return &Client{ES: es, Index: cfg.ESIndex}, nil
}

type document struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Framework   string    `json:"framework"`
	Category    string    `json:"category"`
	Type        string    `json:"resource_type"`
	Downloads   uint      `json:"downloads"`
}

// IndexResource upserts one approved resource into the index.
func (c *Client) IndexResource(ctx context.Context, res *models.Resource) error {
	doc := document{
		ID:          res.ID,
		Title:       res.Title,
		Description: res.Description,
		Price:       res.Price,
		Framework:   res.Framework,
		Category:    res.Category,
		Type:        string(res.Type),
		Downloads:   res.Downloads,
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("index resource: %w", err)
	}

	resp, err := c.ES.Index(
		c.Index,
		bytes.NewReader(data),
		c.ES.Index.WithContext(ctx),
		c.ES.Index.WithDocumentID(res.ID.String()),
	)
	if err != nil {
		return fault.Upstreamf("index resource: %v", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fault.Upstreamf("index resource: %s", resp.Status())
	}
	return nil
}

// RemoveResource drops a resource from the index, e.g. on suspension
// or deletion. A missing document is not an error.
func (c *Client) RemoveResource(ctx context.Context, id uuid.UUID) error {
	resp, err := c.ES.Delete(
		c.Index,
		id.String(),
		c.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		return fault.Upstreamf("remove resource: %v", err)
	}
	defer resp.Body.Close()
	if resp.IsError() && resp.StatusCode != 404 {
		return fault.Upstreamf("remove resource: %s", resp.Status())
	}
	return nil
}

type Hit struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Framework   string    `json:"framework"`
	Category    string    `json:"category"`
	Type        string    `json:"resource_type"`
	Downloads   uint      `json:"downloads"`
}

func (c *Client) Search(ctx context.Context, query string, from, size int) (int64, []Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, fault.Validationf("query is required")
	}

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode search body: %w", err)
	}

	res, err := c.ES.Search(
		c.ES.Search.WithContext(ctx),
		c.ES.Search.WithIndex(c.Index),
		c.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fault.Upstreamf("search: %v", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fault.Upstreamf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Hit `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]Hit, len(r.Hits.Hits))
	for i, h := range r.Hits.Hits {
		hits[i] = h.Source
	}
	return r.Hits.Total.Value, hits, nil
}
