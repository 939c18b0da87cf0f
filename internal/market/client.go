package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Fetcher é a capacidade de execução de consulta fornecida pelo host.
// O coordinator só depende disso.
type Fetcher interface {
	Query(ctx context.Context, m Market, f Filters) (*PageResult, error)
}

// Client consome o serviço remoto de odds via HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Cache   *Cache // opcional; read-through quando presente
}

func NewClient(base string, cache *Cache) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Cache:   cache,
	}
}

// Query busca uma página de odds filtrada, preferencialmente do cache.
func (c *Client) Query(ctx context.Context, m Market, f Filters) (*PageResult, error) {
	if c.Cache != nil {
		var cached PageResult
		if ok, _ := c.Cache.Get(ctx, m, f, &cached); ok {
			return &cached, nil
		}
	}

	path := "/v1/odds"
	if m == MarketResults {
		path = "/v1/results"
	}
	u := c.BaseURL + path + "?" + f.Query().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("odds query http %d", res.StatusCode)
	}

	var out PageResult
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	out.Normalize()

	if c.Cache != nil {
		_ = c.Cache.Set(ctx, m, f, &out, 30*time.Second) // cache por 30s
	}
	return &out, nil
}
