package funds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrInsufficientFunds = errors.New("funds: insufficient balance")

// Client consome a capacidade de saldo do usuário.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(base, token string) *Client {
	return &Client{
		BaseURL: base,
		Token:   token,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Current retorna o saldo disponível.
func (c *Client) Current(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/funds", nil)
	if err != nil {
		return 0, err
	}
	c.auth(req)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return 0, fmt.Errorf("funds get http %d", res.StatusCode)
	}

	var out struct {
		Funds float64 `json:"funds"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.Funds, nil
}

// Deduct debita o valor do saldo do usuário.
// A confirmação do slip debita UMA vez a soma total, não por seleção.
func (c *Client) Deduct(ctx context.Context, amount float64) error {
	body, _ := json.Marshal(map[string]float64{"amount": amount})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/funds/deduct", bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.auth(req)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusConflict {
		return ErrInsufficientFunds
	}
	if res.StatusCode >= 300 {
		return fmt.Errorf("funds deduct http %d", res.StatusCode)
	}
	return nil
}

func (c *Client) auth(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}
