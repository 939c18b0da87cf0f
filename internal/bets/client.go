package bets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Status de uma aposta confirmada no backend de registro.
// Transições permitidas: pending -> won | pending -> lost, nunca reverte.
const (
	StatusPending = "pending"
	StatusWon     = "won"
	StatusLost    = "lost"
)

// Settled diz se o status é terminal.
func Settled(status string) bool {
	return status == StatusWon || status == StatusLost
}

// Record é a aposta confirmada pelo servidor. O cliente guarda só um
// cache read-through; o dono do registro é o backend.
type Record struct {
	ID           string     `json:"id"`
	MatchID      string     `json:"match_id"`
	Outcome      string     `json:"outcome"`
	Stake        float64    `json:"stake"`
	DecimalOdds  float64    `json:"decimal_odds"`
	PotentialWin float64    `json:"potential_win"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	SettledAt    *time.Time `json:"settled_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewRecord é o payload de criação de uma aposta.
type NewRecord struct {
	MatchID     string  `json:"match_id"`
	Outcome     string  `json:"outcome"`
	Stake       float64 `json:"stake"`
	DecimalOdds float64 `json:"decimal_odds"`
}

// RecordPage é uma página do histórico de apostas.
type RecordPage struct {
	Records    []Record `json:"records"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
	TotalPages int      `json:"total_pages"`
}

// Stats são os agregados reportados pelo backend.
type Stats struct {
	TotalBets   int     `json:"total_bets"`
	WinRate     float64 `json:"win_rate"`
	TotalProfit float64 `json:"total_profit"`
	PendingBets int     `json:"pending_bets"`
}

// ErrUnauthorized indica credencial ausente ou expirada (401).
// Requer reautenticação, não retry.
var ErrUnauthorized = errors.New("bets: missing or expired credential")

// ValidationError é a rejeição 422 do backend.
type ValidationError struct{ Detail string }

func (e *ValidationError) Error() string { return "bets: validation failed: " + e.Detail }

// Lister é a capacidade de listagem consumida pelo settlement watcher.
type Lister interface {
	List(ctx context.Context, page, perPage int, status string) (*RecordPage, error)
}

// Client consome a capacidade de registros de aposta via HTTP autenticado.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(base, token string) *Client {
	return &Client{
		BaseURL: base,
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Create registra uma aposta no backend.
func (c *Client) Create(ctx context.Context, nr NewRecord) (*Record, error) {
	body, _ := json.Marshal(nr)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/bets", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.auth(req)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case res.StatusCode == http.StatusUnprocessableEntity:
		var e struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(res.Body).Decode(&e)
		return nil, &ValidationError{Detail: e.Detail}
	case res.StatusCode >= 300:
		return nil, fmt.Errorf("bets create http %d", res.StatusCode)
	}

	var out Record
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List retorna uma página do histórico, opcionalmente filtrada por status.
func (c *Client) List(ctx context.Context, page, perPage int, status string) (*RecordPage, error) {
	u := c.BaseURL + "/v1/bets?page=" + strconv.Itoa(page) + "&per_page=" + strconv.Itoa(perPage)
	if status != "" {
		u += "&status=" + status
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.auth(req)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("bets list http %d", res.StatusCode)
	}

	var out RecordPage
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStats retorna os agregados do usuário.
func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/bets/stats", nil)
	if err != nil {
		return nil, err
	}
	c.auth(req)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("bets stats http %d", res.StatusCode)
	}

	var out Stats
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) auth(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}
