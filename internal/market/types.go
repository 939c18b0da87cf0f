package market

import (
	"net/url"
	"strconv"

	"github.com/radieske/bet-session-service/internal/odds"
)

// Outcome identifica a seleção dentro do mercado 1x2.
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeDraw Outcome = "draw"
	OutcomeAway Outcome = "away"
)

// Market é o modo de consulta: próximos jogos ou resultados.
type Market string

const (
	MarketNextMatches Market = "next-matches"
	MarketResults     Market = "results"
)

// OddsQuote é a cotação de uma seleção. Decimal é derivado de Raw,
// nunca armazenado de forma independente.
type OddsQuote struct {
	Outcome Outcome `json:"outcome"`
	Raw     string  `json:"raw"`
	Decimal float64 `json:"decimal"`
}

// NewQuote deriva a cotação a partir da odd crua.
// Odds abaixo de odds.MinDecimal são tratadas como ausentes (nil).
func NewQuote(outcome Outcome, raw string) *OddsQuote {
	dec, ok := odds.ToDecimal(raw)
	if !ok || dec < odds.MinDecimal {
		return nil
	}
	return &OddsQuote{Outcome: outcome, Raw: raw, Decimal: dec}
}

// MatchRecord é uma partida dentro de uma página de resposta.
// Imutável dentro da página; substituído por inteiro no próximo fetch.
type MatchRecord struct {
	ID       string      `json:"id"`
	Date     string      `json:"date"`
	Time     string      `json:"time"`
	HomeTeam string      `json:"homeTeam"`
	AwayTeam string      `json:"awayTeam"`
	League   string      `json:"league"`
	Country  string      `json:"country"`
	Season   string      `json:"season"`
	Quotes   []OddsQuote `json:"quotes"`
	Result   *string     `json:"result,omitempty"`
}

// Quote retorna a cotação da seleção pedida, se presente.
func (m *MatchRecord) Quote(o Outcome) *OddsQuote {
	for i := range m.Quotes {
		if m.Quotes[i].Outcome == o {
			return &m.Quotes[i]
		}
	}
	return nil
}

// Filters é a tupla de filtros de uma consulta de odds.
type Filters struct {
	Page       int
	PageSize   int
	Season     string
	Country    string
	League     string
	SearchTerm string
	DateFrom   string // ISO, inclusivo; vazio = sem limite
	DateTo     string
}

// SameExceptPage compara tudo menos a página.
// Qualquer outro filtro mudando reseta a paginação pra 1.
func (f Filters) SameExceptPage(o Filters) bool {
	f.Page, o.Page = 0, 0
	return f == o
}

// Query monta a query string do serviço de odds.
func (f Filters) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("size", strconv.Itoa(f.PageSize))
	if f.Season != "" {
		q.Set("season", f.Season)
	}
	if f.Country != "" {
		q.Set("country", f.Country)
	}
	if f.League != "" {
		q.Set("league", f.League)
	}
	if f.SearchTerm != "" {
		q.Set("home_team", f.SearchTerm)
	}
	if f.DateFrom != "" {
		q.Set("date_from", f.DateFrom)
	}
	if f.DateTo != "" {
		q.Set("date_to", f.DateTo)
	}
	return q
}

// PageResult é uma página autoritativa do serviço de odds.
// totalPages/totalMatches vêm sempre do servidor, nunca calculados localmente.
type PageResult struct {
	Page         int           `json:"page"`
	PageSize     int           `json:"size"`
	TotalMatches int           `json:"total"`
	TotalPages   int           `json:"pages"`
	Matches      []MatchRecord `json:"odds"`
}

// Normalize re-deriva o decimal de cada cotação a partir da odd crua e
// descarta as sem odd utilizável. O decimal que o servidor manda nunca
// é confiado: Raw é a fonte única.
func (p *PageResult) Normalize() {
	for i := range p.Matches {
		m := &p.Matches[i]
		kept := m.Quotes[:0]
		for _, q := range m.Quotes {
			if nq := NewQuote(q.Outcome, q.Raw); nq != nil {
				kept = append(kept, *nq)
			}
		}
		m.Quotes = kept
	}
}
