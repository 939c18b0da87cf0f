package dto

// FiltersRequest é a tupla de filtros vinda do host UI.
// Mudança em qualquer campo fora page reseta a paginação.
type FiltersRequest struct {
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	Season     string `json:"season,omitempty"`
	Country    string `json:"country,omitempty"`
	League     string `json:"league,omitempty"`
	SearchTerm string `json:"searchTerm,omitempty"`
	DateFrom   string `json:"dateFrom,omitempty"`
	DateTo     string `json:"dateTo,omitempty"`
}

type SwitchMarketRequest struct {
	Market string `json:"market"` // "next-matches" | "results"
}

type ToggleRequest struct {
	MatchID   string `json:"matchId"`
	Outcome   string `json:"outcome"` // "home" | "draw" | "away"
	Odds      string `json:"odds"`
	HomeTeam  string `json:"homeTeam"`
	AwayTeam  string `json:"awayTeam"`
	League    string `json:"league"`
	MatchDate string `json:"matchDate"`
}

type StakeRequest struct {
	MatchID string `json:"matchId"`
	Outcome string `json:"outcome"`
	Amount  string `json:"amount"`
}

type StakeAllRequest struct {
	Amount string `json:"amount"`
}
