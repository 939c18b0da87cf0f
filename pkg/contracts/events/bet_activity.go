package events

import "time"

// Evento publicado no tópico "bet_activity" a cada aposta confirmada
// pela sessão.
type BetActivity struct {
	BetID        string    `json:"bet_id"`
	MatchID      string    `json:"match_id"`
	Outcome      string    `json:"outcome"`
	Stake        float64   `json:"stake"`
	DecimalOdds  float64   `json:"decimal_odds"`
	PotentialWin float64   `json:"potential_win"`
	Ts           time.Time `json:"ts"`
}
