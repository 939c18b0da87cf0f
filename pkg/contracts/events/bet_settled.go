package events

import "time"

// Evento publicado no tópico "bet_settled" quando o watcher detecta a
// transição pending -> won|lost de um BetRecord.
type BetSettled struct {
	BetID     string     `json:"bet_id"`
	MatchID   string     `json:"match_id"`
	Outcome   string     `json:"outcome"`
	Status    string     `json:"status"` // "won" | "lost"
	Stake     float64    `json:"stake"`
	Payout    float64    `json:"payout"` // 0 quando lost
	SettledAt *time.Time `json:"settled_at,omitempty"`
	Ts        time.Time  `json:"ts"`
}
