package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/bet-session-service/internal/bets"
)

// Kind das notificações consumidas pelo host UI.
type Kind string

const (
	KindNewBet  Kind = "new-bet"
	KindSettled Kind = "settled"
)

// Notification é transiente: vive até o acknowledgement explícito
// (ex: usuário visitando a tela de resumo).
type Notification struct {
	ID          string         `json:"id"`
	BetRecordID string         `json:"betRecordId"`
	Kind        Kind           `json:"kind"`
	Payload     map[string]any `json:"payload,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Center acumula notificações da sessão e deduplica liquidações por
// BetRecord id, segunda guarda além do snapshot do watcher.
type Center struct {
	mu          sync.Mutex
	items       []Notification
	seenSettled map[string]struct{}

	// OnPublish propaga pra fora (ws hub, kafka)
	OnPublish func(n Notification)
}

func NewCenter() *Center {
	return &Center{seenSettled: make(map[string]struct{})}
}

// NewBet publica a notificação de aposta recém-confirmada.
func (c *Center) NewBet(rec *bets.Record) {
	c.publish(Notification{
		ID:          uuid.NewString(),
		BetRecordID: rec.ID,
		Kind:        KindNewBet,
		Payload: map[string]any{
			"matchId":      rec.MatchID,
			"outcome":      rec.Outcome,
			"stake":        rec.Stake,
			"potentialWin": rec.PotentialWin,
		},
		CreatedAt: time.Now(),
	})
}

// Settled publica a notificação de liquidação, no máximo uma por BetRecord.
func (c *Center) Settled(rec *bets.Record) {
	c.mu.Lock()
	if _, dup := c.seenSettled[rec.ID]; dup {
		c.mu.Unlock()
		return
	}
	c.seenSettled[rec.ID] = struct{}{}
	c.mu.Unlock()

	c.publish(Notification{
		ID:          uuid.NewString(),
		BetRecordID: rec.ID,
		Kind:        KindSettled,
		Payload: map[string]any{
			"matchId": rec.MatchID,
			"outcome": rec.Outcome,
			"status":  rec.Status,
		},
		CreatedAt: time.Now(),
	})
}

func (c *Center) publish(n Notification) {
	c.mu.Lock()
	c.items = append(c.items, n)
	c.mu.Unlock()
	if c.OnPublish != nil {
		c.OnPublish(n)
	}
}

// List devolve as notificações não reconhecidas, mais recente primeiro.
func (c *Center) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	for i, n := range c.items {
		out[len(c.items)-1-i] = n
	}
	return out
}

// Unread é o contador exposto no badge da UI.
func (c *Center) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Acknowledge limpa a lista. O índice de dedup fica: reconhecer uma
// liquidação não permite renotificá-la.
func (c *Center) Acknowledge() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}
