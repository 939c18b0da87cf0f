package settlement

import (
	"time"

	"github.com/radieske/bet-session-service/internal/bets"
)

// RecentWindow é a janela do critério "atualizado há pouco".
// Pode gerar falso positivo se o backend atualizar outros campos em
// massa; o dedup por id no notification center é a segunda guarda.
const RecentWindow = 2 * time.Minute

// Transition é o resultado da classificação de um poll.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionSettled
)

// Entry é o que o snapshot retém por BetRecord entre polls.
type Entry struct {
	Status    string
	SettledAt *time.Time
	UpdatedAt time.Time
}

// EntryOf extrai a entrada de snapshot de um registro.
func EntryOf(r *bets.Record) Entry {
	return Entry{Status: r.Status, SettledAt: r.SettledAt, UpdatedAt: r.UpdatedAt}
}

// Classify decide se o registro acabou de ser liquidado, comparando com a
// entrada retida do poll anterior. Função pura, critérios em OR:
//   - status anterior não-terminal e atual won/lost
//   - timestamp de liquidação apareceu pela primeira vez
//   - updatedAt dentro dos últimos 2 minutos com status atual won/lost
//
// Uma vez terminal, nunca re-transiciona.
func Classify(prev Entry, curr *bets.Record, now time.Time) Transition {
	if bets.Settled(prev.Status) {
		return TransitionNone // terminal é terminal
	}

	statusFlipped := bets.Settled(curr.Status)
	settledAtAppeared := prev.SettledAt == nil && curr.SettledAt != nil
	recentlySettled := bets.Settled(curr.Status) && now.Sub(curr.UpdatedAt) <= RecentWindow

	if statusFlipped || settledAtAppeared || recentlySettled {
		return TransitionSettled
	}
	return TransitionNone
}
