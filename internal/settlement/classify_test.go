package settlement

import (
	"testing"
	"time"

	"github.com/radieske/bet-session-service/internal/bets"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func rec(status string, settledAt *time.Time, updatedAt time.Time) *bets.Record {
	return &bets.Record{ID: "b1", Status: status, SettledAt: settledAt, UpdatedAt: updatedAt}
}

func TestClassify_PendingToWon(t *testing.T) {
	prev := Entry{Status: bets.StatusPending, UpdatedAt: now.Add(-time.Hour)}
	got := Classify(prev, rec(bets.StatusWon, nil, now.Add(-time.Hour)), now)
	if got != TransitionSettled {
		t.Errorf("pending -> won must classify as settled, got %v", got)
	}
}

func TestClassify_PendingToLost(t *testing.T) {
	prev := Entry{Status: bets.StatusPending}
	if got := Classify(prev, rec(bets.StatusLost, nil, now.Add(-time.Hour)), now); got != TransitionSettled {
		t.Errorf("pending -> lost must classify as settled, got %v", got)
	}
}

func TestClassify_StillPending(t *testing.T) {
	prev := Entry{Status: bets.StatusPending}
	if got := Classify(prev, rec(bets.StatusPending, nil, now), now); got != TransitionNone {
		t.Errorf("pending -> pending must be none, got %v", got)
	}
}

func TestClassify_TerminalNeverRefires(t *testing.T) {
	settled := now.Add(-time.Hour)
	prev := Entry{Status: bets.StatusWon, SettledAt: &settled}
	// mesmo com updatedAt recente, terminal não re-transiciona
	if got := Classify(prev, rec(bets.StatusWon, &settled, now), now); got != TransitionNone {
		t.Errorf("settled record must never re-fire, got %v", got)
	}
}

func TestClassify_SettledAtAppearsFirstTime(t *testing.T) {
	prev := Entry{Status: bets.StatusPending}
	settled := now.Add(-time.Minute)
	// status ainda pending mas o timestamp de liquidação apareceu
	if got := Classify(prev, rec(bets.StatusPending, &settled, now.Add(-time.Hour)), now); got != TransitionSettled {
		t.Errorf("first settlement timestamp must classify as settled, got %v", got)
	}
}

func TestClassify_UnknownRecordAlreadySettled(t *testing.T) {
	// registro que surge já liquidado depois da inicialização
	if got := Classify(Entry{}, rec(bets.StatusWon, nil, now), now); got != TransitionSettled {
		t.Errorf("unknown record arriving settled must fire once, got %v", got)
	}
}
