package notify

import (
	"testing"

	"github.com/radieske/bet-session-service/internal/bets"
)

func TestCenter_SettledDedupedByID(t *testing.T) {
	c := NewCenter()
	rec := &bets.Record{ID: "b1", Status: bets.StatusWon}

	c.Settled(rec)
	c.Settled(rec) // guarda defensiva: mesma liquidação repetida

	if got := c.Unread(); got != 1 {
		t.Fatalf("unread = %d, want 1 (duplicate settled must be filtered by id)", got)
	}
}

func TestCenter_NewBetNotDeduped(t *testing.T) {
	c := NewCenter()
	c.NewBet(&bets.Record{ID: "b1"})
	c.NewBet(&bets.Record{ID: "b2"})

	if got := c.Unread(); got != 2 {
		t.Fatalf("unread = %d, want 2", got)
	}
}

func TestCenter_AcknowledgeClears(t *testing.T) {
	c := NewCenter()
	c.NewBet(&bets.Record{ID: "b1"})
	c.Settled(&bets.Record{ID: "b2", Status: bets.StatusLost})

	c.Acknowledge()
	if c.Unread() != 0 || len(c.List()) != 0 {
		t.Error("acknowledge must clear the notification list")
	}

	// o dedup sobrevive ao acknowledge
	c.Settled(&bets.Record{ID: "b2", Status: bets.StatusLost})
	if c.Unread() != 0 {
		t.Error("acknowledged settlement must not be re-notified")
	}
}

func TestCenter_ListNewestFirst(t *testing.T) {
	c := NewCenter()
	c.NewBet(&bets.Record{ID: "b1"})
	c.NewBet(&bets.Record{ID: "b2"})

	list := c.List()
	if len(list) != 2 || list[0].BetRecordID != "b2" {
		t.Errorf("expected newest first, got %+v", list)
	}
}

func TestCenter_OnPublishPropagates(t *testing.T) {
	c := NewCenter()
	var got []Notification
	c.OnPublish = func(n Notification) { got = append(got, n) }

	c.NewBet(&bets.Record{ID: "b1"})
	if len(got) != 1 || got[0].Kind != KindNewBet {
		t.Errorf("OnPublish = %+v", got)
	}
}
