package settlement

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-session-service/internal/bets"
)

// fakeLister serve o histórico corrente, mutável entre polls.
type fakeLister struct {
	mu      sync.Mutex
	records []bets.Record
}

func (f *fakeLister) set(records ...bets.Record) {
	f.mu.Lock()
	f.records = records
	f.mu.Unlock()
}

func (f *fakeLister) List(_ context.Context, page, perPage int, _ string) (*bets.RecordPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if page > 1 {
		return &bets.RecordPage{Page: page, PerPage: perPage, TotalPages: 1}, nil
	}
	return &bets.RecordPage{
		Records:    append([]bets.Record(nil), f.records...),
		Total:      len(f.records),
		Page:       1,
		PerPage:    perPage,
		TotalPages: 1,
	}, nil
}

func pending(id string) bets.Record {
	return bets.Record{ID: id, Status: bets.StatusPending, UpdatedAt: time.Now()}
}

func won(id string) bets.Record {
	now := time.Now()
	return bets.Record{ID: id, Status: bets.StatusWon, SettledAt: &now, UpdatedAt: now}
}

func TestWatcher_InitializationEmitsNothing(t *testing.T) {
	lister := &fakeLister{}
	lister.set(won("b1"), pending("b2")) // b1 já liquidada historicamente

	w := NewWatcher(zap.NewNop(), lister, nil)
	var events []string
	w.OnSettled = func(r *bets.Record) { events = append(events, r.ID) }

	if err := w.initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := w.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("historical settled bets must not fire on init, got %v", events)
	}
}

func TestWatcher_SettlementReportedExactlyOnce(t *testing.T) {
	lister := &fakeLister{}
	lister.set(pending("b1"))

	w := NewWatcher(zap.NewNop(), lister, nil)
	var events []string
	w.OnSettled = func(r *bets.Record) { events = append(events, r.ID) }

	ctx := context.Background()
	if err := w.initialize(ctx); err != nil {
		t.Fatal(err)
	}

	// transição pending -> won
	lister.set(won("b1"))
	for i := 0; i < 5; i++ { // vários polls subsequentes
		if err := w.Poll(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if len(events) != 1 || events[0] != "b1" {
		t.Fatalf("transition must be reported exactly once, got %v", events)
	}
}

func TestWatcher_NoEventsBeforeInit(t *testing.T) {
	lister := &fakeLister{}
	lister.set(won("b1"))

	w := NewWatcher(zap.NewNop(), lister, nil)
	fired := false
	w.OnSettled = func(*bets.Record) { fired = true }

	// Poll antes de initialize não faz nada
	if err := w.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if fired {
		t.Error("no settlement events may fire before initialization")
	}
}

func TestWatcher_PersistedSnapshotSuppressesReplay(t *testing.T) {
	lister := &fakeLister{}
	settled := won("b1")
	lister.set(settled)

	store := NewMemoryStore()
	// snapshot persistido de uma execução anterior que já viu b1 liquidada
	_ = store.Save(context.Background(), "b1", EntryOf(&settled))

	w := NewWatcher(zap.NewNop(), lister, store)
	fired := false
	w.OnSettled = func(*bets.Record) { fired = true }

	ctx := context.Background()
	if err := w.initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if err := w.Poll(ctx); err != nil {
		t.Fatal(err)
	}
	if fired {
		t.Error("restart must not replay settlements already recorded in the store")
	}
}

func TestWatcher_TriggerForcesImmediatePoll(t *testing.T) {
	lister := &fakeLister{}
	lister.set(pending("b1"))

	w := NewWatcher(zap.NewNop(), lister, nil)
	w.interval = time.Hour // o ticker nunca dispara no teste

	events := make(chan string, 1)
	w.OnSettled = func(r *bets.Record) { events <- r.ID }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond) // inicialização
	lister.set(won("b1"))
	w.Trigger()

	select {
	case id := <-events:
		if id != "b1" {
			t.Errorf("settled id = %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("manual trigger should force an out-of-cycle poll")
	}
}
