package settlement

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-session-service/internal/bets"
)

// PollInterval é o ciclo padrão de reconciliação.
const PollInterval = 30 * time.Second

// Watcher reconcilia periodicamente o histórico de apostas contra o
// snapshot retido e emite eventos de liquidação exatamente uma vez.
//
// Máquina de estados por id: unknown -> tracked(pending) -> tracked(settled).
// O snapshot é atualizado na mesma passada da avaliação, então a mesma
// transição nunca é reportada duas vezes entre polls.
type Watcher struct {
	log    *zap.Logger
	lister bets.Lister
	store  SnapshotStore

	interval time.Duration
	perPage  int
	now      func() time.Time

	mu          sync.Mutex
	snap        map[string]Entry
	initialized bool

	trigger chan struct{}

	// OnSettled emite o evento de liquidação (notification sink, kafka)
	OnSettled func(rec *bets.Record)
	// callbacks de métricas
	OnPoll      func()
	OnPollError func()
}

func NewWatcher(log *zap.Logger, lister bets.Lister, store SnapshotStore) *Watcher {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Watcher{
		log:      log,
		lister:   lister,
		store:    store,
		interval: PollInterval,
		perPage:  100,
		now:      time.Now,
		snap:     make(map[string]Entry),
		trigger:  make(chan struct{}, 1),
	}
}

// SetInterval ajusta o ciclo de reconciliação. Chamar antes de Run.
func (w *Watcher) SetInterval(d time.Duration) {
	if d > 0 {
		w.interval = d
	}
}

// Run inicializa o snapshot e entra no ciclo de polls até o contexto
// encerrar. Erros de poll são logados e engolidos: liquidação é um
// processo de fundo best-effort, o próximo ciclo tenta de novo.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.initialize(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-w.trigger: // sinal "resultado atualizado" força poll imediato
		}
		if err := w.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Warn("settlement poll failed", zap.Error(err))
			if w.OnPollError != nil {
				w.OnPollError()
			}
		}
	}
}

// Trigger agenda um poll fora de ciclo. Não bloqueia.
func (w *Watcher) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// initialize semeia o snapshot com o histórico recente sem emitir evento
// nenhum: aposta já liquidada no passado não é "recém-liquidada".
func (w *Watcher) initialize(ctx context.Context) error {
	stored, err := w.store.Load(ctx)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.snap = stored
	w.mu.Unlock()

	records, err := w.listAll(ctx)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range records {
		r := &records[i]
		if _, seen := w.snap[r.ID]; seen {
			continue // entrada persistida vale mais que a re-semeadura
		}
		e := EntryOf(r)
		w.snap[r.ID] = e
		if err := w.store.Save(ctx, r.ID, e); err != nil {
			return err
		}
	}
	w.initialized = true
	w.log.Info("settlement watcher initialized", zap.Int("tracked", len(w.snap)))
	return nil
}

// Poll compara o histórico corrente com o snapshot e emite as transições.
// A entrada do snapshot é atualizada após a avaliação, com ou sem evento.
func (w *Watcher) Poll(ctx context.Context) error {
	w.mu.Lock()
	ready := w.initialized
	w.mu.Unlock()
	if !ready {
		return nil // nenhum evento antes da inicialização completar
	}

	if w.OnPoll != nil {
		w.OnPoll()
	}

	records, err := w.listAll(ctx)
	if err != nil {
		return err
	}

	now := w.now()
	for i := range records {
		r := &records[i]

		w.mu.Lock()
		prev := w.snap[r.ID]
		tr := Classify(prev, r, now)
		e := EntryOf(r)
		w.snap[r.ID] = e
		w.mu.Unlock()

		if err := w.store.Save(ctx, r.ID, e); err != nil {
			w.log.Warn("snapshot save failed", zap.String("betId", r.ID), zap.Error(err))
		}

		if tr == TransitionSettled && w.OnSettled != nil {
			w.log.Info("bet settled",
				zap.String("betId", r.ID),
				zap.String("status", r.Status),
			)
			w.OnSettled(r)
		}
	}
	return nil
}

func (w *Watcher) listAll(ctx context.Context) ([]bets.Record, error) {
	var out []bets.Record
	for p := 1; ; p++ {
		page, err := w.lister.List(ctx, p, w.perPage, "")
		if err != nil {
			return nil, err
		}
		out = append(out, page.Records...)
		if p >= page.TotalPages || len(page.Records) == 0 {
			return out, nil
		}
	}
}
