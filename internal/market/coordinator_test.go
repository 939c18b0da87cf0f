package market

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fetchFunc adapta uma função pra interface Fetcher.
type fetchFunc func(ctx context.Context, m Market, f Filters) (*PageResult, error)

func (fn fetchFunc) Query(ctx context.Context, m Market, f Filters) (*PageResult, error) {
	return fn(ctx, m, f)
}

func page(season string, n int) *PageResult {
	return &PageResult{
		Page:         n,
		PageSize:     20,
		TotalMatches: 1,
		TotalPages:   1,
		Matches:      []MatchRecord{{ID: "m1", Season: season}},
	}
}

func TestRequest_DebounceCollapses(t *testing.T) {
	var mu sync.Mutex
	var calls []Filters

	c := NewCoordinator(zap.NewNop(), fetchFunc(func(_ context.Context, _ Market, f Filters) (*PageResult, error) {
		mu.Lock()
		calls = append(calls, f)
		mu.Unlock()
		return page(f.Season, f.Page), nil
	}))
	defer c.Close()

	c.Request(Filters{Page: 1, PageSize: 20, Season: "2023"})
	time.Sleep(40 * time.Millisecond) // dentro da janela de 80ms
	c.Request(Filters{Page: 1, PageSize: 20, Season: "2024"})

	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Fatalf("expected exactly 1 fetch, got %d", len(calls))
	}
	if calls[0].Season != "2024" {
		t.Errorf("debounced call should carry the latest filters, got season %q", calls[0].Season)
	}
}

func TestRun_StaleResponseNeverOverwrites(t *testing.T) {
	slowDone := make(chan struct{})

	c := NewCoordinator(zap.NewNop(), fetchFunc(func(ctx context.Context, _ Market, f Filters) (*PageResult, error) {
		if f.Season == "slow" {
			// ignora o cancelamento de propósito e resolve depois da
			// requisição mais nova
			<-slowDone
			return page("slow", f.Page), nil
		}
		return page("fresh", f.Page), nil
	}))
	defer c.Close()

	c.Request(Filters{Page: 1, PageSize: 20, Season: "slow"})
	time.Sleep(150 * time.Millisecond) // primeira já em voo

	c.Request(Filters{Page: 1, PageSize: 20, Season: "fresh"})
	time.Sleep(150 * time.Millisecond) // segunda aplicada

	close(slowDone) // primeira resolve tarde
	time.Sleep(100 * time.Millisecond)

	v := c.Snapshot()
	if len(v.Matches) != 1 || v.Matches[0].Season != "fresh" {
		t.Fatalf("stale response overwrote newer state: %+v", v.Matches)
	}
}

func TestRequest_PageResetsOnFilterChange(t *testing.T) {
	var mu sync.Mutex
	var last Filters

	c := NewCoordinator(zap.NewNop(), fetchFunc(func(_ context.Context, _ Market, f Filters) (*PageResult, error) {
		mu.Lock()
		last = f
		mu.Unlock()
		return page(f.Season, f.Page), nil
	}))
	defer c.Close()

	c.Request(Filters{Page: 3, PageSize: 20, Season: "2023"})
	time.Sleep(200 * time.Millisecond)

	// mudar outro filtro volta a paginação pra 1
	c.Request(Filters{Page: 3, PageSize: 20, Season: "2024"})
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if last.Page != 1 {
		t.Errorf("page should reset to 1 on filter change, got %d", last.Page)
	}
	if last.Season != "2024" {
		t.Errorf("season = %q, want 2024", last.Season)
	}
}

func TestSwitchMarket_Guards(t *testing.T) {
	block := make(chan struct{})
	c := NewCoordinator(zap.NewNop(), fetchFunc(func(ctx context.Context, m Market, f Filters) (*PageResult, error) {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return page("", f.Page), nil
	}))
	defer c.Close()

	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }

	if err := c.SwitchMarket(MarketResults); err != nil {
		t.Fatalf("first switch should be accepted: %v", err)
	}

	// troca em andamento
	if err := c.SwitchMarket(MarketNextMatches); err != ErrSwitchInProgress {
		t.Errorf("expected ErrSwitchInProgress, got %v", err)
	}

	close(block)
	time.Sleep(100 * time.Millisecond) // troca conclui

	// mesmo mercado
	if err := c.SwitchMarket(MarketResults); err != ErrSameMarket {
		t.Errorf("expected ErrSameMarket, got %v", err)
	}

	// dentro da janela de 300ms da troca aceita anterior
	now = now.Add(100 * time.Millisecond)
	if err := c.SwitchMarket(MarketNextMatches); err != ErrSwitchTooSoon {
		t.Errorf("expected ErrSwitchTooSoon, got %v", err)
	}

	// depois da janela, aceita
	now = now.Add(400 * time.Millisecond)
	if err := c.SwitchMarket(MarketNextMatches); err != nil {
		t.Errorf("switch after window should be accepted: %v", err)
	}
}

func TestSwitchMarket_ClearsStaleData(t *testing.T) {
	block := make(chan struct{})
	c := NewCoordinator(zap.NewNop(), fetchFunc(func(ctx context.Context, m Market, f Filters) (*PageResult, error) {
		if m == MarketResults {
			select {
			case <-block:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return page("2024", f.Page), nil
	}))
	defer c.Close()

	c.Request(Filters{Page: 1, PageSize: 20})
	time.Sleep(200 * time.Millisecond)
	if v := c.Snapshot(); len(v.Matches) == 0 {
		t.Fatal("expected data before switch")
	}

	if err := c.SwitchMarket(MarketResults); err != nil {
		t.Fatal(err)
	}
	// durante a troca o estado vazio é intencional
	v := c.Snapshot()
	if len(v.Matches) != 0 || !v.Switching {
		t.Errorf("expected intentional empty switching state, got %+v", v)
	}
	close(block)
}

func TestRun_FailureKeepsPriorData(t *testing.T) {
	var fail atomic.Bool
	c := NewCoordinator(zap.NewNop(), fetchFunc(func(_ context.Context, _ Market, f Filters) (*PageResult, error) {
		if fail.Load() {
			return nil, context.DeadlineExceeded
		}
		return page("2024", f.Page), nil
	}))
	defer c.Close()

	c.Request(Filters{Page: 1, PageSize: 20})
	time.Sleep(200 * time.Millisecond)

	fail.Store(true)
	c.Request(Filters{Page: 2, PageSize: 20})
	time.Sleep(200 * time.Millisecond)

	v := c.Snapshot()
	if len(v.Matches) != 1 {
		t.Fatalf("prior data must stay in place on failure, got %+v", v.Matches)
	}
	if v.LastError == "" {
		t.Error("expected LastError to be set")
	}
}

func TestSyncFromPath_SelfCausedSkippedOnce(t *testing.T) {
	c := NewCoordinator(zap.NewNop(), fetchFunc(func(_ context.Context, _ Market, f Filters) (*PageResult, error) {
		return page(f.Season, f.Page), nil
	}))
	defer c.Close()

	c.Request(Filters{Page: 1, PageSize: 20, Season: "2024"})
	time.Sleep(200 * time.Millisecond)

	c.mu.Lock()
	self := c.selfPath
	c.mu.Unlock()
	if self == "" {
		t.Fatal("expected coordinator to record its own path")
	}

	// a mudança de location que o próprio coordinator causou é pulada
	if c.SyncFromPath(self) {
		t.Error("self-caused location change must not re-derive state")
	}
	// o marcador é consumido exatamente uma vez
	if !c.SyncFromPath(self) {
		t.Error("marker must be consumed after first skip")
	}
}

func TestSyncFromPath_ExternalPathKeepsPage(t *testing.T) {
	var mu sync.Mutex
	var last Filters

	c := NewCoordinator(zap.NewNop(), fetchFunc(func(_ context.Context, _ Market, f Filters) (*PageResult, error) {
		mu.Lock()
		last = f
		mu.Unlock()
		return page(f.Season, f.Page), nil
	}))
	defer c.Close()

	// path colado de fora é autoritativo: a página dele não reseta,
	// mesmo com a season divergindo dos filtros pendentes
	if !c.SyncFromPath("/next-matches?page=3&season=2024") {
		t.Fatal("external path change must re-derive state")
	}
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if last.Page != 3 {
		t.Errorf("page = %d, want 3 (route-derived page must survive)", last.Page)
	}
	if last.Season != "2024" {
		t.Errorf("season = %q, want 2024", last.Season)
	}
}

func TestRun_ContextReleasedAfterCompletion(t *testing.T) {
	ctxCh := make(chan context.Context, 1)

	c := NewCoordinator(zap.NewNop(), fetchFunc(func(ctx context.Context, _ Market, f Filters) (*PageResult, error) {
		ctxCh <- ctx
		return page(f.Season, f.Page), nil
	}))
	defer c.Close()

	c.Request(Filters{Page: 1, PageSize: 20})
	time.Sleep(200 * time.Millisecond)

	ctx := <-ctxCh
	if ctx.Err() != context.Canceled {
		t.Errorf("completed request must release its context, got %v", ctx.Err())
	}
}

func TestParsePath(t *testing.T) {
	m, f := parsePath("/results?page=3&season=2023&league=premier", 20)
	if m != MarketResults {
		t.Errorf("market = %v", m)
	}
	if f.Page != 3 || f.Season != "2023" || f.League != "premier" {
		t.Errorf("filters = %+v", f)
	}
}
