package market

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DebounceInterval colapsa mudanças de filtro encadeadas numa única
	// requisição com a tupla mais recente.
	DebounceInterval = 80 * time.Millisecond

	// SwitchWindow é o debounce de UI da troca de mercado,
	// independente do debounce de dados acima.
	SwitchWindow = 300 * time.Millisecond
)

var (
	ErrSwitchInProgress = errors.New("market switch already in progress")
	ErrSameMarket       = errors.New("already on requested market")
	ErrSwitchTooSoon    = errors.New("market switch debounced")
)

// View é o estado autoritativo exposto pro host UI.
type View struct {
	Market       Market        `json:"market"`
	Matches      []MatchRecord `json:"matches"`
	Page         int           `json:"page"`
	TotalPages   int           `json:"totalPages"`
	TotalMatches int           `json:"totalMatches"`
	Switching    bool          `json:"switching"`
	LastError    string        `json:"lastError,omitempty"`
}

// Coordinator orquestra as consultas assíncronas de odds garantindo que só
// o resultado da requisição mais recente é aplicado ao estado.
//
// Duas linhas de defesa contra resposta fora de ordem: o context da
// requisição superada é cancelado, e o resultado só é aplicado se o
// contador de geração ainda for o corrente.
type Coordinator struct {
	log   *zap.Logger
	fetch Fetcher

	debounce     time.Duration
	switchWindow time.Duration
	now          func() time.Time

	mu         sync.Mutex
	timer      *time.Timer
	pending    Filters
	gen        uint64
	cancel     context.CancelFunc
	market     Market
	applied    Filters
	view       View
	switching  bool
	lastSwitch time.Time

	// último path produzido pelo próprio coordinator; consumido uma vez
	// pra quebrar o ciclo filtro -> navegação -> filtro
	selfPath string
	navigate func(path string)

	// callbacks de métricas
	OnFetch     func()
	OnCancelled func()
	OnError     func()
}

func NewCoordinator(log *zap.Logger, fetch Fetcher) *Coordinator {
	initial := Filters{Page: 1, PageSize: 20}
	return &Coordinator{
		log:          log,
		fetch:        fetch,
		debounce:     DebounceInterval,
		switchWindow: SwitchWindow,
		now:          time.Now,
		market:       MarketNextMatches,
		applied:      initial,
		pending:      initial,
		view:         View{Market: MarketNextMatches, Page: 1},
	}
}

// SetNavigate registra o callback de navegação do host.
func (c *Coordinator) SetNavigate(fn func(path string)) {
	c.mu.Lock()
	c.navigate = fn
	c.mu.Unlock()
}

// Request agenda uma consulta com a tupla de filtros dada.
// Chamadas dentro da janela de debounce colapsam numa única requisição
// carregando os filtros mais recentes. A página volta pra 1 sempre que
// qualquer filtro além dela mesma muda.
func (c *Coordinator) Request(f Filters) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !f.SameExceptPage(c.pending) {
		f.Page = 1
	}
	c.pending = f

	if c.timer != nil {
		c.timer.Reset(c.debounce)
		return
	}
	c.timer = time.AfterFunc(c.debounce, c.fire)
}

// fire dispara a requisição pendente quando o debounce expira.
func (c *Coordinator) fire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timer = nil
	c.issueLocked(c.pending)
}

// issueLocked cancela a requisição em voo e emite uma nova.
// Pré-condição: c.mu travado.
func (c *Coordinator) issueLocked(f Filters) {
	if c.cancel != nil {
		c.cancel()
		if c.OnCancelled != nil {
			c.OnCancelled()
		}
	}
	c.gen++
	myGen := c.gen

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	path := pathFor(c.market, f)
	c.selfPath = path
	if nav := c.navigate; nav != nil {
		go nav(path)
	}

	m := c.market
	go c.run(ctx, myGen, m, f)
}

func (c *Coordinator) run(ctx context.Context, myGen uint64, m Market, f Filters) {
	if c.OnFetch != nil {
		c.OnFetch()
	}
	res, err := c.fetch.Query(ctx, m, f)

	c.mu.Lock()
	defer c.mu.Unlock()

	// resultado de requisição superada nunca mexe no estado
	if myGen != c.gen {
		return
	}
	if c.cancel != nil {
		c.cancel() // requisição concluída, libera o context
		c.cancel = nil
	}

	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return // cancelamento é sempre suprimido
		}
		// fecha o estado transitório de troca mas preserva os dados anteriores
		c.switching = false
		c.view.Switching = false
		c.view.LastError = err.Error()
		if c.OnError != nil {
			c.OnError()
		}
		c.log.Warn("odds fetch failed", zap.Error(err))
		return
	}

	c.applied = f
	c.switching = false
	c.view = View{
		Market:       m,
		Matches:      res.Matches,
		Page:         res.Page,
		TotalPages:   res.TotalPages,
		TotalMatches: res.TotalMatches,
	}
}

// SwitchMarket troca entre próximos jogos e resultados.
// Rejeita se já há troca em andamento, se o mercado pedido é o atual,
// ou se chegou dentro da janela da troca aceita anterior.
func (c *Coordinator) SwitchMarket(m Market) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.switching {
		return ErrSwitchInProgress
	}
	if m == c.market {
		return ErrSameMarket
	}
	if c.now().Sub(c.lastSwitch) < c.switchWindow {
		return ErrSwitchTooSoon
	}

	c.switching = true
	c.lastSwitch = c.now()
	c.market = m

	// estado vazio breve é intencional aqui: não mostrar dados do
	// mercado antigo sob o título novo
	f := Filters{Page: 1, PageSize: c.applied.PageSize}
	c.pending = f
	c.view = View{Market: m, Page: 1, Switching: true}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.issueLocked(f)
	return nil
}

// SyncFromPath deriva filtros de uma mudança de location do host.
// Uma mudança causada pelo próprio coordinator é pulada (o marcador é
// consumido exatamente uma vez), senão o ciclo
// filtro -> navigate -> location -> filtro roda pra sempre.
func (c *Coordinator) SyncFromPath(path string) bool {
	c.mu.Lock()
	if path == c.selfPath {
		c.selfPath = ""
		c.mu.Unlock()
		return false
	}
	size := c.applied.PageSize
	c.mu.Unlock()

	m, f := parsePath(path, size)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.market = m
	// o path é a fonte autoritativa: a página dele vale, sem reset pra 1
	c.pending = f
	if c.timer != nil {
		c.timer.Reset(c.debounce)
		return true
	}
	c.timer = time.AfterFunc(c.debounce, c.fire)
	return true
}

// Snapshot devolve uma cópia do estado corrente.
func (c *Coordinator) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.view
	v.Matches = append([]MatchRecord(nil), c.view.Matches...)
	return v
}

// Close cancela qualquer requisição em voo e timer pendente.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++ // invalida qualquer resolução tardia
}

func pathFor(m Market, f Filters) string {
	return "/" + string(m) + "?" + f.Query().Encode()
}

func parsePath(path string, defaultSize int) (Market, Filters) {
	m := MarketNextMatches
	if strings.HasPrefix(path, "/"+string(MarketResults)) {
		m = MarketResults
	}
	f := Filters{Page: 1, PageSize: defaultSize}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		q, err := url.ParseQuery(path[i+1:])
		if err == nil {
			if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
				f.Page = p
			}
			if s, err := strconv.Atoi(q.Get("size")); err == nil && s > 0 {
				f.PageSize = s
			}
			f.Season = q.Get("season")
			f.Country = q.Get("country")
			f.League = q.Get("league")
			f.SearchTerm = q.Get("home_team")
			f.DateFrom = q.Get("date_from")
			f.DateTo = q.Get("date_to")
		}
	}
	return m, f
}
