package slip

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/radieske/bet-session-service/internal/bets"
	"github.com/radieske/bet-session-service/internal/funds"
	"github.com/radieske/bet-session-service/internal/market"
	"github.com/radieske/bet-session-service/internal/odds"
)

var (
	ErrEmptySlip         = errors.New("slip: no selections")
	ErrInvalidStake      = errors.New("slip: total stake must be positive")
	ErrConfirmInProgress = errors.New("slip: confirmation already in progress")
)

// DuplicateError indica seleção que repete uma aposta já confirmada no
// histórico. Mesmo match com outcome diferente é permitido.
type DuplicateError struct {
	MatchID string
	Outcome market.Outcome
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("slip: bet on (%s, %s) already confirmed", e.MatchID, e.Outcome)
}

// PartialConfirmError sinaliza falha no meio do lote: os registros já
// criados NÃO são desfeitos e o saldo já foi debitado uma vez.
// Limitação documentada; quem chama decide como reconciliar.
type PartialConfirmError struct {
	Created []*bets.Record
	Failed  Selection
	Err     error
}

func (e *PartialConfirmError) Error() string {
	return fmt.Sprintf("slip: confirmed %d selections then failed on (%s, %s): %v",
		len(e.Created), e.Failed.MatchID, e.Failed.Outcome, e.Err)
}

func (e *PartialConfirmError) Unwrap() error { return e.Err }

// Selection é uma escolha no slip, única por (matchId, outcome).
type Selection struct {
	MatchID   string         `json:"matchId"`
	Outcome   market.Outcome `json:"outcome"`
	OddsRaw   string         `json:"odds"`
	HomeTeam  string         `json:"homeTeam"`
	AwayTeam  string         `json:"awayTeam"`
	League    string         `json:"league"`
	MatchDate string         `json:"matchDate"`
	Stake     string         `json:"stake"` // texto livre, validado só no cálculo
}

type selKey struct {
	matchID string
	outcome market.Outcome
}

// FundsAPI é a capacidade de saldo consumida na confirmação.
type FundsAPI interface {
	Current(ctx context.Context) (float64, error)
	Deduct(ctx context.Context, amount float64) error
}

// BetCreator cria um registro de aposta por seleção.
type BetCreator interface {
	Create(ctx context.Context, nr bets.NewRecord) (*bets.Record, error)
}

// State é a visão do slip exposta pro host UI.
type State struct {
	Selections  []Selection `json:"selections"`
	TotalStake  float64     `json:"totalStake"`
	TotalReturn float64     `json:"totalReturn"`
	Profit      float64     `json:"profit"`
	Valid       bool        `json:"valid"`
	Invalid     string      `json:"invalidReason,omitempty"`
	Pending     bool        `json:"pending"`
}

// Manager é o agregado do slip: dono exclusivo das seleções até elas
// virarem BetRecord. Toda mutação passa pelo mutex, na ordem em que os
// eventos foram aceitos.
type Manager struct {
	log   *zap.Logger
	funds FundsAPI
	bets  BetCreator

	mu         sync.Mutex
	selections []Selection
	placed     map[selKey]struct{} // índice (match,outcome) já apostado
	pending    bool

	// OnConfirmed roda por registro criado (notificação new-bet)
	OnConfirmed func(rec *bets.Record)
}

func NewManager(log *zap.Logger, fundsAPI FundsAPI, creator BetCreator) *Manager {
	return &Manager{
		log:    log,
		funds:  fundsAPI,
		bets:   creator,
		placed: make(map[selKey]struct{}),
	}
}

// Toggle adiciona a seleção se ausente, remove se presente.
// Retorna true quando adicionou.
func (m *Manager) Toggle(sel Selection) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := selKey{sel.MatchID, sel.Outcome}
	for i := range m.selections {
		if (selKey{m.selections[i].MatchID, m.selections[i].Outcome}) == k {
			m.selections = append(m.selections[:i], m.selections[i+1:]...)
			return false
		}
	}
	m.selections = append(m.selections, sel)
	return true
}

// SetStakeAll sobrescreve o stake de todas as seleções (botões de stake rápido).
func (m *Manager) SetStakeAll(amount string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.selections {
		m.selections[i].Stake = amount
	}
}

// SetStake sobrescreve o stake de uma seleção.
func (m *Manager) SetStake(matchID string, outcome market.Outcome, amount string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.selections {
		if m.selections[i].MatchID == matchID && m.selections[i].Outcome == outcome {
			m.selections[i].Stake = amount
			return true
		}
	}
	return false
}

// MarkPlaced registra (match,outcome) no índice de já-apostados.
// Alimentado pelo histórico confirmado e por confirmações desta sessão.
func (m *Manager) MarkPlaced(matchID string, outcome market.Outcome) {
	m.mu.Lock()
	m.placed[selKey{matchID, outcome}] = struct{}{}
	m.mu.Unlock()
}

// SeedPlaced carrega o índice a partir do histórico confirmado.
func (m *Manager) SeedPlaced(ctx context.Context, lister bets.Lister) error {
	const perPage = 100
	for p := 1; ; p++ {
		page, err := lister.List(ctx, p, perPage, "")
		if err != nil {
			return err
		}
		m.mu.Lock()
		for _, r := range page.Records {
			m.placed[selKey{r.MatchID, market.Outcome(r.Outcome)}] = struct{}{}
		}
		m.mu.Unlock()
		if p >= page.TotalPages || len(page.Records) == 0 {
			return nil
		}
	}
}

// Snapshot devolve a visão corrente do slip com os totais agregados.
// Cada seleção é uma aposta simples independente; os retornos somam em
// float pleno e arredondam só na apresentação.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() State {
	st := State{
		Selections: append([]Selection(nil), m.selections...),
		Valid:      true,
		Pending:    m.pending,
	}
	for _, sel := range m.selections {
		stake := odds.ParseStake(sel.Stake)
		dec, ok := odds.ToDecimal(sel.OddsRaw)
		if !ok {
			continue // sem odd utilizável, fica fora do total
		}
		r := odds.ComputeReturn(stake, dec)
		st.TotalStake += stake
		st.TotalReturn += r.Total
		st.Profit += r.Profit

		if _, dup := m.placed[selKey{sel.MatchID, sel.Outcome}]; dup {
			st.Valid = false
			st.Invalid = (&DuplicateError{MatchID: sel.MatchID, Outcome: sel.Outcome}).Error()
		}
	}
	// acumulação em float pleno, arredondamento só aqui na borda de
	// apresentação
	st.TotalStake = odds.RoundDisplay(st.TotalStake)
	st.TotalReturn = odds.RoundDisplay(st.TotalReturn)
	st.Profit = odds.RoundDisplay(st.Profit)
	return st
}

// Confirm efetiva o slip em duas fases:
//  1. valida saldo >= stake total e ausência de duplicatas contra o histórico;
//  2. debita o saldo UMA vez (a soma) e cria um BetRecord por seleção.
//
// Falha no meio do lote vira PartialConfirmError: os registros já criados
// não são desfeitos.
func (m *Manager) Confirm(ctx context.Context) ([]*bets.Record, error) {
	m.mu.Lock()
	if m.pending {
		m.mu.Unlock()
		return nil, ErrConfirmInProgress
	}
	if len(m.selections) == 0 {
		m.mu.Unlock()
		return nil, ErrEmptySlip
	}
	st := m.snapshotLocked()
	sels := st.Selections
	m.pending = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.pending = false
		m.mu.Unlock()
	}()

	// fase 1: validação
	if st.TotalStake <= 0 {
		return nil, ErrInvalidStake
	}
	for _, sel := range sels {
		m.mu.Lock()
		_, dup := m.placed[selKey{sel.MatchID, sel.Outcome}]
		m.mu.Unlock()
		if dup {
			return nil, &DuplicateError{MatchID: sel.MatchID, Outcome: sel.Outcome}
		}
	}
	available, err := m.funds.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("funds lookup: %w", err)
	}
	if available < st.TotalStake {
		return nil, funds.ErrInsufficientFunds
	}

	// fase 2: debita uma vez, depois cria registro por seleção
	if err := m.funds.Deduct(ctx, st.TotalStake); err != nil {
		return nil, fmt.Errorf("funds deduct: %w", err)
	}

	created := make([]*bets.Record, 0, len(sels))
	for _, sel := range sels {
		dec, ok := odds.ToDecimal(sel.OddsRaw)
		if !ok {
			continue
		}
		rec, err := m.bets.Create(ctx, bets.NewRecord{
			MatchID:     sel.MatchID,
			Outcome:     string(sel.Outcome),
			Stake:       odds.ParseStake(sel.Stake),
			DecimalOdds: dec,
		})
		if err != nil {
			m.log.Error("bet create failed mid-batch",
				zap.String("matchId", sel.MatchID),
				zap.Int("created", len(created)),
				zap.Error(err),
			)
			m.commitCreated(created)
			return created, &PartialConfirmError{Created: created, Failed: sel, Err: err}
		}
		created = append(created, rec)
	}

	m.commitCreated(created)

	m.mu.Lock()
	m.selections = nil // limpa o slip
	m.mu.Unlock()

	for _, rec := range created {
		if m.OnConfirmed != nil {
			m.OnConfirmed(rec)
		}
	}
	return created, nil
}

// commitCreated atualiza o índice de já-apostados com o que foi criado,
// inclusive em lote parcial: essas apostas existem no backend.
func (m *Manager) commitCreated(created []*bets.Record) {
	m.mu.Lock()
	for _, rec := range created {
		m.placed[selKey{rec.MatchID, market.Outcome(rec.Outcome)}] = struct{}{}
	}
	m.mu.Unlock()
}
