package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/bet-session-service/internal/bets"
	"github.com/radieske/bet-session-service/internal/funds"
	"github.com/radieske/bet-session-service/internal/market"
	"github.com/radieske/bet-session-service/internal/notify"
	"github.com/radieske/bet-session-service/internal/session/dto"
	"github.com/radieske/bet-session-service/internal/shared/metrics"
	"github.com/radieske/bet-session-service/internal/slip"
)

// StatsGetter é a leitura de agregados repassada direto do backend.
type StatsGetter interface {
	GetStats(ctx context.Context) (*bets.Stats, error)
}

// Triggerer é o sinal "resultado de partida atualizado" do watcher.
type Triggerer interface {
	Trigger()
}

// Server expõe a superfície da sessão pro host UI: página de odds
// corrente, slip com totais, confirmação e notificações.
type Server struct {
	log    *zap.Logger
	coord  *market.Coordinator
	slip   *slip.Manager
	center *notify.Center
	hub    *notify.Hub
	stats  StatsGetter
	watch  Triggerer
}

func NewServer(
	log *zap.Logger,
	coord *market.Coordinator,
	sm *slip.Manager,
	center *notify.Center,
	hub *notify.Hub,
	stats StatsGetter,
	watch Triggerer,
) *Server {
	return &Server{log: log, coord: coord, slip: sm, center: center, hub: hub, stats: stats, watch: watch}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/v1/matches", s.getMatches)
	r.Post("/v1/filters", s.setFilters)
	r.Post("/v1/market/switch", s.switchMarket)

	r.Get("/v1/slip", s.getSlip)
	r.Post("/v1/slip/toggle", s.toggleSelection)
	r.Post("/v1/slip/stake", s.setStake)
	r.Post("/v1/slip/stake-all", s.setStakeAll)
	r.Post("/v1/slip/confirm", s.confirmSlip)

	r.Get("/v1/notifications", s.listNotifications)
	r.Post("/v1/notifications/ack", s.ackNotifications)
	r.Get("/v1/notifications/ws", s.hub.HandleWS)

	r.Post("/v1/settlement/poll", s.triggerPoll)
	r.Get("/v1/stats", s.getStats)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

// getMatches retorna a página autoritativa corrente de odds.
func (s *Server) getMatches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.coord.Snapshot())
}

// setFilters agenda uma consulta com a tupla nova; o coordinator
// debounça e aplica só o resultado mais recente.
func (s *Server) setFilters(w http.ResponseWriter, r *http.Request) {
	var req dto.FiltersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	s.coord.Request(market.Filters{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Season:     req.Season,
		Country:    req.Country,
		League:     req.League,
		SearchTerm: req.SearchTerm,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
	})
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) switchMarket(w http.ResponseWriter, r *http.Request) {
	var req dto.SwitchMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	m := market.Market(req.Market)
	if m != market.MarketNextMatches && m != market.MarketResults {
		writeError(w, http.StatusBadRequest, "unknown market")
		return
	}
	switch err := s.coord.SwitchMarket(m); {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, market.ErrSwitchTooSoon):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default: // em andamento ou mesmo mercado
		writeError(w, http.StatusConflict, err.Error())
	}
}

func (s *Server) getSlip(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.slip.Snapshot())
}

func (s *Server) toggleSelection(w http.ResponseWriter, r *http.Request) {
	var req dto.ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.MatchID == "" || req.Outcome == "" {
		writeError(w, http.StatusBadRequest, "matchId and outcome required")
		return
	}
	added := s.slip.Toggle(slip.Selection{
		MatchID:   req.MatchID,
		Outcome:   market.Outcome(req.Outcome),
		OddsRaw:   req.Odds,
		HomeTeam:  req.HomeTeam,
		AwayTeam:  req.AwayTeam,
		League:    req.League,
		MatchDate: req.MatchDate,
	})
	writeJSON(w, http.StatusOK, dto.ToggleResponse{Added: added})
}

func (s *Server) setStake(w http.ResponseWriter, r *http.Request) {
	var req dto.StakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if !s.slip.SetStake(req.MatchID, market.Outcome(req.Outcome), req.Amount) {
		writeError(w, http.StatusNotFound, "selection not in slip")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) setStakeAll(w http.ResponseWriter, r *http.Request) {
	var req dto.StakeAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	s.slip.SetStakeAll(req.Amount)
	w.WriteHeader(http.StatusOK)
}

// confirmSlip efetiva o slip. Erros de validação voltam como mensagem
// bloqueante recuperável; falha parcial de lote vira erro duro com os
// ids já criados (sem rollback automático).
func (s *Server) confirmSlip(w http.ResponseWriter, r *http.Request) {
	created, err := s.slip.Confirm(r.Context())
	if err != nil {
		var dup *slip.DuplicateError
		var partial *slip.PartialConfirmError
		switch {
		case errors.Is(err, slip.ErrEmptySlip),
			errors.Is(err, slip.ErrInvalidStake),
			errors.Is(err, funds.ErrInsufficientFunds),
			errors.As(err, &dup):
			metrics.ConfirmationsTotal.WithLabelValues("validation").Inc()
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, bets.ErrUnauthorized):
			metrics.ConfirmationsTotal.WithLabelValues("error").Inc()
			writeError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, slip.ErrConfirmInProgress):
			writeError(w, http.StatusConflict, err.Error())
		case errors.As(err, &partial):
			metrics.ConfirmationsTotal.WithLabelValues("partial").Inc()
			resp := dto.ErrorResponse{Error: err.Error()}
			for _, rec := range partial.Created {
				resp.CreatedBetIDs = append(resp.CreatedBetIDs, rec.ID)
			}
			writeJSON(w, http.StatusInternalServerError, resp)
		default:
			metrics.ConfirmationsTotal.WithLabelValues("error").Inc()
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	metrics.ConfirmationsTotal.WithLabelValues("ok").Inc()
	resp := dto.ConfirmResponse{}
	for _, rec := range created {
		resp.BetIDs = append(resp.BetIDs, rec.ID)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.NotificationsResponse{
		Notifications: s.center.List(),
		Unread:        s.center.Unread(),
	})
}

func (s *Server) ackNotifications(w http.ResponseWriter, r *http.Request) {
	s.center.Acknowledge()
	metrics.NotificationsUnread.Set(0)
	w.WriteHeader(http.StatusNoContent)
}

// triggerPoll é o sinal externo de resultado atualizado: força um poll
// de liquidação fora do ciclo de 30s.
func (s *Server) triggerPoll(w http.ResponseWriter, r *http.Request) {
	s.watch.Trigger()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.GetStats(r.Context())
	if err != nil {
		if errors.Is(err, bets.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}
