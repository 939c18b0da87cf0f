package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Contadores dos fluxos principais da sessão.
var (
	OddsFetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_odds_fetches_total",
		Help: "Consultas de odds efetivamente emitidas (pós-debounce)",
	})

	OddsFetchesCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_odds_fetches_cancelled_total",
		Help: "Consultas de odds superadas e canceladas",
	})

	OddsFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_odds_fetch_errors_total",
		Help: "Consultas de odds que falharam (fora cancelamento)",
	})

	ConfirmationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_slip_confirmations_total",
		Help: "Confirmações de slip por resultado",
	}, []string{"result"}) // ok | validation | partial | error

	SettlementPollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_settlement_polls_total",
		Help: "Ciclos de reconciliação do settlement watcher",
	})

	SettlementPollErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_settlement_poll_errors_total",
		Help: "Polls de liquidação com erro (engolidos, retry no próximo ciclo)",
	})

	SettlementsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_settlements_detected_total",
		Help: "Transições pending -> won|lost detectadas",
	}, []string{"status"})

	NotificationsUnread = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "session_notifications_unread",
		Help: "Notificações aguardando acknowledgement",
	})
)

type HealthFunc func(ctx context.Context) error

// StartServer sobe um servidor HTTP leve só pra /metrics e /healthz,
// numa goroutine no main de cada serviço.
func StartServer(port string, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
