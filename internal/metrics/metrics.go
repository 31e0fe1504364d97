package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rocketscienceinc/tictactoe-bet/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-bet/internal/entity"
)

const healthTimeout = 500 * time.Millisecond

type HealthFunc func(ctx context.Context) error

// Recorder counts committed transitions, refused actions and coins moved by the ledger.
type Recorder struct {
	gatherer prometheus.Gatherer

	transitions *prometheus.CounterVec
	refusals    *prometheus.CounterVec
	coins       *prometheus.CounterVec
}

func New(registry *prometheus.Registry) *Recorder {
	factory := promauto.With(registry)

	return &Recorder{
		gatherer: registry,

		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tictactoe_transitions_total",
			Help: "Committed game transitions by action and resulting state.",
		}, []string{"action", "state"}),
		refusals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tictactoe_refused_actions_total",
			Help: "Actions refused by the game, by action and reason.",
		}, []string{"action", "reason"}),
		coins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tictactoe_ledger_coins_total",
			Help: "Coins moved by ledger entries, by reason.",
		}, []string{"reason"}),
	}
}

func (that *Recorder) Committed(action string, outcome *entity.Outcome) {
	that.transitions.WithLabelValues(action, string(outcome.Game.State)).Inc()

	for _, entry := range outcome.Entries {
		delta := entry.Delta
		if delta < 0 {
			delta = -delta
		}

		that.coins.WithLabelValues(string(entry.Reason)).Add(float64(delta))
	}
}

func (that *Recorder) Refused(action string, err error) {
	that.refusals.WithLabelValues(action, Reason(err)).Inc()
}

// Reason - a short label for an action error.
func Reason(err error) string {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperror.ErrForbidden):
		return "forbidden"
	case errors.Is(err, apperror.ErrOutOfTurn):
		return "out_of_turn"
	case errors.Is(err, apperror.ErrInvalidMove):
		return "invalid_move"
	case errors.Is(err, apperror.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, apperror.ErrStaleState):
		return "stale_state"
	case errors.Is(err, apperror.ErrInvalidBet):
		return "invalid_bet"
	case errors.Is(err, apperror.ErrGameAlreadyExists):
		return "already_exists"
	case errors.Is(err, apperror.ErrUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}

// Register - mounts /metrics and /healthz.
func (that *Recorder) Register(mux *http.ServeMux, healthFn HealthFunc) {
	mux.Handle("GET /metrics", promhttp.HandlerFor(that.gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, "unhealthy: %v", err)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
