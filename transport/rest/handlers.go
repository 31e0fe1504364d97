package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-bet/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-bet/internal/entity"
)

const (
	headerUserID   = "X-User-ID"
	headerUserName = "X-User-Name"
)

var errBadRequest = errors.New("bad request")

type gameUseCase interface {
	GetOrCreateUser(ctx context.Context, userID string) (*entity.User, bool, error)

	CreateGame(ctx context.Context, actor entity.Actor, bet int64) (*entity.Outcome, error)
	AcceptGame(ctx context.Context, gameID string, actor entity.Actor) (*entity.Outcome, error)
	RejectGame(ctx context.Context, gameID string, actor entity.Actor) (*entity.Outcome, error)
	Move(ctx context.Context, gameID, actorID string, cell int) (*entity.Outcome, error)
	Surrender(ctx context.Context, gameID, actorID string) (*entity.Outcome, error)

	GetGame(ctx context.Context, gameID string) (*entity.Game, error)
	Audit(ctx context.Context, gameID string) ([]entity.LedgerEntry, error)
}

type handlers struct {
	logger *slog.Logger
	games  gameUseCase
}

func (that *handlers) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ping", pingHandler)

	mux.HandleFunc("GET /v1/users/{id}", that.getUser)

	mux.HandleFunc("POST /v1/games", that.createGame)
	mux.HandleFunc("GET /v1/games/{id}", that.getGame)
	mux.HandleFunc("GET /v1/games/{id}/ledger", that.getLedger)
	mux.HandleFunc("POST /v1/games/{id}/accept", that.acceptGame)
	mux.HandleFunc("POST /v1/games/{id}/reject", that.rejectGame)
	mux.HandleFunc("POST /v1/games/{id}/moves", that.move)
	mux.HandleFunc("POST /v1/games/{id}/surrender", that.surrender)
}

// getUser - a user may only look up, and so register, themselves.
func (that *handlers) getUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID != actorOf(r).ID {
		that.writeError(w, fmt.Errorf("%w: user %s is not the caller", apperror.ErrForbidden, userID))
		return
	}

	user, created, err := that.games.GetOrCreateUser(r.Context(), userID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, userResponse{
		ID:        user.ID,
		Balance:   user.Balance,
		New:       created,
		CreatedAt: user.CreatedAt,
	})
}

func (that *handlers) createGame(w http.ResponseWriter, r *http.Request) {
	var request createGameRequest
	if err := decode(r, &request); err != nil {
		that.writeError(w, err)
		return
	}

	outcome, err := that.games.CreateGame(r.Context(), actorOf(r), request.Bet)
	that.writeOutcome(w, http.StatusCreated, outcome, err)
}

func (that *handlers) getGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.games.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, toGameResponse(game))
}

func (that *handlers) getLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := that.games.Audit(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, toEntries(entries))
}

func (that *handlers) acceptGame(w http.ResponseWriter, r *http.Request) {
	outcome, err := that.games.AcceptGame(r.Context(), r.PathValue("id"), actorOf(r))
	that.writeOutcome(w, http.StatusOK, outcome, err)
}

func (that *handlers) rejectGame(w http.ResponseWriter, r *http.Request) {
	outcome, err := that.games.RejectGame(r.Context(), r.PathValue("id"), actorOf(r))
	that.writeOutcome(w, http.StatusOK, outcome, err)
}

func (that *handlers) move(w http.ResponseWriter, r *http.Request) {
	var request moveRequest
	if err := decode(r, &request); err != nil {
		that.writeError(w, err)
		return
	}

	if request.Cell == nil {
		that.writeError(w, fmt.Errorf("%w: cell is required", errBadRequest))
		return
	}

	outcome, err := that.games.Move(r.Context(), r.PathValue("id"), actorOf(r).ID, *request.Cell)
	that.writeOutcome(w, http.StatusOK, outcome, err)
}

func (that *handlers) surrender(w http.ResponseWriter, r *http.Request) {
	outcome, err := that.games.Surrender(r.Context(), r.PathValue("id"), actorOf(r).ID)
	that.writeOutcome(w, http.StatusOK, outcome, err)
}

func (that *handlers) writeOutcome(w http.ResponseWriter, status int, outcome *entity.Outcome, err error) {
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, status, toOutcomeResponse(outcome))
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}

func (that *handlers) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "error", err)
	}

	that.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrOutOfTurn), errors.Is(err, apperror.ErrStaleState),
		errors.Is(err, apperror.ErrGameAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrInvalidMove), errors.Is(err, apperror.ErrInvalidBet):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, apperror.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func actorOf(r *http.Request) entity.Actor {
	return entity.Actor{
		ID:   r.Header.Get(headerUserID),
		Name: r.Header.Get(headerUserName),
	}
}

func decode(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}

	return nil
}
