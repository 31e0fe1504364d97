package rest

import (
	"time"

	"github.com/rocketscienceinc/tictactoe-bet/internal/entity"
)

type createGameRequest struct {
	Bet int64 `json:"bet"`
}

type moveRequest struct {
	Cell *int `json:"cell"`
}

type gameResponse struct {
	ID        string `json:"id"`
	Bet       int64  `json:"bet"`
	PrizeFund int64  `json:"prize_fund"`
	State     string `json:"state"`

	FirstPlayer      string `json:"first_player"`
	FirstPlayerName  string `json:"first_player_name,omitempty"`
	SecondPlayer     string `json:"second_player,omitempty"`
	SecondPlayerName string `json:"second_player_name,omitempty"`

	Turn     string `json:"turn,omitempty"`
	TurnName string `json:"turn_name,omitempty"`
	Winner   string `json:"winner,omitempty"`

	Board   [entity.BoardSize]string `json:"board"`
	Version int64                    `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type entryResponse struct {
	UserID string `json:"user_id"`
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
}

type outcomeResponse struct {
	Game    gameResponse    `json:"game"`
	Entries []entryResponse `json:"entries"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Balance   int64     `json:"balance"`
	New       bool      `json:"new"`
	CreatedAt time.Time `json:"created_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toGameResponse(game *entity.Game) gameResponse {
	response := gameResponse{
		ID:               game.ID,
		Bet:              game.Bet,
		PrizeFund:        game.PrizeFund(),
		State:            string(game.State),
		FirstPlayer:      game.FirstPlayer,
		FirstPlayerName:  game.FirstPlayerName,
		SecondPlayer:     game.SecondPlayer,
		SecondPlayerName: game.SecondPlayerName,
		Turn:             game.Turn,
		TurnName:         game.TurnName(),
		Winner:           game.Winner(),
		Version:          game.Version,
		CreatedAt:        game.CreatedAt,
		UpdatedAt:        game.UpdatedAt,
	}

	for i, mark := range game.Board {
		response.Board[i] = string(mark)
	}

	return response
}

func toEntries(entries []entity.LedgerEntry) []entryResponse {
	response := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, entryResponse{
			UserID: entry.UserID,
			Delta:  entry.Delta,
			Reason: string(entry.Reason),
		})
	}

	return response
}

func toOutcomeResponse(outcome *entity.Outcome) outcomeResponse {
	return outcomeResponse{
		Game:    toGameResponse(outcome.Game),
		Entries: toEntries(outcome.Entries),
	}
}
