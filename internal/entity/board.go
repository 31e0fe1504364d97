package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-bet/internal/apperror"
)

type Mark string

const (
	EmptyCell Mark = ""
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
)

const (
	BoardSide  = 5
	BoardSize  = BoardSide * BoardSide
	LineLength = 4
)

// Board - cells are addressed row by row, cell = row*5 + column.
type Board [BoardSize]Mark

// Window is a run of four cells that wins when all of them hold the same mark.
type Window [LineLength]int

// Windows - every line checked for a win, in scan order: rows, columns, main diagonals, anti-diagonals.
var Windows = [...]Window{
	// rows
	{0, 1, 2, 3}, {1, 2, 3, 4},
	{5, 6, 7, 8}, {6, 7, 8, 9},
	{10, 11, 12, 13}, {11, 12, 13, 14},
	{15, 16, 17, 18}, {16, 17, 18, 19},
	{20, 21, 22, 23}, {21, 22, 23, 24},

	// columns
	{0, 5, 10, 15}, {5, 10, 15, 20},
	{1, 6, 11, 16}, {6, 11, 16, 21},
	{2, 7, 12, 17}, {7, 12, 17, 22},
	{3, 8, 13, 18}, {8, 13, 18, 23},
	{4, 9, 14, 19}, {9, 14, 19, 24},

	// main diagonals
	{0, 6, 12, 18}, {1, 7, 13, 19},

	// anti-diagonals
	{3, 7, 11, 15}, {4, 8, 12, 16},
}

// FindWinner - returns the mark of the first window filled by a single mark, or EmptyCell.
func FindWinner(board Board) Mark {
	for _, window := range Windows {
		first := board[window[0]]
		if first == EmptyCell {
			continue
		}

		if board[window[1]] == first && board[window[2]] == first && board[window[3]] == first {
			return first
		}
	}

	return EmptyCell
}

// IsDraw - true when every window already holds at least two X and at least two O.
// Empty cells are not taken into account, only the mark counts.
func IsDraw(board Board) bool {
	for _, window := range Windows {
		var countX, countO int

		for _, cell := range window {
			switch board[cell] {
			case PlayerX:
				countX++
			case PlayerO:
				countO++
			}
		}

		if countX < 2 || countO < 2 {
			return false
		}
	}

	return true
}

func (that *Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// ValidateCell - checks that the cell exists and is not taken yet.
func (that *Board) ValidateCell(cell int) error {
	if cell < 0 || cell >= BoardSize {
		return fmt.Errorf("%w: cell %d not found", apperror.ErrInvalidMove, cell)
	}

	if that[cell] != EmptyCell {
		return fmt.Errorf("%w: cell %d is already occupied", apperror.ErrInvalidMove, cell)
	}

	return nil
}

// Place - puts the mark into the cell after validating it.
func (that *Board) Place(cell int, mark Mark) error {
	if err := that.ValidateCell(cell); err != nil {
		return err
	}

	that[cell] = mark

	return nil
}
