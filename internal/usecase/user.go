package usecase

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-bet/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-bet/internal/entity"
)

// GetOrCreateUser - the bool is true only for the call that granted the starting balance.
func (that *GameManager) GetOrCreateUser(ctx context.Context, userID string) (*entity.User, bool, error) {
	if userID == "" {
		return nil, false, fmt.Errorf("%w: user id is required", apperror.ErrForbidden)
	}

	user, created, err := that.userRepo.GetOrCreate(ctx, userID, that.startingBalance, that.now())
	if err != nil {
		return nil, false, fmt.Errorf("failed to get or create user: %w", err)
	}

	if created {
		that.logger.Info("user created", "user_id", userID, "balance", user.Balance)
	}

	return user, created, nil
}

func (that *GameManager) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := that.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}
