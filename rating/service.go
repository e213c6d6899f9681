package rating

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/MoJuiceX/clawcombat/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrAlreadySettled reports that another worker claimed this battle's
// settlement first.
var ErrAlreadySettled = errors.New("battle already settled")

// Progression tuning.
const (
	EloK = 32

	BaseXP        = 50
	XPPerLevel    = 2
	ConsolationXP = 10

	// GiantSlayerGap is the level advantage the loser must hold over the
	// winner for the bonus to apply.
	GiantSlayerGap   = 5
	GiantSlayerBonus = 1.5

	// RestedAfter is the inactivity span before a win earns the catch-up
	// multiplier.
	RestedAfter = 24 * time.Hour
	RestedBonus = 1.5
)

// Service owns all rating and experience mutation. The battle engine hands
// it terminal battles and never touches these fields itself.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func New(db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, logger: logger}
}

// Result summarizes one settlement for logging and notification payloads.
type Result struct {
	WinnerRating int
	LoserRating  int
	WinnerXP     int64
	GiantSlayer  bool
	Rested       bool
}

// claimSettlement flips the battle's once-only rating_applied flag inside
// the caller's transaction. A failed settlement rolls the flag back with the
// rest of the transaction, so the battle can be settled again later; a lost
// race surfaces as ErrAlreadySettled.
func claimSettlement(tx *gorm.DB, battleID string) error {
	res := tx.Model(&model.Battle{}).
		Where("id = ? AND rating_applied = ?", battleID, false).
		Update("rating_applied", true)
	if res.Error != nil {
		return fmt.Errorf("claim settlement: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadySettled
	}
	return nil
}

// Settle applies Elo, XP and win/loss counters for a decisive battle in one
// transaction, atomically with the once-only settlement claim.
func (s *Service) Settle(ctx context.Context, winnerID, loserID int64, battleID string) (*Result, error) {
	var res Result
	now := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimSettlement(tx, battleID); err != nil {
			return err
		}

		var winner, loser model.Combatant
		if err := tx.First(&winner, winnerID).Error; err != nil {
			return fmt.Errorf("load winner %d: %w", winnerID, err)
		}
		if err := tx.First(&loser, loserID).Error; err != nil {
			return fmt.Errorf("load loser %d: %w", loserID, err)
		}

		winNew, loseNew := eloExchange(winner.Rating, loser.Rating)

		xp := int64(BaseXP + XPPerLevel*loser.Level)
		if loser.Level >= winner.Level+GiantSlayerGap {
			xp = int64(float64(xp) * GiantSlayerBonus)
			res.GiantSlayer = true
		}
		if winner.LastBattleAt == nil || now.Sub(*winner.LastBattleAt) >= RestedAfter {
			xp = int64(float64(xp) * RestedBonus)
			res.Rested = true
		}

		winUpdates := map[string]interface{}{
			"rating":         winNew,
			"xp":             winner.XP + xp,
			"wins":           winner.Wins + 1,
			"last_battle_at": now,
		}
		loseUpdates := map[string]interface{}{
			"rating":         loseNew,
			"xp":             loser.XP + ConsolationXP,
			"losses":         loser.Losses + 1,
			"last_battle_at": now,
		}
		if err := tx.Model(&winner).Updates(winUpdates).Error; err != nil {
			return fmt.Errorf("update winner: %w", err)
		}
		if err := tx.Model(&loser).Updates(loseUpdates).Error; err != nil {
			return fmt.Errorf("update loser: %w", err)
		}

		res.WinnerRating = winNew
		res.LoserRating = loseNew
		res.WinnerXP = xp
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("battle settled",
		zap.String("battle", battleID),
		zap.Int64("winner", winnerID), zap.Int("winner_rating", res.WinnerRating),
		zap.Int64("loser", loserID), zap.Int("loser_rating", res.LoserRating),
		zap.Int64("xp", res.WinnerXP),
		zap.Bool("giant_slayer", res.GiantSlayer), zap.Bool("rested", res.Rested))
	return &res, nil
}

// SettleDraw touches activity timestamps only: a draw moves no rating. The
// settlement claim still applies so a draw settles exactly once.
func (s *Service) SettleDraw(ctx context.Context, idA, idB int64, battleID string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimSettlement(tx, battleID); err != nil {
			return err
		}
		return tx.Model(&model.Combatant{}).
			Where("id IN ?", []int64{idA, idB}).
			Update("last_battle_at", now).Error
	})
}

// eloExchange computes both new ratings with K=32. The exchange is
// symmetric: points the winner gains, the loser loses.
func eloExchange(winner, loser int) (int, int) {
	expected := 1.0 / (1.0 + math.Pow(10, float64(loser-winner)/400.0))
	delta := int(math.Round(EloK * (1.0 - expected)))
	return winner + delta, loser - delta
}
