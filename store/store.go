package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MoJuiceX/clawcombat/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound maps gorm's record-not-found into the service taxonomy.
	ErrNotFound = errors.New("record not found")
	// ErrTurnConflict signals a stale optimistic turn commit. Retryable: the
	// caller reloads the battle and re-validates.
	ErrTurnConflict = errors.New("turn number conflict")
	// ErrAlreadyQueued rejects a second queue join for the same combatant.
	ErrAlreadyQueued = errors.New("combatant already queued")
	// ErrQueueConflict signals that a queue entry vanished between the scan
	// and the pairing transaction.
	ErrQueueConflict = errors.New("queue entry already taken")
	// ErrAlreadySubmitted rejects a second action for the same turn.
	ErrAlreadySubmitted = errors.New("action already submitted this turn")
)

// Store is the gorm-backed persistence layer for battles, the matchmaking
// queue and combatant records. Turn-advancing battle writes are guarded by
// the optimistic turn-number token; queue pairing is transactional.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

func New(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// DB exposes the underlying handle for collaborators that own their own
// tables (rating, journal).
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) LoadCombatant(ctx context.Context, id int64) (*model.Combatant, error) {
	var c model.Combatant
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("combatant %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load combatant %d: %w", id, err)
	}
	return &c, nil
}

func (s *Store) CreateBattle(ctx context.Context, b *model.Battle) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("create battle: %w", err)
	}
	return nil
}

func (s *Store) LoadBattle(ctx context.Context, id string) (*model.Battle, error) {
	var b model.Battle
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("battle %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load battle %s: %w", id, err)
	}
	return &b, nil
}

// SetPendingAction records one side's move slot for the current turn. The
// WHERE clause carries the expected turn number and requires the slot to be
// empty, so a raced duplicate or a stale turn updates zero rows.
func (s *Store) SetPendingAction(ctx context.Context, battleID string, sideA bool, slot int, expectedTurn int) error {
	column := "pending_slot_b"
	if sideA {
		column = "pending_slot_a"
	}
	res := s.db.WithContext(ctx).Model(&model.Battle{}).
		Where("id = ? AND turn_number = ? AND status = ? AND "+column+" IS NULL",
			battleID, expectedTurn, model.BattleWaiting).
		Update(column, slot)
	if res.Error != nil {
		return fmt.Errorf("set pending action: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Disambiguate for the caller: a present slot means a duplicate, a
		// changed turn means the turn resolved underneath them.
		b, err := s.LoadBattle(ctx, battleID)
		if err != nil {
			return err
		}
		if b.TurnNumber != expectedTurn || b.Status != model.BattleWaiting {
			return ErrTurnConflict
		}
		return ErrAlreadySubmitted
	}
	return nil
}

// TurnCommit is the full post-resolution row update applied under the
// optimistic turn check.
type TurnCommit struct {
	State          []byte
	NextTurn       int
	Status         string
	WinnerID       *int64
	Draw           bool
	ActionDeadline time.Time
}

// CommitTurn advances a battle row from expectedTurn to the committed state.
// Exactly one concurrent resolver wins; the rest observe ErrTurnConflict and
// the row is untouched for them.
func (s *Store) CommitTurn(ctx context.Context, battleID string, expectedTurn int, c TurnCommit) error {
	updates := map[string]interface{}{
		"state":           c.State,
		"turn_number":     c.NextTurn,
		"status":          c.Status,
		"winner_id":       c.WinnerID,
		"draw":            c.Draw,
		"pending_slot_a":  nil,
		"pending_slot_b":  nil,
		"action_deadline": c.ActionDeadline,
	}
	res := s.db.WithContext(ctx).Model(&model.Battle{}).
		Where("id = ? AND turn_number = ?", battleID, expectedTurn).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("commit turn: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTurnConflict
	}
	return nil
}

// AbortBattle flags a battle that could not be started or resumed. Aborted
// battles never reach the rating collaborator.
func (s *Store) AbortBattle(ctx context.Context, battleID, reason string) error {
	res := s.db.WithContext(ctx).Model(&model.Battle{}).
		Where("id = ? AND status <> ?", battleID, model.BattleFinished).
		Updates(map[string]interface{}{"status": model.BattleAborted, "abort_reason": reason})
	if res.Error != nil {
		return fmt.Errorf("abort battle: %w", res.Error)
	}
	return nil
}

// DueBattles returns in-progress battles whose action deadline has passed.
func (s *Store) DueBattles(ctx context.Context, now time.Time) ([]model.Battle, error) {
	var out []model.Battle
	err := s.db.WithContext(ctx).
		Where("status = ? AND action_deadline <= ?", model.BattleWaiting, now).
		Order("action_deadline").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("due battles: %w", err)
	}
	return out, nil
}

// Enqueue adds a combatant to the matchmaking queue. The unique index on
// combatant_id turns a double join into ErrAlreadyQueued.
func (s *Store) Enqueue(ctx context.Context, combatantID int64, rating int) error {
	entry := model.QueueEntry{CombatantID: combatantID, Rating: rating, EnqueuedAt: time.Now()}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		var existing model.QueueEntry
		if s.db.WithContext(ctx).First(&existing, "combatant_id = ?", combatantID).Error == nil {
			return ErrAlreadyQueued
		}
		return fmt.Errorf("enqueue %d: %w", combatantID, err)
	}
	return nil
}

// Dequeue removes a combatant from the queue. Removing an absent entry is
// not an error: leave is unconditional.
func (s *Store) Dequeue(ctx context.Context, combatantID int64) error {
	err := s.db.WithContext(ctx).
		Delete(&model.QueueEntry{}, "combatant_id = ?", combatantID).Error
	if err != nil {
		return fmt.Errorf("dequeue %d: %w", combatantID, err)
	}
	return nil
}

// QueueEntries returns the queue in enqueue order.
func (s *Store) QueueEntries(ctx context.Context) ([]model.QueueEntry, error) {
	var out []model.QueueEntry
	if err := s.db.WithContext(ctx).Order("enqueued_at, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("queue entries: %w", err)
	}
	return out, nil
}

// DequeuePair removes both entries in one transaction. If either row is gone
// the transaction rolls back with ErrQueueConflict and neither side is
// consumed: no entry can be paired twice.
func (s *Store) DequeuePair(ctx context.Context, idA, idB int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range []int64{idA, idB} {
			res := tx.Delete(&model.QueueEntry{}, "combatant_id = ?", id)
			if res.Error != nil {
				return fmt.Errorf("dequeue pair: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrQueueConflict
			}
		}
		return nil
	})
}
