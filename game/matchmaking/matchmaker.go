package matchmaking

import (
	"context"
	"errors"
	"sync"

	"github.com/MoJuiceX/clawcombat/model"
	"github.com/MoJuiceX/clawcombat/store"
	"go.uber.org/zap"
)

// DefaultThresholds is the expanding rating-difference sequence. A final
// unbounded pass always follows, so a queue of two never starves.
var DefaultThresholds = []int{100, 200, 350, 500}

// Pairing is a matched pair of queue entries, already removed from the queue.
type Pairing struct {
	A model.QueueEntry
	B model.QueueEntry
}

// Matchmaker pairs waiting combatants by skill proximity. The mutex
// serializes match attempts within this process and the store removes both
// entries in one transaction, so no entry can be paired twice even with
// concurrent matchmakers elsewhere.
type Matchmaker struct {
	mu         sync.Mutex
	store      *store.Store
	thresholds []int
	logger     *zap.Logger
}

func New(st *store.Store, thresholds []int, logger *zap.Logger) *Matchmaker {
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matchmaker{store: st, thresholds: thresholds, logger: logger}
}

// Join adds a combatant to the queue at its current rating.
func (m *Matchmaker) Join(ctx context.Context, combatantID int64, rating int) error {
	if err := m.store.Enqueue(ctx, combatantID, rating); err != nil {
		return err
	}
	m.logger.Info("queue join", zap.Int64("combatant", combatantID), zap.Int("rating", rating))
	return nil
}

// Leave removes a combatant from the queue. Immediate and unconditional;
// leaving while not queued is not an error.
func (m *Matchmaker) Leave(ctx context.Context, combatantID int64) error {
	return m.store.Dequeue(ctx, combatantID)
}

// TryMatch attempts one pairing. Fair matches are tried first: each
// threshold scans the queue in enqueue order and takes the first pair within
// range, and the final pass is unbounded. Returns nil with no error when the
// queue holds no pair.
func (m *Matchmaker) TryMatch(ctx context.Context) (*Pairing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.store.QueueEntries(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) < 2 {
		return nil, nil
	}

	a, b, ok := selectPair(entries, m.thresholds)
	if !ok {
		return nil, nil
	}

	if err := m.store.DequeuePair(ctx, a.CombatantID, b.CombatantID); err != nil {
		if errors.Is(err, store.ErrQueueConflict) {
			// Someone left (or another node paired) between scan and
			// removal; the next tick rescans.
			m.logger.Debug("pairing lost race", zap.Int64("a", a.CombatantID), zap.Int64("b", b.CombatantID))
			return nil, nil
		}
		return nil, err
	}

	m.logger.Info("paired",
		zap.Int64("a", a.CombatantID), zap.Int("rating_a", a.Rating),
		zap.Int64("b", b.CombatantID), zap.Int("rating_b", b.Rating))
	return &Pairing{A: a, B: b}, nil
}

// selectPair scans entries (already in enqueue order) once per threshold,
// then once unbounded.
func selectPair(entries []model.QueueEntry, thresholds []int) (model.QueueEntry, model.QueueEntry, bool) {
	for pass := 0; pass <= len(thresholds); pass++ {
		unbounded := pass == len(thresholds)
		for i := 0; i < len(entries); i++ {
			for j := i + 1; j < len(entries); j++ {
				diff := entries[i].Rating - entries[j].Rating
				if diff < 0 {
					diff = -diff
				}
				if unbounded || diff <= thresholds[pass] {
					return entries[i], entries[j], true
				}
			}
		}
	}
	return model.QueueEntry{}, model.QueueEntry{}, false
}
