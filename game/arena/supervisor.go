package arena

import (
	"context"
	"errors"
	"time"

	"github.com/MoJuiceX/clawcombat/cache"
	"github.com/MoJuiceX/clawcombat/config"
	"github.com/MoJuiceX/clawcombat/game/battle"
	"github.com/MoJuiceX/clawcombat/model"
	"github.com/MoJuiceX/clawcombat/store"
	"go.uber.org/zap"
)

// sweepLockKey serializes sweeps across processes: SetNX grants the lock to
// exactly one sweeper per interval.
const sweepLockKey = "arena:sweep:lock"

// Supervisor enforces action deadlines. Each sweep resolves every overdue
// battle with the missing side's action treated as skipped; sides that keep
// missing deadlines eventually forfeit.
type Supervisor struct {
	svc    *Service
	store  *store.Store
	cache  cache.Cache
	cfg    config.BattleConfig
	logger *zap.Logger
}

func NewSupervisor(svc *Service, st *store.Store, c cache.Cache, cfg config.BattleConfig, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{svc: svc, store: st, cache: c, cfg: cfg, logger: logger}
}

// Sweep resolves all battles whose action deadline has passed. Safe to run
// concurrently: the cache lock keeps sweepers apart and the turn token makes
// a raced resolution a no-op anyway.
func (sv *Supervisor) Sweep(ctx context.Context) error {
	ok, err := sv.cache.SetNX(ctx, sweepLockKey, "1", sv.cfg.SweepInterval)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	defer func() {
		if err := sv.cache.Del(context.Background(), sweepLockKey); err != nil {
			sv.logger.Warn("release sweep lock", zap.Error(err))
		}
	}()

	due, err := sv.store.DueBattles(ctx, time.Now())
	if err != nil {
		return err
	}
	for i := range due {
		if err := sv.sweepOne(ctx, &due[i]); err != nil {
			sv.logger.Error("sweep battle", zap.String("battle", due[i].ID), zap.Error(err))
		}
	}
	return nil
}

// sweepOne resolves a single overdue battle. A submitted pending slot counts
// as on time; a missing one is a timeout. Both missing still advances the
// turn, so a fully abandoned battle ticks toward the double forfeit.
func (sv *Supervisor) sweepOne(ctx context.Context, b *model.Battle) error {
	var actions [2]*battle.SubmittedAction
	if b.PendingSlotA != nil {
		actions[0] = &battle.SubmittedAction{Slot: *b.PendingSlotA}
	}
	if b.PendingSlotB != nil {
		actions[1] = &battle.SubmittedAction{Slot: *b.PendingSlotB}
	}
	if err := sv.svc.resolve(ctx, b, actions); err != nil {
		// A player submission resolved the turn first. Nothing to do.
		if errors.Is(err, store.ErrTurnConflict) {
			return nil
		}
		return err
	}
	return nil
}
