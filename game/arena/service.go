package arena

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MoJuiceX/clawcombat/config"
	"github.com/MoJuiceX/clawcombat/game/battle"
	"github.com/MoJuiceX/clawcombat/journal"
	"github.com/MoJuiceX/clawcombat/model"
	"github.com/MoJuiceX/clawcombat/notify"
	"github.com/MoJuiceX/clawcombat/rating"
	"github.com/MoJuiceX/clawcombat/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotParticipant rejects actions from combatants outside the battle.
	ErrNotParticipant = errors.New("combatant is not in this battle")
	// ErrBattleOver rejects actions against finished or aborted battles.
	ErrBattleOver = errors.New("battle is over")
)

// Service orchestrates battle lifecycle: it owns no battle rules itself.
// The engine resolves turns against in-memory state; Service loads, commits
// and fans out the results.
type Service struct {
	store    *store.Store
	resolver *battle.Resolver
	rating   *rating.Service
	journal  *journal.Service
	notifier notify.Notifier
	cfg      config.BattleConfig
	logger   *zap.Logger
}

func NewService(st *store.Store, resolver *battle.Resolver, rt *rating.Service,
	jr *journal.Service, nt notify.Notifier, cfg config.BattleConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    st,
		resolver: resolver,
		rating:   rt,
		journal:  jr,
		notifier: nt,
		cfg:      cfg,
		logger:   logger,
	}
}

// StartBattle creates a battle row for two paired combatants: snapshots are
// built here, so later changes to the persisted records never leak into a
// running battle.
func (s *Service) StartBattle(ctx context.Context, idA, idB int64) (*model.Battle, error) {
	ca, err := s.store.LoadCombatant(ctx, idA)
	if err != nil {
		return nil, err
	}
	cb, err := s.store.LoadCombatant(ctx, idB)
	if err != nil {
		return nil, err
	}

	battleID := uuid.NewString()
	st := battle.NewBattleState(battleID, recordFrom(ca), recordFrom(cb))
	raw, err := st.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal battle state: %w", err)
	}

	deadline := time.Now().Add(s.cfg.ActionTimeout)
	b := &model.Battle{
		ID:             battleID,
		CombatantA:     idA,
		CombatantB:     idB,
		Status:         model.BattleWaiting,
		TurnNumber:     0,
		State:          raw,
		ActionDeadline: deadline,
	}
	if err := s.store.CreateBattle(ctx, b); err != nil {
		return nil, err
	}

	s.journal.Record(journal.Entry{
		BattleID: battleID,
		Event:    journal.EventPaired,
		Payload: map[string]interface{}{
			"combatant_a": idA, "rating_a": ca.Rating,
			"combatant_b": idB, "rating_b": cb.Rating,
		},
	})
	s.notifyBoth(ca, cb, notify.EventBattleStart, map[string]interface{}{
		"battle_id": battleID,
		"deadline":  deadline,
	})

	s.logger.Info("battle started",
		zap.String("battle", battleID),
		zap.Int64("combatant_a", idA), zap.Int64("combatant_b", idB))
	return b, nil
}

// Abort flags a battle that cannot continue. Aborted battles never reach
// rating settlement.
func (s *Service) Abort(ctx context.Context, battleID, reason string) error {
	if err := s.store.AbortBattle(ctx, battleID, reason); err != nil {
		return err
	}
	s.journal.Record(journal.Entry{
		BattleID: battleID,
		Event:    journal.EventAborted,
		Payload:  map[string]interface{}{"reason": reason},
	})
	return nil
}

// SubmitAction validates and records one side's move for the current turn.
// When the second action lands, the submitting call resolves the turn; under
// a race exactly one caller commits and the other's conflict is swallowed.
func (s *Service) SubmitAction(ctx context.Context, battleID string, combatantID int64, slot int) error {
	b, err := s.store.LoadBattle(ctx, battleID)
	if err != nil {
		return err
	}
	if b.Status != model.BattleWaiting {
		return ErrBattleOver
	}

	var sideA bool
	switch combatantID {
	case b.CombatantA:
		sideA = true
	case b.CombatantB:
		sideA = false
	default:
		return ErrNotParticipant
	}

	st, err := battle.UnmarshalState(b.State)
	if err != nil {
		return err
	}
	side := 1
	if sideA {
		side = 0
	}
	if err := battle.ValidateAction(st, side, slot); err != nil {
		return err
	}
	if err := s.store.SetPendingAction(ctx, battleID, sideA, slot, b.TurnNumber); err != nil {
		return err
	}

	// Re-read to see whether the opponent's action is in. Both racing callers
	// may reach resolve; CommitTurn's turn token lets only one through.
	b, err = s.store.LoadBattle(ctx, battleID)
	if err != nil {
		return err
	}
	if b.PendingSlotA == nil || b.PendingSlotB == nil {
		return nil
	}
	actions := [2]*battle.SubmittedAction{
		{Slot: *b.PendingSlotA},
		{Slot: *b.PendingSlotB},
	}
	if err := s.resolve(ctx, b, actions); err != nil {
		if errors.Is(err, store.ErrTurnConflict) {
			return nil
		}
		return err
	}
	return nil
}

// resolve runs one turn against the loaded row and commits the result under
// the optimistic turn token. A nil action means that side missed its
// deadline: the engine skips the move and the side's timeout counter grows.
func (s *Service) resolve(ctx context.Context, b *model.Battle, actions [2]*battle.SubmittedAction) error {
	st, err := battle.UnmarshalState(b.State)
	if err != nil {
		return err
	}

	for side := 0; side < 2; side++ {
		if actions[side] != nil {
			st.Timeouts[side] = 0
		} else {
			st.Timeouts[side]++
		}
	}

	var log *battle.TurnLog
	forfeitA := st.Timeouts[0] >= s.cfg.ForfeitAfter
	forfeitB := st.Timeouts[1] >= s.cfg.ForfeitAfter
	switch {
	case forfeitA && forfeitB:
		log = s.forfeitLog(st, -1)
	case forfeitA:
		log = s.forfeitLog(st, 0)
	case forfeitB:
		log = s.forfeitLog(st, 1)
	default:
		log, err = s.resolver.ResolveTurn(st, actions)
		if err != nil {
			return err
		}
	}

	raw, err := st.Marshal()
	if err != nil {
		return fmt.Errorf("marshal battle state: %w", err)
	}
	status := model.BattleWaiting
	var winnerID *int64
	if st.Finished() {
		status = model.BattleFinished
		if st.WinnerID != 0 {
			w := st.WinnerID
			winnerID = &w
		}
	}
	commit := store.TurnCommit{
		State:          raw,
		NextTurn:       b.TurnNumber + 1,
		Status:         status,
		WinnerID:       winnerID,
		Draw:           st.Draw,
		ActionDeadline: time.Now().Add(s.cfg.ActionTimeout),
	}
	if err := s.store.CommitTurn(ctx, b.ID, b.TurnNumber, commit); err != nil {
		return err
	}

	ca, cb := s.loadParticipants(ctx, b)
	s.notifyBoth(ca, cb, notify.EventTurnResult, map[string]interface{}{
		"battle_id": b.ID,
		"turn":      log.Turn,
		"log":       log,
	})

	if st.Finished() {
		s.settle(ctx, b, st, ca, cb)
	}
	return nil
}

// forfeitLog wraps the engine's forfeit events in a turn log so delivery and
// journaling see the same shape as a resolved turn.
func (s *Service) forfeitLog(st *battle.BattleState, loserSide int) *battle.TurnLog {
	st.Turn++
	log := battle.TurnLog{
		Turn:    st.Turn,
		Events:  st.Forfeit(loserSide),
		HPAfter: [2]int{st.Sides[0].HP, st.Sides[1].HP},
	}
	st.Logs = append(st.Logs, log)
	return &log
}

// settle applies rating exactly once per battle and fans out the terminal
// notifications. The rating_applied flag is claimed inside the settlement
// transaction, so a failed settlement releases it for a retry; a lost race
// means another worker settled.
func (s *Service) settle(ctx context.Context, b *model.Battle, st *battle.BattleState, ca, cb *model.Combatant) {
	event := journal.EventBattleEnd
	if wasForfeit(st) {
		event = journal.EventForfeit
	}
	s.journal.Record(journal.Entry{
		BattleID: b.ID,
		Event:    event,
		Payload: map[string]interface{}{
			"winner_id": st.WinnerID,
			"draw":      st.Draw,
			"turns":     st.Turn,
		},
	})
	s.notifyBoth(ca, cb, notify.EventBattleEnd, map[string]interface{}{
		"battle_id": b.ID,
		"winner_id": st.WinnerID,
		"draw":      st.Draw,
	})

	if st.Draw {
		if err := s.rating.SettleDraw(ctx, b.CombatantA, b.CombatantB, b.ID); err != nil {
			if !errors.Is(err, rating.ErrAlreadySettled) {
				s.logger.Error("settle draw", zap.String("battle", b.ID), zap.Error(err))
			}
			return
		}
	} else {
		if _, err := s.rating.Settle(ctx, st.WinnerID, st.LoserID(), b.ID); err != nil {
			if !errors.Is(err, rating.ErrAlreadySettled) {
				s.logger.Error("settle battle", zap.String("battle", b.ID), zap.Error(err))
			}
			return
		}
	}
	s.journal.Record(journal.Entry{
		BattleID: b.ID,
		Event:    journal.EventRatingDone,
		Payload:  map[string]interface{}{"winner_id": st.WinnerID, "draw": st.Draw},
	})
}

func (s *Service) loadParticipants(ctx context.Context, b *model.Battle) (*model.Combatant, *model.Combatant) {
	ca, err := s.store.LoadCombatant(ctx, b.CombatantA)
	if err != nil {
		s.logger.Warn("load participant", zap.Int64("combatant", b.CombatantA), zap.Error(err))
	}
	cb, err := s.store.LoadCombatant(ctx, b.CombatantB)
	if err != nil {
		s.logger.Warn("load participant", zap.Int64("combatant", b.CombatantB), zap.Error(err))
	}
	return ca, cb
}

func (s *Service) notifyBoth(ca, cb *model.Combatant, event string, payload interface{}) {
	if s.notifier == nil {
		return
	}
	for _, c := range []*model.Combatant{ca, cb} {
		recipient := ""
		if c != nil {
			recipient = c.WebhookURL
		}
		s.notifier.Notify(recipient, event, payload)
	}
}

func wasForfeit(st *battle.BattleState) bool {
	if len(st.Logs) == 0 {
		return false
	}
	for _, ev := range st.Logs[len(st.Logs)-1].Events {
		if ev.Kind == battle.EventForfeit {
			return true
		}
	}
	return false
}

// recordFrom maps a storage row into the engine's record shape.
func recordFrom(c *model.Combatant) battle.CombatantRecord {
	var moveIDs []string
	if len(c.MoveIDs) > 0 {
		if err := json.Unmarshal(c.MoveIDs, &moveIDs); err != nil {
			moveIDs = nil
		}
	}
	return battle.CombatantRecord{
		ID:          c.ID,
		Name:        c.Name,
		ElementType: c.ElementType,
		Level:       c.Level,
		Nature:      c.Nature,
		AbilityID:   c.AbilityID,
		BaseHP:      c.BaseHP,
		BaseStats: [battle.NumStats]int{
			c.BaseAttack, c.BaseDefense, c.BaseSpAtk, c.BaseSpDef, c.BaseSpeed,
		},
		EVHP: c.EVHP,
		EVs: [battle.NumStats]int{
			c.EVAttack, c.EVDefense, c.EVSpAtk, c.EVSpDef, c.EVSpeed,
		},
		MoveIDs: moveIDs,
	}
}
