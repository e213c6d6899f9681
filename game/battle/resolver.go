package battle

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrInvalidMoveSlot rejects a slot outside the four move slots.
	ErrInvalidMoveSlot = errors.New("invalid move slot")
	// ErrNoPP rejects a move slot with no remaining uses this battle.
	ErrNoPP = errors.New("move has no PP remaining")
)

// SubmittedAction is one side's chosen move for the turn. A nil action means
// the side skipped (typically by missing its deadline): no move executes,
// but the turn still advances around it.
type SubmittedAction struct {
	Slot int
}

// Resolver executes battle turns. It holds no per-battle state: the same
// resolver serves many battles, each turn driven entirely by the BattleState
// passed in. All randomness flows through the injected RNG.
type Resolver struct {
	rng    RNG
	logger *zap.Logger
}

// NewResolver creates a resolver around the given randomness source.
func NewResolver(rng RNG, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{rng: rng, logger: logger}
}

// ValidateAction checks a submission at the boundary, before any state is
// touched. Game-logic outcomes inside the turn are events, never errors.
func ValidateAction(st *BattleState, side int, slot int) error {
	if slot < 0 || slot >= len(st.Sides[side].Moves) {
		return ErrInvalidMoveSlot
	}
	ms := &st.Sides[side].Moves[slot]
	if ms.Move() == nil {
		return ErrInvalidMoveSlot
	}
	if ms.PP <= 0 {
		return ErrNoPP
	}
	return nil
}

// ResolveTurn runs exactly one turn of the state machine:
// order → first attack → terminal check → second attack → terminal check →
// end-of-turn status and abilities → terminal check. The turn counter
// increments exactly once per call regardless of how many events occur.
func (r *Resolver) ResolveTurn(st *BattleState, actions [2]*SubmittedAction) (*TurnLog, error) {
	if st.Finished() {
		return nil, ErrBattleFinished
	}

	st.Phase = PhaseResolving
	st.Turn++
	log := TurnLog{Turn: st.Turn}

	if st.Turn == 1 {
		log.Events = append(log.Events, battleStartHooks(st)...)
	}

	for _, c := range st.Sides {
		c.ResetTurnFlags()
	}
	for side, act := range actions {
		if act != nil {
			log.MoveIDs[side] = st.Sides[side].Moves[act.Slot].MoveID
		}
	}

	order := r.determineOrder(st, actions)
	first := order[0]

	for _, side := range order {
		if st.Finished() {
			break
		}
		act := actions[side]
		if act == nil {
			// A skipped turn still spends the action the bounded statuses
			// count, so freeze/sleep/confusion expire on schedule.
			tickDormantStatus(st.Sides[side])
			log.Events = append(log.Events, TurnEvent{Kind: EventTimeout, Side: side,
				Message: fmt.Sprintf("%s did not act", st.Sides[side].Name)})
			continue
		}

		canAct, gateEvents := actGate(st, side, r.rng)
		log.Events = append(log.Events, gateEvents...)
		if canAct {
			log.Events = append(log.Events, r.executeMove(st, side, act.Slot)...)
		}
		log.Events = append(log.Events, r.checkTerminal(st, first)...)
	}

	if !st.Finished() {
		log.Events = append(log.Events, endOfTurnStatus(st, 0)...)
		log.Events = append(log.Events, endOfTurnStatus(st, 1)...)
		log.Events = append(log.Events, endOfTurnAbilities(st)...)
		log.Events = append(log.Events, r.checkTerminal(st, first)...)
	}

	if !st.Finished() {
		st.Phase = PhaseWaiting
	}

	log.HPAfter = [2]int{st.Sides[0].HP, st.Sides[1].HP}
	st.Logs = append(st.Logs, log)

	r.logger.Debug("turn resolved",
		zap.String("battle", st.BattleID),
		zap.Int("turn", st.Turn),
		zap.String("phase", string(st.Phase)))

	return &st.Logs[len(st.Logs)-1], nil
}

// determineOrder returns both side indexes, first mover first. The tie-break
// chain is: move priority, effective speed (stages and paralysis applied),
// level, unmodified base speed, fair coin.
func (r *Resolver) determineOrder(st *BattleState, actions [2]*SubmittedAction) [2]int {
	priority := func(side int) int {
		if actions[side] == nil {
			return 0
		}
		if mv := st.Sides[side].Moves[actions[side].Slot].Move(); mv != nil {
			return mv.Priority
		}
		return 0
	}

	p0, p1 := priority(0), priority(1)
	if p0 != p1 {
		if p0 > p1 {
			return [2]int{0, 1}
		}
		return [2]int{1, 0}
	}

	s0, s1 := st.Sides[0].EffectiveSpeed(), st.Sides[1].EffectiveSpeed()
	if s0 != s1 {
		if s0 > s1 {
			return [2]int{0, 1}
		}
		return [2]int{1, 0}
	}

	// Higher level wins the speed tie: long-term progression beats chance.
	l0, l1 := st.Sides[0].Level, st.Sides[1].Level
	if l0 != l1 {
		if l0 > l1 {
			return [2]int{0, 1}
		}
		return [2]int{1, 0}
	}

	b0, b1 := st.Sides[0].BaseSpeed, st.Sides[1].BaseSpeed
	if b0 != b1 {
		if b0 > b1 {
			return [2]int{0, 1}
		}
		return [2]int{1, 0}
	}

	if r.rng.Intn(2) == 0 {
		return [2]int{0, 1}
	}
	return [2]int{1, 0}
}

// executeMove spends PP and applies one move, damage first, then secondary
// effects. Ability hooks fire in a fixed order: defender before_hit (dodge),
// defender before_faint (endure), attacker after_hit (contact status).
func (r *Resolver) executeMove(st *BattleState, side int, slot int) []TurnEvent {
	attacker := st.Sides[side]
	defender := st.Sides[1-side]
	ms := &attacker.Moves[slot]
	mv := ms.Move()
	if mv == nil {
		return []TurnEvent{{Kind: EventSkip, Side: side, Message: "unknown move"}}
	}
	if ms.PP > 0 {
		ms.PP--
	}

	var events []TurnEvent

	if beforeHitDodge(defender, r.rng) {
		return append(events, TurnEvent{Kind: EventMiss, Side: side, MoveID: mv.ID,
			Message: fmt.Sprintf("%s avoided the attack", defender.Name)})
	}

	if !mv.IsStatus() {
		res := CalculateDamage(attacker, defender, mv, &DamageContext{
			Effectiveness: st.Matchups.Offensive[side][mv.Type],
			RNG:           r.rng,
		})
		defender.HP -= res.Damage
		defender.TookDamageThisTurn = true
		events = append(events, TurnEvent{
			Kind: EventDamage, Side: 1 - side, MoveID: mv.ID,
			Damage: res.Damage, Critical: res.Critical, Effectiveness: res.Effectiveness,
			Message: fmt.Sprintf("%s used %s on %s", attacker.Name, mv.Name, defender.Name),
		})

		if beforeFaintEndure(defender) {
			events = append(events, TurnEvent{Kind: EventEndure, Side: 1 - side,
				Message: fmt.Sprintf("%s held on at 1 HP", defender.Name)})
		}

		// Damage wakes a surviving sleeper, including one that endured: the
		// endure hook settles survival before the wake check runs.
		if defender.Status == StatusSleep && defender.HP > 0 {
			cureStatus(defender)
			events = append(events, TurnEvent{Kind: EventStatusEnd, Side: 1 - side, Status: StatusSleep,
				Message: fmt.Sprintf("%s was jolted awake", defender.Name)})
		}
	}

	if defender.Fainted() {
		return events
	}

	// Secondary effects: move-driven first, then attacker contact abilities.
	if mv.Inflicts != StatusNone && r.rng.Float64() < mv.InflictChance {
		if inflictStatus(defender, mv.Inflicts) {
			events = append(events, TurnEvent{Kind: EventStatus, Side: 1 - side, Status: mv.Inflicts,
				Message: fmt.Sprintf("%s was afflicted by %s", defender.Name, mv.Inflicts)})
		}
	}
	for _, sc := range mv.StageChanges {
		target, targetSide := defender, 1-side
		if sc.OnSelf {
			target, targetSide = attacker, side
		}
		if applied := target.ApplyStage(sc.Stat, sc.Delta); applied != 0 {
			events = append(events, TurnEvent{Kind: EventStage, Side: targetSide, Stat: sc.Stat, Delta: applied,
				Message: fmt.Sprintf("%s's %s changed by %+d", target.Name, sc.Stat, applied)})
		}
	}
	if mv.FlinchChance > 0 && r.rng.Float64() < mv.FlinchChance {
		defender.Flinched = true
	}
	if !mv.IsStatus() && mv.Category == CategoryPhysical &&
		attacker.Ability().effect() == EffectVenomGrip &&
		r.rng.Float64() < VenomGripChance {
		if inflictStatus(defender, StatusPoison) {
			events = append(events, TurnEvent{Kind: EventStatus, Side: 1 - side, Status: StatusPoison,
				Message: fmt.Sprintf("%s was poisoned by %s's grip", defender.Name, attacker.Name)})
		}
	}

	return events
}

// checkTerminal inspects both sides and, on a terminal condition, records
// faints and the winner. When both sides reach 0 in the same turn the side
// that acted first wins: initiative, not a coin flip, breaks mutual KOs.
func (r *Resolver) checkTerminal(st *BattleState, firstActor int) []TurnEvent {
	if st.Finished() {
		return nil
	}
	dead0 := st.Sides[0].Fainted()
	dead1 := st.Sides[1].Fainted()
	if !dead0 && !dead1 {
		return nil
	}

	var events []TurnEvent
	if dead0 {
		events = append(events, TurnEvent{Kind: EventFaint, Side: 0,
			Message: fmt.Sprintf("%s fainted", st.Sides[0].Name)})
	}
	if dead1 {
		events = append(events, TurnEvent{Kind: EventFaint, Side: 1,
			Message: fmt.Sprintf("%s fainted", st.Sides[1].Name)})
	}

	var winner int
	switch {
	case dead0 && dead1:
		winner = firstActor
	case dead0:
		winner = 1
	default:
		winner = 0
	}
	st.finish(winner)
	events = append(events, TurnEvent{Kind: EventBattleEnd, Side: winner,
		Message: fmt.Sprintf("%s wins", st.Sides[winner].Name)})
	return events
}

// Forfeit ends the battle immediately in the opponent's favor, independent of
// HP. loserSide -1 (both at fault) records a draw.
func (st *BattleState) Forfeit(loserSide int) []TurnEvent {
	if st.Finished() {
		return nil
	}
	if loserSide < 0 {
		st.finish(-1)
		return []TurnEvent{{Kind: EventForfeit, Side: -1, Message: "both sides forfeited"}}
	}
	winner := 1 - loserSide
	st.finish(winner)
	return []TurnEvent{
		{Kind: EventForfeit, Side: loserSide,
			Message: fmt.Sprintf("%s forfeited after repeated timeouts", st.Sides[loserSide].Name)},
		{Kind: EventBattleEnd, Side: winner,
			Message: fmt.Sprintf("%s wins", st.Sides[winner].Name)},
	}
}
