package battle

import "fmt"

// inflictStatus applies a status to a side if it carries none. A combatant
// holds at most one status; later inflictions are silently ineffective.
func inflictStatus(target *CombatantSnapshot, s Status) bool {
	if s == StatusNone || target.Status != StatusNone {
		return false
	}
	target.Status = s
	target.StatusTurns = 0
	return true
}

// cureStatus clears the current status and its counters.
func cureStatus(target *CombatantSnapshot) {
	target.Status = StatusNone
	target.StatusTurns = 0
}

// actGate decides whether a side may execute its chosen move this turn.
// It returns (canAct, events). Self-inflicted confusion damage is applied
// here. The gate runs in a fixed order (flinch, freeze, sleep, paralysis,
// confusion) so a seeded RNG replays identically.
func actGate(st *BattleState, side int, rng RNG) (bool, []TurnEvent) {
	c := st.Sides[side]
	var events []TurnEvent

	if c.Flinched {
		events = append(events, TurnEvent{Kind: EventSkip, Side: side,
			Message: fmt.Sprintf("%s flinched and could not act", c.Name)})
		return false, events
	}

	switch c.Status {
	case StatusFreeze:
		// Bounded freeze: exactly one missed action, thawed at end of turn.
		c.StatusTurns++
		events = append(events, TurnEvent{Kind: EventSkip, Side: side, Status: StatusFreeze,
			Message: fmt.Sprintf("%s is frozen solid", c.Name)})
		return false, events

	case StatusSleep:
		c.StatusTurns++
		events = append(events, TurnEvent{Kind: EventSkip, Side: side, Status: StatusSleep,
			Message: fmt.Sprintf("%s is fast asleep", c.Name)})
		return false, events

	case StatusParalysis:
		if rng.Float64() < ParalysisSkipChance {
			events = append(events, TurnEvent{Kind: EventSkip, Side: side, Status: StatusParalysis,
				Message: fmt.Sprintf("%s is paralyzed and cannot move", c.Name)})
			return false, events
		}

	case StatusConfusion:
		c.StatusTurns++
		if c.StatusTurns > ConfusionMaxTurns {
			cureStatus(c)
			events = append(events, TurnEvent{Kind: EventStatusEnd, Side: side, Status: StatusConfusion,
				Message: fmt.Sprintf("%s snapped out of confusion", c.Name)})
			break
		}
		if rng.Float64() < ConfusionSelfHit {
			dmg := c.MaxHP / ConfusionHitFraction
			if dmg < 1 {
				dmg = 1
			}
			c.HP -= dmg
			c.TookDamageThisTurn = true
			events = append(events, TurnEvent{Kind: EventSelfHit, Side: side, Damage: dmg, Status: StatusConfusion,
				Message: fmt.Sprintf("%s hurt itself in confusion", c.Name)})
			return false, events
		}
	}

	return true, events
}

// tickDormantStatus advances the action-counted statuses for a side whose
// action never reached the act gate this turn. Without it a side that keeps
// missing deadlines would stay frozen or asleep forever.
func tickDormantStatus(c *CombatantSnapshot) {
	switch c.Status {
	case StatusFreeze, StatusSleep, StatusConfusion:
		c.StatusTurns++
	}
}

// endOfTurnStatus ticks residual status damage and bounded-status expiry for
// one side. Burn and poison floor at 1 so they always progress the battle.
func endOfTurnStatus(st *BattleState, side int) []TurnEvent {
	c := st.Sides[side]
	if c.Fainted() {
		return nil
	}
	var events []TurnEvent

	switch c.Status {
	case StatusBurn:
		dmg := c.MaxHP / BurnTickFraction
		if dmg < 1 {
			dmg = 1
		}
		c.HP -= dmg
		events = append(events, TurnEvent{Kind: EventStatusTick, Side: side, Status: StatusBurn, Damage: dmg,
			Message: fmt.Sprintf("%s is hurt by its burn", c.Name)})

	case StatusPoison:
		dmg := c.MaxHP / PoisonTickFraction
		if dmg < 1 {
			dmg = 1
		}
		c.HP -= dmg
		events = append(events, TurnEvent{Kind: EventStatusTick, Side: side, Status: StatusPoison, Damage: dmg,
			Message: fmt.Sprintf("%s is hurt by poison", c.Name)})

	case StatusFreeze:
		// Cures after it has cost exactly one action.
		if c.StatusTurns >= 1 {
			cureStatus(c)
			events = append(events, TurnEvent{Kind: EventStatusEnd, Side: side, Status: StatusFreeze,
				Message: fmt.Sprintf("%s thawed out", c.Name)})
		}

	case StatusSleep:
		if c.StatusTurns >= SleepMaxTurns {
			cureStatus(c)
			events = append(events, TurnEvent{Kind: EventStatusEnd, Side: side, Status: StatusSleep,
				Message: fmt.Sprintf("%s woke up", c.Name)})
		}

	case StatusConfusion:
		// The act gate cures confusion for a side that acts; this covers a
		// side whose timed-out turns pushed the counter past the bound.
		if c.StatusTurns > ConfusionMaxTurns {
			cureStatus(c)
			events = append(events, TurnEvent{Kind: EventStatusEnd, Side: side, Status: StatusConfusion,
				Message: fmt.Sprintf("%s snapped out of confusion", c.Name)})
		}
	}

	return events
}

// battleStartHooks fires each side's battle_start ability exactly once, in
// side order, before the first turn.
func battleStartHooks(st *BattleState) []TurnEvent {
	var events []TurnEvent
	for side := 0; side < 2; side++ {
		c := st.Sides[side]
		opp := st.Sides[1-side]
		if c.Ability().effect() == EffectIntimidate {
			applied := opp.ApplyStage(StatAttack, IntimidateStageDrop)
			if applied != 0 {
				events = append(events, TurnEvent{Kind: EventStage, Side: 1 - side, Stat: StatAttack, Delta: applied,
					Message: fmt.Sprintf("%s's %s lowered %s's attack", c.Name, c.Ability().Name, opp.Name)})
			}
		}
	}
	return events
}

// endOfTurnAbilities runs end_turn hooks in side order after status ticks.
func endOfTurnAbilities(st *BattleState) []TurnEvent {
	var events []TurnEvent
	for side := 0; side < 2; side++ {
		c := st.Sides[side]
		if c.Fainted() {
			continue
		}
		if c.Ability().effect() == EffectRegenerator && c.HP < c.MaxHP {
			heal := c.MaxHP / RegeneratorFraction
			if heal < 1 {
				heal = 1
			}
			if c.HP+heal > c.MaxHP {
				heal = c.MaxHP - c.HP
			}
			c.HP += heal
			events = append(events, TurnEvent{Kind: EventHeal, Side: side, Damage: -heal,
				Message: fmt.Sprintf("%s regenerated %d HP", c.Name, heal)})
		}
	}
	return events
}

// beforeHitDodge rolls the defender's evasive ability. A dodge consumes the
// attack entirely (PP is still spent by the caller).
func beforeHitDodge(defender *CombatantSnapshot, rng RNG) bool {
	return defender.Ability().effect() == EffectEvasive && rng.Float64() < EvasiveChance
}

// beforeFaintEndure lets a one-shot survival ability hold the line at 1 HP.
func beforeFaintEndure(c *CombatantSnapshot) bool {
	if c.HP > 0 || c.EndureUsed {
		return false
	}
	if c.Ability().effect() != EffectEndure {
		return false
	}
	c.HP = 1
	c.EndureUsed = true
	return true
}
