package battle

// CombatantRecord is the engine's view of a persisted combatant. The arena
// layer maps storage rows into this shape; the engine never sees the database.
type CombatantRecord struct {
	ID          int64
	Name        string
	ElementType string
	Level       int
	Nature      string
	AbilityID   string
	BaseHP      int
	BaseStats   [NumStats]int
	EVHP        int
	EVs         [NumStats]int
	MoveIDs     []string
}

// natureTable maps nature names to per-stat multipliers (attack, defense,
// sp_atk, sp_def, speed). Unknown natures resolve to neutral.
var natureTable = map[string][NumStats]float64{
	"hardy":   {1.0, 1.0, 1.0, 1.0, 1.0},
	"adamant": {1.1, 1.0, 0.9, 1.0, 1.0},
	"modest":  {0.9, 1.0, 1.1, 1.0, 1.0},
	"jolly":   {1.0, 1.0, 0.9, 1.0, 1.1},
	"timid":   {0.9, 1.0, 1.0, 1.0, 1.1},
	"bold":    {0.9, 1.1, 1.0, 1.0, 1.0},
	"impish":  {1.0, 1.1, 0.9, 1.0, 1.0},
	"calm":    {0.9, 1.0, 1.0, 1.1, 1.0},
	"careful": {1.0, 1.0, 0.9, 1.1, 1.0},
	"brave":   {1.1, 1.0, 1.0, 1.0, 0.9},
}

func natureModifiers(name string) [NumStats]float64 {
	if m, ok := natureTable[name]; ok {
		return m
	}
	return natureTable["hardy"]
}

// MoveSlot is one of the four per-battle move slots. PP is independent per
// battle instance; the static Move is looked up by id on use.
type MoveSlot struct {
	MoveID string `json:"move_id"`
	PP     int    `json:"pp"`
}

// Move resolves the slot's static move definition.
func (s *MoveSlot) Move() *Move {
	m, _ := MoveByID(s.MoveID)
	return m
}

// CombatantSnapshot is the derived in-battle state for one side. It is owned
// exclusively by its BattleState and rebuilt fresh for every battle.
type CombatantSnapshot struct {
	ID      int64       `json:"id"`
	Name    string      `json:"name"`
	Type    ElementType `json:"type"`
	Level   int         `json:"level"`

	MaxHP int `json:"max_hp"`
	HP    int `json:"hp"`
	// Stats holds the five level-and-nature-scaled stats; immutable once the
	// battle starts except through stage multipliers.
	Stats [NumStats]int `json:"stats"`
	// BaseSpeed is the unmodified base stat, kept for the last-resort
	// order tie-break.
	BaseSpeed int `json:"base_speed"`

	Stages [NumStats]int `json:"stages"`

	Status      Status `json:"status"`
	StatusTurns int    `json:"status_turns"`

	AbilityID string       `json:"ability_id,omitempty"`
	Moves     [4]MoveSlot  `json:"moves"`

	// One-shot flags persisting for the whole battle.
	EndureUsed bool `json:"endure_used,omitempty"`

	// Ephemeral per-turn flags; reset at the start of every turn and never
	// serialized across turns with meaning.
	TookDamageThisTurn bool `json:"-"`
	Flinched           bool `json:"-"`
}

// Ability resolves the snapshot's ability, nil when absent or unknown.
func (c *CombatantSnapshot) Ability() *Ability {
	return AbilityByID(c.AbilityID)
}

// scaleStat is the shared scaling curve for the five non-HP stats.
func scaleStat(base, level, ev int) int {
	return (2*base+ev/4)*level/100 + 5
}

// scaleHP uses a steeper curve so HP outgrows the other stats with level.
func scaleHP(base, level, ev int) int {
	return (2*base+ev/4)*level/100 + level + 10
}

// BuildSnapshot converts a persisted record into a fresh in-battle snapshot.
// Defensive fallbacks, not errors: unknown type becomes normal, short move
// lists are padded with the type default, level is clamped into [1, 100].
func BuildSnapshot(rec CombatantRecord) *CombatantSnapshot {
	level := rec.Level
	if level < 1 {
		level = 1
	}
	if level > 100 {
		level = 100
	}

	elem := ParseElement(rec.ElementType)
	nature := natureModifiers(rec.Nature)

	snap := &CombatantSnapshot{
		ID:        rec.ID,
		Name:      rec.Name,
		Type:      elem,
		Level:     level,
		BaseSpeed: rec.BaseStats[StatSpeed],
		AbilityID: rec.AbilityID,
	}

	snap.MaxHP = scaleHP(rec.BaseHP, level, rec.EVHP)
	if snap.MaxHP < 1 {
		snap.MaxHP = 1
	}
	snap.HP = snap.MaxHP

	for k := 0; k < NumStats; k++ {
		v := int(float64(scaleStat(rec.BaseStats[k], level, rec.EVs[k])) * nature[k])
		if v < 1 {
			v = 1
		}
		snap.Stats[k] = v
	}

	// Exactly four slots; pad with the type default.
	def := DefaultMoveFor(elem)
	slot := 0
	for _, id := range rec.MoveIDs {
		if slot >= 4 {
			break
		}
		if m, ok := MoveByID(id); ok {
			snap.Moves[slot] = MoveSlot{MoveID: m.ID, PP: m.MaxPP}
			slot++
		}
	}
	for ; slot < 4; slot++ {
		snap.Moves[slot] = MoveSlot{MoveID: def.ID, PP: def.MaxPP}
	}

	return snap
}

// EffectiveStat applies the stage staircase to a derived stat.
func (c *CombatantSnapshot) EffectiveStat(k StatKind) int {
	v := int(float64(c.Stats[k]) * StageMultiplier(c.Stages[k]))
	if v < 1 {
		v = 1
	}
	return v
}

// EffectiveSpeed is the stage-adjusted speed with the paralysis penalty.
func (c *CombatantSnapshot) EffectiveSpeed() int {
	v := float64(c.EffectiveStat(StatSpeed))
	if c.Status == StatusParalysis {
		v *= ParalysisSpeedFactor
	}
	iv := int(v)
	if iv < 1 {
		iv = 1
	}
	return iv
}

// ApplyStage shifts a stat stage, saturating at [-6, +6]. Returns the actual
// delta applied (0 when already saturated).
func (c *CombatantSnapshot) ApplyStage(k StatKind, delta int) int {
	before := c.Stages[k]
	c.Stages[k] = ClampStage(before + delta)
	return c.Stages[k] - before
}

// Fainted reports whether this side is out of the battle.
func (c *CombatantSnapshot) Fainted() bool {
	return c.HP <= 0
}

// ResetTurnFlags clears the ephemeral per-turn flags.
func (c *CombatantSnapshot) ResetTurnFlags() {
	c.TookDamageThisTurn = false
	c.Flinched = false
}

// HPRatio is current HP over max HP.
func (c *CombatantSnapshot) HPRatio() float64 {
	if c.MaxHP <= 0 {
		return 0
	}
	return float64(c.HP) / float64(c.MaxHP)
}
