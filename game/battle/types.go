package battle

import "strings"

// ElementType is one of the 18 elemental types. TypeNormal doubles as the
// neutral fallback for unrecognized values.
type ElementType int8

const (
	TypeNormal ElementType = iota
	TypeFire
	TypeWater
	TypeElectric
	TypeGrass
	TypeIce
	TypeFighting
	TypePoison
	TypeGround
	TypeFlying
	TypePsychic
	TypeBug
	TypeRock
	TypeGhost
	TypeDragon
	TypeDark
	TypeSteel
	TypeFairy

	NumTypes = 18
)

var typeNames = [NumTypes]string{
	"normal", "fire", "water", "electric", "grass", "ice",
	"fighting", "poison", "ground", "flying", "psychic", "bug",
	"rock", "ghost", "dragon", "dark", "steel", "fairy",
}

func (t ElementType) String() string {
	if t < 0 || int(t) >= NumTypes {
		return "normal"
	}
	return typeNames[t]
}

// ParseElement maps a stored type name to an ElementType. Unknown names fall
// back to normal rather than failing; combatant configuration gaps must not
// reject a battle.
func ParseElement(s string) ElementType {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range typeNames {
		if name == s {
			return ElementType(i)
		}
	}
	return TypeNormal
}

// typeChart holds the raw effectiveness values [attacker][defender].
// 0 = immune, 0.5 = resisted, 1 = neutral, 2 = super effective. The damage
// pipeline caps the super-effective side at 1.5; the table keeps the
// traditional values so the cap stays a single tunable.
var typeChart = [NumTypes][NumTypes]float64{
	TypeNormal:   {1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0.5, 0, 1, 1, 0.5, 1},
	TypeFire:     {1, 0.5, 0.5, 1, 2, 2, 1, 1, 1, 1, 1, 2, 0.5, 1, 0.5, 1, 2, 1},
	TypeWater:    {1, 2, 0.5, 1, 0.5, 1, 1, 1, 2, 1, 1, 1, 2, 1, 0.5, 1, 1, 1},
	TypeElectric: {1, 1, 2, 0.5, 0.5, 1, 1, 1, 0, 2, 1, 1, 1, 1, 0.5, 1, 1, 1},
	TypeGrass:    {1, 0.5, 2, 1, 0.5, 1, 1, 0.5, 2, 0.5, 1, 0.5, 2, 1, 0.5, 1, 0.5, 1},
	TypeIce:      {1, 0.5, 0.5, 1, 2, 0.5, 1, 1, 2, 2, 1, 1, 1, 1, 2, 1, 0.5, 1},
	TypeFighting: {2, 1, 1, 1, 1, 2, 1, 0.5, 1, 0.5, 0.5, 0.5, 2, 0, 1, 2, 2, 0.5},
	TypePoison:   {1, 1, 1, 1, 2, 1, 1, 0.5, 0.5, 1, 1, 1, 0.5, 0.5, 1, 1, 0, 2},
	TypeGround:   {1, 2, 1, 2, 0.5, 1, 1, 2, 1, 0, 1, 0.5, 2, 1, 1, 1, 2, 1},
	TypeFlying:   {1, 1, 1, 0.5, 2, 1, 2, 1, 1, 1, 1, 2, 0.5, 1, 1, 1, 0.5, 1},
	TypePsychic:  {1, 1, 1, 1, 1, 1, 2, 2, 1, 1, 0.5, 1, 1, 1, 1, 0, 0.5, 1},
	TypeBug:      {1, 0.5, 1, 1, 2, 1, 0.5, 0.5, 1, 0.5, 2, 1, 1, 0.5, 1, 2, 0.5, 0.5},
	TypeRock:     {1, 2, 1, 1, 1, 2, 0.5, 1, 0.5, 2, 1, 2, 1, 1, 1, 1, 0.5, 1},
	TypeGhost:    {0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 1, 1, 2, 1, 0.5, 1, 1},
	TypeDragon:   {1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 1, 0.5, 0},
	TypeDark:     {1, 1, 1, 1, 1, 1, 0.5, 1, 1, 1, 2, 1, 1, 2, 1, 0.5, 1, 0.5},
	TypeSteel:    {1, 0.5, 0.5, 0.5, 1, 2, 1, 1, 1, 1, 1, 1, 2, 1, 1, 1, 0.5, 2},
	TypeFairy:    {1, 0.5, 1, 1, 1, 1, 2, 0.5, 1, 1, 1, 1, 1, 1, 2, 2, 0.5, 1},
}

// BaseEffectiveness returns the raw table value for att hitting def.
func BaseEffectiveness(att, def ElementType) float64 {
	if att < 0 || int(att) >= NumTypes || def < 0 || int(def) >= NumTypes {
		return 1
	}
	return typeChart[att][def]
}

// EffectivenessCap bounds the super-effective side so type advantage never
// one-shots; resisted and immune values pass through unchanged.
const EffectivenessCap = 1.5

// CapEffectiveness applies the cap to a raw table value.
func CapEffectiveness(v float64) float64 {
	if v > EffectivenessCap {
		return EffectivenessCap
	}
	return v
}

// StatKind indexes the five non-HP derived stats.
type StatKind int

const (
	StatAttack StatKind = iota
	StatDefense
	StatSpAtk
	StatSpDef
	StatSpeed

	NumStats = 5
)

var statNames = [NumStats]string{"attack", "defense", "sp_atk", "sp_def", "speed"}

func (k StatKind) String() string {
	if k < 0 || int(k) >= NumStats {
		return "attack"
	}
	return statNames[k]
}

// Stat stages run -6..+6 and map to multipliers via a fixed staircase.
const (
	MinStage = -6
	MaxStage = 6
)

var stageTable = [13]float64{
	0.25, 0.29, 0.33, 0.40, 0.50, 0.67,
	1.0,
	1.5, 2.0, 2.5, 3.0, 3.5, 4.0,
}

// StageMultiplier returns the staircase multiplier for a stage, clamping the
// input into [-6, +6].
func StageMultiplier(stage int) float64 {
	return stageTable[ClampStage(stage)+6]
}

// ClampStage saturates a stage value into [-6, +6].
func ClampStage(stage int) int {
	if stage < MinStage {
		return MinStage
	}
	if stage > MaxStage {
		return MaxStage
	}
	return stage
}

// Status is the single afflicting condition a combatant may carry.
type Status int8

const (
	StatusNone Status = iota
	StatusBurn
	StatusPoison
	StatusParalysis
	StatusFreeze
	StatusSleep
	StatusConfusion
)

var statusNames = []string{"none", "burn", "poison", "paralysis", "freeze", "sleep", "confusion"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "none"
	}
	return statusNames[s]
}

// Status tuning. Fractions are of max HP; chances roll against the injected RNG.
const (
	BurnTickFraction     = 12   // maxHP / 12 per end of turn
	PoisonTickFraction   = 16   // maxHP / 16 per end of turn
	ParalysisSkipChance  = 0.25 // checked before the move resolves
	ParalysisSpeedFactor = 0.5
	SleepMaxTurns        = 2 // missed actions; damage wakes early
	ConfusionMaxTurns    = 3
	ConfusionSelfHit     = 1.0 / 3.0
	ConfusionHitFraction = 8 // self-hit deals maxHP / 8
)
