package battle

// AbilityEffect is the closed set of ability effect kinds. Dispatch is a
// switch over this enum rather than name-keyed tables so a new effect kind
// has to be handled everywhere it matters.
type AbilityEffect int8

const (
	EffectNone AbilityEffect = iota
	// EffectAdaptability raises STAB from 1.5x to 2.0x.
	EffectAdaptability
	// EffectIntimidate lowers the opponent's attack stage at battle start.
	EffectIntimidate
	// EffectArmorPierce ignores a flat fraction of the defender's defense.
	EffectArmorPierce
	// EffectDampen caps incoming super-effective damage back to neutral.
	EffectDampen
	// EffectLowHPSurge boosts moves of the ability's type below 1/3 HP.
	EffectLowHPSurge
	// EffectBulwark halves incoming damage while the holder is at full HP.
	EffectBulwark
	// EffectRegenerator restores a fraction of max HP at end of turn.
	EffectRegenerator
	// EffectEndure survives the first would-be-fatal hit at 1 HP, once per battle.
	EffectEndure
	// EffectVenomGrip may poison the defender after a physical hit lands.
	EffectVenomGrip
	// EffectEvasive may dodge an incoming move entirely.
	EffectEvasive
)

// Ability tuning constants.
const (
	STABBonus             = 1.5
	STABAdaptability      = 2.0
	ArmorPierceFraction   = 0.20
	LowHPSurgeFraction    = 3 // active below maxHP / 3
	LowHPSurgeBonus       = 1.5
	BulwarkFactor         = 0.5
	RegeneratorFraction   = 16 // heals maxHP / 16
	VenomGripChance       = 0.2
	EvasiveChance         = 0.1
	IntimidateStageDrop   = -1
)

// Ability is static lookup data referenced from snapshots by ID.
type Ability struct {
	ID        string
	Name      string
	Effect    AbilityEffect
	BoostType ElementType // only meaningful for EffectLowHPSurge
}

var abilityTable = map[string]*Ability{
	"adaptive_instinct": {ID: "adaptive_instinct", Name: "Adaptive Instinct", Effect: EffectAdaptability},
	"menacing_claws":    {ID: "menacing_claws", Name: "Menacing Claws", Effect: EffectIntimidate},
	"shell_splitter":    {ID: "shell_splitter", Name: "Shell Splitter", Effect: EffectArmorPierce},
	"dense_carapace":    {ID: "dense_carapace", Name: "Dense Carapace", Effect: EffectDampen},
	"tidal_surge":       {ID: "tidal_surge", Name: "Tidal Surge", Effect: EffectLowHPSurge, BoostType: TypeWater},
	"molten_surge":      {ID: "molten_surge", Name: "Molten Surge", Effect: EffectLowHPSurge, BoostType: TypeFire},
	"storm_surge":       {ID: "storm_surge", Name: "Storm Surge", Effect: EffectLowHPSurge, BoostType: TypeElectric},
	"pristine_shell":    {ID: "pristine_shell", Name: "Pristine Shell", Effect: EffectBulwark},
	"molt_recovery":     {ID: "molt_recovery", Name: "Molt Recovery", Effect: EffectRegenerator},
	"last_stand":        {ID: "last_stand", Name: "Last Stand", Effect: EffectEndure},
	"venom_grip":        {ID: "venom_grip", Name: "Venom Grip", Effect: EffectVenomGrip},
	"slick_shell":       {ID: "slick_shell", Name: "Slick Shell", Effect: EffectEvasive},
}

// AbilityByID looks up an ability; unknown (or empty) ids resolve to nil,
// which every hook treats as "no ability".
func AbilityByID(id string) *Ability {
	return abilityTable[id]
}

func (a *Ability) effect() AbilityEffect {
	if a == nil {
		return EffectNone
	}
	return a.Effect
}
