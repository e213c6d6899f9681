package battle

// MoveCategory selects the attacking/defending stat pair.
type MoveCategory int8

const (
	CategoryPhysical MoveCategory = iota
	CategorySpecial
	CategoryStatus
)

// StageChange is a stat-stage delta a move applies on hit. OnSelf targets the
// user instead of the opponent.
type StageChange struct {
	Stat   StatKind `json:"stat"`
	Delta  int      `json:"delta"`
	OnSelf bool     `json:"on_self,omitempty"`
}

// Move is static lookup data; per-battle PP lives on the snapshot's slots.
type Move struct {
	ID       string
	Name     string
	Type     ElementType
	Category MoveCategory
	Power    int // 0 for status moves
	MaxPP    int
	Priority int

	// CritChance overrides the base crit rate when > 0.
	CritChance float64
	// TargetsPhysicalDefense forces the defender's physical defense stat
	// regardless of the move's category.
	TargetsPhysicalDefense bool

	Inflicts      Status
	InflictChance float64
	FlinchChance  float64
	StageChanges  []StageChange
}

// moveTable is the closed move set. Keyed lookups go through MoveByID so the
// zero value never escapes.
var moveTable = map[string]*Move{
	// One default per type; used to pad incomplete move lists.
	"claw_jab":     {ID: "claw_jab", Name: "Claw Jab", Type: TypeNormal, Category: CategoryPhysical, Power: 50, MaxPP: 35},
	"ember_snap":   {ID: "ember_snap", Name: "Ember Snap", Type: TypeFire, Category: CategorySpecial, Power: 50, MaxPP: 30, Inflicts: StatusBurn, InflictChance: 0.1},
	"tide_pinch":   {ID: "tide_pinch", Name: "Tide Pinch", Type: TypeWater, Category: CategorySpecial, Power: 50, MaxPP: 30},
	"spark_claw":   {ID: "spark_claw", Name: "Spark Claw", Type: TypeElectric, Category: CategoryPhysical, Power: 50, MaxPP: 30, Inflicts: StatusParalysis, InflictChance: 0.1},
	"kelp_whip":    {ID: "kelp_whip", Name: "Kelp Whip", Type: TypeGrass, Category: CategoryPhysical, Power: 50, MaxPP: 30},
	"frost_grip":   {ID: "frost_grip", Name: "Frost Grip", Type: TypeIce, Category: CategorySpecial, Power: 50, MaxPP: 30, Inflicts: StatusFreeze, InflictChance: 0.1},
	"shell_strike": {ID: "shell_strike", Name: "Shell Strike", Type: TypeFighting, Category: CategoryPhysical, Power: 50, MaxPP: 30},
	"venom_barb":   {ID: "venom_barb", Name: "Venom Barb", Type: TypePoison, Category: CategoryPhysical, Power: 50, MaxPP: 30, Inflicts: StatusPoison, InflictChance: 0.2},
	"sand_burrow":  {ID: "sand_burrow", Name: "Sand Burrow", Type: TypeGround, Category: CategoryPhysical, Power: 50, MaxPP: 30},
	"gull_dive":    {ID: "gull_dive", Name: "Gull Dive", Type: TypeFlying, Category: CategoryPhysical, Power: 50, MaxPP: 30},
	"mind_current": {ID: "mind_current", Name: "Mind Current", Type: TypePsychic, Category: CategorySpecial, Power: 50, MaxPP: 30},
	"barnacle_bite": {ID: "barnacle_bite", Name: "Barnacle Bite", Type: TypeBug, Category: CategoryPhysical, Power: 50, MaxPP: 30},
	"reef_slam":    {ID: "reef_slam", Name: "Reef Slam", Type: TypeRock, Category: CategoryPhysical, Power: 50, MaxPP: 30},
	"ghost_molt":   {ID: "ghost_molt", Name: "Ghost Molt", Type: TypeGhost, Category: CategorySpecial, Power: 50, MaxPP: 30},
	"abyss_breath": {ID: "abyss_breath", Name: "Abyss Breath", Type: TypeDragon, Category: CategorySpecial, Power: 50, MaxPP: 30},
	"dark_snap":    {ID: "dark_snap", Name: "Dark Snap", Type: TypeDark, Category: CategoryPhysical, Power: 50, MaxPP: 30, FlinchChance: 0.1},
	"iron_pincer":  {ID: "iron_pincer", Name: "Iron Pincer", Type: TypeSteel, Category: CategoryPhysical, Power: 50, MaxPP: 30},
	"glimmer_spray": {ID: "glimmer_spray", Name: "Glimmer Spray", Type: TypeFairy, Category: CategorySpecial, Power: 50, MaxPP: 30},

	// Heavier damaging moves.
	"crusher_claw":  {ID: "crusher_claw", Name: "Crusher Claw", Type: TypeNormal, Category: CategoryPhysical, Power: 80, MaxPP: 15},
	"boil_burst":    {ID: "boil_burst", Name: "Boil Burst", Type: TypeFire, Category: CategorySpecial, Power: 80, MaxPP: 15, Inflicts: StatusBurn, InflictChance: 0.15},
	"rip_tide":      {ID: "rip_tide", Name: "Rip Tide", Type: TypeWater, Category: CategorySpecial, Power: 80, MaxPP: 15},
	"thunder_shell": {ID: "thunder_shell", Name: "Thunder Shell", Type: TypeElectric, Category: CategorySpecial, Power: 80, MaxPP: 15, Inflicts: StatusParalysis, InflictChance: 0.15},
	"glacier_vice":  {ID: "glacier_vice", Name: "Glacier Vice", Type: TypeIce, Category: CategorySpecial, Power: 80, MaxPP: 15, Inflicts: StatusFreeze, InflictChance: 0.15},
	"mantis_strike": {ID: "mantis_strike", Name: "Mantis Strike", Type: TypeFighting, Category: CategoryPhysical, Power: 80, MaxPP: 15, CritChance: 0.25},
	"toxin_flood":   {ID: "toxin_flood", Name: "Toxin Flood", Type: TypePoison, Category: CategorySpecial, Power: 70, MaxPP: 15, Inflicts: StatusPoison, InflictChance: 0.3},
	"dream_eddy":    {ID: "dream_eddy", Name: "Dream Eddy", Type: TypePsychic, Category: CategorySpecial, Power: 70, MaxPP: 15, Inflicts: StatusSleep, InflictChance: 0.2},
	"mirror_carapace": {ID: "mirror_carapace", Name: "Mirror Carapace", Type: TypeSteel, Category: CategorySpecial, Power: 75, MaxPP: 15, TargetsPhysicalDefense: true},
	"whirl_confuse": {ID: "whirl_confuse", Name: "Whirl Confuse", Type: TypeWater, Category: CategorySpecial, Power: 60, MaxPP: 20, Inflicts: StatusConfusion, InflictChance: 0.25},

	// Priority moves.
	"quick_snip": {ID: "quick_snip", Name: "Quick Snip", Type: TypeNormal, Category: CategoryPhysical, Power: 40, MaxPP: 30, Priority: 1},
	"ambush":     {ID: "ambush", Name: "Ambush", Type: TypeDark, Category: CategoryPhysical, Power: 40, MaxPP: 25, Priority: 1},

	// Status moves.
	"harden_shell": {ID: "harden_shell", Name: "Harden Shell", Type: TypeNormal, Category: CategoryStatus, MaxPP: 20, StageChanges: []StageChange{{Stat: StatDefense, Delta: 1, OnSelf: true}}},
	"sharpen_claws": {ID: "sharpen_claws", Name: "Sharpen Claws", Type: TypeNormal, Category: CategoryStatus, MaxPP: 20, StageChanges: []StageChange{{Stat: StatAttack, Delta: 1, OnSelf: true}}},
	"ink_cloud":    {ID: "ink_cloud", Name: "Ink Cloud", Type: TypeDark, Category: CategoryStatus, MaxPP: 15, StageChanges: []StageChange{{Stat: StatSpeed, Delta: -1}}},
	"intimidating_wave": {ID: "intimidating_wave", Name: "Intimidating Wave", Type: TypePsychic, Category: CategoryStatus, MaxPP: 15, StageChanges: []StageChange{{Stat: StatAttack, Delta: -1}}},
	"toxic_spores": {ID: "toxic_spores", Name: "Toxic Spores", Type: TypePoison, Category: CategoryStatus, MaxPP: 10, Inflicts: StatusPoison, InflictChance: 0.9},
	"lullaby_tide": {ID: "lullaby_tide", Name: "Lullaby Tide", Type: TypePsychic, Category: CategoryStatus, MaxPP: 10, Inflicts: StatusSleep, InflictChance: 0.6},
}

var defaultMoveByType = [NumTypes]string{
	TypeNormal:   "claw_jab",
	TypeFire:     "ember_snap",
	TypeWater:    "tide_pinch",
	TypeElectric: "spark_claw",
	TypeGrass:    "kelp_whip",
	TypeIce:      "frost_grip",
	TypeFighting: "shell_strike",
	TypePoison:   "venom_barb",
	TypeGround:   "sand_burrow",
	TypeFlying:   "gull_dive",
	TypePsychic:  "mind_current",
	TypeBug:      "barnacle_bite",
	TypeRock:     "reef_slam",
	TypeGhost:    "ghost_molt",
	TypeDragon:   "abyss_breath",
	TypeDark:     "dark_snap",
	TypeSteel:    "iron_pincer",
	TypeFairy:    "glimmer_spray",
}

// MoveByID looks up a move definition.
func MoveByID(id string) (*Move, bool) {
	m, ok := moveTable[id]
	return m, ok
}

// DefaultMoveFor returns the type-default move used to pad short move lists.
func DefaultMoveFor(t ElementType) *Move {
	if t < 0 || int(t) >= NumTypes {
		t = TypeNormal
	}
	return moveTable[defaultMoveByType[t]]
}

// IsStatus reports whether the move deals no direct damage.
func (m *Move) IsStatus() bool {
	return m.Category == CategoryStatus || m.Power <= 0
}
