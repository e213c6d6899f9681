package battle

import (
	"math/rand"
	"testing"
)

// scriptedRNG plays back fixed rolls so a single pipeline run is exact.
type scriptedRNG struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (s *scriptedRNG) Float64() float64 {
	if s.fi >= len(s.floats) {
		return 0.99
	}
	v := s.floats[s.fi]
	s.fi++
	return v
}

func (s *scriptedRNG) Intn(n int) int {
	if s.ii >= len(s.ints) {
		return 0
	}
	v := s.ints[s.ii] % n
	s.ii++
	return v
}

func makeAttacker(level, attack int, typ ElementType) *CombatantSnapshot {
	c := &CombatantSnapshot{ID: 1, Name: "Snapper", Type: typ, Level: level, MaxHP: 200, HP: 200}
	c.Stats[StatAttack] = attack
	c.Stats[StatSpAtk] = attack
	c.Stats[StatDefense] = 80
	c.Stats[StatSpDef] = 80
	c.Stats[StatSpeed] = 90
	return c
}

func makeDefender(defense int, typ ElementType) *CombatantSnapshot {
	c := &CombatantSnapshot{ID: 2, Name: "Bruiser", Type: typ, Level: 50, MaxHP: 300, HP: 300}
	c.Stats[StatDefense] = defense
	c.Stats[StatSpDef] = defense
	c.Stats[StatAttack] = 80
	c.Stats[StatSpAtk] = 80
	c.Stats[StatSpeed] = 70
	return c
}

func TestDamageWorkedExample(t *testing.T) {
	// Level 50, eff attack 150, defense 100, power 80, neutral, no STAB:
	// 150/100 * 80*1.5 * 0.5 = 90 before crit and variance.
	atk := makeAttacker(50, 150, TypeWater)
	def := makeDefender(100, TypeNormal)
	mv, _ := MoveByID("crusher_claw") // normal-type, so no STAB for a water attacker

	// First float is the crit roll (miss), second is variance (0 = floor).
	rng := &scriptedRNG{floats: []float64{0.9, 0.0}}
	res := CalculateDamage(atk, def, mv, &DamageContext{Effectiveness: 1, RNG: rng})

	if res.Damage != 76 { // floor(90 * 0.85)
		t.Errorf("damage = %d, want 76", res.Damage)
	}
	if res.Critical {
		t.Error("crit roll of 0.9 should not crit at 1/16")
	}
	if res.Effectiveness != 1 {
		t.Errorf("effectiveness = %v, want 1", res.Effectiveness)
	}
}

func TestDamageVarianceBounds(t *testing.T) {
	atk := makeAttacker(50, 150, TypeWater)
	def := makeDefender(100, TypeNormal)
	mv, _ := MoveByID("crusher_claw")

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		res := CalculateDamage(atk, def, mv, &DamageContext{Effectiveness: 1, RNG: rng})
		lo, hi := 76, 90
		if res.Critical {
			lo, hi = 95, 112 // 90 * 1.25, variance floor to full
		}
		if res.Damage < lo || res.Damage > hi {
			t.Fatalf("run %d: damage = %d (crit=%v), want %d-%d", i, res.Damage, res.Critical, lo, hi)
		}
	}
}

func TestDamageFloorIsOne(t *testing.T) {
	atk := makeAttacker(1, 1, TypeNormal)
	def := makeDefender(10000, TypeSteel)
	mv, _ := MoveByID("claw_jab")

	rng := &scriptedRNG{floats: []float64{0.9, 0.0}}
	res := CalculateDamage(atk, def, mv, &DamageContext{Effectiveness: 0.5, RNG: rng})
	if res.Damage != 1 {
		t.Errorf("damage = %d, want floor of 1", res.Damage)
	}
}

func TestEffectivenessCapped(t *testing.T) {
	atk := makeAttacker(50, 150, TypeWater)
	def := makeDefender(100, TypeNormal)
	mv, _ := MoveByID("crusher_claw")

	rng := &scriptedRNG{floats: []float64{0.9, 0.0}}
	res := CalculateDamage(atk, def, mv, &DamageContext{Effectiveness: 4.0, RNG: rng})
	if res.Effectiveness != EffectivenessCap {
		t.Errorf("effectiveness = %v, want capped %v", res.Effectiveness, EffectivenessCap)
	}
	if res.Damage != 114 { // floor(90 * 1.5 * 0.85)
		t.Errorf("damage = %d, want 114", res.Damage)
	}
}

func TestSTABAndAdaptability(t *testing.T) {
	def := makeDefender(100, TypeNormal)
	mv, _ := MoveByID("rip_tide") // water, power 80

	run := func(atk *CombatantSnapshot) int {
		rng := &scriptedRNG{floats: []float64{0.9, 0.0}}
		return CalculateDamage(atk, def, mv, &DamageContext{Effectiveness: 1, RNG: rng}).Damage
	}

	base := run(makeAttacker(50, 150, TypeNormal)) // no STAB
	stab := run(makeAttacker(50, 150, TypeWater))

	adaptive := makeAttacker(50, 150, TypeWater)
	adaptive.AbilityID = "adaptive_instinct"
	adapt := run(adaptive)

	if base != 76 { // floor(90 * 0.85)
		t.Errorf("base damage = %d, want 76", base)
	}
	if stab != 114 { // floor(90 * 1.5 * 0.85)
		t.Errorf("STAB damage = %d, want 114", stab)
	}
	if adapt != 152 { // floor(90 * 2.0 * 0.85)
		t.Errorf("adaptability damage = %d, want 152", adapt)
	}
}

func TestBurnHalvesPhysicalOnly(t *testing.T) {
	def := makeDefender(100, TypeNormal)

	atk := makeAttacker(50, 150, TypeNormal)
	atk.Status = StatusBurn

	rng := &scriptedRNG{floats: []float64{0.9, 0.0}}
	phys, _ := MoveByID("crusher_claw")
	res := CalculateDamage(atk, def, phys, &DamageContext{Effectiveness: 1, RNG: rng})
	// STAB applies (normal attacker, normal move): 90*1.5*0.5 = 67.5, *0.85 = 57.
	if res.Damage != 57 {
		t.Errorf("burned physical damage = %d, want 57", res.Damage)
	}

	spec, _ := MoveByID("rip_tide")
	rng = &scriptedRNG{floats: []float64{0.9, 0.0}}
	res = CalculateDamage(atk, def, spec, &DamageContext{Effectiveness: 1, RNG: rng})
	if res.Damage != 76 { // special path untouched by burn, no STAB
		t.Errorf("burned special damage = %d, want 76", res.Damage)
	}
}

func TestStatusMoveDealsNoDamage(t *testing.T) {
	atk := makeAttacker(50, 150, TypeNormal)
	def := makeDefender(100, TypeNormal)
	mv, _ := MoveByID("harden_shell")

	res := CalculateDamage(atk, def, mv, &DamageContext{Effectiveness: 1, RNG: &scriptedRNG{}})
	if res.Damage != 0 {
		t.Errorf("status move damage = %d, want 0", res.Damage)
	}
}

func TestCritUsesOverrideChance(t *testing.T) {
	atk := makeAttacker(50, 150, TypeNormal)
	def := makeDefender(100, TypeNormal)
	mv, _ := MoveByID("mantis_strike") // crit chance 0.25

	// 0.2 crits under the override but not under the base 1/16.
	rng := &scriptedRNG{floats: []float64{0.2, 0.0}}
	res := CalculateDamage(atk, def, mv, &DamageContext{Effectiveness: 1, RNG: rng})
	if !res.Critical {
		t.Error("expected crit at roll 0.2 with 25% chance")
	}
}

func TestDefensiveAbilities(t *testing.T) {
	atk := makeAttacker(50, 150, TypeWater)
	mv, _ := MoveByID("crusher_claw")

	dampen := makeDefender(100, TypeNormal)
	dampen.AbilityID = "dense_carapace"
	rng := &scriptedRNG{floats: []float64{0.9, 0.0}}
	res := CalculateDamage(atk, dampen, mv, &DamageContext{Effectiveness: 2.0, RNG: rng})
	if res.Effectiveness != 1 {
		t.Errorf("dampened effectiveness = %v, want 1", res.Effectiveness)
	}

	bulwark := makeDefender(100, TypeNormal)
	bulwark.AbilityID = "pristine_shell"
	rng = &scriptedRNG{floats: []float64{0.9, 0.0}}
	res = CalculateDamage(atk, bulwark, mv, &DamageContext{Effectiveness: 1, RNG: rng})
	if res.Damage != 38 { // floor(90 * 0.85 * 0.5)
		t.Errorf("full-HP bulwark damage = %d, want 38", res.Damage)
	}

	// The shield drops once HP is below max.
	bulwark.HP = bulwark.MaxHP - 1
	rng = &scriptedRNG{floats: []float64{0.9, 0.0}}
	res = CalculateDamage(atk, bulwark, mv, &DamageContext{Effectiveness: 1, RNG: rng})
	if res.Damage != 76 {
		t.Errorf("damaged bulwark damage = %d, want 76", res.Damage)
	}
}

func TestOffensiveAbilities(t *testing.T) {
	def := makeDefender(100, TypeNormal)
	mv, _ := MoveByID("rip_tide")

	surge := makeAttacker(50, 150, TypeNormal)
	surge.AbilityID = "tidal_surge"
	surge.HP = surge.MaxHP / 4 // below the 1/3 threshold

	rng := &scriptedRNG{floats: []float64{0.9, 0.0}}
	res := CalculateDamage(surge, def, mv, &DamageContext{Effectiveness: 1, RNG: rng})
	if res.Damage != 114 { // floor(90 * 1.5 * 0.85)
		t.Errorf("low-HP surge damage = %d, want 114", res.Damage)
	}

	// Above the threshold the surge is inactive.
	surge.HP = surge.MaxHP
	rng = &scriptedRNG{floats: []float64{0.9, 0.0}}
	res = CalculateDamage(surge, def, mv, &DamageContext{Effectiveness: 1, RNG: rng})
	if res.Damage != 76 {
		t.Errorf("full-HP surge damage = %d, want 76", res.Damage)
	}

	pierce := makeAttacker(50, 150, TypeNormal)
	pierce.AbilityID = "shell_splitter"
	rng = &scriptedRNG{floats: []float64{0.9, 0.0}}
	res = CalculateDamage(pierce, def, mv, &DamageContext{Effectiveness: 1, RNG: rng})
	// Defense 100 -> 80: 150/80 * 120 * 0.5 = 112.5, *0.85 = 95.
	if res.Damage != 95 {
		t.Errorf("armor-pierce damage = %d, want 95", res.Damage)
	}
}

func TestPhysicalDefenseTargetOverride(t *testing.T) {
	atk := makeAttacker(50, 150, TypeNormal)
	def := makeDefender(100, TypeNormal)
	def.Stats[StatSpDef] = 300 // a special wall

	mv, _ := MoveByID("mirror_carapace") // special but hits physical defense

	rng := &scriptedRNG{floats: []float64{0.9, 0.0}}
	res := CalculateDamage(atk, def, mv, &DamageContext{Effectiveness: 1, RNG: rng})
	// 150/100 * 75*1.5 * 0.5 = 84.375, *0.85 = 71.
	if res.Damage != 71 {
		t.Errorf("override damage = %d, want 71 (physical defense)", res.Damage)
	}
}
