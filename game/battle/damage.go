package battle

import "math"

// Damage pipeline constants.
const (
	DamageConstant  = 0.5
	BaseCritChance  = 1.0 / 16.0
	CritMultiplier  = 1.25 // modest on purpose; comebacks stay possible
	VarianceFloor   = 0.85
	BurnAttackFactor = 0.5
)

// DamageContext carries the per-battle inputs the pure pipeline needs: the
// pre-computed effectiveness for the move's type and the battle RNG.
type DamageContext struct {
	// Effectiveness is the raw matchup-cache value (uncapped).
	Effectiveness float64
	RNG           RNG
}

// DamageResult is the outcome of one damage computation.
type DamageResult struct {
	Damage        int
	Critical      bool
	Effectiveness float64 // post-cap value actually applied
}

// CalculateDamage computes damage for one hit. The step order is part of the
// contract: reordering the multipliers changes rounding and therefore
// outcomes, so each numbered step below mirrors the resolver's documentation.
func CalculateDamage(attacker, defender *CombatantSnapshot, mv *Move, ctx *DamageContext) DamageResult {
	// 1. Status moves deal no direct damage.
	if mv.IsStatus() {
		return DamageResult{Effectiveness: 1}
	}

	// 2. Select the attacking stat and the opposing defense, honoring the
	// physical-defense-target override.
	atkKind, defKind := StatAttack, StatDefense
	if mv.Category == CategorySpecial {
		atkKind, defKind = StatSpAtk, StatSpDef
	}
	if mv.TargetsPhysicalDefense {
		defKind = StatDefense
	}

	// 3. Stage multipliers on both sides.
	effAtk := float64(attacker.EffectiveStat(atkKind))
	effDef := float64(defender.EffectiveStat(defKind))

	// 4. Ability defense piercing.
	if attacker.Ability().effect() == EffectArmorPierce {
		effDef *= 1 - ArmorPierceFraction
	}

	// 5. Level-scaled move power, linear bonus.
	power := float64(mv.Power) * (1 + float64(attacker.Level)/100)

	// 6. Base damage.
	dmg := effAtk / math.Max(1, effDef) * power * DamageConstant

	// 7. STAB.
	if mv.Type == attacker.Type {
		if attacker.Ability().effect() == EffectAdaptability {
			dmg *= STABAdaptability
		} else {
			dmg *= STABBonus
		}
	}

	// 8. Type effectiveness, capped on the super-effective side; a Dampen
	// defender pulls anything above neutral back to 1x.
	eff := CapEffectiveness(ctx.Effectiveness)
	if eff > 1 && defender.Ability().effect() == EffectDampen {
		eff = 1
	}
	dmg *= eff

	// 9. Conditional ability multipliers on the attacker.
	if ab := attacker.Ability(); ab.effect() == EffectLowHPSurge &&
		mv.Type == ab.BoostType &&
		attacker.HP*LowHPSurgeFraction < attacker.MaxHP {
		dmg *= LowHPSurgeBonus
	}

	// 10. Burn halves physical output.
	if attacker.Status == StatusBurn && mv.Category == CategoryPhysical {
		dmg *= BurnAttackFactor
	}

	// 11. Critical roll.
	critChance := BaseCritChance
	if mv.CritChance > 0 {
		critChance = mv.CritChance
	}
	crit := ctx.RNG.Float64() < critChance
	if crit {
		dmg *= CritMultiplier
	}

	// 12. Bounded variance.
	dmg *= VarianceFloor + ctx.RNG.Float64()*(1-VarianceFloor)

	// 13. Defender's full-HP shield.
	if defender.Ability().effect() == EffectBulwark && defender.HP == defender.MaxHP {
		dmg *= BulwarkFactor
	}

	// 14. Floor with a hard minimum of 1: a damaging move always moves the
	// battle forward, even into an immunity.
	final := int(math.Floor(dmg))
	if final < 1 {
		final = 1
	}
	return DamageResult{Damage: final, Critical: crit, Effectiveness: eff}
}
