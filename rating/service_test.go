package rating

import (
	"context"
	"testing"
	"time"

	"github.com/MoJuiceX/clawcombat/model"
	"github.com/MoJuiceX/clawcombat/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// seedFinishedBattle inserts a finished, unsettled battle row for the claim
// to bite on.
func seedFinishedBattle(t *testing.T, db *gorm.DB, idA, idB int64) string {
	t.Helper()
	b := &model.Battle{
		ID:         uuid.NewString(),
		CombatantA: idA,
		CombatantB: idB,
		Status:     model.BattleFinished,
		State:      datatypes.JSON(`{"version":1}`),
	}
	require.NoError(t, db.Create(b).Error, "seedFinishedBattle")
	return b.ID
}

func TestSettleEqualRatings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil)
	ctx := context.Background()

	now := time.Now()
	winner := testutil.SeedCombatant(t, db, func(c *model.Combatant) { c.LastBattleAt = &now })
	loser := testutil.SeedCombatant(t, db, func(c *model.Combatant) { c.LastBattleAt = &now })

	battleID := seedFinishedBattle(t, db, winner.ID, loser.ID)
	res, err := svc.Settle(ctx, winner.ID, loser.ID, battleID)
	require.NoError(t, err)

	// Equal ratings: expected score 0.5, so the winner gains K/2 = 16.
	assert.Equal(t, 1016, res.WinnerRating)
	assert.Equal(t, 984, res.LoserRating)
	assert.False(t, res.GiantSlayer)
	assert.False(t, res.Rested)

	var w, l model.Combatant
	require.NoError(t, db.First(&w, winner.ID).Error)
	require.NoError(t, db.First(&l, loser.ID).Error)
	assert.Equal(t, 1016, w.Rating)
	assert.Equal(t, 984, l.Rating)
	assert.Equal(t, 1, w.Wins)
	assert.Equal(t, 0, w.Losses)
	assert.Equal(t, 1, l.Losses)
	// Both seeds were level 50: base 50 + 2*50 = 150.
	assert.Equal(t, int64(150), w.XP)
	assert.Equal(t, int64(ConsolationXP), l.XP)
	require.NotNil(t, w.LastBattleAt)
	require.NotNil(t, l.LastBattleAt)
}

func TestSettleUnderdogGainsMore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil)
	ctx := context.Background()

	now := time.Now()
	underdog := testutil.SeedCombatant(t, db, func(c *model.Combatant) {
		c.Rating = 1000
		c.LastBattleAt = &now
	})
	favorite := testutil.SeedCombatant(t, db, func(c *model.Combatant) {
		c.Rating = 1400
		c.LastBattleAt = &now
	})

	battleID := seedFinishedBattle(t, db, underdog.ID, favorite.ID)
	res, err := svc.Settle(ctx, underdog.ID, favorite.ID, battleID)
	require.NoError(t, err)

	// 400-point gap: expected ~0.09, gain rounds to 29.
	assert.Equal(t, 1029, res.WinnerRating)
	assert.Equal(t, 1371, res.LoserRating)
}

func TestSettleGiantSlayerBonus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil)
	ctx := context.Background()

	now := time.Now()
	winner := testutil.SeedCombatant(t, db, func(c *model.Combatant) {
		c.Level = 40
		c.LastBattleAt = &now
	})
	loser := testutil.SeedCombatant(t, db, func(c *model.Combatant) {
		c.Level = 45
		c.LastBattleAt = &now
	})

	battleID := seedFinishedBattle(t, db, winner.ID, loser.ID)
	res, err := svc.Settle(ctx, winner.ID, loser.ID, battleID)
	require.NoError(t, err)

	assert.True(t, res.GiantSlayer)
	// base 50 + 2*45 = 140, ×1.5 = 210.
	assert.Equal(t, int64(210), res.WinnerXP)
}

func TestSettleGiantSlayerNeedsFullGap(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil)
	ctx := context.Background()

	now := time.Now()
	winner := testutil.SeedCombatant(t, db, func(c *model.Combatant) {
		c.Level = 41
		c.LastBattleAt = &now
	})
	loser := testutil.SeedCombatant(t, db, func(c *model.Combatant) {
		c.Level = 45
		c.LastBattleAt = &now
	})

	battleID := seedFinishedBattle(t, db, winner.ID, loser.ID)
	res, err := svc.Settle(ctx, winner.ID, loser.ID, battleID)
	require.NoError(t, err)
	assert.False(t, res.GiantSlayer)
}

func TestSettleRestedBonus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil)
	ctx := context.Background()

	stale := time.Now().Add(-25 * time.Hour)
	recent := time.Now()

	winner := testutil.SeedCombatant(t, db, func(c *model.Combatant) { c.LastBattleAt = &stale })
	loser := testutil.SeedCombatant(t, db, func(c *model.Combatant) { c.LastBattleAt = &recent })

	battleID := seedFinishedBattle(t, db, winner.ID, loser.ID)
	res, err := svc.Settle(ctx, winner.ID, loser.ID, battleID)
	require.NoError(t, err)

	assert.True(t, res.Rested)
	// base 50 + 2*50 = 150, ×1.5 = 225.
	assert.Equal(t, int64(225), res.WinnerXP)

	// The settlement stamps LastBattleAt, so an immediate rematch win is
	// no longer rested.
	rematchID := seedFinishedBattle(t, db, winner.ID, loser.ID)
	res2, err := svc.Settle(ctx, winner.ID, loser.ID, rematchID)
	require.NoError(t, err)
	assert.False(t, res2.Rested)
}

func TestSettleNeverPlayedCountsAsRested(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil)
	ctx := context.Background()

	winner := testutil.SeedCombatant(t, db, nil)
	now := time.Now()
	loser := testutil.SeedCombatant(t, db, func(c *model.Combatant) { c.LastBattleAt = &now })

	battleID := seedFinishedBattle(t, db, winner.ID, loser.ID)
	res, err := svc.Settle(ctx, winner.ID, loser.ID, battleID)
	require.NoError(t, err)
	assert.True(t, res.Rested)
}

func TestSettleDrawMovesNoRating(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil)
	ctx := context.Background()

	a := testutil.SeedCombatant(t, db, nil)
	b := testutil.SeedCombatant(t, db, nil)
	battleID := seedFinishedBattle(t, db, a.ID, b.ID)

	require.NoError(t, svc.SettleDraw(ctx, a.ID, b.ID, battleID))

	var ra, rb model.Combatant
	require.NoError(t, db.First(&ra, a.ID).Error)
	require.NoError(t, db.First(&rb, b.ID).Error)
	assert.Equal(t, 1000, ra.Rating)
	assert.Equal(t, 1000, rb.Rating)
	assert.Equal(t, 0, ra.Wins)
	assert.Equal(t, 0, rb.Losses)
	require.NotNil(t, ra.LastBattleAt)
	require.NotNil(t, rb.LastBattleAt)
}

func TestSettleMissingCombatant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil)
	ctx := context.Background()

	a := testutil.SeedCombatant(t, db, nil)
	battleID := seedFinishedBattle(t, db, a.ID, 99999)
	_, err := svc.Settle(ctx, a.ID, 99999, battleID)
	require.Error(t, err)

	// The failed transaction rolls the claim back, so a later retry can
	// still settle the battle.
	var b model.Battle
	require.NoError(t, db.First(&b, "id = ?", battleID).Error)
	assert.False(t, b.RatingApplied, "failed settlement must release the claim")

	loser := testutil.SeedCombatant(t, db, nil)
	require.NoError(t, db.Model(&model.Battle{}).Where("id = ?", battleID).
		Update("combatant_b", loser.ID).Error)
	_, err = svc.Settle(ctx, a.ID, loser.ID, battleID)
	require.NoError(t, err)
}

func TestSettleOnlyOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil)
	ctx := context.Background()

	winner := testutil.SeedCombatant(t, db, nil)
	loser := testutil.SeedCombatant(t, db, nil)
	battleID := seedFinishedBattle(t, db, winner.ID, loser.ID)

	res, err := svc.Settle(ctx, winner.ID, loser.ID, battleID)
	require.NoError(t, err)

	_, err = svc.Settle(ctx, winner.ID, loser.ID, battleID)
	assert.ErrorIs(t, err, ErrAlreadySettled)

	// The losing attempt moved nothing.
	var w model.Combatant
	require.NoError(t, db.First(&w, winner.ID).Error)
	assert.Equal(t, res.WinnerRating, w.Rating)
	assert.Equal(t, 1, w.Wins)

	// Draws honor the same claim.
	assert.ErrorIs(t, svc.SettleDraw(ctx, winner.ID, loser.ID, battleID), ErrAlreadySettled)
}

func TestEloExchangeSymmetry(t *testing.T) {
	w, l := eloExchange(1200, 1200)
	assert.Equal(t, 1216, w)
	assert.Equal(t, 1184, l)

	// Heavy favorite winning gains almost nothing; at an 800-point gap
	// the rounded exchange is zero.
	w, l = eloExchange(1800, 1000)
	assert.Equal(t, 1800, w)
	assert.Equal(t, 1000, l)

	// A 200-point favorite still collects a little.
	w, l = eloExchange(1200, 1000)
	assert.Equal(t, 1208, w)
	assert.Equal(t, 992, l)
}
