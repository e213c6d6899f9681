package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/MoJuiceX/clawcombat/cache"
	"github.com/MoJuiceX/clawcombat/config"
	dbadapter "github.com/MoJuiceX/clawcombat/db"
	"github.com/MoJuiceX/clawcombat/model"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SetupTestDB opens an in-memory SQLite database and runs AutoMigrate.
// No external services are required.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Each call gets its own named in-memory database; cache=shared only
	// scopes sharing to the connections of this *gorm.DB's pool.
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_pragma=busy_timeout(5000)", dbSeq.Add(1))
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: dsn,
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache creates the in-process cache and pub/sub (no Redis).
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	cfg := config.CacheConfig{} // empty RedisAddr → local backends
	c, err := cache.NewCache(cfg)
	require.NoError(t, err, "SetupTestCache: NewCache")
	ps, err := cache.NewPubSub(cfg)
	require.NoError(t, err, "SetupTestCache: NewPubSub")
	return c, ps
}

// SeedCombatant inserts a battle-ready combatant with sane defaults, applying
// any mutations first.
func SeedCombatant(t *testing.T, db *gorm.DB, mut func(*model.Combatant)) *model.Combatant {
	t.Helper()
	c := &model.Combatant{
		Name:        "",
		ElementType: "water",
		Level:       50,
		Nature:      "hardy",
		BaseHP:      100,
		BaseAttack:  100,
		BaseDefense: 90,
		BaseSpAtk:   95,
		BaseSpDef:   85,
		BaseSpeed:   80,
		MoveIDs:     datatypes.JSON(`["tide_pinch","crusher_claw","harden_shell","quick_snip"]`),
		Rating:      1000,
	}
	if mut != nil {
		mut(c)
	}
	if c.Name == "" {
		c.Name = uniqueName(t)
	}
	require.NoError(t, db.Create(c).Error, "SeedCombatant")
	return c
}

var (
	nameSeq atomic.Int64
	dbSeq   atomic.Int64
)

func uniqueName(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("%s-%d", t.Name(), nameSeq.Add(1))
}
