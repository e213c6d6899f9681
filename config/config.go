package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Battle      BattleConfig      `mapstructure:"battle"`
	Matchmaking MatchmakingConfig `mapstructure:"matchmaking"`
	Notify      NotifyConfig      `mapstructure:"notify"`
}

type ServerConfig struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type BattleConfig struct {
	// ActionTimeout is how long each combatant has to submit a move before
	// the turn is resolved with its move skipped.
	ActionTimeout time.Duration `mapstructure:"action_timeout"`
	// SweepInterval is how often the timeout supervisor scans for overdue battles.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// ForfeitAfter is the number of consecutive timeouts that forces a forfeit.
	ForfeitAfter int `mapstructure:"forfeit_after"`
	// Seed fixes the battle RNG; 0 means seed from the clock.
	Seed int64 `mapstructure:"seed"`
}

type MatchmakingConfig struct {
	// Thresholds is the expanding sequence of acceptable rating differences.
	// A final unbounded pass always follows the last threshold.
	Thresholds []int         `mapstructure:"thresholds"`
	Interval   time.Duration `mapstructure:"interval"`
}

type NotifyConfig struct {
	QueueSize int           `mapstructure:"queue_size"`
	RatePerS  float64       `mapstructure:"rate_per_s"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Load reads config from the given YAML file path. A missing file is not an
// error: defaults are applied so a bare checkout runs against SQLite.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/clawcombat.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("battle.action_timeout", "60s")
	v.SetDefault("battle.sweep_interval", "10s")
	v.SetDefault("battle.forfeit_after", 4)
	v.SetDefault("battle.seed", 0)
	v.SetDefault("matchmaking.thresholds", []int{100, 200, 350, 500})
	v.SetDefault("matchmaking.interval", "2s")
	v.SetDefault("notify.queue_size", 256)
	v.SetDefault("notify.rate_per_s", 20)
	v.SetDefault("notify.timeout", "5s")

	if _, statErr := os.Stat(path); statErr == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
