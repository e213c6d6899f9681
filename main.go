package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/MoJuiceX/clawcombat/cache"
	"github.com/MoJuiceX/clawcombat/config"
	dbadapter "github.com/MoJuiceX/clawcombat/db"
	"github.com/MoJuiceX/clawcombat/game/arena"
	"github.com/MoJuiceX/clawcombat/game/battle"
	"github.com/MoJuiceX/clawcombat/game/matchmaking"
	"github.com/MoJuiceX/clawcombat/journal"
	mw "github.com/MoJuiceX/clawcombat/middleware"
	"github.com/MoJuiceX/clawcombat/model"
	"github.com/MoJuiceX/clawcombat/notify"
	"github.com/MoJuiceX/clawcombat/rating"
	"github.com/MoJuiceX/clawcombat/scheduler"
	"github.com/MoJuiceX/clawcombat/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const version = "0.1.0"

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Cache / PubSub ----
	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cfg.Cache)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Journal / Notifier ----
	journalSvc := journal.New(db, logger)
	defer journalSvc.Stop(context.Background())

	notifier := notify.NewWebhookNotifier(cfg.Notify, pubsub, logger)
	defer notifier.Stop()

	// ---- Battle engine ----
	seed := cfg.Battle.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := battle.NewLockedRNG(rand.New(rand.NewSource(seed)))
	resolver := battle.NewResolver(rng, logger)

	// ---- Services ----
	st := store.New(db, logger)
	ratingSvc := rating.New(db, logger)
	arenaSvc := arena.NewService(st, resolver, ratingSvc, journalSvc, notifier, cfg.Battle, logger)
	supervisor := arena.NewSupervisor(arenaSvc, st, c, cfg.Battle, logger)
	matchmaker := matchmaking.New(st, cfg.Matchmaking.Thresholds, logger)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	sched.AddTicker("timeout_sweep", cfg.Battle.SweepInterval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Battle.SweepInterval)
		defer cancel()
		if err := supervisor.Sweep(ctx); err != nil {
			logger.Error("timeout sweep", zap.Error(err))
		}
	})
	sched.AddTicker("matchmaking", cfg.Matchmaking.Interval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Matchmaking.Interval)
		defer cancel()
		pairing, err := matchmaker.TryMatch(ctx)
		if err != nil {
			logger.Error("matchmaking tick", zap.Error(err))
			return
		}
		if pairing == nil {
			return
		}
		if _, err := arenaSvc.StartBattle(ctx, pairing.A.CombatantID, pairing.B.CombatantID); err != nil {
			logger.Error("start battle",
				zap.Int64("combatant_a", pairing.A.CombatantID),
				zap.Int64("combatant_b", pairing.B.CombatantID),
				zap.Error(err))
		}
	})

	// ---- Gin HTTP server (operational surface) ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/version", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"version": version})
	})
	r.GET("/scheduler", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"tasks": sched.ListTickers()})
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
