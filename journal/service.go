package journal

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/MoJuiceX/clawcombat/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Lifecycle event names written by the battle core.
const (
	EventPaired     = "paired"
	EventBattleEnd  = "battle_end"
	EventForfeit    = "forfeit"
	EventAborted    = "aborted"
	EventTimeout    = "timeout"
	EventRatingDone = "rating_applied"
)

// Entry is one battle lifecycle event to journal.
type Entry struct {
	BattleID string
	Event    string
	Payload  interface{}
}

// Service persists battle journal rows asynchronously in batches. Writes are
// fire-and-forget: a full channel drops the entry rather than stalling the
// resolver.
type Service struct {
	db     *gorm.DB
	ch     chan *model.BattleJournal
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a journal Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		db:     db,
		ch:     make(chan *model.BattleJournal, 1024),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Record enqueues an entry for async write.
func (svc *Service) Record(entry Entry) {
	payload, _ := json.Marshal(entry.Payload)
	row := &model.BattleJournal{
		BattleID: entry.BattleID,
		Event:    entry.Event,
		Payload:  datatypes.JSON(payload),
	}
	select {
	case svc.ch <- row:
	default:
		svc.logger.Warn("journal channel full, dropping entry",
			zap.String("battle", entry.BattleID),
			zap.String("event", entry.Event))
	}
}

// Stop flushes remaining entries and shuts down the worker. It blocks until
// the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	select {
	case <-svc.stopCh:
	default:
		close(svc.stopCh)
	}
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	batch := make([]*model.BattleJournal, 0, 100)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("journal batch write failed", zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case row := <-svc.ch:
			batch = append(batch, row)
			if len(batch) >= 100 {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			for {
				select {
				case row := <-svc.ch:
					batch = append(batch, row)
				default:
					flush()
					return
				}
			}
		}
	}
}
