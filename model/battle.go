package model

import (
	"time"

	"gorm.io/datatypes"
)

// Battle status values mirrored from the engine's battle phase.
const (
	BattleWaiting   = "waiting"
	BattleResolving = "resolving"
	BattleFinished  = "finished"
	BattleAborted   = "aborted"
)

// Battle is the single row guarding one battle instance. TurnNumber is the
// optimistic-concurrency token: every turn-advancing write carries the turn
// number it read, and a stale write updates zero rows.
type Battle struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	CombatantA  int64  `gorm:"index;not null" json:"combatant_a"`
	CombatantB  int64  `gorm:"index;not null" json:"combatant_b"`
	Status      string `gorm:"size:16;index;not null" json:"status"`
	TurnNumber  int    `gorm:"default:0" json:"turn_number"`
	WinnerID    *int64 `json:"winner_id"`
	Draw        bool   `gorm:"default:false" json:"draw"`
	AbortReason string `gorm:"size:128" json:"abort_reason"`

	// State is the versioned battle state document (engine-owned schema).
	State datatypes.JSON `json:"state"`

	// Pending move slots for the current turn; nil until submitted.
	PendingSlotA *int `json:"pending_slot_a"`
	PendingSlotB *int `json:"pending_slot_b"`

	ActionDeadline time.Time `gorm:"index" json:"action_deadline"`
	RatingApplied  bool      `gorm:"default:false" json:"rating_applied"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// QueueEntry is one combatant waiting in the matchmaking queue. Created on
// join, deleted on leave or atomically with pairing.
type QueueEntry struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CombatantID int64     `gorm:"uniqueIndex;not null" json:"combatant_id"`
	Rating      int       `gorm:"index;not null" json:"rating"`
	EnqueuedAt  time.Time `gorm:"index;autoCreateTime" json:"enqueued_at"`
}

// BattleJournal is an append-only record of lifecycle events (pairing,
// forfeits, battle end) written asynchronously by the journal service.
type BattleJournal struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	BattleID  string         `gorm:"index;size:36" json:"battle_id"`
	Event     string         `gorm:"size:32;not null" json:"event"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}
