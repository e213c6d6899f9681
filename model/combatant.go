package model

import (
	"time"

	"gorm.io/datatypes"
)

// Combatant is the persisted record an in-battle snapshot is built from.
// The battle engine never writes these rows; rating/progression does.
type Combatant struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"uniqueIndex;size:64;not null" json:"name"`
	ElementType string         `gorm:"size:16;not null" json:"element_type"`
	Level       int            `gorm:"default:1" json:"level"`
	Nature      string         `gorm:"size:16" json:"nature"`
	AbilityID   string         `gorm:"size:32" json:"ability_id"`
	BaseHP      int            `gorm:"not null" json:"base_hp"`
	BaseAttack  int            `gorm:"not null" json:"base_attack"`
	BaseDefense int            `gorm:"not null" json:"base_defense"`
	BaseSpAtk   int            `gorm:"not null" json:"base_sp_atk"`
	BaseSpDef   int            `gorm:"not null" json:"base_sp_def"`
	BaseSpeed   int            `gorm:"not null" json:"base_speed"`
	EVHP        int            `gorm:"default:0" json:"ev_hp"`
	EVAttack    int            `gorm:"default:0" json:"ev_attack"`
	EVDefense   int            `gorm:"default:0" json:"ev_defense"`
	EVSpAtk     int            `gorm:"default:0" json:"ev_sp_atk"`
	EVSpDef     int            `gorm:"default:0" json:"ev_sp_def"`
	EVSpeed     int            `gorm:"default:0" json:"ev_speed"`
	MoveIDs     datatypes.JSON `json:"move_ids"` // JSON array of move ids, up to 4
	Rating      int            `gorm:"default:1000;index" json:"rating"`
	XP          int64          `gorm:"default:0" json:"xp"`
	Wins        int            `gorm:"default:0" json:"wins"`
	Losses      int            `gorm:"default:0" json:"losses"`
	WebhookURL  string         `gorm:"size:255" json:"webhook_url"`
	LastBattleAt *time.Time    `json:"last_battle_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
