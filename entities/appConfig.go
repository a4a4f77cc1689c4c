package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppConfig is one key/value preference belonging to an owner.
type AppConfig struct {
	ID        string `gorm:"type:varchar(36);primaryKey" json:"-"`
	OwnerID   string `gorm:"uniqueIndex:idx_config_owner_key;type:varchar(128);not null" json:"-"`
	Key       string `gorm:"uniqueIndex:idx_config_owner_key;type:varchar(64);not null" json:"key"`
	Value     string `gorm:"type:text;not null" json:"value"`
	UpdatedAt string `json:"updated_at"`
}

func (AppConfig) TableName() string {
	return "app_config"
}

func (c *AppConfig) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return
}

// Well-known configuration keys.
const (
	ConfigLanguage           = "language"
	ConfigTheme              = "theme"
	ConfigHasSeenOnboarding  = "has_seen_onboarding"
	ConfigVibrationEnabled   = "vibration_enabled"
	ConfigSoundEnabled       = "sound_enabled"
	ConfigSaveHistoryEnabled = "save_history_enabled"
)
