package entities

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoryType tells whether a code was read or produced by the user.
type HistoryType string

const (
	HistoryScanned HistoryType = "scanned"
	HistoryCreated HistoryType = "created"
)

// Valid reports whether t is one of the known history types.
func (t HistoryType) Valid() bool {
	return t == HistoryScanned || t == HistoryCreated
}

// QrHistoryItem is one QR code scanned or generated by an owner.
type QrHistoryItem struct {
	ID         string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID    string         `gorm:"index;type:varchar(128);not null" json:"-"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	CustomName *string        `gorm:"type:varchar(255)" json:"custom_name,omitempty"`
	Type       HistoryType    `gorm:"type:varchar(16);not null" json:"type"`
	Timestamp  time.Time      `gorm:"index" json:"timestamp"`
	IsURL      bool           `json:"is_url"`
	IsFavorite bool           `gorm:"default:false" json:"is_favorite"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (QrHistoryItem) TableName() string {
	return "qr_history"
}

func (q *QrHistoryItem) BeforeCreate(tx *gorm.DB) (err error) {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.Timestamp.IsZero() {
		q.Timestamp = time.Now().UTC()
	}
	q.IsURL = IsURL(q.Content)
	return
}

// DisplayName is the custom name when set, the raw content otherwise.
func (q *QrHistoryItem) DisplayName() string {
	if q.CustomName != nil && *q.CustomName != "" {
		return *q.CustomName
	}
	return q.Content
}

// lowercase hosts only, matching the mobile client's sniffing
var urlPattern = regexp.MustCompile(`^(https?://)?([\da-z.-]+)\.([a-z.]{2,6})([/\w .-]*)*/?$`)

// IsURL sniffs whether QR content looks like a web address.
func IsURL(content string) bool {
	return urlPattern.MatchString(content)
}
