package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChallengeStatus is the lifecycle state of a challenge.
type ChallengeStatus string

const (
	ChallengeStatusOpen      ChallengeStatus = "open"
	ChallengeStatusOngoing   ChallengeStatus = "ongoing"
	ChallengeStatusCompleted ChallengeStatus = "completed"
)

// ChallengeStatuses lists every status in lifecycle order.
var ChallengeStatuses = []ChallengeStatus{
	ChallengeStatusOpen,
	ChallengeStatusOngoing,
	ChallengeStatusCompleted,
}

func (s ChallengeStatus) Valid() bool {
	return s.rank() >= 0
}

func (s ChallengeStatus) rank() int {
	for i, st := range ChallengeStatuses {
		if st == s {
			return i
		}
	}
	return -1
}

// Precedes reports whether next lies strictly later in the lifecycle.
func (s ChallengeStatus) Precedes(next ChallengeStatus) bool {
	return s.Valid() && next.Valid() && s.rank() < next.rank()
}

// ChallengeDescription is embedded in Challenge with the description_ column prefix.
type ChallengeDescription struct {
	Title       string `gorm:"size:100;not null" json:"title"`
	Description string `gorm:"size:500;not null" json:"description"`
}

// Challenge is a posted project with a deadline and a prize.
type Challenge struct {
	ID                 uint                 `gorm:"primaryKey" json:"id"`
	Title              string               `gorm:"size:100;not null" json:"title"`
	Deadline           time.Time            `gorm:"not null;index" json:"deadline"`
	ContactEmail       string               `gorm:"size:255;not null" json:"contact_email"`
	ProjectDescription string               `gorm:"type:text;not null" json:"project_description"`
	Brief              string               `gorm:"size:250;not null" json:"brief"`
	Prize              decimal.Decimal      `gorm:"type:numeric(12,2);not null;default:0;index" json:"prize"`
	Description        ChallengeDescription `gorm:"embedded;embeddedPrefix:description_" json:"description"`
	Participants       int                  `gorm:"not null;default:0" json:"participants"`
	CreatorID          uint                 `gorm:"not null;index" json:"creator_id"`
	Creator            *User                `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"creator,omitempty"`
	Status             ChallengeStatus      `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Challenge) TableName() string {
	return "challenges"
}

// IsActive reports whether the challenge still accepts participants.
func (c *Challenge) IsActive() bool {
	return c.Status == ChallengeStatusOpen
}

// ChallengeStats counts challenges per status.
type ChallengeStats struct {
	Total     int64 `json:"total"`
	Open      int64 `json:"open"`
	Ongoing   int64 `json:"ongoing"`
	Completed int64 `json:"completed"`
}

// Add folds a per-status count into the totals. Unknown statuses only count
// towards Total.
func (s *ChallengeStats) Add(status ChallengeStatus, n int64) {
	s.Total += n
	switch status {
	case ChallengeStatusOpen:
		s.Open += n
	case ChallengeStatusOngoing:
		s.Ongoing += n
	case ChallengeStatusCompleted:
		s.Completed += n
	}
}
