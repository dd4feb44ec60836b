package domain

import (
	"regexp"
	"time"
)

var backupIDRegex = regexp.MustCompile(`^\d+-[0-9a-f]{8}$`)

// Backup describes a stored snapshot file.
type Backup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Size      int64     `json:"size"`
}

// Snapshot is the content of a backup file.
type Snapshot struct {
	Timestamp time.Time    `json:"timestamp"`
	Data      SnapshotData `json:"data"`
}

type SnapshotData struct {
	TimeSlots       *TimeSlotConfig  `json:"timeSlots,omitempty"`
	Orders          []*Order         `json:"orders"`
	PaymentSettings *PaymentSettings `json:"paymentSettings,omitempty"`
}

// ValidBackupID guards file names derived from client-supplied ids.
func ValidBackupID(id string) bool {
	return backupIDRegex.MatchString(id)
}
