// internal/core/domain/snapshot.go
package domain

import (
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
)

// SnapshotContentType is the media type of generated snapshots
const SnapshotContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Snapshot is a point-in-time spreadsheet of every item
type Snapshot struct {
	Key         string    `json:"key"`
	Location    string    `json:"location,omitempty"`
	ItemCount   int       `json:"item_count"`
	InStock     int       `json:"in_stock"`
	GeneratedAt time.Time `json:"generated_at"`
	Data        []byte    `json:"-"`
}

// SnapshotKey returns prefix/YYYY/MM/DD/<uuid>.xlsx for t
func SnapshotKey(prefix string, t time.Time) string {
	t = t.UTC()
	return path.Join(prefix,
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", int(t.Month())),
		fmt.Sprintf("%02d", t.Day()),
		uuid.NewString()+".xlsx")
}

// Filename is the download name used for snapshot attachments
func (s *Snapshot) Filename() string {
	return fmt.Sprintf("inventory_snapshot_%s.xlsx", s.GeneratedAt.UTC().Format("20060102_150405"))
}
