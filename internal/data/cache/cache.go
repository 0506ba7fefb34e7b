package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/curriculum-backend/internal/domain/content"
)

// Generation fences Put against Invalidate. Get returns the key's current
// generation; a Put carrying an older one is dropped.
type Generation uint64

// Entry is a cached, already encoded course package.
type Entry struct {
	CourseID       uuid.UUID `json:"course_id"`
	PackageVersion string    `json:"package_version"`
	Version        time.Time `json:"version"`
	Body           []byte    `json:"body"`
	StoredAt       time.Time `json:"stored_at"`
}

// NewEntry encodes snap once so hits serve bytes without re-marshalling.
func NewEntry(snap *content.PackagedSnapshot, now time.Time) (*Entry, error) {
	if snap == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode package %s: %w", snap.Course.ID, err)
	}
	version, err := content.ParsePackageVersion(snap.PackageVersion)
	if err != nil {
		return nil, fmt.Errorf("package %s version %q: %w", snap.Course.ID, snap.PackageVersion, err)
	}
	return &Entry{
		CourseID:       snap.Course.ID,
		PackageVersion: snap.PackageVersion,
		Version:        version,
		Body:           body,
		StoredAt:       now,
	}, nil
}

// Snapshot decodes the body.
func (e *Entry) Snapshot() (*content.PackagedSnapshot, error) {
	var snap content.PackagedSnapshot
	if err := json.Unmarshal(e.Body, &snap); err != nil {
		return nil, fmt.Errorf("decode package %s: %w", e.CourseID, err)
	}
	return &snap, nil
}

// VersionCache holds at most one packaged snapshot per course.
type VersionCache interface {
	// Get returns the entry, or nil on a miss, plus the fence for a later Put.
	Get(ctx context.Context, courseID uuid.UUID) (*Entry, Generation, error)
	// Put stores e unless the course was invalidated since gen was read. It
	// reports whether the entry was stored.
	Put(ctx context.Context, e *Entry, gen Generation) (bool, error)
	Invalidate(ctx context.Context, courseID uuid.UUID) error
}
