package content

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PackageVersionLayout renders package_version. Fixed nanosecond width keeps
// versions lexically sortable.
const PackageVersionLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatPackageVersion renders t as a package_version string.
func FormatPackageVersion(t time.Time) string {
	return t.UTC().Format(PackageVersionLayout)
}

// ParsePackageVersion parses a package_version string.
func ParsePackageVersion(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// PackagedSnapshot is the read-only projection of one course and every
// descendant, served as the offline package.
type PackagedSnapshot struct {
	Course         CourseView  `json:"course"`
	Levels         []LevelView `json:"levels"`
	PackageVersion string      `json:"package_version"`
}

// Version returns package_version as a time.
func (s *PackagedSnapshot) Version() time.Time {
	if s == nil {
		return time.Time{}
	}
	t, err := ParsePackageVersion(s.PackageVersion)
	if err != nil {
		return time.Time{}
	}
	return t
}

type CourseView struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type LevelView struct {
	ID          uuid.UUID     `json:"id"`
	Order       int           `json:"order"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Sections    []SectionView `json:"sections"`
}

type SectionView struct {
	ID          uuid.UUID    `json:"id"`
	Order       int          `json:"order"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Modules     []ModuleView `json:"modules"`
}

type ModuleView struct {
	ID          uuid.UUID    `json:"id"`
	Order       int          `json:"order"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Lessons     []LessonView `json:"lessons"`
}

type LessonView struct {
	ID                  uuid.UUID        `json:"id"`
	Order               int              `json:"order"`
	Title               string           `json:"title"`
	Kind                string           `json:"kind"`
	ContentMD           string           `json:"content_md"`
	Content             json.RawMessage  `json:"content,omitempty"`
	EstimatedMinutes    int              `json:"estimated_minutes"`
	UpdatedAt           time.Time        `json:"updated_at"`
	ExerciseAssignments []AssignmentView `json:"exercise_assignments"`
}

type AssignmentView struct {
	ID       uuid.UUID    `json:"id"`
	Order    int          `json:"order"`
	Exercise ExerciseView `json:"exercise"`
}

type ExerciseView struct {
	ID        uuid.UUID       `json:"id"`
	Kind      string          `json:"kind"`
	Prompt    string          `json:"prompt"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}
