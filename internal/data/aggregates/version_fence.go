package aggregates

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/curriculum-backend/internal/data/repos"
	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/platform/dbctx"
)

// VersionFence serializes writers per course and hands out write stamps that
// are strictly newer than the course's current package version, whatever the
// local clock says.
//
// Lock order for every content write: exercise row, course rows by ascending
// id, parent row, child rows.
type VersionFence struct {
	versions repos.VersionRepo
}

func NewVersionFence(versions repos.VersionRepo) *VersionFence {
	return &VersionFence{versions: versions}
}

// CourseOf resolves the course owning an ordered node inside the caller's
// transaction.
func (f *VersionFence) CourseOf(dbc dbctx.Context, op string, kind content.NodeKind, id uuid.UUID) (uuid.UUID, error) {
	courseID, found, err := f.versions.OwningCourse(dbc.Ctx, dbc.Tx, kind, id)
	if err != nil {
		return uuid.Nil, err
	}
	if !found {
		return uuid.Nil, domainagg.NotFound(op, string(kind), id.String())
	}
	return courseID, nil
}

// LockExercise locks a shared exercise ahead of the courses referencing it.
func (f *VersionFence) LockExercise(dbc dbctx.Context, op string, id uuid.UUID) error {
	found, err := f.versions.LockExercise(dbc.Ctx, dbc.Tx, id)
	if err != nil {
		return err
	}
	if !found {
		return domainagg.NotFound(op, string(content.KindExercise), id.String())
	}
	return nil
}

// Stamp locks the courses and returns max(at, newest updated_at + 1µs) over
// all of them. Every updated_at the write sets must use the returned stamp.
// The read after the lock must see other writers' commits, so the caller's
// transaction has to run at read committed.
func (f *VersionFence) Stamp(dbc dbctx.Context, op string, courseIDs []uuid.UUID, at time.Time) (time.Time, error) {
	ids := dedupe(courseIDs)
	at = at.UTC().Truncate(time.Microsecond)
	if len(ids) == 0 {
		return at, nil
	}
	locked, err := f.versions.LockCourses(dbc.Ctx, dbc.Tx, ids)
	if err != nil {
		return time.Time{}, err
	}
	if len(locked) != len(ids) {
		have := make(map[uuid.UUID]struct{}, len(locked))
		for _, id := range locked {
			have[id] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := have[id]; !ok {
				return time.Time{}, domainagg.NotFound(op, string(content.KindCourse), id.String())
			}
		}
	}
	for _, id := range locked {
		latest, err := f.versions.Latest(dbc.Ctx, dbc.Tx, id)
		if err != nil {
			return time.Time{}, err
		}
		if floor := latest.Add(time.Microsecond); !at.After(latest) {
			at = floor
		}
	}
	return at, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
