package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/curriculum-backend/internal/platform/clock"
)

type memoryEntry struct {
	entry   *Entry
	expires time.Time
}

// defaultMaxGens caps how many per-course generations Memory tracks.
const defaultMaxGens = 10000

// Memory is a process-local VersionCache.
//
// Generations come from one counter, so every Invalidate hands out a value
// larger than any before it. Courses without their own generation report
// base. When the table grows past maxGens it is dropped and base moves to the
// counter: no stale generation can match again, in-flight fills of other
// courses are merely refused.
type Memory struct {
	mu      sync.Mutex
	entries map[uuid.UUID]memoryEntry
	gens    map[uuid.UUID]Generation
	seq     Generation
	base    Generation
	maxGens int
	ttl     time.Duration
	now     clock.Clock
}

var _ VersionCache = (*Memory)(nil)

// NewMemory returns an empty cache. ttl <= 0 keeps entries until invalidated.
func NewMemory(ttl time.Duration, now clock.Clock) *Memory {
	return &Memory{
		entries: map[uuid.UUID]memoryEntry{},
		gens:    map[uuid.UUID]Generation{},
		maxGens: defaultMaxGens,
		ttl:     ttl,
		now:     now,
	}
}

func (m *Memory) Get(_ context.Context, courseID uuid.UUID) (*Entry, Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gen := m.generation(courseID)
	me, ok := m.entries[courseID]
	if !ok {
		return nil, gen, nil
	}
	if !me.expires.IsZero() && !m.now.Now().Before(me.expires) {
		delete(m.entries, courseID)
		return nil, gen, nil
	}
	return me.entry, gen, nil
}

func (m *Memory) Put(_ context.Context, e *Entry, gen Generation) (bool, error) {
	if e == nil {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation(e.CourseID) != gen {
		return false, nil
	}
	me := memoryEntry{entry: e}
	if m.ttl > 0 {
		me.expires = m.now.Now().Add(m.ttl)
	}
	m.entries[e.CourseID] = me
	return true, nil
}

func (m *Memory) Invalidate(_ context.Context, courseID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, courseID)
	m.seq++
	if len(m.gens) >= m.maxGens {
		m.gens = map[uuid.UUID]Generation{}
		m.base = m.seq
		return nil
	}
	m.gens[courseID] = m.seq
	return nil
}

func (m *Memory) generation(courseID uuid.UUID) Generation {
	if gen, ok := m.gens[courseID]; ok {
		return gen
	}
	return m.base
}

// Len reports how many entries are held, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
