package clock

import "time"

// Clock supplies timestamps for updated_at columns.
type Clock func() time.Time

// System returns UTC wall time truncated to microseconds, the resolution
// Postgres timestamptz stores.
func System() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Now returns c() or System when c is nil.
func (c Clock) Now() time.Time {
	if c == nil {
		return System()
	}
	return c().UTC()
}
