// Package cache implements the day-scoped cache entry shared by every
// cached resource (attempt bundles, daily game bundles).
//
// An entry's lifetime is the time remaining until the next local midnight
// at write time, recomputed on every read. An entry written at 23:59
// expires almost immediately while one written at 00:01 lives for nearly a
// full day: cached daily content must never leak across a calendar-day
// boundary, because "the daily game" is defined by the local calendar day.
package cache

import "time"

// Source records where an entry's data came from.
type Source string

const (
	SourceAPI   Source = "api"
	SourceLocal Source = "local"
)

// DayFormat is the calendar-day key format used across all stores.
const DayFormat = "2006-01-02"

// Day returns the local calendar-day string for t.
func Day(t time.Time) string {
	return t.Local().Format(DayFormat)
}

// UntilMidnight returns the duration from t until the next local midnight.
func UntilMidnight(t time.Time) time.Duration {
	t = t.Local()
	next := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
	return next.Sub(t)
}

// Entry is one cached value with its freshness metadata.
type Entry[T any] struct {
	Data      *T
	FetchedAt time.Time
	CacheDay  string
	Source    Source
}

// Valid reports whether the entry may be trusted at the given time.
func (e *Entry[T]) Valid(now time.Time) bool {
	if e == nil || e.Data == nil {
		return false
	}
	if e.CacheDay != Day(now) {
		return false
	}
	return now.Sub(e.FetchedAt) < UntilMidnight(e.FetchedAt)
}

// Set stores data and stamps the entry with the current day.
func (e *Entry[T]) Set(data T, now time.Time, src Source) {
	e.Data = &data
	e.FetchedAt = now
	e.CacheDay = Day(now)
	e.Source = src
}

// Get returns the cached value if the entry is still valid. An invalid
// entry is evicted before reporting a miss, so stale data is never left
// behind for a later read.
func (e *Entry[T]) Get(now time.Time) (T, bool) {
	if e.Valid(now) {
		return *e.Data, true
	}
	e.Evict()
	var zero T
	return zero, false
}

// Evict resets the entry to its empty state.
func (e *Entry[T]) Evict() {
	e.Data = nil
	e.FetchedAt = time.Time{}
	e.CacheDay = ""
	e.Source = ""
}
