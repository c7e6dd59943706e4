package projection

import "time"

// Metadata captures persistence timestamps and the optimistic concurrency version.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
}

// Projection represents an aggregate view plus persistence metadata.
type Projection[T any] struct {
	Entity   T
	Metadata Metadata
}

// Initial returns the metadata of a freshly created entity.
func Initial(now time.Time) Metadata {
	return Metadata{CreatedAt: now, UpdatedAt: now, Version: 1}
}

// Next returns the metadata for a successful write at now. UpdatedAt never moves
// backwards even if the clock does.
func (m Metadata) Next(now time.Time) Metadata {
	updated := now
	if updated.Before(m.UpdatedAt) {
		updated = m.UpdatedAt
	}
	return Metadata{CreatedAt: m.CreatedAt, UpdatedAt: updated, Version: m.Version + 1}
}
