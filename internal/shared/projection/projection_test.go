package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetadataNext_IsMonotonic(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	meta := Initial(created)
	require.Equal(t, int64(1), meta.Version)

	later := meta.Next(created.Add(time.Minute))
	require.Equal(t, int64(2), later.Version)
	require.Equal(t, created, later.CreatedAt)
	require.Equal(t, created.Add(time.Minute), later.UpdatedAt)

	skewed := later.Next(created.Add(-time.Hour))
	require.Equal(t, int64(3), skewed.Version)
	require.Equal(t, later.UpdatedAt, skewed.UpdatedAt)
}
