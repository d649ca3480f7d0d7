package handle

import (
	"sync"
	"testing"

	storeerrors "github.com/marmos91/guardfs/pkg/store/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Registration Tests
// ============================================================================

func TestRegisterOpen_IncrementsOpenCount(t *testing.T) {
	table := NewTable(0)

	h1, err := table.RegisterOpen("/a", AccessRead|AccessWrite)
	require.NoError(t, err)
	h2, err := table.RegisterOpen("/a", AccessRead)
	require.NoError(t, err)

	assert.NotEqual(t, h1.ID, h2.ID)
	assert.Equal(t, 2, table.OpenCount("/a"))
	assert.Equal(t, 0, table.OpenCount("/b"))
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []ID{h1.ID, h2.ID}, table.Handles("/a"))
}

func TestRegisterOpen_IDsStartAboveZero(t *testing.T) {
	table := NewTable(0)

	h, err := table.RegisterOpen("/a", AccessRead)
	require.NoError(t, err)
	assert.NotZero(t, h.ID)
}

func TestRegisterOpen_Uniqueness(t *testing.T) {
	table := NewTable(0)

	seen := make(map[ID]bool)
	for i := 0; i < 1000; i++ {
		h, err := table.RegisterOpen("/a", AccessRead)
		require.NoError(t, err)
		if seen[h.ID] {
			t.Fatalf("duplicate handle id %d at iteration %d", h.ID, i)
		}
		seen[h.ID] = true

		// Releasing must not allow the id to be handed out again.
		_, err = table.Release(h.ID)
		require.NoError(t, err)
	}
}

func TestRegisterOpen_ConcurrentUniqueness(t *testing.T) {
	table := NewTable(0)

	const numGoroutines = 100
	var wg sync.WaitGroup
	results := make([]ID, numGoroutines)

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(idx int) {
			defer wg.Done()
			h, err := table.RegisterOpen("/shared", AccessWrite)
			if err != nil {
				t.Errorf("RegisterOpen: %v", err)
				return
			}
			results[idx] = h.ID
		}(i)
	}
	wg.Wait()

	seen := make(map[ID]bool)
	for _, id := range results {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Equal(t, numGoroutines, table.OpenCount("/shared"))
}

func TestRegisterOpen_HandleLimit(t *testing.T) {
	table := NewTable(2)

	_, err := table.RegisterOpen("/a", AccessRead)
	require.NoError(t, err)
	h, err := table.RegisterOpen("/b", AccessRead)
	require.NoError(t, err)

	_, err = table.RegisterOpen("/c", AccessRead)
	require.Error(t, err)
	assert.True(t, storeerrors.IsResourceExhaustedError(err))
	assert.Equal(t, 0, table.OpenCount("/c"))

	_, err = table.Release(h.ID)
	require.NoError(t, err)
	_, err = table.RegisterOpen("/c", AccessRead)
	assert.NoError(t, err)
}

// ============================================================================
// Release Tests
// ============================================================================

func TestRelease_ReturnsName(t *testing.T) {
	table := NewTable(0)

	h, err := table.RegisterOpen("/a", AccessRead)
	require.NoError(t, err)

	name, err := table.Release(h.ID)
	require.NoError(t, err)
	assert.Equal(t, "/a", name)
	assert.Equal(t, 0, table.OpenCount("/a"))
	assert.Empty(t, table.Handles("/a"))

	_, ok := table.Lookup(h.ID)
	assert.False(t, ok)
}

func TestRelease_DoubleRelease(t *testing.T) {
	table := NewTable(0)

	h1, err := table.RegisterOpen("/a", AccessRead)
	require.NoError(t, err)
	_, err = table.RegisterOpen("/a", AccessRead)
	require.NoError(t, err)

	_, err = table.Release(h1.ID)
	require.NoError(t, err)

	_, err = table.Release(h1.ID)
	require.Error(t, err)
	assert.True(t, storeerrors.IsInvalidHandleError(err))

	// The second release must not touch the other live handle.
	assert.Equal(t, 1, table.OpenCount("/a"))
}

func TestRelease_NeverIssued(t *testing.T) {
	table := NewTable(0)

	_, err := table.Release(42)
	require.Error(t, err)
	assert.Equal(t, storeerrors.StatusInvalidHandle, storeerrors.StatusOf(err))
}

// ============================================================================
// Handle Tests
// ============================================================================

func TestHandle_Offset(t *testing.T) {
	table := NewTable(0)

	h, err := table.RegisterOpen("/a", AccessRead|AccessWrite)
	require.NoError(t, err)
	assert.Equal(t, int64(0), h.Offset())

	h.SetOffset(128)
	got, ok := table.Get(h.ID)
	require.True(t, ok)
	assert.Equal(t, int64(128), got.Offset())
}

func TestAccess_String(t *testing.T) {
	tests := []struct {
		access Access
		want   string
	}{
		{0, "---"},
		{AccessRead, "r--"},
		{AccessRead | AccessWrite, "rw-"},
		{AccessWrite | AccessAppend, "-wa"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.access.String())
		})
	}
}
