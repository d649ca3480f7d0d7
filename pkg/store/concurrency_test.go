package store

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	storeerrors "github.com/marmos91/guardfs/pkg/store/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentOpenDelete races opens against deletes on one name. A delete
// may only succeed while no handle is open, so every handle that was opened
// must still resolve to a live file until it is closed.
func TestConcurrentOpenDelete(t *testing.T) {
	s := newTestStore(t)

	const workers = 16
	const iterations = 200

	var wg sync.WaitGroup
	var busy, deleted atomic.Int64

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				if worker%2 == 0 {
					h, err := s.CreateOrOpen("/race")
					if err != nil {
						t.Errorf("open: %v", err)
						return
					}
					if _, err := s.Write(h, []byte("x")); err != nil {
						t.Errorf("write through live handle failed: %v", err)
					}
					if _, err := s.FStat(h); err != nil {
						t.Errorf("fstat through live handle failed: %v", err)
					}
					if err := s.Close(h); err != nil {
						t.Errorf("close: %v", err)
					}
					continue
				}

				err := s.Delete("/race")
				switch {
				case err == nil:
					deleted.Add(1)
				case storeerrors.IsBusyError(err):
					busy.Add(1)
				case storeerrors.IsNotFoundError(err):
				default:
					t.Errorf("unexpected delete error: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 0, s.OpenCount("/race"))
	assert.Equal(t, 0, s.Handles().Len())
	t.Logf("deletes: %d succeeded, %d busy", deleted.Load(), busy.Load())
}

func TestConcurrentWritesDifferentFiles(t *testing.T) {
	s := newTestStore(t)

	const files = 8
	const writes = 100

	var wg sync.WaitGroup
	for f := 0; f < files; f++ {
		wg.Add(1)
		go func(f int) {
			defer wg.Done()
			name := fmt.Sprintf("/file-%d", f)
			h, err := s.CreateOrOpen(name)
			if err != nil {
				t.Errorf("open %s: %v", name, err)
				return
			}
			for i := 0; i < writes; i++ {
				if _, err := s.Write(h, []byte{byte(f)}); err != nil {
					t.Errorf("write %s: %v", name, err)
				}
			}
			if err := s.Close(h); err != nil {
				t.Errorf("close %s: %v", name, err)
			}
		}(f)
	}
	wg.Wait()

	for _, info := range s.List() {
		assert.Equal(t, int64(writes), info.Size, info.Name)
	}
	assert.Equal(t, uint64(files*writes), s.Space().Used)
}

func TestConcurrentCapacity(t *testing.T) {
	s := New(Config{Capacity: 100}, nil)

	var wg sync.WaitGroup
	var written atomic.Int64

	for w := 0; w < 20; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			h, err := s.CreateOrOpen(fmt.Sprintf("/c-%d", w))
			if err != nil {
				t.Errorf("open: %v", err)
				return
			}
			defer func() { _ = s.Close(h) }()

			n, err := s.Write(h, make([]byte, 10))
			if err == nil {
				written.Add(int64(n))
			} else if !storeerrors.IsResourceExhaustedError(err) {
				t.Errorf("unexpected write error: %v", err)
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, int64(100), written.Load())
	assert.Equal(t, uint64(100), s.Space().Used)
}
