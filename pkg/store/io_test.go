package store

import (
	"io"
	"math"
	"testing"

	storeerrors "github.com/marmos91/guardfs/pkg/store/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_SequentialAppend(t *testing.T) {
	s := newTestStore(t)

	h, err := s.CreateOrOpen("/seq")
	require.NoError(t, err)

	for _, chunk := range []string{"one,", "two,", "three"} {
		n, err := s.Write(h, []byte(chunk))
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}

	_, err = s.Seek(h, 0, io.SeekStart)
	require.NoError(t, err)
	data, err := s.Read(h, 100)
	require.NoError(t, err)
	assert.Equal(t, "one,two,three", string(data))
}

func TestWrite_Overwrite(t *testing.T) {
	s := newTestStore(t)

	h, err := s.CreateOrOpen("/f")
	require.NoError(t, err)
	_, err = s.Write(h, []byte("hello world"))
	require.NoError(t, err)

	_, err = s.Seek(h, 6, io.SeekStart)
	require.NoError(t, err)
	_, err = s.Write(h, []byte("WORLD"))
	require.NoError(t, err)

	_, err = s.Seek(h, 0, io.SeekStart)
	require.NoError(t, err)
	data, err := s.Read(h, 100)
	require.NoError(t, err)
	assert.Equal(t, "hello WORLD", string(data))
	assert.Equal(t, uint64(11), s.Space().Used)
}

func TestWrite_PastEndZeroFills(t *testing.T) {
	s := newTestStore(t)

	h, err := s.CreateOrOpen("/gap")
	require.NoError(t, err)
	_, err = s.Write(h, []byte("ab"))
	require.NoError(t, err)

	pos, err := s.Seek(h, 3, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(5), pos)

	_, err = s.Write(h, []byte("z"))
	require.NoError(t, err)

	_, err = s.Seek(h, 0, io.SeekStart)
	require.NoError(t, err)
	data, err := s.Read(h, 10)
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 0, 0, 0, 'z'}, data)
}

func TestSeek_BoundedByMaxFileSize(t *testing.T) {
	s := New(Config{MaxFileSize: 64}, nil)

	h, err := s.CreateOrOpen("/sparse")
	require.NoError(t, err)
	_, err = s.Write(h, []byte("abc"))
	require.NoError(t, err)

	pos, err := s.Seek(h, 64, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(64), pos)

	tests := []struct {
		name   string
		offset int64
		whence int
	}{
		{"PastLimitFromStart", 65, io.SeekStart},
		{"MaxInt64FromStart", math.MaxInt64, io.SeekStart},
		{"MaxInt64FromCurrent", math.MaxInt64, io.SeekCurrent},
		{"MaxInt64FromEnd", math.MaxInt64, io.SeekEnd},
		{"MinInt64FromEnd", math.MinInt64, io.SeekEnd},
		{"NegativeFromStart", -1, io.SeekStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Seek(h, tt.offset, tt.whence)
			assert.True(t, storeerrors.IsInvalidArgumentError(err), "got %v", err)

			pos, err := s.Tell(h)
			require.NoError(t, err)
			assert.Equal(t, int64(64), pos, "failed seek must not move the handle")
		})
	}
}

func TestWrite_BeyondMaxFileSize(t *testing.T) {
	s := New(Config{MaxFileSize: 16}, nil)

	h, err := s.CreateOrOpen("/bounded")
	require.NoError(t, err)

	_, err = s.Seek(h, 10, io.SeekStart)
	require.NoError(t, err)
	_, err = s.Write(h, []byte("0123456789"))
	assert.True(t, storeerrors.IsResourceExhaustedError(err), "got %v", err)

	info, err := s.FStat(h)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size)
	assert.Equal(t, uint64(0), s.Space().Used)

	_, err = s.Write(h, []byte("012345"))
	require.NoError(t, err)
	assert.Equal(t, uint64(16), s.Space().Used)
}

func TestWrite_HugeOffsetDoesNotCharge(t *testing.T) {
	s := newTestStore(t)

	h, err := s.CreateOrOpen("/far")
	require.NoError(t, err)

	_, err = s.Seek(h, 1<<50, io.SeekStart)
	assert.True(t, storeerrors.IsInvalidArgumentError(err), "got %v", err)

	_, err = s.Seek(h, DefaultMaxFileSize, io.SeekStart)
	require.NoError(t, err)
	_, err = s.Write(h, []byte("x"))
	assert.True(t, storeerrors.IsResourceExhaustedError(err), "got %v", err)
	assert.Equal(t, uint64(0), s.Space().Used)
}

func TestRead_CountLargerThanFile(t *testing.T) {
	s := newTestStore(t)

	h, err := s.CreateOrOpen("/small")
	require.NoError(t, err)
	_, err = s.Write(h, []byte("hello"))
	require.NoError(t, err)

	_, err = s.Seek(h, 1, io.SeekStart)
	require.NoError(t, err)
	data, err := s.Read(h, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, "ello", string(data))

	eof, err := s.EOF(h)
	require.NoError(t, err)
	assert.True(t, eof)
}

func TestMaxFileSize_ClampedToCapacity(t *testing.T) {
	assert.Equal(t, uint64(DefaultMaxFileSize), New(Config{}, nil).Config().MaxFileSize)
	assert.Equal(t, uint64(8), New(Config{Capacity: 8}, nil).Config().MaxFileSize)
	assert.Equal(t, uint64(4), New(Config{Capacity: 8, MaxFileSize: 4}, nil).Config().MaxFileSize)
}

func TestWrite_AppendMode(t *testing.T) {
	s := newTestStore(t)

	h1, err := s.CreateOrOpen("/log")
	require.NoError(t, err)
	_, err = s.Write(h1, []byte("first"))
	require.NoError(t, err)

	h2, err := s.Open("/log", OpenWrite|OpenAppend)
	require.NoError(t, err)
	_, err = s.Seek(h2, 0, io.SeekStart)
	require.NoError(t, err)
	_, err = s.Write(h2, []byte("+second"))
	require.NoError(t, err)

	pos, err := s.Tell(h2)
	require.NoError(t, err)
	assert.Equal(t, int64(12), pos)

	_, err = s.Seek(h1, 0, io.SeekStart)
	require.NoError(t, err)
	data, err := s.Read(h1, 100)
	require.NoError(t, err)
	assert.Equal(t, "first+second", string(data))
}

func TestAccessModes(t *testing.T) {
	s := newTestStore(t)

	w, err := s.CreateOrOpen("/m")
	require.NoError(t, err)
	_, err = s.Write(w, []byte("data"))
	require.NoError(t, err)

	r, err := s.Open("/m", OpenRead)
	require.NoError(t, err)
	_, err = s.Write(r, []byte("nope"))
	assert.True(t, storeerrors.IsAccessDeniedError(err))
	assert.True(t, storeerrors.IsAccessDeniedError(s.Truncate(r, 0)))

	wo, err := s.Open("/m", OpenWrite)
	require.NoError(t, err)
	_, err = s.Read(wo, 1)
	assert.True(t, storeerrors.IsAccessDeniedError(err))
	assert.Equal(t, storeerrors.StatusAccessDenied, storeerrors.StatusOf(err))
}

func TestReadSeekTellEOF(t *testing.T) {
	s := newTestStore(t)

	h, err := s.CreateOrOpen("/r")
	require.NoError(t, err)
	_, err = s.Write(h, []byte("0123456789"))
	require.NoError(t, err)

	eof, err := s.EOF(h)
	require.NoError(t, err)
	assert.True(t, eof)

	pos, err := s.Seek(h, -4, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)

	data, err := s.Read(h, 2)
	require.NoError(t, err)
	assert.Equal(t, "67", string(data))

	pos, err = s.Tell(h)
	require.NoError(t, err)
	assert.Equal(t, int64(8), pos)

	eof, err = s.EOF(h)
	require.NoError(t, err)
	assert.False(t, eof)

	data, err = s.Read(h, 100)
	require.NoError(t, err)
	assert.Equal(t, "89", string(data))

	data, err = s.Read(h, 100)
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = s.Seek(h, -1, io.SeekStart)
	assert.True(t, storeerrors.IsInvalidArgumentError(err))

	_, err = s.Seek(h, 0, 42)
	assert.True(t, storeerrors.IsInvalidArgumentError(err))

	_, err = s.Read(h, -1)
	assert.True(t, storeerrors.IsInvalidArgumentError(err))
}

func TestTruncate(t *testing.T) {
	s := New(Config{Capacity: 20}, nil)

	h, err := s.CreateOrOpen("/t")
	require.NoError(t, err)
	_, err = s.Write(h, []byte("0123456789"))
	require.NoError(t, err)

	require.NoError(t, s.Truncate(h, 4))
	info, err := s.FStat(h)
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size)
	assert.Equal(t, uint64(4), s.Space().Used)

	// Position is left where it was.
	pos, err := s.Tell(h)
	require.NoError(t, err)
	assert.Equal(t, int64(10), pos)

	require.NoError(t, s.Truncate(h, 8))
	_, err = s.Seek(h, 0, io.SeekStart)
	require.NoError(t, err)
	data, err := s.Read(h, 100)
	require.NoError(t, err)
	assert.Equal(t, []byte{'0', '1', '2', '3', 0, 0, 0, 0}, data)

	assert.True(t, storeerrors.IsResourceExhaustedError(s.Truncate(h, 21)))
	assert.True(t, storeerrors.IsInvalidArgumentError(s.Truncate(h, -1)))
}

func TestClosedHandleOperations(t *testing.T) {
	s := newTestStore(t)

	h, err := s.CreateOrOpen("/c")
	require.NoError(t, err)
	require.NoError(t, s.Close(h))

	_, err = s.Read(h, 1)
	assert.True(t, storeerrors.IsInvalidHandleError(err))
	_, err = s.Seek(h, 0, io.SeekStart)
	assert.True(t, storeerrors.IsInvalidHandleError(err))
	_, err = s.Tell(h)
	assert.True(t, storeerrors.IsInvalidHandleError(err))
	_, err = s.EOF(h)
	assert.True(t, storeerrors.IsInvalidHandleError(err))
	_, err = s.FStat(h)
	assert.True(t, storeerrors.IsInvalidHandleError(err))
	assert.True(t, storeerrors.IsInvalidHandleError(s.Truncate(h, 0)))
	assert.True(t, storeerrors.IsInvalidHandleError(s.Flush(h)))
}

func TestFlush(t *testing.T) {
	s := newTestStore(t)

	h, err := s.CreateOrOpen("/f")
	require.NoError(t, err)
	assert.NoError(t, s.Flush(h))
}
