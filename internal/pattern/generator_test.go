package pattern_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zynqcloud/go-target/internal/pattern"
)

// readAllChunked drains g using reads of exactly chunk bytes.
func readAllChunked(t *testing.T, g *pattern.Generator, chunk int) []byte {
	t.Helper()
	var out bytes.Buffer
	buf := make([]byte, chunk)
	for {
		n, err := g.Read(buf)
		out.Write(buf[:n])
		if err == io.EOF {
			return out.Bytes()
		}
		require.NoError(t, err)
	}
}

func TestReadYieldsOffsetModulo256(t *testing.T) {
	const limit = 1000
	got := readAllChunked(t, pattern.New(limit), 33)
	require.Len(t, got, limit)
	for k, b := range got {
		if b != byte(k%256) {
			t.Fatalf("byte at offset %d = %d, want %d", k, b, k%256)
		}
	}
}

func TestChunkBoundariesDoNotAffectContent(t *testing.T) {
	const limit = 200_000
	want := readAllChunked(t, pattern.New(limit), 65536)
	for _, chunk := range []int{1, 7} {
		got := readAllChunked(t, pattern.New(limit), chunk)
		assert.True(t, bytes.Equal(want, got), "chunk size %d produced different bytes", chunk)
	}
}

func TestScenarioReadSeekRead(t *testing.T) {
	g := pattern.New(10)
	buf := make([]byte, 4)

	n, err := g.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3}, buf[:n])
	assert.EqualValues(t, 4, g.Pos())

	pos, err := g.Seek(2, io.SeekCurrent)
	require.NoError(t, err)
	assert.EqualValues(t, 6, pos)

	n, err = g.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{6, 7, 8, 9}, buf[:n])

	n, err = g.Read(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadToEndIsNotAnError(t *testing.T) {
	g := pattern.New(5)
	got, err := io.ReadAll(g)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 4}, got)
	assert.EqualValues(t, 5, g.Pos())
}

func TestReadNeverExceedsLimit(t *testing.T) {
	g := pattern.New(3)
	buf := make([]byte, 16)
	n, err := g.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPatternWrapsAt256(t *testing.T) {
	g := pattern.New(600)
	_, err := g.Seek(255, io.SeekStart)
	require.NoError(t, err)
	buf := make([]byte, 3)
	_, err = g.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 0, 1}, buf)
}

func TestSeekBounds(t *testing.T) {
	const limit = 100
	tests := []struct {
		name    string
		offset  int64
		whence  int
		want    int64
		wantErr bool
	}{
		{"start zero", 0, io.SeekStart, 0, false},
		{"last byte", limit - 1, io.SeekStart, limit - 1, false},
		{"exactly limit", limit, io.SeekStart, 0, true},
		{"past limit", limit + 5, io.SeekStart, 0, true},
		{"end minus one", -1, io.SeekEnd, limit - 1, false},
		{"end", 0, io.SeekEnd, 0, true},
		{"end before start", -(limit + 1), io.SeekEnd, 0, true},
		{"negative start", -1, io.SeekStart, 0, true},
		{"bad whence", 0, 42, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := pattern.New(limit)
			got, err := g.Seek(tt.offset, tt.whence)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, pattern.ErrInvalidSeek)
				assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
				assert.EqualValues(t, 0, g.Pos(), "failed seek must not move the cursor")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.EqualValues(t, tt.want, g.Pos())
		})
	}
}

func TestSeekAfterExhaustion(t *testing.T) {
	g := pattern.New(8)
	_, err := io.Copy(io.Discard, g)
	require.NoError(t, err)

	// Reading left the cursor at limit; seeking there explicitly is refused.
	_, err = g.Seek(0, io.SeekCurrent)
	assert.ErrorIs(t, err, pattern.ErrInvalidSeek)

	pos, err := g.Seek(-2, io.SeekCurrent)
	require.NoError(t, err)
	assert.EqualValues(t, 6, pos)
}

func TestWriteTo(t *testing.T) {
	const limit = 3*64*1024 + 17
	g := pattern.New(limit)
	_, err := g.Seek(10, io.SeekStart)
	require.NoError(t, err)

	var out bytes.Buffer
	n, err := g.WriteTo(&out)
	require.NoError(t, err)
	assert.EqualValues(t, limit-10, n)
	assert.Equal(t, byte(10), out.Bytes()[0])
	assert.Equal(t, byte((limit-1)%256), out.Bytes()[out.Len()-1])
}

func TestZeroLimit(t *testing.T) {
	g := pattern.New(0)
	n, err := g.Read(make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = g.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, pattern.ErrInvalidSeek)
}
