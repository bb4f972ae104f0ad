package dcpclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// stripTrailingNUL
// ============================================================================

func TestStripTrailingNUL(t *testing.T) {
	t.Run("NoTrailingNUL", func(t *testing.T) {
		assert.Equal(t, []byte("abc"), stripTrailingNUL([]byte("abc"), 0))
	})

	t.Run("TrailingNULs", func(t *testing.T) {
		in := append([]byte("abc"), 0, 0, 0)
		assert.Equal(t, []byte("abc"), stripTrailingNUL(in, 0))
	})

	t.Run("AllNULs", func(t *testing.T) {
		in := make([]byte, 5)
		assert.Empty(t, stripTrailingNUL(in, 0))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, stripTrailingNUL(nil, 0))
	})

	t.Run("InteriorNULNotStripped", func(t *testing.T) {
		in := []byte{'a', 0, 'b'}
		assert.Equal(t, in, stripTrailingNUL(in, 0))
	})
}

// ============================================================================
// normalizeDeviceName
// ============================================================================

func TestNormalizeDeviceName(t *testing.T) {
	t.Run("TruncatesTo16Bytes", func(t *testing.T) {
		in := []byte("0123456789abcdefGHIJ")
		got := normalizeDeviceName(in)
		assert.Len(t, got, MessageDeviceNameSize)
		assert.Equal(t, []byte("0123456789abcdef"), got)
	})

	t.Run("StripsTrailingNULAfterTruncation", func(t *testing.T) {
		in := append([]byte("cli"), make([]byte, 13)...)
		assert.Equal(t, []byte("cli"), normalizeDeviceName(in))
	})

	t.Run("Idempotent", func(t *testing.T) {
		in := append([]byte("device"), 0, 0)
		once := normalizeDeviceName(in)
		twice := normalizeDeviceName(once)
		assert.Equal(t, once, twice)
	})
}
