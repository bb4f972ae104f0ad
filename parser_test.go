package dcpclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// MessageParser
// ============================================================================

func TestMessageParser_Parse(t *testing.T) {
	t.Run("AlwaysSucceeds", func(t *testing.T) {
		var p MessageParser
		msg := NewMessage(1, nil, nil, []byte(""), 0)
		assert.True(t, p.Parse(msg))
		assert.Empty(t, p.Arguments())
	})

	t.Run("CollapsesRepeatedSpaces", func(t *testing.T) {
		var p MessageParser
		msg := NewMessage(1, nil, nil, []byte("set  mode  local"), 0)
		p.Parse(msg)
		assert.Equal(t, []string{"set", "mode", "local"}, p.Arguments())
	})

	t.Run("ClearDiscardsResults", func(t *testing.T) {
		var p MessageParser
		p.Parse(NewMessage(1, nil, nil, []byte("a b"), 0))
		p.Clear()
		assert.Empty(t, p.Arguments())
	})

	t.Run("Deterministic", func(t *testing.T) {
		var p1, p2 MessageParser
		msg := NewMessage(1, nil, nil, []byte("a b c"), 0)
		p1.Parse(msg)
		p2.Parse(msg)
		assert.Equal(t, p1.Arguments(), p2.Arguments())
	})

	t.Run("NumHasJoinedArguments", func(t *testing.T) {
		var p MessageParser
		p.Parse(NewMessage(1, nil, nil, []byte("a b c"), 0))
		assert.Equal(t, 3, p.NumArguments())
		assert.True(t, p.HasArguments())
		assert.Equal(t, "a b c", p.JoinedArguments())

		p.Parse(NewMessage(1, nil, nil, []byte(""), 0))
		assert.Equal(t, 0, p.NumArguments())
		assert.False(t, p.HasArguments())
		assert.Equal(t, "", p.JoinedArguments())
	})
}

// ============================================================================
// ReplyParser
// ============================================================================

func TestReplyParser_Parse(t *testing.T) {
	t.Run("RejectsNonReply", func(t *testing.T) {
		var p ReplyParser
		msg := NewMessage(1, nil, nil, []byte("0 ACK"), 0)
		assert.False(t, p.Parse(msg))
	})

	t.Run("RejectsEmptyData", func(t *testing.T) {
		var p ReplyParser
		msg := NewMessage(1, nil, nil, nil, ReplyFlag)
		assert.False(t, p.Parse(msg))
	})

	t.Run("RejectsNonIntegerFirstToken", func(t *testing.T) {
		var p ReplyParser
		msg := NewMessage(1, nil, nil, []byte("notanumber ACK"), ReplyFlag)
		assert.False(t, p.Parse(msg))
	})

	t.Run("ParsesAckReply", func(t *testing.T) {
		var p ReplyParser
		msg := NewMessage(1, nil, nil, []byte("0 ACK"), ReplyFlag)
		assert.True(t, p.Parse(msg))
		assert.Equal(t, 0, p.ErrorCode())
		assert.True(t, p.IsAckReply())
	})

	t.Run("ParsesNegativeErrorCode", func(t *testing.T) {
		var p ReplyParser
		msg := NewMessage(1, nil, nil, []byte("-1 some data"), ReplyFlag)
		assert.True(t, p.Parse(msg))
		assert.Equal(t, -1, p.ErrorCode())
		assert.False(t, p.IsAckReply())
		assert.Equal(t, []string{"some", "data"}, p.Arguments())
	})

	t.Run("ClearResetsState", func(t *testing.T) {
		var p ReplyParser
		p.Parse(NewMessage(1, nil, nil, []byte("0 ACK"), ReplyFlag))
		p.Clear()
		assert.False(t, p.IsAckReply())
		assert.Equal(t, 0, p.ErrorCode())
		assert.Empty(t, p.Arguments())
	})
}

// ============================================================================
// CommandParser
// ============================================================================

func TestCommandParser_Parse(t *testing.T) {
	t.Run("RejectsReply", func(t *testing.T) {
		var p CommandParser
		msg := NewMessage(1, nil, nil, []byte("set mode local"), ReplyFlag)
		assert.False(t, p.Parse(msg))
	})

	t.Run("RejectsTooFewTokens", func(t *testing.T) {
		var p CommandParser
		msg := NewMessage(1, nil, nil, []byte("set"), 0)
		assert.False(t, p.Parse(msg))
	})

	t.Run("RejectsUnknownVerb", func(t *testing.T) {
		var p CommandParser
		msg := NewMessage(1, nil, nil, []byte("frobnicate mode local"), 0)
		assert.False(t, p.Parse(msg))
		assert.Empty(t, p.Command(), "a failed parse must not leave the rejected verb readable")
		assert.Empty(t, p.Identifier())
		assert.Empty(t, p.Arguments())
	})

	t.Run("ParsesSetWithDoubleSpaces", func(t *testing.T) {
		var p CommandParser
		msg := NewMessage(1, nil, nil, []byte("set  mode  local"), 0)
		assert.True(t, p.Parse(msg))
		assert.Equal(t, "set", p.Command())
		assert.Equal(t, CommandSet, p.CommandTypeValue())
		assert.Equal(t, "mode", p.Identifier())
		assert.Equal(t, []string{"local"}, p.Arguments())
	})

	t.Run("RecognizesAllVerbs", func(t *testing.T) {
		verbs := map[string]CommandType{
			"set":   CommandSet,
			"get":   CommandGet,
			"def":   CommandDef,
			"undef": CommandUndef,
		}
		for verb, want := range verbs {
			var p CommandParser
			msg := NewMessage(1, nil, nil, []byte(verb+" id"), 0)
			assert.True(t, p.Parse(msg))
			assert.Equal(t, want, p.CommandTypeValue())
		}
	})

	t.Run("GetWithNoFurtherArguments", func(t *testing.T) {
		var p CommandParser
		msg := NewMessage(1, nil, nil, []byte("get mode"), 0)
		assert.True(t, p.Parse(msg))
		assert.Empty(t, p.Arguments())
	})
}
