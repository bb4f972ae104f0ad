package dcpclient

import (
	"strconv"
	"strings"
)

// MessageParser splits a message's data into space-separated
// arguments, discarding empty tokens (so repeated spaces collapse).
// ReplyParser and CommandParser build on this to additionally
// validate and extract reply/command semantics.
type MessageParser struct {
	args []string
}

// Clear discards the results of the last Parse call.
func (p *MessageParser) Clear() {
	p.args = nil
}

// Parse splits msg's data on spaces, ignoring empty tokens. The
// generic parser always succeeds.
func (p *MessageParser) Parse(msg Message) bool {
	p.args = splitArgs(msg.Data())
	return true
}

// Arguments returns the arguments parsed by the last Parse call.
func (p *MessageParser) Arguments() []string {
	return p.args
}

// NumArguments returns the number of arguments parsed by the last
// Parse call.
func (p *MessageParser) NumArguments() int {
	return len(p.args)
}

// HasArguments reports whether the last Parse call produced any
// arguments.
func (p *MessageParser) HasArguments() bool {
	return len(p.args) > 0
}

// JoinedArguments returns the parsed arguments re-joined with a single
// space, the inverse of the splitting Parse performs.
func (p *MessageParser) JoinedArguments() string {
	return strings.Join(p.args, " ")
}

func splitArgs(data []byte) []string {
	fields := strings.Split(string(data), " ")
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ReplyParser parses a DCP reply message: a leading decimal error
// code followed by optional arguments, or exactly the single token
// "ACK" to signal an ACK reply.
type ReplyParser struct {
	MessageParser
	isAck     bool
	errorCode int
}

// Clear discards the results of the last Parse call.
func (p *ReplyParser) Clear() {
	p.MessageParser.Clear()
	p.isAck = false
	p.errorCode = 0
}

// Parse parses msg as a reply message. It fails (returning false) if
// msg is not a reply, has no arguments, or its first argument is not
// a valid decimal integer.
func (p *ReplyParser) Parse(msg Message) bool {
	p.Clear()

	if !msg.IsReply() {
		return false
	}
	if !p.MessageParser.Parse(msg) {
		return false
	}
	if len(p.args) == 0 {
		return false
	}

	code, err := strconv.Atoi(p.args[0])
	if err != nil {
		p.Clear()
		return false
	}
	p.errorCode = code
	p.args = p.args[1:]

	if len(p.args) == 1 && p.args[0] == "ACK" {
		p.isAck = true
	}

	return true
}

// IsAckReply reports whether the last parsed message was an ACK reply.
func (p *ReplyParser) IsAckReply() bool { return p.isAck }

// ErrorCode returns the error code of the last parsed message.
func (p *ReplyParser) ErrorCode() int { return p.errorCode }

// CommandType identifies the keyword of a parsed command message.
type CommandType int

const (
	CommandSet CommandType = iota
	CommandGet
	CommandDef
	CommandUndef
)

// CommandParser parses a DCP command message: a command keyword (set,
// get, def, undef), an identifier, and optional further arguments.
type CommandParser struct {
	MessageParser
	command     string
	identifier  string
	commandType CommandType
}

// Clear discards the results of the last Parse call.
func (p *CommandParser) Clear() {
	p.MessageParser.Clear()
	p.command = ""
	p.identifier = ""
	p.commandType = CommandSet
}

// Parse parses msg as a command message. It fails if msg is a reply,
// has fewer than two arguments, or its command keyword is not one of
// set/get/def/undef.
func (p *CommandParser) Parse(msg Message) bool {
	p.Clear()

	if msg.IsReply() {
		return false
	}
	if !p.MessageParser.Parse(msg) {
		return false
	}
	if len(p.args) < 2 {
		p.Clear()
		return false
	}

	switch p.args[0] {
	case "set":
		p.commandType = CommandSet
	case "get":
		p.commandType = CommandGet
	case "def":
		p.commandType = CommandDef
	case "undef":
		p.commandType = CommandUndef
	default:
		p.Clear()
		return false
	}

	p.command = p.args[0]
	p.identifier = p.args[1]
	p.args = p.args[2:]

	return true
}

// CommandTypeValue returns the command type of the last parsed message.
func (p *CommandParser) CommandTypeValue() CommandType { return p.commandType }

// Command returns the command keyword of the last parsed message.
func (p *CommandParser) Command() string { return p.command }

// Identifier returns the identifier of the last parsed message.
func (p *CommandParser) Identifier() string { return p.identifier }
