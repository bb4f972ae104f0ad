package dcpclient

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// Message flags. The low byte carries DCP-reserved flags; the high
// byte is free for application (user) flags.
const (
	PaceFlag   uint16 = 0x0001
	GrecoFlag  uint16 = 0x0002
	UrgentFlag uint16 = 0x0004
	ReplyFlag  uint16 = 0x0008
	AckFlags   uint16 = UrgentFlag | ReplyFlag
)

// AckErrorCode values used in ACK replies (see Message.AckMessage).
type AckErrorCode int

const (
	AckNoError             AckErrorCode = 0
	AckUnknownCommandError AckErrorCode = 2
	AckParameterError      AckErrorCode = 3
	AckWrongModeError      AckErrorCode = 5
)

// AckErrorString returns a human-readable description of an ack error
// code. Unrecognized codes map to "Unknown Error".
func AckErrorString(code int) string {
	switch AckErrorCode(code) {
	case AckNoError:
		return "No Error"
	case AckUnknownCommandError:
		return "Unknown Command"
	case AckParameterError:
		return "Parameter Error"
	case AckWrongModeError:
		return "Wrong Mode"
	default:
		return "Unknown Error"
	}
}

// Message is a DCP protocol message. The zero value is a null message
// (IsNull reports true); any setter or a successful MessageFromBytes clears the
// null flag. Message is a plain value type — copies are independent,
// there is no shared/implicit backing state to reason about.
type Message struct {
	nonNull     bool
	flags       uint16
	snr         uint32
	source      []byte
	destination []byte
	data        []byte
}

// NewMessage creates a Message with combined DCP+user flags. The
// source and destination are truncated to MessageDeviceNameSize and
// stripped of trailing NUL bytes.
func NewMessage(snr uint32, source, destination, data []byte, flags uint16) Message {
	return Message{
		nonNull:     true,
		flags:       flags,
		snr:         snr,
		source:      normalizeDeviceName(append([]byte(nil), source...)),
		destination: normalizeDeviceName(append([]byte(nil), destination...)),
		data:        append([]byte(nil), data...),
	}
}

// NewMessageFlags creates a Message from separate dcp/user flag bytes.
func NewMessageFlags(snr uint32, source, destination, data []byte, dcpFlags, userFlags uint8) Message {
	return NewMessage(snr, source, destination, data, uint16(dcpFlags)|uint16(userFlags)<<8)
}

// Clear resets m to the null message.
func (m *Message) Clear() {
	*m = Message{}
}

// IsNull reports whether m is a null message (the zero value, or after Clear).
func (m Message) IsNull() bool { return !m.nonNull }

// Flags returns the combined message flags.
func (m Message) Flags() uint16 { return m.flags }

// SetFlags sets the combined message flags.
func (m *Message) SetFlags(flags uint16) {
	m.nonNull = true
	m.flags = flags
}

// DcpFlags returns the low byte of Flags (the DCP-reserved flags).
func (m Message) DcpFlags() uint8 { return uint8(m.flags & 0x00ff) }

// SetDcpFlags sets the low byte of Flags, leaving user flags untouched.
func (m *Message) SetDcpFlags(flags uint8) {
	m.nonNull = true
	m.flags = (m.flags &^ 0x00ff) | uint16(flags)
}

// UserFlags returns the high byte of Flags.
func (m Message) UserFlags() uint8 { return uint8(m.flags >> 8) }

// SetUserFlags sets the high byte of Flags, leaving DCP flags untouched.
func (m *Message) SetUserFlags(flags uint8) {
	m.nonNull = true
	m.flags = (m.flags &^ 0xff00) | uint16(flags)<<8
}

// IsUrgent reports whether UrgentFlag is set.
func (m Message) IsUrgent() bool { return m.flags&UrgentFlag != 0 }

// IsReply reports whether ReplyFlag is set.
func (m Message) IsReply() bool { return m.flags&ReplyFlag != 0 }

// Snr returns the message's serial number.
func (m Message) Snr() uint32 { return m.snr }

// SetSnr sets the message's serial number.
func (m *Message) SetSnr(snr uint32) {
	m.nonNull = true
	m.snr = snr
}

// Source returns the source device name.
func (m Message) Source() []byte { return m.source }

// SetSource sets the source device name, truncated to MessageDeviceNameSize
// and stripped of trailing NUL bytes.
func (m *Message) SetSource(source []byte) {
	m.nonNull = true
	m.source = normalizeDeviceName(append([]byte(nil), source...))
}

// Destination returns the destination device name.
func (m Message) Destination() []byte { return m.destination }

// SetDestination sets the destination device name, truncated to
// MessageDeviceNameSize and stripped of trailing NUL bytes.
func (m *Message) SetDestination(destination []byte) {
	m.nonNull = true
	m.destination = normalizeDeviceName(append([]byte(nil), destination...))
}

// Data returns the message payload.
func (m Message) Data() []byte { return m.data }

// SetData sets the message payload.
func (m *Message) SetData(data []byte) {
	m.nonNull = true
	m.data = append([]byte(nil), data...)
}

// ToBytes encodes m as header-then-data, ready to be prefixed with a
// packet header by the framer.
func (m Message) ToBytes() []byte {
	buf := make([]byte, MessageHeaderSize+len(m.data))

	binary.BigEndian.PutUint16(buf[messageFlagsPos:], m.flags)
	binary.BigEndian.PutUint32(buf[messageSnrPos:], m.snr)
	copy(buf[messageSourcePos:messageSourcePos+MessageDeviceNameSize], m.source)
	copy(buf[messageDestinationPos:messageDestinationPos+MessageDeviceNameSize], m.destination)
	binary.BigEndian.PutUint32(buf[messageDataLenPos:], uint32(len(m.data)))
	copy(buf[MessageHeaderSize:], m.data)

	return buf
}

// MessageFromBytes decodes raw into a Message. If raw is too short or
// its declared data length is inconsistent with its actual size, a
// null Message is returned — matching Dcp::Message::fromByteArray,
// this never returns a Go error.
func MessageFromBytes(raw []byte) Message {
	if len(raw) < MessageHeaderSize {
		return Message{}
	}

	dataSize := binary.BigEndian.Uint32(raw[messageDataLenPos:])
	if len(raw) != MessageHeaderSize+int(dataSize) {
		return Message{}
	}

	flags := binary.BigEndian.Uint16(raw[messageFlagsPos:])
	snr := binary.BigEndian.Uint32(raw[messageSnrPos:])
	source := raw[messageSourcePos : messageSourcePos+MessageDeviceNameSize]
	destination := raw[messageDestinationPos : messageDestinationPos+MessageDeviceNameSize]
	data := raw[MessageHeaderSize:]

	return NewMessage(snr, source, destination, data, flags)
}

// AckMessage builds an ACK reply to m: source and destination are
// swapped, snr is unchanged, and ReplyFlag|UrgentFlag are set on top
// of m's existing flags. The data is "<errorCode> ACK".
func (m Message) AckMessage(errorCode int) Message {
	data := []byte(strconv.Itoa(errorCode) + " ACK")
	return NewMessage(m.snr, m.destination, m.source, data, m.flags|ReplyFlag|UrgentFlag)
}

// ReplyMessage builds a reply to m: source and destination are
// swapped, snr is unchanged, and ReplyFlag is set on top of m's
// existing flags. If data is empty, "FIN" is sent in its place.
func (m Message) ReplyMessage(data []byte, errorCode int) Message {
	payload := string(data)
	if payload == "" {
		payload = "FIN"
	}
	combined := []byte(strconv.Itoa(errorCode) + " " + payload)
	return NewMessage(m.snr, m.destination, m.source, combined, m.flags|ReplyFlag)
}

// String returns a human-readable one-line representation of m, in
// the same field order as the original library's debug output:
// flag letters, hex flags, snr, source -> destination, data length
// and data.
func (m Message) String() string {
	flagChar := func(set bool, c byte) byte {
		if set {
			return c
		}
		return '-'
	}

	flags := []byte{
		flagChar(m.flags&PaceFlag != 0, 'p'),
		flagChar(m.flags&GrecoFlag != 0, 'g'),
		flagChar(m.IsUrgent(), 'u'),
		flagChar(m.IsReply(), 'r'),
	}

	return fmt.Sprintf("%s [0x%04x] #%d %q -> %q [%d] %q",
		flags, m.flags, m.snr, m.source, m.destination, len(m.data), m.data)
}

// PercentEncodeSpaces returns a copy of input with every '%' replaced
// by "%25" and every ' ' replaced by "%20", so the result can safely
// be embedded in a space-delimited DCP payload.
func PercentEncodeSpaces(input []byte) []byte {
	out := make([]byte, 0, len(input))
	for _, b := range input {
		switch b {
		case '%':
			out = append(out, '%', '2', '5')
		case ' ':
			out = append(out, '%', '2', '0')
		default:
			out = append(out, b)
		}
	}
	return out
}
