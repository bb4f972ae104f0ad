package dcpclient

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/device-control-protocol/dcpclient-go/internal/bufpool"
)

// ErrMultiPacketUnsupported describes a frame with a non-zero packet
// offset, which would only occur for a multi-packet message. This
// implementation, like the original, does not support message
// fragmentation. readNext does not return this error: it reports such
// a frame with discarded=true and a nil error.
var ErrMultiPacketUnsupported = fmt.Errorf("dcpclient: multi-packet messages are not supported")

// ErrPacketTooLarge is returned when a packet's declared size would
// exceed MaxPacketSize. The original library left the receive side of
// this check unguarded; this implementation enforces the bound on
// both the send and the receive path.
var ErrPacketTooLarge = fmt.Errorf("dcpclient: packet exceeds MaxPacketSize")

var framePool = bufpool.NewPool(MaxPacketSize)

// framer turns a byte stream into a sequence of decoded messages and
// back. It owns no network I/O itself — Connection drives it with a
// bufio.Reader over the socket and writes encoded frames directly to
// the socket under its write mutex.
type framer struct {
	r *bufio.Reader
}

func newFramer(r io.Reader) *framer {
	// A bufio.Reader sized to FullHeaderSize+MaxPacketSize lets Peek
	// see a full oversized header without a short read, mirroring
	// QTcpSocket::peek's non-consuming lookahead.
	return &framer{r: bufio.NewReaderSize(r, FullHeaderSize+MaxPacketSize)}
}

// readNext reads and decodes the next complete frame from the stream.
// It blocks until a full frame is available or the underlying reader
// errors (including io.EOF on a closed connection).
//
// An over-size declared length is a protocol violation and returns
// ErrPacketTooLarge — the bound the original implementation's receive
// path left unguarded (see DESIGN.md, Open Question 2); the caller
// should close the connection on this error.
//
// A non-zero offset means a multi-packet message, which this
// implementation does not support. That frame is still consumed off
// the wire (so framing stays in sync) but discarded: readNext returns
// discarded=true with a null Message and a nil error, matching the
// original's "ignore and keep reading" behavior.
func (f *framer) readNext() (msg Message, discarded bool, err error) {
	header, err := f.r.Peek(PacketHeaderSize)
	if err != nil {
		return Message{}, false, err
	}

	msgSize := binary.BigEndian.Uint32(header[packetMsgSizePos:])
	offset := binary.BigEndian.Uint32(header[packetOffsetPos:])

	if int(msgSize) > MaxPacketSize-FullHeaderSize {
		return Message{}, false, ErrPacketTooLarge
	}

	frameSize := FullHeaderSize + int(msgSize)
	frame, err := f.r.Peek(frameSize)
	if err != nil {
		return Message{}, false, err
	}

	// Consume exactly what was peeked.
	if _, err := f.r.Discard(frameSize); err != nil {
		return Message{}, false, err
	}

	if offset != 0 {
		return Message{}, true, nil
	}

	return MessageFromBytes(frame[PacketHeaderSize:]), false, nil
}

// encodeFrame prepends the 8-byte packet header to msg's wire
// encoding. It returns ErrPacketTooLarge if msg is too large to fit
// in a single packet — the corrected form of the original library's
// size check (see DESIGN.md, Open Question 1): the comparison is
// `len(data)+FullHeaderSize > MaxPacketSize`, not its precedence-buggy
// original.
func encodeFrame(msg Message) ([]byte, error) {
	dataLen := len(msg.Data())
	if dataLen+FullHeaderSize > MaxPacketSize {
		return nil, ErrPacketTooLarge
	}

	body := msg.ToBytes()
	frame := framePool.Get(PacketHeaderSize + len(body))
	binary.BigEndian.PutUint32(frame[packetMsgSizePos:], uint32(dataLen))
	binary.BigEndian.PutUint32(frame[packetOffsetPos:], 0)
	copy(frame[PacketHeaderSize:], body)

	return frame, nil
}
