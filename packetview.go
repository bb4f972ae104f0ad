package dcpclient

import "encoding/binary"

// PacketView is a zero-copy view over a raw DCP packet buffer (packet
// header + message header + data). It exposes the fields a hub needs
// to route a message — flags, source, destination — without paying
// for a full Message decode, and is the wire-compatible counterpart
// to the original dcphub tool's DcpPacket.
type PacketView struct {
	data []byte
}

// NewPacketView constructs a PacketView over data, validating it the
// same way SetData does.
func NewPacketView(data []byte) PacketView {
	var v PacketView
	v.SetData(data)
	return v
}

// SetData replaces the view's backing buffer. data is rejected (the
// view becomes empty) if its size falls outside [FullHeaderSize,
// MaxPacketSize] or if the packet header's declared message size is
// inconsistent with the buffer's actual length.
func (v *PacketView) SetData(data []byte) {
	size := len(data)
	if size < FullHeaderSize || size > MaxPacketSize {
		v.data = nil
		return
	}

	msgDataSize := binary.BigEndian.Uint32(data[packetMsgSizePos:])
	if int(msgDataSize)+FullHeaderSize != size {
		v.data = nil
		return
	}

	v.data = data
}

// Clear empties the view.
func (v *PacketView) Clear() {
	v.data = nil
}

// Data returns the view's backing buffer.
func (v PacketView) Data() []byte { return v.data }

// Size returns the total packet size in bytes, including both headers.
func (v PacketView) Size() int { return len(v.data) }

// IsValid reports whether the view holds a non-empty, validated packet.
func (v PacketView) IsValid() bool { return len(v.data) != 0 }

// Flags returns the message flags without a full decode.
func (v PacketView) Flags() uint16 {
	return binary.BigEndian.Uint16(v.data[PacketHeaderSize+messageFlagsPos:])
}

// Source returns the source device name field without a full decode.
func (v PacketView) Source() []byte {
	start := PacketHeaderSize + messageSourcePos
	return v.data[start : start+MessageDeviceNameSize]
}

// Destination returns the destination device name field without a
// full decode.
func (v PacketView) Destination() []byte {
	start := PacketHeaderSize + messageDestinationPos
	return v.data[start : start+MessageDeviceNameSize]
}

// Message fully decodes the view's message header and data.
func (v PacketView) Message() Message {
	return MessageFromBytes(v.data[PacketHeaderSize:])
}
