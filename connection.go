package dcpclient

import (
	"errors"
	"net"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/device-control-protocol/dcpclient-go/internal/dcplog"
)

// Handler receives notifications about a Connection's lifecycle. Most
// methods are called from goroutines owned by the Connection (the
// dial goroutine or the read loop); OnStateChanged(Closing) runs on
// the goroutine that calls DisconnectFromServer or Close, and OnError
// for a failed write runs on the goroutine that sent the message —
// implementations that touch shared state must synchronize themselves. Embed NoopHandler to
// implement only the callbacks a caller cares about.
type Handler interface {
	OnStateChanged(c *Connection, state State)
	OnConnected(c *Connection)
	OnDisconnected(c *Connection)
	OnMessageReceived(c *Connection)
	OnError(c *Connection, err *Error)
}

// NoopHandler implements Handler with no-op methods. Embed it in a
// struct that overrides only the callbacks it needs.
type NoopHandler struct{}

func (NoopHandler) OnStateChanged(*Connection, State) {}
func (NoopHandler) OnConnected(*Connection)           {}
func (NoopHandler) OnDisconnected(*Connection)        {}
func (NoopHandler) OnMessageReceived(*Connection)     {}
func (NoopHandler) OnError(*Connection, *Error)       {}

const defaultReconnectInterval = 30 * time.Second

// Connection is a client connection to a DCP hub. It owns at most one
// underlying TCP connection at a time, a FIFO of received-but-unread
// messages, and an optional auto-reconnect timer. The zero value is
// not usable; construct with NewConnection.
type Connection struct {
	id string

	mu                  sync.Mutex
	cond                *sync.Cond
	state               State
	lastErr             *Error
	conn                net.Conn
	fr                  *framer
	inQueue             []Message
	snr                 uint32
	deviceName          []byte
	serverAddr          string
	autoReconnect       bool
	reconnectInterval   time.Duration
	connectionRequested bool
	pendingWriteCount   int

	writeMu sync.Mutex

	handler     Handler
	metrics     *connMetrics
	wg          sync.WaitGroup
	closed      chan struct{}
	closeOnce   sync.Once
	reconnectCh chan struct{}
}

// NewConnection creates a Connection that reports lifecycle events to
// handler (which may be nil to receive no notifications).
func NewConnection(handler Handler) *Connection {
	c := &Connection{
		id:                uuid.NewString(),
		reconnectInterval: defaultReconnectInterval,
		handler:           handler,
		closed:            make(chan struct{}),
		reconnectCh:       make(chan struct{}, 1),
	}
	c.cond = sync.NewCond(&c.mu)
	go c.reconnectLoop()
	return c
}

// ID returns the uuid assigned to this Connection at construction,
// used to correlate log lines across goroutines.
func (c *Connection) ID() string { return c.id }

// ConnectToServer initiates a connection to host:port, registering as
// deviceName once connected. This method does not block; use
// WaitForConnected or the Handler's OnConnected callback to learn
// when the connection is established.
func (c *Connection) ConnectToServer(host string, port uint16, deviceName []byte) {
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))

	c.mu.Lock()
	c.connectionRequested = true
	c.serverAddr = addr
	c.deviceName = normalizeDeviceName(append([]byte(nil), deviceName...))
	c.mu.Unlock()

	c.wakeReconnectLoop()
	go c.dial(addr)
}

// DisconnectFromServer closes the connection, if any. Any
// auto-reconnect attempts are suppressed until ConnectToServer is
// called again.
func (c *Connection) DisconnectFromServer() {
	c.mu.Lock()
	c.connectionRequested = false
	conn := c.conn
	c.mu.Unlock()

	c.wakeReconnectLoop()
	if conn != nil {
		c.setState(Closing)
		_ = conn.Close()
	}
}

// Close releases the Connection's background goroutines. After Close,
// the Connection must not be used again.
func (c *Connection) Close() {
	c.DisconnectFromServer()
	c.closeOnce.Do(func() { close(c.closed) })
}

func (c *Connection) dial(addr string) {
	c.setState(HostLookup)
	c.setState(Connecting)

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		classified := classifyError(err)
		c.mu.Lock()
		c.lastErr = classified
		c.mu.Unlock()
		c.notifyError(classified)
		c.setState(Unconnected)
		return
	}

	c.mu.Lock()
	c.conn = conn
	c.fr = newFramer(conn)
	device := append([]byte(nil), c.deviceName...)
	c.mu.Unlock()

	dcplog.Info("dial succeeded", dcplog.ConnID(c.id), dcplog.ServerAddr(addr))

	c.registerName(device)
	c.setState(Connected)
	if c.handler != nil {
		c.handler.OnConnected(c)
	}

	c.wg.Add(1)
	go c.readLoop(conn)
}

// registerName sends the HELO registration message. Per the protocol,
// this must happen exactly once, immediately upon reaching the
// Connected state and before the Connected notification fires.
func (c *Connection) registerName(deviceName []byte) {
	c.mu.Lock()
	snr := c.snr
	c.incrementSnrLocked()
	c.mu.Unlock()

	msg := NewMessage(snr, deviceName, nil, []byte("HELO"), 0)
	c.writeMessage(msg)
}

func (c *Connection) incrementSnrLocked() {
	if c.snr == 0xFFFFFFFF {
		c.snr = 1
	} else {
		c.snr++
	}
}

// NextSnr returns the serial number that will be used by the next
// SendMessage call that does not specify one explicitly.
func (c *Connection) NextSnr() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snr
}

// SetNextSnr overrides the serial number used by the next
// auto-numbered SendMessage call.
func (c *Connection) SetNextSnr(snr uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snr = snr
}

// DeviceName returns the device name passed to ConnectToServer.
func (c *Connection) DeviceName() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.deviceName...)
}

// ServerAddr returns the host:port passed to ConnectToServer.
func (c *Connection) ServerAddr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverAddr
}

// SendMessage builds a message from destination/data/flags using the
// connection's auto-incremented serial number and this connection's
// device name as source, sends it, and returns the Message that was
// sent (even if nothing was actually written, e.g. because the
// message was invalid).
func (c *Connection) SendMessage(destination, data []byte, flags uint16) Message {
	c.mu.Lock()
	snr := c.snr
	c.incrementSnrLocked()
	device := append([]byte(nil), c.deviceName...)
	c.mu.Unlock()

	msg := NewMessage(snr, device, destination, data, flags)
	c.writeMessage(msg)
	return msg
}

// SendMessageFlags is SendMessage with separate dcp/user flag bytes.
func (c *Connection) SendMessageFlags(destination, data []byte, dcpFlags, userFlags uint8) Message {
	return c.SendMessage(destination, data, uint16(dcpFlags)|uint16(userFlags)<<8)
}

// SendMessageWithSnr sends a message with an explicit serial number,
// without affecting the connection's auto-incremented counter.
func (c *Connection) SendMessageWithSnr(snr uint32, destination, data []byte, flags uint16) Message {
	c.mu.Lock()
	device := append([]byte(nil), c.deviceName...)
	c.mu.Unlock()

	msg := NewMessage(snr, device, destination, data, flags)
	c.writeMessage(msg)
	return msg
}

// Send sends msg as-is. The caller is responsible for setting a
// correct source device name; it is not corrected to match this
// connection's registered name.
func (c *Connection) Send(msg Message) {
	c.writeMessage(msg)
}

// writeMessage encodes and writes msg to the socket. An invalid
// message or one that does not fit in a single packet is logged and
// silently dropped, matching the original library's behavior of
// never surfacing a send-time error to the caller.
func (c *Connection) writeMessage(msg Message) {
	if msg.IsNull() {
		dcplog.Warn("ignoring invalid message on send")
		c.metrics.recordDropped("null_message")
		return
	}

	frame, err := encodeFrame(msg)
	if err != nil {
		dcplog.Warn("skipping oversized message",
			dcplog.Err(err), "data_len", len(msg.Data()))
		c.metrics.recordDropped("oversized")
		return
	}
	defer framePool.Put(frame)

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		dcplog.Warn("dropping message, not connected")
		c.metrics.recordDropped("not_connected")
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	c.pendingWriteCount++
	c.mu.Unlock()

	_, err = conn.Write(frame)

	c.mu.Lock()
	c.pendingWriteCount--
	c.cond.Broadcast()
	c.mu.Unlock()

	if err != nil {
		classified := classifyError(err)
		c.mu.Lock()
		c.lastErr = classified
		c.mu.Unlock()
		c.notifyError(classified)
		return
	}

	c.metrics.recordSent(msg.Destination())
}

func (c *Connection) readLoop(conn net.Conn) {
	defer c.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			dcplog.Error("panic in read loop", "recover", r, "stack", string(debug.Stack()))
		}
	}()

	c.mu.Lock()
	fr := c.fr
	c.mu.Unlock()

	for {
		msg, discarded, err := fr.readNext()
		if err != nil {
			classified := classifyError(err)
			if errors.Is(err, ErrPacketTooLarge) {
				dcplog.Warn("closing connection: incoming packet exceeds MaxPacketSize", dcplog.ConnID(c.id))
				classified = &Error{Kind: NetworkError, Err: err}
			}
			c.mu.Lock()
			c.lastErr = classified
			c.mu.Unlock()
			if classified.Kind != RemoteHostClosedError {
				c.notifyError(classified)
			}
			break
		}

		if discarded {
			dcplog.Warn("ignoring incoming message: multi-packet messages are not supported")
			c.metrics.recordDropped("multi_packet")
			continue
		}

		c.metrics.recordReceived()

		c.mu.Lock()
		c.inQueue = append(c.inQueue, msg)
		c.cond.Broadcast()
		c.mu.Unlock()

		if c.handler != nil {
			c.handler.OnMessageReceived(c)
		}
	}

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.fr = nil
	}
	c.mu.Unlock()

	_ = conn.Close()
	c.setState(Unconnected)
	if c.handler != nil {
		c.handler.OnDisconnected(c)
	}
}

func (c *Connection) notifyError(err *Error) {
	if c.handler != nil {
		c.handler.OnError(c, err)
	}
}

// setState updates the connection state, arms or disarms the
// reconnect timer, and notifies the handler. Matches
// ClientPrivate::_k_socketStateChanged's ordering: the reconnect
// timer is re-evaluated before the state-changed notification fires.
func (c *Connection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.cond.Broadcast()
	c.mu.Unlock()

	c.metrics.recordState(s)
	c.wakeReconnectLoop()

	if c.handler != nil {
		c.handler.OnStateChanged(c, s)
	}
}

// State returns the connection's current state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the connection is in the Connected state.
func (c *Connection) IsConnected() bool {
	return c.State() == Connected
}

// IsUnconnected reports whether the connection is in the Unconnected state.
func (c *Connection) IsUnconnected() bool {
	return c.State() == Unconnected
}

// Err returns the last transport error, or nil if none occurred.
func (c *Connection) Err() *Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// MessagesAvailable returns the number of messages waiting to be read.
func (c *Connection) MessagesAvailable() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inQueue)
}

// ReadMessage returns and removes the next unread message from the
// input queue. If the queue is empty, a null Message is returned.
func (c *Connection) ReadMessage() Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.inQueue) == 0 {
		return Message{}
	}
	msg := c.inQueue[0]
	c.inQueue = c.inQueue[1:]
	return msg
}

// AutoReconnect reports whether the auto-reconnect feature is enabled.
func (c *Connection) AutoReconnect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoReconnect
}

// SetAutoReconnect enables or disables automatic reconnection after an
// unrequested disconnect. Disabled by default.
func (c *Connection) SetAutoReconnect(enable bool) {
	c.mu.Lock()
	c.autoReconnect = enable
	c.mu.Unlock()
	c.wakeReconnectLoop()
}

// ReconnectInterval returns the auto-reconnect interval.
func (c *Connection) ReconnectInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnectInterval
}

// SetReconnectInterval sets the auto-reconnect interval. Default 30s.
func (c *Connection) SetReconnectInterval(d time.Duration) {
	c.mu.Lock()
	c.reconnectInterval = d
	c.mu.Unlock()
}

func (c *Connection) shouldArmReconnectLocked() bool {
	return c.state == Unconnected && c.autoReconnect && c.connectionRequested
}

func (c *Connection) wakeReconnectLoop() {
	select {
	case c.reconnectCh <- struct{}{}:
	default:
	}
}

func (c *Connection) reconnectLoop() {
	for {
		c.mu.Lock()
		armed := c.shouldArmReconnectLocked()
		interval := c.reconnectInterval
		c.mu.Unlock()

		if !armed {
			select {
			case <-c.reconnectCh:
				continue
			case <-c.closed:
				return
			}
		}

		select {
		case <-time.After(interval):
			c.mu.Lock()
			fire := c.shouldArmReconnectLocked()
			addr := c.serverAddr
			c.mu.Unlock()
			if fire {
				go c.dial(addr)
			}
		case <-c.reconnectCh:
			continue
		case <-c.closed:
			return
		}
	}
}

// WaitForConnected blocks until the connection reaches the Connected
// state, up to msecs milliseconds. A msecs of -1 means no timeout.
// Returns false if the timeout elapses first.
func (c *Connection) WaitForConnected(msecs int) bool {
	return c.waitForState(msecs, Connected)
}

// WaitForDisconnected blocks until the connection reaches the
// Unconnected state, up to msecs milliseconds. A msecs of -1 means no
// timeout. Returns true immediately if already unconnected.
func (c *Connection) WaitForDisconnected(msecs int) bool {
	return c.waitForState(msecs, Unconnected)
}

func (c *Connection) waitForState(msecs int, target State) bool {
	deadline, hasDeadline := deadlineFromMsecs(msecs)

	c.mu.Lock()
	defer c.mu.Unlock()

	for c.state != target {
		if hasDeadline && !c.condWaitUntil(deadline) {
			return c.state == target
		}
		if !hasDeadline {
			c.cond.Wait()
		}
	}
	return true
}

// condWaitUntil waits on c.cond until deadline, returning false if the
// deadline was reached without a wake-up. Must be called with c.mu held.
func (c *Connection) condWaitUntil(deadline time.Time) bool {
	if time.Now().After(deadline) {
		return false
	}

	timer := time.AfterFunc(time.Until(deadline), func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer timer.Stop()

	c.cond.Wait()
	return !time.Now().After(deadline)
}

func deadlineFromMsecs(msecs int) (time.Time, bool) {
	if msecs == -1 {
		return time.Time{}, false
	}
	return time.Now().Add(time.Duration(msecs) * time.Millisecond), true
}

// WaitForReadyRead blocks until at least one message is available for
// reading, up to msecs milliseconds. A msecs of -1 means no timeout.
func (c *Connection) WaitForReadyRead(msecs int) bool {
	deadline, hasDeadline := deadlineFromMsecs(msecs)

	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.inQueue) == 0 {
		if hasDeadline {
			if !c.condWaitUntil(deadline) {
				return len(c.inQueue) != 0
			}
		} else {
			c.cond.Wait()
		}
	}
	return true
}

// WaitForMessagesWritten blocks until all pending writes have reached
// the operating system, up to msecs milliseconds. Because
// Connection.SendMessage writes synchronously, this rarely blocks at
// all; it exists for API parity with the original's asynchronous
// socket model.
func (c *Connection) WaitForMessagesWritten(msecs int) bool {
	deadline, hasDeadline := deadlineFromMsecs(msecs)

	c.mu.Lock()
	defer c.mu.Unlock()

	for c.pendingWriteCount != 0 {
		if hasDeadline {
			if !c.condWaitUntil(deadline) {
				return c.pendingWriteCount == 0
			}
		} else {
			c.cond.Wait()
		}
	}
	return true
}
