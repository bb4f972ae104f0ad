//go:build integration

package dcpclient

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ============================================================================
// Containerized echo hub fixture
// ============================================================================
//
// A real DCP hub enforces device-name uniqueness and routes messages
// between registered clients, but exercising Connection end to end only
// requires a real containerized TCP socket that reflects bytes back
// exactly as written: every frame this Connection sends is handed
// straight back by the container, so it has to round-trip through the
// library's own send-then-receive framing to be observed here at all.
// This is the same fixture shape as the teacher's Localstack/Postgres
// helpers in test/e2e/framework/containers.go, with socat's raw TCP
// echo standing in for the teacher's database/object-store containers.

const echoContainerPort = "9000/tcp"

// startEchoHub starts a socat TCP echo server in a container and
// returns its externally reachable host/port.
func startEchoHub(t *testing.T) (host string, port int) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "alpine/socat:latest",
		ExposedPorts: []string{echoContainerPort},
		Cmd:          []string{"-d", "-d", "TCP-LISTEN:9000,fork,reuseaddr", "EXEC:/bin/cat"},
		WaitingFor:   wait.ForListeningPort(echoContainerPort).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	h, err := container.Host(ctx)
	require.NoError(t, err)

	mapped, err := container.MappedPort(ctx, echoContainerPort)
	require.NoError(t, err)

	return h, mapped.Int()
}

// drainRegistration waits for and discards the echoed-back HELO
// registration message, so later assertions in a test only see the
// messages the test itself sent.
func drainRegistration(t *testing.T, c *Connection) {
	t.Helper()
	require.True(t, c.WaitForReadyRead(15000))
	helo := c.ReadMessage()
	require.False(t, helo.IsNull())
	require.Equal(t, "HELO", string(helo.Data()))
}

// ============================================================================
// Registration handshake
// ============================================================================

func TestConnection_Integration_RegistrationRoundTripsThroughContainer(t *testing.T) {
	host, port := startEchoHub(t)

	h := newRecordingHandler()
	c := NewConnection(h)
	defer c.Close()

	c.ConnectToServer(host, uint16(port), []byte("integration-client"))
	require.True(t, c.WaitForConnected(15000))

	require.True(t, c.WaitForReadyRead(15000))
	echoed := c.ReadMessage()
	require.False(t, echoed.IsNull())

	assert.Equal(t, "HELO", string(echoed.Data()))
	assert.Equal(t, []byte("integration-clie"), echoed.Source()) // truncated to MessageDeviceNameSize
	assert.Empty(t, echoed.Destination())
	assert.Equal(t, uint16(0), echoed.Flags())

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, 1, h.connected)
	assert.Contains(t, h.states, Connected)
}

// ============================================================================
// Order preservation
// ============================================================================

func TestConnection_Integration_OrderPreservationThroughContainer(t *testing.T) {
	host, port := startEchoHub(t)

	h := newRecordingHandler()
	c := NewConnection(h)
	defer c.Close()

	c.ConnectToServer(host, uint16(port), []byte("order-client"))
	require.True(t, c.WaitForConnected(15000))
	drainRegistration(t, c)

	const n = 20
	for i := 0; i < n; i++ {
		c.SendMessage([]byte("hub"), []byte(fmt.Sprintf("set counter %d", i)), 0)
	}

	for i := 0; i < n; i++ {
		select {
		case <-h.onMessage:
		case <-time.After(15 * time.Second):
			t.Fatalf("timed out waiting for echoed message %d", i)
		}
	}

	require.Equal(t, n, c.MessagesAvailable())
	for i := 0; i < n; i++ {
		msg := c.ReadMessage()
		require.False(t, msg.IsNull())
		assert.Equal(t, fmt.Sprintf("set counter %d", i), string(msg.Data()))
	}
}

// ============================================================================
// Incremental framing under real TCP fragmentation
// ============================================================================

func TestConnection_Integration_LargePayloadFramesCorrectly(t *testing.T) {
	host, port := startEchoHub(t)

	c := NewConnection(nil)
	defer c.Close()

	c.ConnectToServer(host, uint16(port), []byte("large-client"))
	require.True(t, c.WaitForConnected(15000))
	drainRegistration(t, c)

	// Large enough that the container's TCP stack will almost certainly
	// split it across more than one read, exercising the framer's
	// Peek-then-Discard loop against partial reads on a real socket
	// rather than the in-process net.Pipe used by the unit tests.
	payload := bytes.Repeat([]byte("x"), 40000)
	c.SendMessage([]byte("hub"), payload, 0)

	require.True(t, c.WaitForReadyRead(15000))
	msg := c.ReadMessage()
	require.False(t, msg.IsNull())
	assert.Equal(t, payload, msg.Data())
}
