package broadcast

import (
	"sync"

	"github.com/google/uuid"
)

const defaultClientBuffer = 16

// Client is one open streaming session. The Hub enqueues serialized readings
// into its buffered queue; the transport drains Messages until Done fires.
type Client struct {
	id        string
	transport string
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a client with a queue of the given capacity.
func NewClient(transport string, buffer int) *Client {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	return &Client{
		id:        uuid.NewString(),
		transport: transport,
		send:      make(chan []byte, buffer),
		done:      make(chan struct{}),
	}
}

// ID returns the client identity.
func (c *Client) ID() string { return c.id }

// Transport names the streaming transport serving the client.
func (c *Client) Transport() string { return c.transport }

// Messages yields queued payloads in broadcast order.
func (c *Client) Messages() <-chan []byte { return c.send }

// Done is closed once the client is closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close marks the client closed. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}
