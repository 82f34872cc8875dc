package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"leetscore/internal/logger"
	"leetscore/internal/models"
	"leetscore/internal/service"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum request size allowed from peer
	maxMessageSize = 256 * 1024

	sendBuffer = 64
)

// Message types sent to clients
const (
	TypeGroup = "group"
	TypeDone  = "done"
	TypeError = "error"
)

// Runner scores a username list and reports each finished group
type Runner interface {
	RunBatchWithProgress(usernames []string, onGroup func(service.GroupProgress)) (*models.BatchResult, error)
}

// GroupMessage carries the results of one finished group
type GroupMessage struct {
	Type   string              `json:"type"`
	Index  int                 `json:"index"`
	Offset int                 `json:"offset"`
	Scores []models.UserResult `json:"scores"`
}

// DoneMessage closes a batch
type DoneMessage struct {
	Type   string `json:"type"`
	Total  int    `json:"total"`
	Active int    `json:"active"`
}

// ErrorMessage reports a rejected or failed batch
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// OnFinish is called after each batch a client completes
type OnFinish func(result *models.BatchResult, took time.Duration)

// Stream serves /ws/scores. Each connection may submit any number of batches;
// they run one at a time in the order received.
type Stream struct {
	runner   Runner
	onFinish OnFinish

	mu      sync.RWMutex
	clients int
}

// NewStream creates a stream handler. onFinish may be nil.
func NewStream(runner Runner, onFinish OnFinish) *Stream {
	return &Stream{runner: runner, onFinish: onFinish}
}

// Client is one websocket connection
type Client struct {
	stream *Stream
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
}

// ClientCount returns the current number of connected clients
func (s *Stream) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients
}

// Serve handles one websocket connection until it closes
func (s *Stream) Serve(conn *websocket.Conn) {
	client := &Client{
		stream: s,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.clients++
	s.mu.Unlock()
	logger.Debug("Stream client connected (total: %d)", s.ClientCount())

	go client.writePump()
	client.readPump()

	s.mu.Lock()
	s.clients--
	s.mu.Unlock()
	logger.Debug("Stream client disconnected (total: %d)", s.ClientCount())
}

// readPump reads batch requests and runs them in turn
func (c *Client) readPump() {
	defer func() {
		close(c.send)
		<-c.done
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warning("WebSocket unexpected close: %v", err)
			}
			return
		}

		var req models.BatchRequest
		if err := json.Unmarshal(payload, &req); err != nil || req.Usernames == nil {
			if !c.push(ErrorMessage{Type: TypeError, Error: "Usernames must be provided as an array"}) {
				return
			}
			continue
		}

		if !c.run(req.Usernames) {
			return
		}
	}
}

// run streams one batch. It returns false once the writer has gone away.
func (c *Client) run(usernames []string) bool {
	alive := true
	start := time.Now()

	result, err := c.stream.runner.RunBatchWithProgress(usernames, func(p service.GroupProgress) {
		if alive {
			alive = c.push(GroupMessage{Type: TypeGroup, Index: p.Index, Offset: p.Offset, Scores: p.Scores})
		}
	})
	if !alive {
		return false
	}

	if err != nil {
		msg := "Error fetching user data"
		var inputErr *service.InputError
		if errors.As(err, &inputErr) {
			msg = inputErr.Reason
		} else {
			logger.Error("Stream batch failed: %v", err)
		}
		return c.push(ErrorMessage{Type: TypeError, Error: msg})
	}

	if c.stream.onFinish != nil {
		c.stream.onFinish(result, time.Since(start))
	}
	return c.push(DoneMessage{Type: TypeDone, Total: result.Total, Active: result.Active})
}

// push queues a message for the writer, blocking while its buffer is full
func (c *Client) push(v interface{}) bool {
	message, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to marshal stream message: %v", err)
		return true
	}

	select {
	case c.send <- message:
		return true
	case <-c.done:
		return false
	}
}

// writePump writes queued messages to the connection, one frame each
func (c *Client) writePump() {
	defer func() {
		close(c.done)
		c.conn.Close()
	}()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Debug("Stream write failed: %v", err)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
