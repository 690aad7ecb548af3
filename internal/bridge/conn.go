// Package bridge speaks the line-delimited JSON protocol that connects the
// engine to the external chat session process. Inbound lines carry either a
// raw event or the result of a previously issued action; outbound lines
// carry actions. One Conn owns both directions: reads happen on the Run
// goroutine, writes are serialized by a mutex, and in-flight queries are
// matched to results by a monotonically increasing id.
package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/naufalh/wabot/internal/domain"
)

// maxLineBytes bounds a single protocol line. Media rides as URLs, so lines
// stay small; anything larger is a framing bug on the peer side.
const maxLineBytes = 1 << 20

// ErrClosed is returned for calls issued after the stream ended.
var ErrClosed = errors.New("bridge: connection closed")

// ActionError is a failure the peer reported for a specific action.
type ActionError struct {
	Action  string
	Message string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("bridge: %s: %s", e.Action, e.Message)
}

// inbound is one line from the peer.
type inbound struct {
	Type  string           `json:"type"` // "event" or "result"
	Event *domain.RawEvent `json:"event,omitempty"`
	ID    uint64           `json:"id,omitempty"`
	OK    bool             `json:"ok,omitempty"`
	Error string           `json:"error,omitempty"`
	Data  json.RawMessage  `json:"data,omitempty"`
}

// outbound is one action line to the peer. Wait controls whether the peer
// must answer with a result line.
type outbound struct {
	Type   string `json:"type"` // always "action"
	ID     uint64 `json:"id,omitempty"`
	Action string `json:"action"`
	Wait   bool   `json:"wait,omitempty"`
	Params any    `json:"params,omitempty"`
}

// result is the resolution of an in-flight query.
type result struct {
	data json.RawMessage
	err  error
}

// Handler consumes one inbound event. Handlers run in arrival order on a
// dispatch goroutine separate from the read loop, so a handler may issue
// calls back over the connection; a slow handler delays later events but
// never result delivery.
type Handler func(ctx context.Context, raw domain.RawEvent)

// eventQueue is an unbounded FIFO feeding the dispatch goroutine. It must
// never block the reader: a full channel here would stall result lines and
// wedge any handler waiting on a call.
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []domain.RawEvent
	closed bool
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *eventQueue) push(raw domain.RawEvent) {
	q.mu.Lock()
	q.items = append(q.items, raw)
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until an event is available or the queue is closed and drained.
func (q *eventQueue) pop() (domain.RawEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return domain.RawEvent{}, false
	}
	raw := q.items[0]
	q.items = q.items[1:]
	return raw, true
}

func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Conn is a duplex bridge connection. Safe for concurrent use on the write
// side; Run must be called exactly once.
type Conn struct {
	w   io.Writer
	r   io.Reader
	log zerolog.Logger

	wmu sync.Mutex

	nextID  atomic.Uint64
	mu      sync.Mutex
	pending map[uint64]chan result
	closed  bool
}

// NewConn wraps a reader/writer pair, typically stdin and stdout.
func NewConn(r io.Reader, w io.Writer, log zerolog.Logger) *Conn {
	return &Conn{
		r:       r,
		w:       w,
		log:     log.With().Str("component", "bridge").Logger(),
		pending: make(map[uint64]chan result),
	}
}

// Run drains the inbound stream until EOF or ctx cancellation. Result lines
// are resolved inline on the read goroutine; event lines are queued for the
// dispatch goroutine, which keeps the reader free to deliver results while a
// handler is mid-call. Run returns after every queued event has been
// handled, and on return every in-flight call has failed with ErrClosed.
func (c *Conn) Run(ctx context.Context, handle Handler) error {
	q := newEventQueue()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			raw, ok := q.pop()
			if !ok {
				return
			}
			handle(ctx, raw)
		}
	}()

	readErr := c.read(ctx, q)

	// Fail in-flight calls before waiting: a handler blocked on a call must
	// observe ErrClosed or the dispatcher would never drain.
	c.failPending()
	q.close()
	wg.Wait()
	return readErr
}

func (c *Conn) read(ctx context.Context, q *eventQueue) error {
	sc := bufio.NewScanner(c.r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var in inbound
		if err := json.Unmarshal(line, &in); err != nil {
			c.log.Warn().Err(err).Msg("undecodable line, skipping")
			continue
		}

		switch in.Type {
		case "event":
			if in.Event == nil {
				c.log.Warn().Msg("event line without payload")
				continue
			}
			q.push(*in.Event)
		case "result":
			c.resolve(in)
		default:
			c.log.Warn().Str("type", in.Type).Msg("unknown line type")
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("bridge read: %w", err)
	}
	return nil
}

// resolve routes a result line to its waiting caller, if still waiting.
func (c *Conn) resolve(in inbound) {
	c.mu.Lock()
	ch, ok := c.pending[in.ID]
	if ok {
		delete(c.pending, in.ID)
	}
	c.mu.Unlock()
	if !ok {
		c.log.Debug().Uint64("id", in.ID).Msg("result for unknown or abandoned call")
		return
	}
	if in.OK {
		ch <- result{data: in.Data}
	} else {
		ch <- result{err: errors.New(in.Error)}
	}
}

// failPending resolves every in-flight call with ErrClosed.
func (c *Conn) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, ch := range c.pending {
		delete(c.pending, id)
		ch <- result{err: ErrClosed}
	}
}

// writeLine marshals and writes one outbound line under the write lock.
func (c *Conn) writeLine(out outbound) error {
	buf, err := json.Marshal(out)
	if err != nil {
		return err
	}
	buf = append(buf, '\n')

	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err = c.w.Write(buf)
	return err
}

// notify sends a fire-and-forget action.
func (c *Conn) notify(action string, params any) error {
	return c.writeLine(outbound{Type: "action", Action: action, Params: params})
}

// call sends an action and blocks until the peer answers, the context ends,
// or the stream closes.
func (c *Conn) call(ctx context.Context, action string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	id := c.nextID.Add(1)
	ch := make(chan result, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.writeLine(outbound{Type: "action", ID: id, Action: action, Wait: true, Params: params}); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, err
	}

	select {
	case res := <-ch:
		if res.err != nil {
			if errors.Is(res.err, ErrClosed) {
				return nil, res.err
			}
			return nil, &ActionError{Action: action, Message: res.err.Error()}
		}
		return res.data, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, ctx.Err()
	}
}
