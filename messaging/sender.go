package messaging

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Sender pushes an envelope to a receiver identified by tab id.
type Sender interface {
	Send(ctx context.Context, tabID string, env Envelope) error
}

// Push sends env and swallows delivery failures after logging them. A
// receiver that is not ready is not an error for the caller.
func Push(ctx context.Context, s Sender, log *slog.Logger, tabID string, env Envelope) {
	if s == nil {
		return
	}
	if err := s.Send(ctx, tabID, env); err != nil {
		if log == nil {
			log = slog.Default()
		}
		level := slog.LevelWarn
		if errors.Is(err, ErrNotReady) {
			level = slog.LevelDebug
		}
		log.Log(ctx, level, "push failed", "type", env.Type, "tab", tabID, "err", err)
	}
}

// DefaultMailboxSize bounds the queue of each receiver.
const DefaultMailboxSize = 64

// Mailboxes is an in-memory Sender. Receivers open a mailbox and drain it;
// sends to unopened mailboxes fail with ErrNotReady. A full mailbox drops
// its oldest message.
type Mailboxes struct {
	mu    sync.Mutex
	size  int
	boxes map[string][]Envelope
}

func NewMailboxes(size int) *Mailboxes {
	if size <= 0 {
		size = DefaultMailboxSize
	}
	return &Mailboxes{size: size, boxes: make(map[string][]Envelope)}
}

// Open registers tabID as ready to receive.
func (m *Mailboxes) Open(tabID string) {
	m.mu.Lock()
	if _, ok := m.boxes[tabID]; !ok {
		m.boxes[tabID] = nil
	}
	m.mu.Unlock()
}

// Close drops the mailbox and its pending messages.
func (m *Mailboxes) Close(tabID string) {
	m.mu.Lock()
	delete(m.boxes, tabID)
	m.mu.Unlock()
}

func (m *Mailboxes) Send(ctx context.Context, tabID string, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	box, ok := m.boxes[tabID]
	if !ok {
		return ErrNotReady
	}
	if len(box) >= m.size {
		box = box[1:]
	}
	m.boxes[tabID] = append(box, env)
	return nil
}

// Drain returns and clears the pending messages of tabID.
func (m *Mailboxes) Drain(tabID string) ([]Envelope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	box, ok := m.boxes[tabID]
	if !ok {
		return nil, false
	}
	m.boxes[tabID] = nil
	if box == nil {
		box = []Envelope{}
	}
	return box, true
}
