// Package syncclient keeps a participant's contact list and open thread in
// sync with the server by polling.
package syncclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"market-chat/internal/apperr"
	"market-chat/internal/chat"
	"market-chat/internal/models"
)

const DefaultInterval = time.Second

// Source reads the caller's conversations.
type Source interface {
	Conversations(ctx context.Context) ([]models.ConversationThread, error)
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, req models.SendRequest) (models.Message, error)
}

type Option func(*Client)

func WithInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.interval = d
		}
	}
}

// OnChange registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that caused the change, outside the client lock.
func OnChange(fn func(Snapshot)) Option {
	return func(c *Client) { c.onChange = fn }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// Client is the poll loop plus the view state it reconciles.
type Client struct {
	userID   int64
	source   Source
	sender   Sender
	interval time.Duration
	onChange func(Snapshot)
	now      func() time.Time
	log      zerolog.Logger

	life    context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	state   State
	threads []models.ConversationThread
	// contacts and thread are derived from threads on every apply.
	contacts []models.Contact
	thread   models.Thread
	view     ViewState
	lastErr  error
	syncedAt time.Time
	issued   uint64
	applied  uint64
	running  bool
	closed   bool
}

// New builds a client for userID. Nothing is fetched until Run or Poll.
func New(userID int64, source Source, sender Sender, opts ...Option) *Client {
	life, cancel := context.WithCancel(context.Background())
	c := &Client{
		userID:   userID,
		source:   source,
		sender:   sender,
		interval: DefaultInterval,
		now:      time.Now,
		log:      zerolog.Nop(),
		life:     life,
		cancel:   cancel,
		contacts: []models.Contact{},
		thread:   models.Thread{Messages: []models.Message{}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run polls immediately and then on every interval until ctx is done or
// Close is called. It returns apperr.ErrUnauthenticated when the session is
// no longer valid; other poll failures are kept in the snapshot and retried
// on the next tick.
func (c *Client) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.running {
		c.mu.Unlock()
		return ErrRunning
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.life, cancel)
	defer stop()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		err := c.Poll(ctx)
		if errors.Is(err, apperr.ErrUnauthenticated) {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll performs one read and applies it unless the client was closed, ctx
// was cancelled, or a newer poll has already been applied meanwhile. A
// result that arrives after ctx is done changes nothing and is not reported.
func (c *Client) Poll(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.issued++
	seq := c.issued
	prev := c.state
	c.state = Loading
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.life, cancel)
	defer stop()

	threads, err := c.source.Conversations(pollCtx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if seq == c.issued && c.state == Loading {
			c.state = prev
		}
		c.mu.Unlock()
		c.log.Debug().Uint64("seq", seq).Msg("discarding poll after cancellation")
		return ctxErr
	}
	if seq < c.applied {
		c.mu.Unlock()
		c.log.Debug().Uint64("seq", seq).Msg("discarding superseded poll")
		return nil
	}
	c.applied = seq
	if err != nil {
		c.state = Error
		c.lastErr = err
	} else {
		c.state = Synced
		c.lastErr = nil
		c.syncedAt = c.now()
		c.threads = threads
		c.deriveLocked()
	}
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	switch {
	case err == nil:
	case apperr.IsTransient(err):
		c.log.Warn().Err(err).Msg("poll failed, keeping last synced view")
	default:
		c.log.Error().Err(err).Msg("poll rejected")
	}
	return err
}

// Select opens the thread with peerID.
func (c *Client) Select(peerID int64) {
	c.mu.Lock()
	if c.view.SelectedPeer != peerID {
		c.view.SelectedPeer = peerID
		c.view.Draft = ""
		c.view.DraftImage = ""
	}
	c.thread = chat.ThreadWith(c.userID, peerID, c.threads)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// SetDraft replaces the composer content.
func (c *Client) SetDraft(text, image string) {
	c.mu.Lock()
	c.view.Draft = text
	c.view.DraftImage = image
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// Send delivers the draft to the selected peer. The composer is cleared
// before the request is made; if the send fails and the composer is still
// untouched the draft is put back. The sent message is not inserted into
// the thread, the next poll brings it in.
func (c *Client) Send(ctx context.Context) (models.Message, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return models.Message{}, ErrClosed
	}
	view := c.view
	if view.SelectedPeer == 0 {
		c.mu.Unlock()
		return models.Message{}, ErrNoPeer
	}
	if view.Draft == "" && view.DraftImage == "" {
		c.mu.Unlock()
		return models.Message{}, ErrEmptyDraft
	}
	c.view.Draft = ""
	c.view.DraftImage = ""
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	req := models.SendRequest{ReceiverID: view.SelectedPeer}
	if view.Draft != "" {
		text := view.Draft
		req.Text = &text
	}
	if view.DraftImage != "" {
		image := view.DraftImage
		req.Image = &image
	}

	msg, err := c.sender.Send(ctx, req)
	if err == nil {
		return msg, nil
	}

	c.mu.Lock()
	if !c.closed && c.view.SelectedPeer == view.SelectedPeer && c.view.Draft == "" && c.view.DraftImage == "" {
		c.view.Draft = view.Draft
		c.view.DraftImage = view.DraftImage
	}
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return models.Message{}, err
}

// Close stops the poll loop and cancels any request in flight. Results that
// arrive afterwards are dropped. Close is idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.state = Closed
	c.cancel()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// Snapshot returns the current state.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Client) deriveLocked() {
	c.contacts = chat.BuildContacts(c.userID, c.threads, c.now())
	if c.view.SelectedPeer != 0 {
		c.thread = chat.ThreadWith(c.userID, c.view.SelectedPeer, c.threads)
	}
}

func (c *Client) snapshotLocked() Snapshot {
	contacts := make([]models.Contact, len(c.contacts))
	copy(contacts, c.contacts)
	thread := c.thread
	thread.Messages = make([]models.Message, len(c.thread.Messages))
	copy(thread.Messages, c.thread.Messages)
	return Snapshot{
		State:    c.state,
		Contacts: contacts,
		Thread:   thread,
		View:     c.view,
		Err:      c.lastErr,
		SyncedAt: c.syncedAt,
	}
}

func (c *Client) notify(snap Snapshot) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}
