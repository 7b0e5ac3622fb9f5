// Package chat implements the client side of the streaming pipeline: a
// state machine that owns one conversation's transcript and in-flight
// streaming buffer, a deterministic fallback responder for failed requests,
// and a registry that switches independent conversations in and out of the
// single machine.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolio-chat/backend/internal/model"
)

// emptyResponseFallback is committed when a stream completes without
// producing any text.
const emptyResponseFallback = "I couldn't generate a proper response."

const defaultSettleDelay = 100 * time.Millisecond

// ChatOptions are the generation options forwarded with every request.
type ChatOptions struct {
	Model       string
	Temperature float64
}

// StreamClient issues one streaming completion request. Implementations
// call onDelta for every received text delta, in order, and return nil once
// the stream has ended cleanly. A context cancellation must surface as an
// error wrapping context.Canceled.
type StreamClient interface {
	Stream(ctx context.Context, messages []model.Message, opts ChatOptions, onDelta func(string)) error
}

// streamSession is one in-flight request. Its id doubles as the correlation
// id: it becomes the finalized assistant message's id, and late deltas from
// a superseded session are discarded by comparing identities.
type streamSession struct {
	id     string
	cancel context.CancelFunc
}

// Machine owns conversation state for the single active conversation:
// the committed message list, the live streaming buffer, and loading/error
// flags. All mutations go through the machine; the view layer renders it
// and dispatches intents.
//
// At most one session is live at a time. Starting a new one cancels any
// previous one before the new user message is appended.
type Machine struct {
	mu sync.Mutex

	client   StreamClient
	fallback *Responder
	opts     ChatOptions
	settle   time.Duration
	onChange func()

	messages []model.Message
	session  *streamSession
	liveID   string
	live     strings.Builder
	loading  bool
	err      error
}

func NewMachine(client StreamClient, opts ChatOptions) *Machine {
	return &Machine{
		client:   client,
		fallback: NewResponder(),
		opts:     opts,
		settle:   defaultSettleDelay,
	}
}

// SetSettleDelay overrides the pause between stream completion and commit.
func (m *Machine) SetSettleDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settle = d
}

// SetOnChange registers a hook invoked after every state transition, with
// no locks held. Only the most recent hook is kept; a machine managed by a
// Registry already has its hook claimed for persistence.
func (m *Machine) SetOnChange(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// SendMessage appends the user message and starts a new streaming session.
// Empty or whitespace-only input is a no-op.
func (m *Machine) SendMessage(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	m.mu.Lock()
	m.abortLocked()

	userMessage := model.Message{ID: uuid.NewString(), Role: model.RoleUser, Content: trimmed}
	m.messages = append(m.messages, userMessage)

	// The session id is allocated up front and threads through the whole
	// pipeline: it identifies the live buffer while streaming and becomes
	// the finalized assistant message's id.
	session := &streamSession{id: uuid.NewString()}
	ctx, cancel := context.WithCancel(context.Background())
	session.cancel = cancel

	m.session = session
	m.liveID = session.id
	m.live.Reset()
	m.loading = true
	m.err = nil

	history := make([]model.Message, len(m.messages))
	copy(history, m.messages)
	m.mu.Unlock()
	m.notify()

	go m.run(ctx, session, trimmed, history)
}

func (m *Machine) run(ctx context.Context, session *streamSession, userText string, history []model.Message) {
	err := m.client.Stream(ctx, history, m.opts, func(delta string) {
		m.applyDelta(session, delta)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			// Explicit abort: state was already cleared synchronously by
			// AbortStream. Nothing to commit, no error to surface.
			slog.Debug("Stream aborted", "session_id", session.id)
			return
		}
		m.failWithFallback(session, userText, err)
		return
	}
	m.complete(session)
}

// applyDelta appends a received delta to the live buffer. Deltas for a
// session that is no longer current are discarded.
func (m *Machine) applyDelta(session *streamSession, delta string) {
	m.mu.Lock()
	if m.session != session {
		m.mu.Unlock()
		return
	}
	m.live.WriteString(delta)
	m.mu.Unlock()
	m.notify()
}

// complete commits the accumulated text as a finalized assistant message
// after the settle delay. The delay avoids visible flicker when the view
// swaps the streaming bubble for the committed one.
func (m *Machine) complete(session *streamSession) {
	m.mu.Lock()
	if m.session != session {
		m.mu.Unlock()
		return
	}
	text := m.live.String()
	m.mu.Unlock()

	time.Sleep(m.settleDelay())

	m.mu.Lock()
	if m.session != session {
		m.mu.Unlock()
		return
	}
	if text == "" {
		text = emptyResponseFallback
	}
	m.messages = append(m.messages, model.Message{ID: session.id, Role: model.RoleAssistant, Content: text})
	m.clearStreamingLocked()
	m.mu.Unlock()
	m.notify()
}

// failWithFallback commits a deterministic local response in place of the
// failed request. The user never sees a raw network failure.
func (m *Machine) failWithFallback(session *streamSession, userText string, cause error) {
	slog.Warn("Completion request failed, using fallback responder", "session_id", session.id, "error", cause)

	m.mu.Lock()
	if m.session != session {
		m.mu.Unlock()
		return
	}
	m.messages = append(m.messages, model.Message{
		ID:      session.id,
		Role:    model.RoleAssistant,
		Content: m.fallback.Respond(userText),
	})
	m.clearStreamingLocked()
	m.mu.Unlock()
	m.notify()
}

// AbortStream cancels the in-flight request, if any, and clears streaming
// state. The committed message list is left exactly as it was; no error is
// recorded. Calling it with no active stream is a no-op.
func (m *Machine) AbortStream() {
	m.mu.Lock()
	m.abortLocked()
	m.mu.Unlock()
	m.notify()
}

// ResetChat aborts any in-flight stream and clears all state.
func (m *Machine) ResetChat() {
	m.mu.Lock()
	m.abortLocked()
	m.messages = nil
	m.err = nil
	m.mu.Unlock()
	m.notify()
}

// LoadConversation aborts any in-flight stream and replaces the message
// list wholesale.
func (m *Machine) LoadConversation(messages []model.Message) {
	m.mu.Lock()
	m.abortLocked()
	m.messages = make([]model.Message, len(messages))
	copy(m.messages, messages)
	m.err = nil
	m.mu.Unlock()
	m.notify()
}

// Messages returns a snapshot of the committed message list.
func (m *Machine) Messages() []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]model.Message, len(m.messages))
	copy(snapshot, m.messages)
	return snapshot
}

// StreamingContent returns the live buffer for the in-flight assistant
// message. The returned id equals the id the finalized message will carry;
// view layers must skip any committed message with this id to avoid a
// duplicate during the settle window.
func (m *Machine) StreamingContent() (id, content string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.liveID == "" {
		return "", "", false
	}
	return m.liveID, m.live.String(), true
}

// IsLoading reports whether a request is in flight.
func (m *Machine) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Err returns the last unexpected error, if any.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *Machine) abortLocked() {
	if m.session != nil {
		m.session.cancel()
		m.session = nil
	}
	m.clearStreamingLocked()
}

func (m *Machine) clearStreamingLocked() {
	m.session = nil
	m.liveID = ""
	m.live.Reset()
	m.loading = false
}

func (m *Machine) settleDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settle
}

func (m *Machine) notify() {
	m.mu.Lock()
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}
