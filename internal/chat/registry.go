package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolio-chat/backend/internal/model"
	"portfolio-chat/backend/internal/repository"
)

const titleLimit = 20

// Registry maintains a collection of independent conversations and the
// pointer to the active one, switching transcripts in and out of the single
// streaming machine. With a repository attached, conversations are
// snapshotted to storage so a restarted process can reopen them.
type Registry struct {
	mu sync.Mutex

	machine *Machine
	repo    repository.Repository // may be nil

	conversations []*model.Conversation
	activeID      string
}

func NewRegistry(machine *Machine, repo repository.Repository) *Registry {
	r := &Registry{machine: machine, repo: repo}
	// A committed assistant reply must survive a restart without waiting
	// for the next user action, so snapshot whenever the machine settles.
	// Mid-stream transitions keep loading set and are skipped.
	machine.SetOnChange(func() {
		if !machine.IsLoading() {
			r.Sync(context.Background())
		}
	})
	return r
}

// Restore loads stored conversation metadata into the registry.
func (r *Registry) Restore(ctx context.Context) error {
	if r.repo == nil {
		return nil
	}
	convs, err := r.repo.ListConversations(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.conversations = convs
	r.mu.Unlock()
	return nil
}

// Send forwards the message to the machine. The first user message of a
// fresh session creates a new conversation record with the derived title.
func (r *Registry) Send(ctx context.Context, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	r.machine.SendMessage(trimmed)

	r.mu.Lock()
	if r.activeID == "" {
		now := time.Now()
		conv := &model.Conversation{
			ID:        uuid.NewString(),
			Title:     DeriveTitle(trimmed),
			CreatedAt: now,
			UpdatedAt: now,
		}
		r.conversations = append(r.conversations, conv)
		r.activeID = conv.ID
	}
	r.mu.Unlock()

	r.Sync(ctx)
}

// Sync snapshots the machine's transcript into the active conversation and
// persists it when a repository is attached.
func (r *Registry) Sync(ctx context.Context) {
	r.mu.Lock()
	conv := r.activeLocked()
	if conv == nil {
		r.mu.Unlock()
		return
	}
	conv.Messages = r.machine.Messages()
	conv.UpdatedAt = time.Now()
	snapshot := *conv
	r.mu.Unlock()

	if r.repo != nil {
		_ = r.repo.SaveConversation(ctx, &snapshot)
	}
}

// Open makes the given conversation active and loads its transcript into
// the machine, snapshotting the previous one first.
func (r *Registry) Open(ctx context.Context, id string) error {
	r.Sync(ctx)

	r.mu.Lock()
	var target *model.Conversation
	for _, conv := range r.conversations {
		if conv.ID == id {
			target = conv
			break
		}
	}
	r.mu.Unlock()

	if target == nil {
		return errors.New("conversation not found")
	}

	// Metadata restored from storage carries no transcript; fetch it.
	if len(target.Messages) == 0 && r.repo != nil {
		stored, err := r.repo.GetConversation(ctx, id)
		if err == nil {
			target.Messages = stored.Messages
		}
	}

	r.mu.Lock()
	r.activeID = id
	r.mu.Unlock()

	r.machine.LoadConversation(target.Messages)
	return nil
}

// NewChat resets the machine and clears the active pointer, returning to
// the empty landing state. The next Send starts a fresh conversation.
func (r *Registry) NewChat(ctx context.Context) {
	r.Sync(ctx)

	r.mu.Lock()
	r.activeID = ""
	r.mu.Unlock()

	r.machine.ResetChat()
}

// Conversations returns a snapshot of conversation metadata, in creation
// order.
func (r *Registry) Conversations() []model.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Conversation, len(r.conversations))
	for i, conv := range r.conversations {
		out[i] = model.Conversation{
			ID:        conv.ID,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt,
			UpdatedAt: conv.UpdatedAt,
		}
	}
	return out
}

// ActiveID returns the active conversation id, or "" in the landing state.
func (r *Registry) ActiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

func (r *Registry) activeLocked() *model.Conversation {
	for _, conv := range r.conversations {
		if conv.ID == r.activeID {
			return conv
		}
	}
	return nil
}

// DeriveTitle builds a conversation title from the first user message:
// the first 20 characters, ellipsized when truncated.
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleLimit {
		return content
	}
	return string(runes[:titleLimit]) + "..."
}
