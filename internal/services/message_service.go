package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bookline-inbox/internal/domain/message"
	"bookline-inbox/internal/domain/thread"
	"bookline-inbox/internal/repository"
	apperrors "bookline-inbox/pkg/errors"
	"bookline-inbox/pkg/logger"
)

// MessageService handles message writes: user messages, deduplicated
// system messages, read-marking and reactions.
type MessageService struct {
	threads  repository.ThreadRepository
	messages repository.MessageRepository
	notifier *Notifier
	log      *logger.Logger
}

func NewMessageService(threads repository.ThreadRepository, messages repository.MessageRepository, notifier *Notifier, log *logger.Logger) *MessageService {
	return &MessageService{threads: threads, messages: messages, notifier: notifier, log: log}
}

// AppendInput describes a user-authored message.
type AppendInput struct {
	ThreadID      int64
	Content       string
	AttachmentKey string
}

// Append writes a user message to a thread the viewer belongs to and
// fires notification dispatch without waiting for it.
func (s *MessageService) Append(ctx context.Context, viewer Viewer, role message.Role, in AppendInput) (message.Message, error) {
	if strings.TrimSpace(in.Content) == "" && in.AttachmentKey == "" {
		return message.Message{}, fmt.Errorf("message content is required: %w", apperrors.ErrInvalidInput)
	}

	t, err := s.threads.GetByID(ctx, in.ThreadID)
	if err != nil {
		return message.Message{}, err
	}
	if err := requireParty(t, viewer.ID, role); err != nil {
		return message.Message{}, err
	}

	m := message.Message{
		ThreadID:   t.ID,
		SenderID:   viewer.ID,
		SenderRole: role,
		Type:       message.TypeUser,
		Visibility: message.VisibilityBoth,
		Content:    in.Content,
	}
	if in.AttachmentKey != "" {
		m.AttachmentKey = sql.NullString{String: in.AttachmentKey, Valid: true}
	}
	if err := s.messages.Insert(ctx, &m); err != nil {
		return message.Message{}, err
	}

	s.dispatch(t, m)
	return m, nil
}

// SystemMessageInput describes an automated notice. ActorID/ActorRole
// identify the party whose action triggered the notice; the counterpart
// sees it as unread.
type SystemMessageInput struct {
	ThreadID       int64
	IdempotencyKey string
	Content        string
	Visibility     message.Visibility
	QuoteID        int64
	ActorID        int64
	ActorRole      message.Role
}

// PostSystemMessage inserts an automated notice at most once per
// (thread, idempotency key). A duplicate call returns the earliest row
// unchanged; it is not an error.
func (s *MessageService) PostSystemMessage(ctx context.Context, in SystemMessageInput) (message.Message, error) {
	if in.IdempotencyKey == "" {
		return message.Message{}, fmt.Errorf("idempotency key is required: %w", apperrors.ErrInvalidInput)
	}
	t, err := s.threads.GetByID(ctx, in.ThreadID)
	if err != nil {
		return message.Message{}, err
	}

	vis := in.Visibility
	if vis == "" {
		vis = message.VisibilityBoth
	}
	actorID, actorRole := in.ActorID, in.ActorRole
	if actorID == 0 {
		actorID, actorRole = t.ClientID, message.RoleClient
	}
	m := message.Message{
		ThreadID:       t.ID,
		SenderID:       actorID,
		SenderRole:     actorRole,
		Type:           message.TypeSystem,
		Visibility:     vis,
		Content:        in.Content,
		IdempotencyKey: sql.NullString{String: in.IdempotencyKey, Valid: true},
	}
	if in.QuoteID > 0 {
		m.QuoteID = sql.NullInt64{Int64: in.QuoteID, Valid: true}
		m.Type = message.TypeQuote
	}

	created, err := s.messages.CreateOrGetSystemMessage(ctx, &m)
	if err != nil {
		return message.Message{}, err
	}
	if created.ID == m.ID {
		s.dispatch(t, created)
	}
	return created, nil
}

// MarkThreadRead flips the read flag on every counterpart-authored
// message visible to the viewer. Repeated calls are no-ops.
func (s *MessageService) MarkThreadRead(ctx context.Context, viewer Viewer, role message.Role, threadID int64) error {
	t, err := s.threads.GetByID(ctx, threadID)
	if err != nil {
		return err
	}
	if err := requireParty(t, viewer.ID, role); err != nil {
		return err
	}
	flipped, err := s.messages.MarkThreadRead(ctx, viewer.ID, role, threadID)
	if err != nil {
		return err
	}
	if flipped > 0 {
		s.dispatchRead(t, viewer.ID)
	}
	return nil
}

// DeleteMessage tombstones a message the viewer authored. The row stays
// behind for audit; every read path filters tombstoned rows out.
func (s *MessageService) DeleteMessage(ctx context.Context, viewer Viewer, role message.Role, threadID, messageID int64) error {
	t, err := s.threads.GetByID(ctx, threadID)
	if err != nil {
		return err
	}
	if err := requireParty(t, viewer.ID, role); err != nil {
		return err
	}
	return s.messages.SoftDelete(ctx, messageID, t.ID, viewer.ID)
}

func (s *MessageService) AddReaction(ctx context.Context, viewer Viewer, role message.Role, messageID int64, emoji string) error {
	if strings.TrimSpace(emoji) == "" {
		return fmt.Errorf("emoji is required: %w", apperrors.ErrInvalidInput)
	}
	return s.messages.AddReaction(ctx, &message.Reaction{
		MessageID: messageID,
		UserID:    viewer.ID,
		Emoji:     emoji,
	})
}

func (s *MessageService) RemoveReaction(ctx context.Context, viewer Viewer, messageID int64, emoji string) error {
	return s.messages.RemoveReaction(ctx, messageID, viewer.ID, emoji)
}

// dispatch hands the write to the notifier on a detached context. The
// result is logged and discarded; notification failures never reach the
// request path. The recipient's unread total rides along for push badge
// counts; when it cannot be computed the event still goes out with zero.
func (s *MessageService) dispatch(t thread.Thread, m message.Message) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx := context.Background()
		total, err := s.messages.TotalUnread(ctx, t.Counterparty(m.SenderID), m.SenderRole.Counterpart())
		if err != nil {
			total = 0
			if s.log != nil {
				s.log.Warnf("unread total for message %d notification: %v", m.ID, err)
			}
		}
		if err := s.notifier.MessageCreated(ctx, t, m, total); err != nil && s.log != nil {
			s.log.Warnf("notification dispatch for message %d: %v", m.ID, err)
		}
	}()
}

func (s *MessageService) dispatchRead(t thread.Thread, viewerID int64) {
	if s.notifier == nil {
		return
	}
	go func() {
		if err := s.notifier.ThreadRead(context.Background(), t, viewerID); err != nil && s.log != nil {
			s.log.Warnf("notification dispatch for thread %d read: %v", t.ID, err)
		}
	}()
}

func requireParty(t thread.Thread, viewerID int64, role message.Role) error {
	if !t.HasParty(viewerID) {
		return fmt.Errorf("viewer is not a thread party: %w", apperrors.ErrForbidden)
	}
	if role == message.RoleClient && t.ClientID != viewerID {
		return fmt.Errorf("viewer is not the thread client: %w", apperrors.ErrForbidden)
	}
	if role == message.RoleProvider && t.ProviderID != viewerID {
		return fmt.Errorf("viewer is not the thread provider: %w", apperrors.ErrForbidden)
	}
	return nil
}
