package services

import (
	"context"

	"bookline-inbox/internal/domain/message"
	"bookline-inbox/internal/domain/user"
	"bookline-inbox/internal/inbox"
	"bookline-inbox/internal/repository"
	"bookline-inbox/pkg/logger"
)

// AttachmentURLResolver mints short-lived read URLs for attachment
// object keys. Optional; previews degrade to no URL without it.
type AttachmentURLResolver interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

// Composer builds the ordered, visibility-masked thread preview list.
// All store access is bulk: one thread listing, one last-message query,
// one unread aggregate, one identity lookup.
type Composer struct {
	threads     repository.ThreadRepository
	messages    repository.MessageRepository
	users       repository.UserRepository
	attachments AttachmentURLResolver
	log         *logger.Logger
}

func NewComposer(threads repository.ThreadRepository, messages repository.MessageRepository, users repository.UserRepository, attachments AttachmentURLResolver, log *logger.Logger) *Composer {
	return &Composer{threads: threads, messages: messages, users: users, attachments: attachments, log: log}
}

// Compose returns up to limit previews for the viewer's inbox. The
// repository guarantees ordering and gating; this layer assembles the
// projections.
func (c *Composer) Compose(ctx context.Context, viewerID int64, role message.Role, limit int) ([]inbox.ThreadPreview, error) {
	threads, err := c.threads.ListForViewer(ctx, viewerID, role, limit)
	if err != nil {
		return nil, err
	}
	if len(threads) == 0 {
		return []inbox.ThreadPreview{}, nil
	}

	threadIDs := make([]int64, 0, len(threads))
	counterpartIDs := make([]int64, 0, len(threads))
	seen := make(map[int64]bool, len(threads))
	for _, t := range threads {
		threadIDs = append(threadIDs, t.ID)
		cp := t.Counterparty(viewerID)
		if !seen[cp] {
			seen[cp] = true
			counterpartIDs = append(counterpartIDs, cp)
		}
	}

	lastByThread, err := c.messages.LastVisibleByThread(ctx, threadIDs, role)
	if err != nil {
		return nil, err
	}
	unreadByThread, err := c.messages.UnreadByThread(ctx, viewerID, role, threadIDs)
	if err != nil {
		return nil, err
	}
	identities, err := c.users.GetIdentities(ctx, counterpartIDs)
	if err != nil {
		return nil, err
	}

	previews := make([]inbox.ThreadPreview, 0, len(threads))
	for _, t := range threads {
		p := inbox.ThreadPreview{
			ThreadID:     t.ID,
			Counterparty: identities[t.Counterparty(viewerID)],
			State:        t.Status.DisplayState(),
			UnreadCount:  unreadByThread[t.ID],
			Meta:         inbox.MetaFor(t),
			LastActivity: t.CreatedAt,
		}
		if p.Counterparty.ID == 0 {
			p.Counterparty = user.Identity{ID: t.Counterparty(viewerID)}
		}
		if t.BookingRequestID.Valid {
			id := t.BookingRequestID.Int64
			p.BookingRequestID = &id
		}
		if last, ok := lastByThread[t.ID]; ok {
			p.LastActivity = last.CreatedAt
			p.LastMessage = &inbox.LastMessage{
				ID:        last.ID,
				Type:      last.Type,
				Content:   last.Content,
				CreatedAt: last.CreatedAt,
			}
			if last.AttachmentKey.Valid && c.attachments != nil {
				url, err := c.attachments.PresignGet(ctx, last.AttachmentKey.String)
				if err != nil {
					if c.log != nil {
						c.log.Warnf("presign attachment for thread %d: %v", t.ID, err)
					}
				} else {
					p.LastMessage.AttachmentURL = url
				}
			}
			p.PreviewKey = inbox.PreviewKeyFor(&last)
			p.PreviewArgs = inbox.PreviewArgsFor(p.PreviewKey, t)
		}
		previews = append(previews, p)
	}
	return previews, nil
}
