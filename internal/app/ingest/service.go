// Package ingest implements the mail ingestion pipeline: locate
// messages in the configured folder, download and decode them, and
// process their attachments into normalized records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/avirtanen/trainmail/internal/app/mailbox"
)

// Connector provides scoped mailbox sessions. Satisfied by
// *mailbox.Connector.
type Connector interface {
	WithSession(ctx context.Context, op func(mailbox.Session) error) error
}

type Service struct {
	connector Connector
	extractor TextExtractor
	folder    string
	logger    *slog.Logger
}

func NewService(connector Connector, extractor TextExtractor, folder string, logger *slog.Logger) *Service {
	return &Service{
		connector: connector,
		extractor: extractor,
		folder:    folder,
		logger:    logger,
	}
}

// MessagesFromSender processes every message in the configured folder
// whose From header matches sender.
func (s *Service) MessagesFromSender(ctx context.Context, sender string) ([]Message, error) {
	return s.collect(ctx, func(session mailbox.Session) ([]uint32, error) {
		return session.SearchFrom(sender)
	})
}

// AllMessages processes every message in the configured folder.
func (s *Service) AllMessages(ctx context.Context) ([]Message, error) {
	return s.collect(ctx, func(session mailbox.Session) ([]uint32, error) {
		return session.SearchAll()
	})
}

// MessageByUID processes exactly one message. Unlike the batch
// operations, a fetch or parse failure here fails the whole call:
// with a single requested message there is no batch to preserve.
func (s *Service) MessageByUID(ctx context.Context, uid uint32) (*Message, error) {
	var message *Message

	err := s.connector.WithSession(ctx, func(session mailbox.Session) error {
		if err := session.Select(s.folder); err != nil {
			return err
		}

		m, err := s.processMessage(ctx, session, uid)
		if err != nil {
			return err
		}
		message = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return message, nil
}

// collect runs one scoped session: select folder, search, then fetch
// and process each match sequentially. A failure on one message is
// logged and that message skipped; the batch continues. Only
// connection, folder and search failures abort the whole call.
func (s *Service) collect(ctx context.Context, search func(mailbox.Session) ([]uint32, error)) ([]Message, error) {
	messages := make([]Message, 0)

	err := s.connector.WithSession(ctx, func(session mailbox.Session) error {
		if err := session.Select(s.folder); err != nil {
			return err
		}

		uids, err := search(session)
		if err != nil {
			return fmt.Errorf("search mailbox: %w", err)
		}
		s.logger.InfoContext(ctx, fmt.Sprintf("found %d matching messages", len(uids)),
			slog.String("folder", s.folder))

		for _, uid := range uids {
			// The request deadline only cancels the context; the loop
			// has to notice on its own between messages.
			if err := ctx.Err(); err != nil {
				return err
			}

			message, err := s.processMessage(ctx, session, uid)
			if err != nil {
				s.logger.WarnContext(ctx, "skipping message",
					slog.Uint64("uid", uint64(uid)),
					slog.Any("error", err),
				)
				continue
			}
			messages = append(messages, *message)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (s *Service) processMessage(ctx context.Context, session mailbox.Session, uid uint32) (*Message, error) {
	raw, err := session.FetchRaw(uid)
	if err != nil {
		return nil, fmt.Errorf("fetch message: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("message has no content")
	}

	parsed, err := parseMail(raw)
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	return &Message{
		ID:          uid,
		Subject:     parsed.Subject,
		From:        parsed.From,
		Date:        parsed.Date,
		Text:        parsed.Text,
		HTML:        parsed.HTML,
		Attachments: s.processAttachments(ctx, parsed.Attachments),
	}, nil
}
