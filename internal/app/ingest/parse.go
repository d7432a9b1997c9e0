package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/charmap"
	"jaytaylor.com/html2text"
)

const (
	noSubjectPlaceholder = "(No Subject)"
	unknownSender        = "Unknown"
)

func init() {
	// Charsets commonly seen in the wild but not registered by default.
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// parsedMail is the decoded form of one raw message before attachment
// processing.
type parsedMail struct {
	Subject     string
	From        string
	Date        time.Time
	Text        string
	HTML        string
	Attachments []rawAttachment
}

type rawAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// parseMail decodes raw RFC 822 bytes into header fields, text and
// HTML bodies, and the ordered attachment list. Missing subject,
// sender and date headers are replaced with defaults rather than
// propagated as absence.
func parseMail(raw []byte) (*parsedMail, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create mail reader: %w", err)
	}
	defer func() {
		_ = mr.Close()
	}()

	parsed := &parsedMail{
		Subject: noSubjectPlaceholder,
		From:    unknownSender,
	}

	if subject, err := mr.Header.Text("Subject"); err == nil && subject != "" {
		parsed.Subject = subject
	}
	if from := formatAddressList(mr.Header); from != "" {
		parsed.From = from
	}
	if date, err := mr.Header.Date(); err == nil && !date.IsZero() {
		parsed.Date = date
	} else {
		parsed.Date = time.Now()
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read message part: %w", err)
		}

		switch header := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := header.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("read body part: %w", err)
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				if parsed.Text == "" {
					parsed.Text = string(body)
				}
			case strings.HasPrefix(contentType, "text/html"):
				parsed.HTML = string(body)
			}

		case *mail.AttachmentHeader:
			attachment, err := parseAttachment(part, header)
			if err != nil {
				return nil, fmt.Errorf("read attachment: %w", err)
			}
			parsed.Attachments = append(parsed.Attachments, attachment)
		}
	}

	// HTML-only messages still get a usable plain-text body.
	if parsed.Text == "" && parsed.HTML != "" {
		if text, err := html2text.FromString(parsed.HTML, html2text.Options{TextOnly: true}); err == nil {
			parsed.Text = text
		}
	}

	return parsed, nil
}

func parseAttachment(part *mail.Part, header *mail.AttachmentHeader) (rawAttachment, error) {
	var attachment rawAttachment
	var err error

	attachment.Filename, err = header.Filename()
	if err != nil {
		return attachment, fmt.Errorf("get filename: %w", err)
	}

	attachment.ContentType, _, err = header.ContentType()
	if err != nil {
		return attachment, fmt.Errorf("get 'Content-Type': %w", err)
	}

	attachment.Data, err = io.ReadAll(part.Body)
	if err != nil {
		return attachment, fmt.Errorf("read content: %w", err)
	}

	return attachment, nil
}

// formatAddressList renders the From header the way mail clients
// display it: "Name <addr>" when a display name is present.
func formatAddressList(header mail.Header) string {
	addrList, err := header.AddressList("From")
	if err != nil || len(addrList) == 0 {
		return ""
	}

	parts := make([]string, 0, len(addrList))
	for _, addr := range addrList {
		if addr.Name != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", addr.Name, addr.Address))
		} else {
			parts = append(parts, addr.Address)
		}
	}

	return strings.Join(parts, ", ")
}
