package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/avirtanen/trainmail/internal/app/mailbox"
	"github.com/avirtanen/trainmail/internal/app/pdftext"
)

type fakeConnector struct {
	session mailbox.Session
	dialErr error
}

func (c *fakeConnector) WithSession(_ context.Context, op func(mailbox.Session) error) error {
	if c.dialErr != nil {
		return c.dialErr
	}
	return op(c.session)
}

type fakeSession struct {
	selectErr error
	searchErr error
	uids      []uint32
	messages  map[uint32][]byte
	fetchErrs map[uint32]error

	selectedFolder string
	searchedSender string
	fetchCalls     int
}

func (s *fakeSession) Select(folder string) error {
	s.selectedFolder = folder
	return s.selectErr
}

func (s *fakeSession) SearchFrom(sender string) ([]uint32, error) {
	s.searchedSender = sender
	return s.uids, s.searchErr
}

func (s *fakeSession) SearchAll() ([]uint32, error) {
	return s.uids, s.searchErr
}

func (s *fakeSession) FetchRaw(uid uint32) ([]byte, error) {
	s.fetchCalls++
	if err, ok := s.fetchErrs[uid]; ok {
		return nil, err
	}
	return s.messages[uid], nil
}

// fakeExtractor routes every extraction through fn, so tests can key
// outcomes off the buffer contents.
type fakeExtractor struct {
	fn    func(data []byte) (pdftext.Result, error)
	calls int
}

func (e *fakeExtractor) ExtractText(_ context.Context, data []byte) (pdftext.Result, error) {
	e.calls++
	if e.fn == nil {
		return pdftext.Result{}, nil
	}
	return e.fn(data)
}

func newTestService(connector Connector, extractor TextExtractor) *Service {
	return NewService(connector, extractor, "physicalData", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type testAttachment struct {
	filename    string
	contentType string
	data        []byte
}

// buildRawMessage assembles a syntactically valid RFC 822 message.
// Header values left empty are omitted entirely.
func buildRawMessage(subject, from, date, textBody string, attachments ...testAttachment) []byte {
	var b strings.Builder

	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	if subject != "" {
		fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	}
	if date != "" {
		fmt.Fprintf(&b, "Date: %s\r\n", date)
	}
	b.WriteString("To: athlete@example.com\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	if len(attachments) == 0 {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(textBody)
		return []byte(b.String())
	}

	const boundary = "testpartboundary"
	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(textBody)
	b.WriteString("\r\n")

	for _, attachment := range attachments {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		fmt.Fprintf(&b, "Content-Type: %s\r\n", attachment.contentType)
		fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%q\r\n", attachment.filename)
		b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
		b.WriteString(base64.StdEncoding.EncodeToString(attachment.data))
		b.WriteString("\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}
