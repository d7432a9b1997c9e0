// Package pdftext extracts plain text from in-memory PDF buffers.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// Result holds the extracted contents of one PDF buffer.
type Result struct {
	Text     string
	NumPages int
}

// Extractor parses PDF buffers with a bounded per-call deadline, so a
// malformed document cannot stall the enclosing request indefinitely.
type Extractor struct {
	timeout time.Duration
}

func NewExtractor(timeout time.Duration) *Extractor {
	return &Extractor{timeout: timeout}
}

type outcome struct {
	result Result
	err    error
}

// ExtractText parses the given buffer and returns its page count and
// concatenated text. The parse runs on its own goroutine and settles
// exactly once: either the parse outcome or a deadline/cancellation
// error, whichever comes first.
func (e *Extractor) ExtractText(ctx context.Context, data []byte) (Result, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	// Buffered so a late parse result never leaks a goroutine after
	// the deadline path has won.
	done := make(chan outcome, 1)
	go func() {
		done <- parse(data)
	}()

	select {
	case <-ctx.Done():
		return Result{}, fmt.Errorf("pdf parse aborted: %w", ctx.Err())
	case o := <-done:
		return o.result, o.err
	}
}

func parse(data []byte) (o outcome) {
	// The underlying parser panics on some malformed inputs; those
	// surface as ordinary parse errors.
	defer func() {
		if r := recover(); r != nil {
			o = outcome{err: fmt.Errorf("pdf parser panicked: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return outcome{err: fmt.Errorf("read pdf: %w", err)}
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return outcome{err: fmt.Errorf("extract text: %w", err)}
	}

	var sb strings.Builder
	if _, err = io.Copy(&sb, textReader); err != nil {
		return outcome{err: fmt.Errorf("read text content: %w", err)}
	}

	return outcome{result: Result{
		Text:     sb.String(),
		NumPages: reader.NumPage(),
	}}
}
