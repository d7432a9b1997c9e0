package ingest

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/avirtanen/trainmail/internal/app/pdftext"
)

// pdfContentType is matched exactly; anything else, including case
// variants, is treated as an opaque binary attachment.
const pdfContentType = "application/pdf"

const attachmentErrorMessage = "Failed to process attachment"

// TextExtractor pulls text content out of a binary PDF buffer.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (pdftext.Result, error)
}

// processAttachments produces one result per input attachment, in
// input order. A failure extracting one attachment is recorded as an
// error marker on that entry; the remaining attachments are still
// processed.
func (s *Service) processAttachments(ctx context.Context, attachments []rawAttachment) []AttachmentResult {
	results := make([]AttachmentResult, 0, len(attachments))

	for _, attachment := range attachments {
		result := AttachmentResult{
			Filename:    attachment.Filename,
			ContentType: attachment.ContentType,
			Size:        int64(len(attachment.Data)),
		}

		if attachment.ContentType == pdfContentType {
			extracted, err := s.extractor.ExtractText(ctx, attachment.Data)
			if err != nil {
				s.logger.WarnContext(ctx, "attachment processing failed",
					slog.String("filename", attachment.Filename),
					slog.Any("error", err),
				)
				result.Error = attachmentErrorMessage
				results = append(results, result)
				continue
			}
			result.ParsedContent = pdfContent(extracted.Text, extracted.NumPages)
		} else {
			result.ParsedContent = encodedContent(base64.StdEncoding.EncodeToString(attachment.Data))
		}

		results = append(results, result)
	}

	return results
}
