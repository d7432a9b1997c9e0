package ingest

import "time"

// Message is the normalized record returned for one mailbox message.
// Field names and shapes are a wire contract with the mobile client
// and must not change.
type Message struct {
	ID          uint32             `json:"id"`
	Subject     string             `json:"subject"`
	From        string             `json:"from"`
	Date        time.Time          `json:"date"`
	Text        string             `json:"text"`
	HTML        string             `json:"html"`
	Attachments []AttachmentResult `json:"attachments"`
}

// AttachmentResult describes the outcome of processing one attachment.
// Exactly one of ParsedContent and Error is set.
type AttachmentResult struct {
	Filename      string         `json:"filename"`
	ContentType   string         `json:"contentType"`
	Size          int64          `json:"size"`
	ParsedContent *ParsedContent `json:"parsedContent,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// ParsedContent is a two-variant union: for PDF attachments Text holds
// extracted text and NumPages is set; for everything else Text holds
// the base64-encoded raw bytes and NumPages is absent.
type ParsedContent struct {
	Text     string `json:"text"`
	NumPages *int   `json:"numPages,omitempty"`
}

func pdfContent(text string, numPages int) *ParsedContent {
	return &ParsedContent{Text: text, NumPages: &numPages}
}

func encodedContent(text string) *ParsedContent {
	return &ParsedContent{Text: text}
}
