package usecase

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/pkg/textx"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// maxPromptResumeRunes caps resume text before it is placed into a prompt.
const maxPromptResumeRunes = 20000

// DocumentReader turns uploaded resumes into plain text.
type DocumentReader struct {
	Extractor domain.TextExtractor
	MaxBytes  int64
}

// NewDocumentReader constructs a DocumentReader. maxBytes <= 0 disables the size check.
func NewDocumentReader(extractor domain.TextExtractor, maxBytes int64) *DocumentReader {
	return &DocumentReader{Extractor: extractor, MaxBytes: maxBytes}
}

// allowedDocument reports whether the sniffed type may be processed.
// Plain text is accepted only for .txt names since detectors label many
// binary-free files as text.
func allowedDocument(m *mimetype.MIME, filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case m.Is(mimePDF):
		return true
	case m.Is(mimeDOCX):
		return true
	case strings.HasPrefix(m.String(), "text/"):
		return ext == ".txt" || ext == ""
	default:
		return false
	}
}

// Text extracts plain text from an uploaded document.
func (d *DocumentReader) Text(ctx domain.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("op=document.text: %w: empty file", domain.ErrInvalidArgument)
	}
	if d.MaxBytes > 0 && int64(len(data)) > d.MaxBytes {
		return "", fmt.Errorf("op=document.text: %w: file exceeds %d bytes", domain.ErrInvalidArgument, d.MaxBytes)
	}
	m := mimetype.Detect(data)
	if !allowedDocument(m, filename) {
		return "", fmt.Errorf("op=document.text: %w: unsupported media type %s", domain.ErrInvalidArgument, m.String())
	}

	var text string
	if strings.HasPrefix(m.String(), "text/") {
		text = textx.SanitizeText(string(data))
	} else {
		if d.Extractor == nil {
			return "", fmt.Errorf("op=document.text: %w: %s requires an extractor", domain.ErrInvalidArgument, m.Extension())
		}
		var err error
		if text, err = d.Extractor.Extract(ctx, filename, data); err != nil {
			return "", fmt.Errorf("op=document.text: %w", err)
		}
		text = textx.SanitizeText(text)
	}
	if text == "" {
		return "", fmt.Errorf("op=document.text: %w: no text found in document", domain.ErrInvalidArgument)
	}
	return text, nil
}
