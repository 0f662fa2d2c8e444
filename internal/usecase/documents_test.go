package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\ntrailer << >>\n%%EOF\n")

func TestDocumentReader_Text(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		reader    *DocumentReader
		filename  string
		data      []byte
		want      string
		wantErrIs error
	}{
		{
			name:     "plain text",
			reader:   NewDocumentReader(nil, 0),
			filename: "cv.txt",
			data:     []byte("  Jane Doe\nBackend Engineer\t\n"),
			want:     "Jane Doe\nBackend Engineer",
		},
		{
			name:     "pdf through extractor",
			reader:   NewDocumentReader(fakeExtractor{text: "  Go, Postgres, Redis  "}, 0),
			filename: "cv.pdf",
			data:     samplePDF,
			want:     "Go, Postgres, Redis",
		},
		{
			name:      "pdf without extractor",
			reader:    NewDocumentReader(nil, 0),
			filename:  "cv.pdf",
			data:      samplePDF,
			wantErrIs: domain.ErrInvalidArgument,
		},
		{
			name:      "extractor failure",
			reader:    NewDocumentReader(fakeExtractor{err: domain.ErrUpstreamTimeout}, 0),
			filename:  "cv.pdf",
			data:      samplePDF,
			wantErrIs: domain.ErrUpstreamTimeout,
		},
		{
			name:      "extractor returns nothing",
			reader:    NewDocumentReader(fakeExtractor{text: " \n "}, 0),
			filename:  "cv.pdf",
			data:      samplePDF,
			wantErrIs: domain.ErrInvalidArgument,
		},
		{
			name:      "text with foreign extension",
			reader:    NewDocumentReader(nil, 0),
			filename:  "cv.md",
			data:      []byte("# Jane Doe"),
			wantErrIs: domain.ErrInvalidArgument,
		},
		{
			name:      "binary",
			reader:    NewDocumentReader(fakeExtractor{text: "x"}, 0),
			filename:  "cv.bin",
			data:      []byte{0x00, 0x01, 0x02, 0x03},
			wantErrIs: domain.ErrInvalidArgument,
		},
		{
			name:      "empty",
			reader:    NewDocumentReader(nil, 0),
			filename:  "cv.txt",
			wantErrIs: domain.ErrInvalidArgument,
		},
		{
			name:      "too large",
			reader:    NewDocumentReader(nil, 4),
			filename:  "cv.txt",
			data:      []byte("hello world"),
			wantErrIs: domain.ErrInvalidArgument,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.reader.Text(context.Background(), tt.filename, tt.data)
			if tt.wantErrIs != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErrIs), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
