// Package extract reads email text out of uploaded files.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

var (
	// ErrUnsupportedFile is returned for extensions other than .txt and .pdf
	ErrUnsupportedFile = errors.New("unsupported file type, use .txt or .pdf")
	// ErrFileTooLarge is returned when an upload exceeds the configured size
	ErrFileTooLarge = errors.New("file too large")
)

// FileInfo describes an uploaded file
type FileInfo struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
}

// Extractor turns .txt and .pdf uploads into plain text
type Extractor struct {
	maxBytes      int64
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
}

// NewExtractor creates a new extractor. A non-positive maxBytes disables the size check.
func NewExtractor(maxBytes int64, textProcessor *utils.TextProcessor, logger *zap.Logger) *Extractor {
	return &Extractor{
		maxBytes:      maxBytes,
		textProcessor: textProcessor,
		logger:        logger,
	}
}

// Supported reports whether filename has an extension the extractor reads
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".pdf":
		return true
	default:
		return false
	}
}

// Extract reads r fully and returns its text according to the extension of filename
func (e *Extractor) Extract(filename string, r io.Reader) (string, FileInfo, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	info := FileInfo{Filename: filename, Type: strings.TrimPrefix(ext, ".")}
	if !Supported(filename) {
		return "", info, ErrUnsupportedFile
	}

	if e.maxBytes > 0 {
		r = io.LimitReader(r, e.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", info, fmt.Errorf("failed to read upload: %w", err)
	}
	info.Size = int64(len(data))
	if e.maxBytes > 0 && info.Size > e.maxBytes {
		return "", info, ErrFileTooLarge
	}

	var text string
	switch ext {
	case ".pdf":
		text, err = readPDF(data)
		if err != nil {
			return "", info, err
		}
	default:
		text = string(data)
	}

	text = strings.TrimSpace(e.textProcessor.SanitizeUTF8(text))
	e.logger.Debug("Extracted text from upload",
		zap.String("filename", filename),
		zap.Int64("size", info.Size),
		zap.Int("text_length", len(text)))

	return text, info, nil
}

func readPDF(data []byte) (text string, err error) {
	// the PDF parser panics on some malformed documents
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return buf.String(), nil
}
