// Package extractor pulls readable text out of downloaded brochure
// documents for the classifier. Only HTML documents are handled here;
// binary formats (PDF and friends) are extracted by an external tool and
// reported as unsupported so the caller can route around them.
package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"regharvest/internal/domain/entity"

	"github.com/go-shiori/go-readability"
)

// ErrUnsupportedFormat indicates the document is not HTML and cannot be
// extracted in-process.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// HTMLExtractor extracts article text from HTML brochures using the
// Mozilla readability algorithm.
type HTMLExtractor struct{}

// NewHTMLExtractor creates an HTMLExtractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Text reads the document at path and returns its readable text content.
// Returns ErrUnsupportedFormat for non-HTML documents.
func (e *HTMLExtractor) Text(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", entity.LocalIO(fmt.Errorf("read document: %w", err))
	}

	if !looksLikeHTML(path, data) {
		return "", ErrUnsupportedFormat
	}

	// readability wants a URL for resolving relative references; the
	// documents are local so a file URL is enough.
	pageURL := &url.URL{Scheme: "file", Path: path}
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return "", entity.DataShape(fmt.Errorf("extract text: %w", err))
	}

	return article.TextContent, nil
}

// looksLikeHTML decides by extension first, then by sniffing the head of
// the document.
func looksLikeHTML(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	case ".pdf":
		return false
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	lowered := strings.ToLower(string(bytes.TrimSpace(head)))
	return strings.HasPrefix(lowered, "<!doctype html") || strings.HasPrefix(lowered, "<html")
}
