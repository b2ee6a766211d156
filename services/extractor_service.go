package services

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// InitPDFExtractor registers the UniPDF license key. Call once at startup
// before any PDF is ingested; without a key PDF extraction fails at runtime.
func InitPDFExtractor() {
	key := os.Getenv("UNIDOC_LICENSE_KEY")
	if key == "" {
		log.Println("EXTRACTOR: UNIDOC_LICENSE_KEY not set, PDF ingestion disabled")
		return
	}
	if err := license.SetMeteredKey(key); err != nil {
		log.Printf("EXTRACTOR: Failed to set UniPDF license key: %v. PDF processing will fail.", err)
	}
}

// ExtractTextFromFile returns the text content of a knowledge-base source
// file, dispatching on the file extension. Plain text and markdown are read
// verbatim; PDFs go through UniPDF page extraction.
func ExtractTextFromFile(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(content), nil
	case ".pdf":
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()

		text, err := extractPDFText(f)
		if err != nil {
			return "", fmt.Errorf("failed to extract %s: %w", path, err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}
}

// extractPDFText concatenates the text of every page, pages separated by a
// blank line.
func extractPDFText(r io.ReadSeeker) (string, error) {
	pdfReader, err := model.NewPdfReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse pdf: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to read page count: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}
