package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/docuquery/docuquery/core/pipeline"
	"github.com/docuquery/docuquery/model"
)

// ParseResult is the parsed form of one PDF file, ready for the
// ingestion pipeline.
type ParseResult struct {
	Document *model.Document
	Pages    []pipeline.PageText
}

// ParsePDF reads a PDF file and extracts per page plain text,
// document metadata and structural hints. Pages that fail text
// extraction stay in the result with empty text so the pipeline can
// synthesize their fallback chunks.
func ParsePDF(path string) (*ParseResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	modTime := info.ModTime()
	doc := &model.Document{
		ID:                   uuid.New(),
		Filename:             filepath.Base(path),
		Title:                "Unknown",
		Author:               "Unknown",
		FileSize:             info.Size(),
		FileModificationDate: &modTime,
		Language:             "en",
		DocumentType:         "pdf",
		Topics:               []string{},
		PageCount:            reader.NumPage(),
	}
	readDocumentInfo(reader, doc)

	var pages []pipeline.PageText
	var sectionPath []string

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)

		text := ""
		if !page.V.IsNull() {
			extracted, err := page.GetPlainText(nil)
			if err == nil {
				text = strings.TrimSpace(extracted)
			}
		}

		if heading := firstHeading(text); heading != "" {
			sectionPath = []string{heading}
		}

		hasTable := detectTable(text)
		if hasTable {
			doc.TableCount++
		}

		pages = append(pages, pipeline.PageText{
			Number:      i,
			Text:        text,
			HasTable:    hasTable,
			SectionPath: append([]string{}, sectionPath...),
		})
	}

	return &ParseResult{
		Document: doc,
		Pages:    pages,
	}, nil
}

// readDocumentInfo fills metadata from the PDF Info dictionary
func readDocumentInfo(reader *pdf.Reader, doc *model.Document) {
	defer func() {
		// The pdf library panics on some malformed trailers; a
		// document without metadata is still ingestible.
		_ = recover()
	}()

	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return
	}

	if title := strings.TrimSpace(info.Key("Title").Text()); title != "" {
		doc.Title = title
	}
	if author := strings.TrimSpace(info.Key("Author").Text()); author != "" {
		doc.Author = author
	}
	if created := ParsePDFDate(info.Key("CreationDate").Text()); created != nil {
		doc.CreationDate = created
	}
	if modified := ParsePDFDate(info.Key("ModDate").Text()); modified != nil {
		doc.ModificationDate = modified
	}
}

// ParsePDFDate parses a PDF date string of the form
// D:YYYYMMDDHHmmSSOHH'mm'. Shorter prefixes down to a bare year are
// accepted, everything after the seconds is treated as an offset.
func ParsePDFDate(value string) *time.Time {
	value = strings.TrimSpace(strings.TrimPrefix(value, "D:"))
	if value == "" {
		return nil
	}

	digits := value
	offset := ""
	for i, r := range value {
		if r < '0' || r > '9' {
			digits = value[:i]
			offset = value[i:]
			break
		}
	}

	layouts := map[int]string{
		14: "20060102150405",
		12: "200601021504",
		10: "2006010215",
		8:  "20060102",
		6:  "200601",
		4:  "2006",
	}
	layout, ok := layouts[len(digits)]
	if !ok {
		return nil
	}

	location := time.UTC
	// Offsets look like +02'00' or -0500, Z means UTC
	offset = strings.ReplaceAll(offset, "'", "")
	if len(offset) >= 3 && (offset[0] == '+' || offset[0] == '-') {
		hours := 0
		minutes := 0
		_, err := fmt.Sscanf(offset[1:], "%02d%02d", &hours, &minutes)
		if err != nil {
			_, err = fmt.Sscanf(offset[1:], "%02d", &hours)
		}
		if err == nil {
			seconds := hours*3600 + minutes*60
			if offset[0] == '-' {
				seconds = -seconds
			}
			location = time.FixedZone("", seconds)
		}
	}

	parsed, err := time.ParseInLocation(layout, digits, location)
	if err != nil {
		return nil
	}
	return &parsed
}

// detectTable reports whether page text looks like it contains a
// table, using grid character density as the signal.
func detectTable(text string) bool {
	tabCount := 0
	pipeCount := 0
	dashLineCount := 0

	for _, line := range strings.Split(text, "\n") {
		tabCount += strings.Count(line, "\t")
		pipeCount += strings.Count(line, "|")
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 3 && (strings.Count(trimmed, "-") > len(trimmed)/2 || strings.Count(trimmed, "_") > len(trimmed)/2) {
			dashLineCount++
		}
	}

	return tabCount > 5 || pipeCount > 5 || dashLineCount > 2
}

// firstHeading returns the first heading-like line of a page
func firstHeading(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isLikelyHeading(trimmed) {
			return trimmed
		}
	}
	return ""
}

// isLikelyHeading detects all-caps lines, numbered sections and
// common heading prefixes.
func isLikelyHeading(line string) bool {
	if len(line) > 120 {
		return false
	}

	if len(line) > 2 && len(line) < 100 && line == strings.ToUpper(line) && strings.ContainsAny(line, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return true
	}

	// Numbered sections like "1.", "2.3" or "7.3.1"
	if line[0] >= '0' && line[0] <= '9' {
		end := len(line)
		if end > 10 {
			end = 10
		}
		if strings.Contains(line[:end], ".") {
			return true
		}
	}

	lower := strings.ToLower(line)
	for _, prefix := range []string{"section ", "chapter ", "part ", "appendix ", "annex "} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}

	return false
}
