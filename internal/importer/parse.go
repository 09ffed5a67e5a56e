package importer

import (
	"fmt"
	"strings"
)

// The upload format is a bare comma-separated grammar: fields are split on
// "," and trimmed of whitespace and surrounding quote characters. Quoted
// fields containing embedded commas or newlines are not supported; the
// template endpoint documents this.

const headerRow = 1

var requiredHeaders = []string{"sku", "name", "base_price"}

// File is a parsed upload: normalized headers plus raw data rows
type File struct {
	Headers []string
	Rows    []Row
}

// Row is one data line. Number is the spreadsheet line number (the header
// is line 1, so the first data row is 2).
type Row struct {
	Number int
	Fields []string
}

// ErrTooFewLines is returned when the file has no data rows
var ErrTooFewLines = fmt.Errorf("file must have a header row and at least one data row")

// MissingHeadersError names the required headers absent from the header line
type MissingHeadersError struct {
	Missing []string
}

func (e *MissingHeadersError) Error() string {
	return fmt.Sprintf("missing required header(s): %s", strings.Join(e.Missing, ", "))
}

// Parse decodes an uploaded payload into headers and data rows.
// Blank lines are skipped entirely and never count toward row numbering
// beyond their position in the file.
func Parse(data []byte) (*File, error) {
	lines := splitLines(string(data))
	if len(lines) < 2 {
		return nil, ErrTooFewLines
	}

	headers := splitFields(lines[0])
	for i := range headers {
		headers[i] = strings.ToLower(headers[i])
	}

	var missing []string
	for _, required := range requiredHeaders {
		found := false
		for _, h := range headers {
			if strings.Contains(h, required) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingHeadersError{Missing: missing}
	}

	rows := make([]Row, 0, len(lines)-1)
	for i, line := range lines[1:] {
		rows = append(rows, Row{
			Number: i + headerRow + 1,
			Fields: splitFields(line),
		})
	}

	return &File{Headers: headers, Rows: rows}, nil
}

// FieldMap builds the lower-cased header -> trimmed value map for a row.
// Callers must have verified the column count matches the header first.
func (f *File) FieldMap(row Row) map[string]string {
	fields := make(map[string]string, len(f.Headers))
	for i, h := range f.Headers {
		fields[h] = row.Fields[i]
	}
	return fields
}

// splitLines breaks the decoded text into non-blank lines
func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// splitFields splits a line on commas and strips whitespace and surrounding
// quote characters from each field
func splitFields(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, `"'`)
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
