package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoHeader is returned when the upload has no header row.
var ErrNoHeader = errors.New("csv has no header row")

// RawRecord is one data row keyed by header label.
type RawRecord struct {
	Line   int               // 1-indexed line where the row starts
	Values map[string]string // header label -> field value
}

// RowError reports a single row that could not be parsed. The parser stays
// usable after returning one; the next call continues with the following row.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row at line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Parser reads a header row and then yields one RawRecord per data row.
type Parser struct {
	r      *csv.Reader
	header []string
}

// NewParser reads the header row from r.
// Header labels are trimmed of surrounding whitespace.
func NewParser(r io.Reader) (*Parser, error) {
	cr := csv.NewReader(r)
	// Field counts are checked against the rejoined header in Next.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	return &Parser{r: cr, header: rejoinLabels(header)}, nil
}

// rejoinLabels merges adjacent header fields that together form a roster
// label. The position label contains a comma and is often written unquoted,
// which splits it across two fields.
func rejoinLabels(header []string) []string {
	out := make([]string, 0, len(header))
	for i := 0; i < len(header); i++ {
		if i+1 < len(header) {
			joined := header[i] + "," + header[i+1]
			if _, ok := Lookup(joined); ok {
				out = append(out, joined)
				i++
				continue
			}
		}
		out = append(out, header[i])
	}
	return out
}

// Header returns the trimmed header labels, with split roster labels rejoined.
func (p *Parser) Header() []string {
	return p.header
}

// Next returns the next data row. It returns io.EOF when the input is
// exhausted, a *RowError for a malformed row (wrong field count, bad
// quoting), and any other error, such as a decode failure, as fatal.
// Rows whose fields are all blank are skipped.
func (p *Parser) Next() (RawRecord, error) {
	for {
		fields, err := p.r.Read()
		if errors.Is(err, io.EOF) {
			return RawRecord{}, io.EOF
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return RawRecord{}, &RowError{Line: pe.StartLine, Err: pe.Err}
			}
			return RawRecord{}, err
		}

		if isBlank(fields) {
			continue
		}

		line, _ := p.r.FieldPos(0)
		if len(fields) != len(p.header) {
			return RawRecord{}, &RowError{Line: line, Err: csv.ErrFieldCount}
		}

		values := make(map[string]string, len(p.header))
		for i, label := range p.header {
			values[label] = fields[i]
		}
		return RawRecord{Line: line, Values: values}, nil
	}
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
