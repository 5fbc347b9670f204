package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
)

// WriteTemplate writes an empty roster file (header row only) to w, encoded
// in enc so it round-trips through the import.
func WriteTemplate(w io.Writer, enc encoding.Encoding) error {
	ew := enc.NewEncoder().Writer(w)
	cw := csv.NewWriter(ew)
	// Spreadsheet software on Windows expects CRLF.
	cw.UseCRLF = true

	if err := cw.Write(Labels()); err != nil {
		return fmt.Errorf("write template header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush template: %w", err)
	}
	if c, ok := ew.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("flush template: %w", err)
		}
	}
	return nil
}
