package csvimport

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding is the encoding spreadsheet software on Japanese Windows
// uses when saving CSV.
const DefaultEncoding = "shift_jis"

// ErrMalformedInput is returned when the upload contains a byte sequence that
// is not valid in the declared encoding.
var ErrMalformedInput = errors.New("malformed input for declared encoding")

// Encoding resolves an encoding label such as "shift_jis", "euc-jp" or
// "utf-8". UTF-8 resolves to a variant that drops a leading byte-order mark.
func Encoding(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		return unicode.UTF8BOM, nil
	}
	return enc, nil
}

// NewDecoder returns a reader producing UTF-8 text decoded from r.
// Decoding is lazy; a malformed sequence surfaces from Read as
// ErrMalformedInput. UTF-8 input is validated before decoding, so a
// U+FFFD written in the source itself is kept; the legacy decoders only emit
// U+FFFD for bytes they cannot map, so it is rejected after them.
func NewDecoder(r io.Reader, enc encoding.Encoding) io.Reader {
	if enc == unicode.UTF8 || enc == unicode.UTF8BOM {
		return transform.NewReader(r, transform.Chain(validUTF8{}, enc.NewDecoder()))
	}
	return transform.NewReader(r, transform.Chain(enc.NewDecoder(), validUTF8{rejectReplacement: true}))
}

// validUTF8 passes UTF-8 through and fails on invalid sequences, and on
// U+FFFD when rejectReplacement is set.
type validUTF8 struct {
	transform.NopResetter
	rejectReplacement bool
}

func (v validUTF8) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && (size == 1 || v.rejectReplacement) {
			return nDst, nSrc, ErrMalformedInput
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		copy(dst[nDst:], src[nSrc:nSrc+size])
		nDst += size
		nSrc += size
	}
	return nDst, nSrc, nil
}
