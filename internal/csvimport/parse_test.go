package csvimport

import (
	"encoding/csv"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

// collect reads every row, returning records and row errors separately.
func collect(t *testing.T, p *Parser) ([]RawRecord, []*RowError) {
	t.Helper()
	var recs []RawRecord
	var rowErrs []*RowError
	for {
		rec, err := p.Next()
		if errors.Is(err, io.EOF) {
			return recs, rowErrs
		}
		var re *RowError
		if errors.As(err, &re) {
			rowErrs = append(rowErrs, re)
			continue
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		recs = append(recs, rec)
	}
}

func TestNewParser_RejoinsSplitLabel(t *testing.T) {
	input := "背番号,氏名,身長(cm),体重(kg),ポジション(PG,SG),誕生日(2000-1-1),出身地\n"

	p, err := NewParser(strings.NewReader(input))
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}
	if !reflect.DeepEqual(p.Header(), Labels()) {
		t.Errorf("Header() = %q, want %q", p.Header(), Labels())
	}
}

func TestNewParser_TrimsLabels(t *testing.T) {
	p, err := NewParser(strings.NewReader(" 背番号 ,氏名\n"))
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}
	want := []string{"背番号", "氏名"}
	if !reflect.DeepEqual(p.Header(), want) {
		t.Errorf("Header() = %q, want %q", p.Header(), want)
	}
}

func TestNewParser_NoHeader(t *testing.T) {
	_, err := NewParser(strings.NewReader(""))
	if !errors.Is(err, ErrNoHeader) {
		t.Errorf("NewParser() error = %v, want ErrNoHeader", err)
	}
}

func TestParser_Next(t *testing.T) {
	input := "背番号,氏名\n" +
		"7,佐藤\n" +
		"\n" +
		",\n" +
		"23,鈴木\n"

	p, err := NewParser(strings.NewReader(input))
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}

	recs, rowErrs := collect(t, p)
	if len(rowErrs) != 0 {
		t.Fatalf("unexpected row errors: %v", rowErrs)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	want := []RawRecord{
		{Line: 2, Values: map[string]string{"背番号": "7", "氏名": "佐藤"}},
		{Line: 5, Values: map[string]string{"背番号": "23", "氏名": "鈴木"}},
	}
	if !reflect.DeepEqual(recs, want) {
		t.Errorf("records = %+v, want %+v", recs, want)
	}
}

func TestParser_FieldCountMismatchContinues(t *testing.T) {
	input := "背番号,氏名\n" +
		"7,佐藤,extra\n" +
		"23,鈴木\n"

	p, err := NewParser(strings.NewReader(input))
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}

	recs, rowErrs := collect(t, p)
	if len(rowErrs) != 1 {
		t.Fatalf("got %d row errors, want 1", len(rowErrs))
	}
	if rowErrs[0].Line != 2 || !errors.Is(rowErrs[0], csv.ErrFieldCount) {
		t.Errorf("row error = %v, want line 2 field count", rowErrs[0])
	}
	if len(recs) != 1 || recs[0].Values["氏名"] != "鈴木" {
		t.Errorf("records = %+v, want only 鈴木", recs)
	}
}

func TestParser_QuotingErrorContinues(t *testing.T) {
	input := "背番号,氏名\n" +
		"7,佐\"藤\n" +
		"23,鈴木\n"

	p, err := NewParser(strings.NewReader(input))
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}

	recs, rowErrs := collect(t, p)
	if len(rowErrs) != 1 || !errors.Is(rowErrs[0], csv.ErrBareQuote) {
		t.Fatalf("row errors = %v, want one bare quote error", rowErrs)
	}
	if len(recs) != 1 || recs[0].Values["背番号"] != "23" {
		t.Errorf("records = %+v, want only jersey 23", recs)
	}
}

func TestParser_QuotedFields(t *testing.T) {
	input := "背番号,\"ポジション(PG,SG)\"\n" +
		"7,\"PG,SG\"\n"

	p, err := NewParser(strings.NewReader(input))
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}

	recs, _ := collect(t, p)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if got := recs[0].Values["ポジション(PG,SG)"]; got != "PG,SG" {
		t.Errorf("position = %q, want %q", got, "PG,SG")
	}
}
