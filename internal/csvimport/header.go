// Package csvimport turns an uploaded roster file into canonical player
// records: decode from the legacy source encoding, parse CSV rows, and remap
// the Japanese column labels onto player fields.
package csvimport

import (
	"strings"

	"github.com/JonMunkholm/roster/internal/roster"
)

// columns is the closed set of roster labels, in template order.
var columns = []struct {
	label string
	field roster.Field
}{
	{"背番号", roster.FieldJerseyNumber},
	{"氏名", roster.FieldName},
	{"身長(cm)", roster.FieldHeightCM},
	{"体重(kg)", roster.FieldWeightKG},
	{"ポジション(PG,SG)", roster.FieldPosition},
	{"誕生日(2000-1-1)", roster.FieldBirthdate},
	{"出身地", roster.FieldBirthplace},
}

var labelToField = func() map[string]roster.Field {
	m := make(map[string]roster.Field, len(columns))
	for _, c := range columns {
		m[c.label] = c.field
	}
	return m
}()

// Lookup returns the canonical field for a header label.
// Surrounding whitespace is ignored.
func Lookup(label string) (roster.Field, bool) {
	f, ok := labelToField[strings.TrimSpace(label)]
	return f, ok
}

// Labels returns the header labels in template order.
func Labels() []string {
	labels := make([]string, len(columns))
	for i, c := range columns {
		labels[i] = c.label
	}
	return labels
}
