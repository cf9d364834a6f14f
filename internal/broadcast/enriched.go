package broadcast

import (
	"strings"

	"radiograb/internal/textutil"
)

// Enriched pairs a Record with the longer description fetched from its
// detail page. An empty ExtendedInfo falls back to the record's info text.
type Enriched struct {
	Record
	ExtendedInfo string
}

// Bare wraps a record that has not been enriched.
func Bare(r Record) Enriched {
	return Enriched{Record: r}
}

// Description returns the detail text, or the catalog info when none was found.
func (e Enriched) Description() string {
	if text := strings.TrimSpace(e.ExtendedInfo); text != "" {
		return text
	}
	return e.RawInfo
}

// Fields extends Record.Fields with the detail text as extended_info.
func (e Enriched) Fields() map[string]string {
	out := e.Record.Fields()
	out["extended_info"] = e.Description()
	return out
}

// Render resolves tmpl against Fields.
func (e Enriched) Render(tmpl string) (string, error) {
	return textutil.Render(tmpl, e.Fields())
}
