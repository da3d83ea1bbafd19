package tdm

import (
	"time"

	"github.com/cognicore/persistence/pkg/persistence/internalerr"
)

// DefaultDateOffset is where the YYYYMMDD date starts in a statement file
// name such as "statement.fomc.20150128".
const DefaultDateOffset = 15

const dateLayout = "20060102"

// Label identifies a document column by file name and embedded release date.
type Label struct {
	Name string
	Date time.Time
}

// ParseLabel extracts the 8-digit date found at offset in name.
func ParseLabel(name string, offset int) (Label, error) {
	if offset < 0 || len(name) < offset+len(dateLayout) {
		return Label{}, internalerr.Malformed("", -1, "document label %q has no date at offset %d", name, offset)
	}
	date, err := time.Parse(dateLayout, name[offset:offset+len(dateLayout)])
	if err != nil {
		return Label{}, internalerr.Malformed("", -1, "document label %q: %v", name, err)
	}
	return Label{Name: name, Date: date}, nil
}

// ParseLabels parses every name, reporting the failing position.
func ParseLabels(names []string, offset int) ([]Label, error) {
	labels := make([]Label, len(names))
	for i, name := range names {
		l, err := ParseLabel(name, offset)
		if err != nil {
			return nil, internalerr.Malformed("", i, "document label %q has no valid date at offset %d", name, offset)
		}
		labels[i] = l
	}
	return labels, nil
}
