package scraper

import (
	"fmt"

	"dividend-backend/pkg/htmlutil"
)

// Marker is the attribute/value pair a source site puts on its history table.
type Marker struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (m Marker) String() string {
	return fmt.Sprintf("[%s=%q]", m.Name, m.Value)
}

// LocateDividendTable returns the body of the first table carrying `marker`.
// Later matches are ignored.
func LocateDividendTable(doc htmlutil.Document, marker Marker) (htmlutil.Node, error) {
	matches := doc.ElementsByAttributeValue(marker.Name, marker.Value)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no element matches %s", ErrTableNotFound, marker)
	}

	for _, child := range matches[0].Children() {
		if child.Tag() == "tbody" {
			return child, nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no table body", ErrTableNotFound, marker)
}
