package scraper

import "time"

// MonthTable maps month names, as rendered by a source, to calendar months.
// It cannot be modified after construction so a single table can be shared by every parser.
type MonthTable struct {
	names map[string]time.Month
}

// NewMonthTable copies `names` into a new table.
func NewMonthTable(names map[string]time.Month) MonthTable {
	copied := make(map[string]time.Month, len(names))
	for name, month := range names {
		copied[name] = month
	}
	return MonthTable{names: copied}
}

// DefaultMonthTable knows the full english month names and their three letter abbreviations.
func DefaultMonthTable() MonthTable {
	names := make(map[string]time.Month, 24)
	for month := time.January; month <= time.December; month++ {
		full := month.String()
		names[full] = month
		names[full[:3]] = month
	}
	return MonthTable{names: names}
}

// Lookup returns the month for `name`, names are matched exactly.
func (t MonthTable) Lookup(name string) (time.Month, bool) {
	month, ok := t.names[name]
	return month, ok
}
