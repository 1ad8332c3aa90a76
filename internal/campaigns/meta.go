// Package campaigns holds the static lookup table mapping campaign ids to
// display metadata. The table is fixed at startup and never mutated.
package campaigns

type Meta struct {
	Label     string
	EventName string
	GroupSize int
	MaxRows   int
}

type Table map[string]Meta

// Default returns the CFP bowl campaigns the link builder emits. GroupSize and
// MaxRows mirror the seating hints used on the ticket pages (MaxRows is the
// largest acceptable number of adjacent rows to split a group over).
func Default() Table {
	return Table{
		"CFP-QF-ROSE-2026":   {Label: "Rose Bowl (CFP Quarterfinal)", EventName: "Rose Bowl Game", GroupSize: 2, MaxRows: 1},
		"CFP-QF-SUGAR-2026":  {Label: "Sugar Bowl (CFP Quarterfinal)", EventName: "Sugar Bowl", GroupSize: 2, MaxRows: 1},
		"CFP-QF-FIESTA-2026": {Label: "Fiesta Bowl (CFP Quarterfinal)", EventName: "Fiesta Bowl", GroupSize: 2, MaxRows: 1},
		"CFP-QF-PEACH-2026":  {Label: "Peach Bowl (CFP Quarterfinal)", EventName: "Peach Bowl", GroupSize: 2, MaxRows: 1},
		"CFP-SF-COTTON-2026": {Label: "Cotton Bowl (CFP Semifinal)", EventName: "Cotton Bowl Classic", GroupSize: 4, MaxRows: 2},
		"CFP-SF-ORANGE-2026": {Label: "Orange Bowl (CFP Semifinal)", EventName: "Orange Bowl", GroupSize: 4, MaxRows: 2},
		"CFP-CHAMP-2026":     {Label: "CFP National Championship", EventName: "College Football Playoff National Championship", GroupSize: 2, MaxRows: 1},
	}
}

// Label returns the display label for id, or "" when the campaign is unknown.
// An unknown id is not an error: clicks on retired campaigns still report.
func (t Table) Label(id string) string {
	if m, ok := t[id]; ok {
		return m.Label
	}
	return ""
}
