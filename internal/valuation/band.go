package valuation

// AgeBand is one of the five fixed age intervals of the valuation sheet,
// bound to the column that holds its trade price in row 19.
type AgeBand struct {
	Label  string
	Column string
}

// The bands are contiguous, exhaustive and mutually exclusive over
// non-negative ages; boundaries are closed-open.
var (
	bandUpTo1  = AgeBand{Label: "0-1 år", Column: "E"}
	band1To2   = AgeBand{Label: "1-2 år", Column: "F"}
	band2To3   = AgeBand{Label: "2-3 år", Column: "G"}
	band3To10  = AgeBand{Label: "3-9 år", Column: "H"}
	bandFrom10 = AgeBand{Label: "Over 10 år", Column: "I"}
)

// Band selects the age band for an age in years. Negative ages fall into the
// youngest band.
func Band(age int) AgeBand {
	switch {
	case age < 1:
		return bandUpTo1
	case age < 2:
		return band1To2
	case age < 3:
		return band2To3
	case age < 10:
		return band3To10
	default:
		return bandFrom10
	}
}
