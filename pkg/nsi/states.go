package nsi

import (
	"strings"
)

// validStates lists the state FIPS codes with a published statewide archive:
// the 50 states plus the District of Columbia.
var validStates = []string{
	"01", "02", "04", "05", "06", "08", "09", "10", "11", "12",
	"13", "15", "16", "17", "18", "19", "20", "21", "22", "23",
	"24", "25", "26", "27", "28", "29", "30", "31", "32", "33",
	"34", "35", "36", "37", "38", "39", "40", "41", "42", "44",
	"45", "46", "47", "48", "49", "50", "51", "53", "54", "55",
	"56",
}

var validStateSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(validStates))
	for _, s := range validStates {
		m[s] = struct{}{}
	}
	return m
}()

// ValidStates returns a copy of the accepted state codes in ascending order.
func ValidStates() []string {
	out := make([]string, len(validStates))
	copy(out, validStates)
	return out
}

// NormalizeState pads a single-character code with a leading zero and checks
// it against ValidStates.
func NormalizeState(state string) (string, error) {
	state = strings.TrimSpace(state)
	if len(state) == 1 {
		state = "0" + state
	}
	if _, ok := validStateSet[state]; !ok {
		return "", invalidArgument("normalize state",
			"Invalid state GEOID %q supplied. For a list of valid state codes, see: "+
				"https://www.census.gov/library/reference/code-lists/ansi.html#states", state)
	}
	return state, nil
}
