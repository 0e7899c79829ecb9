package nsi

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is the administrative level encoded by a GEOID's length.
type Level int

// GEOID levels.
const (
	LevelState      Level = 2
	LevelCounty     Level = 5
	LevelTract      Level = 11
	LevelBlockGroup Level = 12
	LevelBlock      Level = 15
)

func (l Level) String() string {
	switch l {
	case LevelState:
		return "state"
	case LevelCounty:
		return "county"
	case LevelTract:
		return "tract"
	case LevelBlockGroup:
		return "block group"
	case LevelBlock:
		return "block"
	default:
		return "unknown"
	}
}

// GEOID is a normalized Census geographic identifier.
type GEOID string

// Level returns the administrative level of g.
func (g GEOID) Level() Level {
	return Level(len(g))
}

// NormalizeGEOID converts v to a GEOID. Strings, integers and fmt.Stringer
// values are accepted. A single digit is left-padded with one zero, so 1 and
// "1" both become "01". The result must be all digits with a length of 2, 5,
// 11, 12 or 15.
func NormalizeGEOID(v any) (GEOID, error) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case GEOID:
		s = string(x)
	case int:
		s = strconv.FormatInt(int64(x), 10)
	case int8:
		s = strconv.FormatInt(int64(x), 10)
	case int16:
		s = strconv.FormatInt(int64(x), 10)
	case int32:
		s = strconv.FormatInt(int64(x), 10)
	case int64:
		s = strconv.FormatInt(x, 10)
	case uint:
		s = strconv.FormatUint(uint64(x), 10)
	case uint8:
		s = strconv.FormatUint(uint64(x), 10)
	case uint16:
		s = strconv.FormatUint(uint64(x), 10)
	case uint32:
		s = strconv.FormatUint(uint64(x), 10)
	case uint64:
		s = strconv.FormatUint(x, 10)
	case fmt.Stringer:
		s = x.String()
	default:
		return "", invalidArgument("normalize geoid", "unsupported GEOID type %T", v)
	}

	s = strings.TrimSpace(s)
	if len(s) == 1 {
		s = "0" + s
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return "", invalidArgument("normalize geoid", "Invalid GEOID supplied: %q is not numeric", s)
		}
	}

	switch Level(len(s)) {
	case LevelState, LevelCounty, LevelTract, LevelBlockGroup, LevelBlock:
		return GEOID(s), nil
	default:
		return "", invalidArgument("normalize geoid",
			"Invalid GEOID supplied: %q has length %d, want 2, 5, 11, 12 or 15", s, len(s))
	}
}
