package logger

import "strings"

// Level is the level at which a logger is configured. All messages sent
// to a level which is below the current level are filtered.
type Level uint32

// Level constants.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

type levelName struct {
	tag  string
	name string
}

// levelNames holds the tag printed in log lines and the name accepted by
// --debuglevel for every level.
var levelNames = [...]levelName{
	LevelTrace:    {tag: "TRC", name: "trace"},
	LevelDebug:    {tag: "DBG", name: "debug"},
	LevelInfo:     {tag: "INF", name: "info"},
	LevelWarn:     {tag: "WRN", name: "warn"},
	LevelError:    {tag: "ERR", name: "error"},
	LevelCritical: {tag: "CRT", name: "critical"},
	LevelOff:      {tag: "OFF", name: "off"},
}

// LevelFromString returns the level named or tagged s, ignoring case. If s
// is neither, the info level and false are returned.
func LevelFromString(s string) (l Level, ok bool) {
	s = strings.ToLower(s)
	for level, names := range levelNames {
		if s == names.name || s == strings.ToLower(names.tag) {
			return Level(level), true
		}
	}
	return LevelInfo, false
}

// String returns the tag of the level used in log messages, or "OFF" if
// the level will not produce any log output.
func (l Level) String() string {
	if l >= LevelOff {
		return levelNames[LevelOff].tag
	}
	return levelNames[l].tag
}
