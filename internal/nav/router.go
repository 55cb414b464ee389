// Package nav maps free-form recognized speech to app routes without
// involving the conversational AI.
package nav

import (
	"errors"
	"strings"
)

// ErrNoMatch means no phrase in the active language's table matched. It is
// non-fatal; callers log it and take no action.
var ErrNoMatch = errors.New("no matching voice command")

const (
	LangMalayalam = "malayalam"
	LangEnglish   = "english"
)

// Command pairs a trigger phrase with its route. Tables are evaluated in
// declaration order and the first match wins, so a shorter phrase that is a
// substring of a longer one ("virtual" vs "virtual farm") resolves by
// position in the table.
type Command struct {
	Phrase string
	Route  string
}

var malayalamCommands = []Command{
	{"കാലാവസ്ഥ", "/weather"},
	{"കീടം", "/pest-disease"},
	{"വളം", "/fertilizer"},
	{"ആധുനിക കൃഷി", "/modern-farming"},
	{"കൃഷി ദിനപതി", "/farm-diary"},
	{"വിള നിർദ്ദേശം", "/crop-recommender"},
	{"കൂട്ടായ്മ", "/farmer-groups"},
	{"വെർച്വൽ ഫാം", "/virtual-farm"},
	{"വെർച്വൽ", "/virtual-farm"},
	{"ഹോം", "/"},
}

var englishCommands = []Command{
	{"weather", "/weather"},
	{"pest", "/pest-disease"},
	{"disease", "/pest-disease"},
	{"fertilizer", "/fertilizer"},
	{"soil", "/fertilizer"},
	{"modern farming", "/modern-farming"},
	{"modern", "/modern-farming"},
	{"farm diary", "/farm-diary"},
	{"diary", "/farm-diary"},
	{"crop", "/crop-recommender"},
	{"crops", "/crop-recommender"},
	{"recommender", "/crop-recommender"},
	{"farmer groups", "/farmer-groups"},
	{"groups", "/farmer-groups"},
	{"virtual farm", "/virtual-farm"},
	{"virtual", "/virtual-farm"},
	{"home", "/"},
}

// Router matches transcripts against the per-language command tables.
type Router struct {
	tables map[string][]Command
}

func NewRouter() *Router {
	return &Router{
		tables: map[string][]Command{
			LangMalayalam: malayalamCommands,
			LangEnglish:   englishCommands,
		},
	}
}

// Interpret returns the route for the first phrase contained in the
// transcript (case-insensitive), or ErrNoMatch. An unknown language falls
// back to English.
func (r *Router) Interpret(transcript, activeLanguage string) (string, error) {
	table, ok := r.tables[activeLanguage]
	if !ok {
		table = r.tables[LangEnglish]
	}

	lower := strings.ToLower(transcript)
	for _, cmd := range table {
		if strings.Contains(lower, strings.ToLower(cmd.Phrase)) {
			return cmd.Route, nil
		}
	}
	return "", ErrNoMatch
}
