package resolver

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/wonny/spds/internal/contracts"
)

// NameMatcher maps a strategy to one of the available trade history names
type NameMatcher interface {
	Match(strategy contracts.Strategy, candidates []string) (string, bool)
}

// DefaultTimeframe is inserted when neither the strategy nor the name carries one
const DefaultTimeframe = "D"

var (
	dateCompact = regexp.MustCompile(`^\d{8}$|^\d{6}$`) // YYYYMMDD, YYYYMM
	year        = regexp.MustCompile(`^\d{4}$`)
	twoDigits   = regexp.MustCompile(`^\d{2}$`)

	fileExtensions = map[string]bool{".csv": true, ".json": true, ".parquet": true}

	timeframeAliases = map[string]string{
		"D": "D", "1D": "D", "DAILY": "D",
		"W": "W", "1W": "W", "WEEKLY": "W",
		"M": "M", "1M": "M", "MONTHLY": "M",
		"H": "H1", "1H": "H1", "H1": "H1",
		"4H": "H4", "H4": "H4",
	}
)

// =============================================================================
// Heuristic Matcher
// =============================================================================

// HeuristicMatcher compares canonical keys TICKER_TF_REST.
// Name and history names are upper-cased, tokenized on "_", "-" and space,
// stripped of trailing dates and redundant leading tickers.
type HeuristicMatcher struct{}

// Match returns the first candidate (sorted) whose canonical key equals the strategy's.
// An exact raw-name hit wins.
func (HeuristicMatcher) Match(strategy contracts.Strategy, candidates []string) (string, bool) {
	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.Strings(sorted)

	ticker := strings.ToUpper(strategy.Ticker)
	for _, name := range sorted {
		if name == strategy.Name || name == ticker+"_"+strategy.Name {
			return name, true
		}
	}

	want := CanonicalKey(strategy.Name, ticker, strategy.Timeframe)
	for _, name := range sorted {
		if CanonicalKey(name, ticker, strategy.Timeframe) == want {
			return name, true
		}
	}
	return "", false
}

// CanonicalKey normalizes a strategy or history name for ticker
func CanonicalKey(name, ticker, timeframe string) string {
	ticker = strings.ToUpper(ticker)
	base := name
	if ext := filepath.Ext(name); fileExtensions[strings.ToLower(ext)] {
		base = strings.TrimSuffix(name, ext)
	}
	base = strings.ToUpper(base)

	tokens := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	tokens = stripDates(tokens)

	for len(tokens) > 0 && tokens[0] == ticker {
		tokens = tokens[1:]
	}

	tf := ""
	rest := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if alias, ok := timeframeAliases[tok]; ok && tf == "" {
			tf = alias
			continue
		}
		rest = append(rest, tok)
	}
	if tf == "" {
		tf = normalizeTimeframe(timeframe)
	}

	return strings.Join(append([]string{ticker, tf}, rest...), "_")
}

func normalizeTimeframe(tf string) string {
	if alias, ok := timeframeAliases[strings.ToUpper(strings.TrimSpace(tf))]; ok {
		return alias
	}
	if tf = strings.ToUpper(strings.TrimSpace(tf)); tf != "" {
		return tf
	}
	return DefaultTimeframe
}

// stripDates removes trailing YYYYMMDD / YYYYMM / YYYY-MM-DD groups
func stripDates(tokens []string) []string {
	for len(tokens) > 0 {
		n := len(tokens)
		switch {
		case dateCompact.MatchString(tokens[n-1]):
			tokens = tokens[:n-1]
		case n >= 3 && year.MatchString(tokens[n-3]) && twoDigits.MatchString(tokens[n-2]) && twoDigits.MatchString(tokens[n-1]):
			tokens = tokens[:n-3]
		default:
			return tokens
		}
	}
	return tokens
}

// =============================================================================
// Mapping Matcher
// =============================================================================

// MappingMatcher resolves through an explicit strategy ID → history name table
type MappingMatcher struct {
	Mapping  map[string]string
	Fallback NameMatcher
}

func (m MappingMatcher) Match(strategy contracts.Strategy, candidates []string) (string, bool) {
	if name, ok := m.Mapping[strategy.ID()]; ok {
		for _, c := range candidates {
			if c == name {
				return name, true
			}
		}
	}
	if m.Fallback != nil {
		return m.Fallback.Match(strategy, candidates)
	}
	return "", false
}
