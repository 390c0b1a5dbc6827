// Package extract recovers a partial vitals record from free text using
// keyword tables and pattern matching. It has no I/O and never fails.
package extract

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/linnemanlabs/firstline/internal/vitals"
)

// maxGap is how many characters may separate a keyword from its value. The
// gap never spans a digit, comma or semicolon, so a keyword cannot claim the
// number of the next clause.
const maxGap = 12

const number = `(\d+(?:\.\d+)?)`

var (
	// systolic/diastolic pair, first number is systolic
	bpPair = regexp.MustCompile(`\b(\d{2,3})\s*/\s*(\d{2,3})\b`)

	fahrenheitUnit = regexp.MustCompile(`^\s*(?:°\s*)?(?:f\b|fahrenheit)`)
	celsiusUnit    = regexp.MustCompile(`^\s*(?:°\s*)?(?:c\b|celsius)`)
)

// Plausible ranges for the fields matched with loose keywords.
const (
	minTempC = 25.0
	maxTempC = 45.0
	minTempF = 93.0
	maxTempF = 110.0

	// a bare pair outside these bounds is a date or a fraction
	minPairSystolic  = 50
	minPairDiastolic = 20
)

type numberRule struct {
	before *regexp.Regexp
	after  *regexp.Regexp
}

type compiledTable struct {
	spo2        numberRule
	systolic    numberRule
	heartRate   numberRule
	temperature numberRule
	age         numberRule
	unconscious []string
	confused    []string
	drowsy      []string
}

// Extractor applies compiled keyword tables to text. It is safe for
// concurrent use.
type Extractor struct {
	tables map[Language]*compiledTable
}

// New compiles the given tables. The English table is required.
func New(tables Tables) (*Extractor, error) {
	if _, ok := tables[English]; !ok {
		return nil, fmt.Errorf("extract: english keyword table is required")
	}
	e := &Extractor{tables: make(map[Language]*compiledTable, len(tables))}
	for lang, t := range tables {
		ct, err := compileTable(t)
		if err != nil {
			return nil, fmt.Errorf("extract: compile %s table: %w", lang, err)
		}
		e.tables[lang] = ct
	}
	return e, nil
}

var defaultExtractor = sync.OnceValue(func() *Extractor {
	tables, err := DefaultTables()
	if err != nil {
		panic(err)
	}
	e, err := New(tables)
	if err != nil {
		panic(err)
	}
	return e
})

// Default returns the extractor built from the embedded keyword tables.
func Default() *Extractor {
	return defaultExtractor()
}

// Extract runs the embedded English tables over text.
func Extract(text string) vitals.Vitals {
	return defaultExtractor().Extract(text, English)
}

// Extract returns whatever vitals text mentions. Fields are matched
// independently; the first match per field wins. Consciousness is never left
// unset: without a matching phrase it is vitals.DefaultConsciousness.
func (e *Extractor) Extract(text string, lang Language) vitals.Vitals {
	s := normalize(text)
	chain := e.chain(lang)

	var v vitals.Vitals

	if n, ok := firstNumber(s, rules(chain, func(t *compiledTable) numberRule { return t.spo2 }), anyValue); ok {
		v.SpO2 = vitals.Int(int(n))
	}

	if n, ok := systolicFromPair(s); ok {
		v.SystolicBP = vitals.Int(n)
	}
	if v.SystolicBP == nil {
		if n, ok := firstNumber(s, rules(chain, func(t *compiledTable) numberRule { return t.systolic }), anyValue); ok {
			v.SystolicBP = vitals.Int(int(n))
		}
	}

	if n, ok := firstNumber(s, rules(chain, func(t *compiledTable) numberRule { return t.heartRate }), anyValue); ok {
		v.HeartRate = vitals.Int(int(n))
	}

	if n, ok := firstNumber(s, rules(chain, func(t *compiledTable) numberRule { return t.temperature }), celsius); ok {
		v.Temperature = vitals.Float(n)
	}

	if n, ok := firstNumber(s, rules(chain, func(t *compiledTable) numberRule { return t.age }), plausibleAge); ok {
		v.Age = vitals.Int(int(n))
	}

	level := classify(s, chain)
	v.Consciousness = &level

	return v
}

// chain returns English first, then the request language when it differs.
func (e *Extractor) chain(lang Language) []*compiledTable {
	out := []*compiledTable{e.tables[English]}
	if lang != English {
		if t, ok := e.tables[lang]; ok {
			out = append(out, t)
		}
	}
	return out
}

func classify(s string, chain []*compiledTable) vitals.Consciousness {
	levels := []struct {
		level   vitals.Consciousness
		phrases func(*compiledTable) []string
	}{
		{vitals.ConsciousnessUnconscious, func(t *compiledTable) []string { return t.unconscious }},
		{vitals.ConsciousnessConfused, func(t *compiledTable) []string { return t.confused }},
		{vitals.ConsciousnessDrowsy, func(t *compiledTable) []string { return t.drowsy }},
	}
	for _, l := range levels {
		for _, t := range chain {
			for _, p := range l.phrases(t) {
				if strings.Contains(s, p) {
					return l.level
				}
			}
		}
	}
	return vitals.DefaultConsciousness
}

// rules orders keyword-before patterns ahead of unit-after patterns so a
// labelled value always beats a bare unit.
func rules(chain []*compiledTable, pick func(*compiledTable) numberRule) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, t := range chain {
		if r := pick(t).before; r != nil {
			out = append(out, r)
		}
	}
	for _, t := range chain {
		if r := pick(t).after; r != nil {
			out = append(out, r)
		}
	}
	return out
}

// accept inspects a parsed value and the text following it, returning the
// value to record.
type accept func(value float64, tail string) (float64, bool)

func anyValue(v float64, _ string) (float64, bool) { return v, true }

func plausibleAge(v float64, _ string) (float64, bool) {
	return v, v <= vitals.MaxAge
}

// celsius converts explicit or implied Fahrenheit readings and rejects values
// that cannot be a body temperature.
func celsius(v float64, tail string) (float64, bool) {
	switch {
	case fahrenheitUnit.MatchString(tail):
		v = (v - 32) * 5 / 9
	case celsiusUnit.MatchString(tail):
	case v >= minTempF && v <= maxTempF:
		v = (v - 32) * 5 / 9
	}
	v = math.Round(v*10) / 10
	return v, v >= minTempC && v <= maxTempC
}

// systolicFromPair returns the systolic value of the first plausible
// systolic/diastolic pair in s.
func systolicFromPair(s string) (int, bool) {
	for _, m := range bpPair.FindAllStringSubmatch(s, -1) {
		sys, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		dia, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if sys >= minPairSystolic && sys <= vitals.MaxSystolicBP && dia >= minPairDiastolic && dia < sys {
			return sys, true
		}
	}
	return 0, false
}

func firstNumber(s string, res []*regexp.Regexp, ok accept) (float64, bool) {
	for _, re := range res {
		for _, loc := range re.FindAllStringSubmatchIndex(s, -1) {
			start, end := loc[2], loc[3]
			n, err := strconv.ParseFloat(s[start:end], 64)
			if err != nil || n > 1e6 {
				continue
			}
			if v, good := ok(n, s[end:]); good {
				return v, true
			}
		}
	}
	return 0, false
}

func compileTable(t KeywordTable) (*compiledTable, error) {
	var ct compiledTable
	var err error
	fields := []struct {
		dst *numberRule
		src FieldKeywords
	}{
		{&ct.spo2, t.SpO2},
		{&ct.systolic, t.SystolicBP},
		{&ct.heartRate, t.HeartRate},
		{&ct.temperature, t.Temperature},
		{&ct.age, t.Age},
	}
	for _, f := range fields {
		if f.dst.before, err = compileBefore(f.src.Before); err != nil {
			return nil, err
		}
		if f.dst.after, err = compileAfter(f.src.After); err != nil {
			return nil, err
		}
	}
	ct.unconscious = normalizeAll(t.Consciousness.Unconscious)
	ct.confused = normalizeAll(t.Consciousness.Confused)
	ct.drowsy = normalizeAll(t.Consciousness.Drowsy)
	return &ct, nil
}

func compileBefore(keywords []string) (*regexp.Regexp, error) {
	alt := alternation(keywords, true, false)
	if alt == "" {
		return nil, nil
	}
	return regexp.Compile(`(?:` + alt + `)[^\d,;]{0,` + strconv.Itoa(maxGap) + `}?` + number)
}

func compileAfter(units []string) (*regexp.Regexp, error) {
	alt := alternation(units, false, true)
	if alt == "" {
		return nil, nil
	}
	return regexp.Compile(number + `\s*(?:` + alt + `)`)
}

// alternation quotes each phrase and adds ASCII word boundaries on the
// requested sides where the phrase has an ASCII word character there. Go's \b
// is ASCII-only, so Devanagari phrases are matched as plain substrings.
func alternation(phrases []string, leading, trailing bool) string {
	parts := make([]string, 0, len(phrases))
	for _, p := range normalizeAll(phrases) {
		q := regexp.QuoteMeta(p)
		if leading && isASCIIWord(p[0]) {
			q = `\b` + q
		}
		if trailing && isASCIIWord(p[len(p)-1]) {
			q += `\b`
		}
		parts = append(parts, q)
	}
	return strings.Join(parts, "|")
}

func isASCIIWord(b byte) bool {
	return b < utf8.RuneSelf && (b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z')
}

func normalizeAll(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if n := strings.TrimSpace(normalize(p)); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// normalize folds case, applies NFKC so full-width digits and signs become
// ASCII, and maps Devanagari digits to ASCII digits.
func normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(asciiDigit, s)
	return cases.Fold().String(s)
}

func asciiDigit(r rune) rune {
	if r >= '०' && r <= '९' {
		return '0' + (r - '०')
	}
	return r
}
