package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/linnemanlabs/firstline/internal/vitals"
)

// want describes expected fields; nil pointers mean the field must be unset.
type want struct {
	age           *int
	systolic      *int
	heartRate     *int
	spo2          *int
	temperature   *float64
	consciousness vitals.Consciousness
}

func checkInt(t *testing.T, name string, got, want *int) {
	t.Helper()
	switch {
	case want == nil && got != nil:
		t.Errorf("%s = %d, want unset", name, *got)
	case want != nil && got == nil:
		t.Errorf("%s unset, want %d", name, *want)
	case want != nil && *got != *want:
		t.Errorf("%s = %d, want %d", name, *got, *want)
	}
}

func checkVitals(t *testing.T, got vitals.Vitals, w want) {
	t.Helper()
	checkInt(t, "age", got.Age, w.age)
	checkInt(t, "systolicBp", got.SystolicBP, w.systolic)
	checkInt(t, "heartRate", got.HeartRate, w.heartRate)
	checkInt(t, "spo2", got.SpO2, w.spo2)
	switch {
	case w.temperature == nil && got.Temperature != nil:
		t.Errorf("temperature = %g, want unset", *got.Temperature)
	case w.temperature != nil && got.Temperature == nil:
		t.Errorf("temperature unset, want %g", *w.temperature)
	case w.temperature != nil && *got.Temperature != *w.temperature:
		t.Errorf("temperature = %g, want %g", *got.Temperature, *w.temperature)
	}
	if got.Consciousness == nil {
		t.Fatal("consciousness unset, want always set")
	}
	if *got.Consciousness != w.consciousness {
		t.Errorf("consciousness = %q, want %q", *got.Consciousness, w.consciousness)
	}
	if got.ProviderAssessment != nil {
		t.Errorf("providerAssessment = %q, want unset", *got.ProviderAssessment)
	}
}

var (
	i = vitals.Int
	f = vitals.Float
)

func TestExtract_English(t *testing.T) {
	t.Parallel()

	alert := vitals.ConsciousnessAlert

	tests := []struct {
		name string
		text string
		want want
	}{
		{"scenario A", "spo2 85, hr 130", want{spo2: i(85), heartRate: i(130), consciousness: alert}},
		{"scenario B", "bp 85/60, feeling drowsy, age 65", want{systolic: i(85), age: i(65), consciousness: vitals.ConsciousnessDrowsy}},
		{"scenario C", "temperature 39, age 65", want{temperature: f(39), age: i(65), consciousness: alert}},
		{"scenario D", "I feel a bit off", want{consciousness: alert}},
		{"empty", "", want{consciousness: alert}},
		{"whitespace", "   \n\t ", want{consciousness: alert}},

		{"oxygen keyword", "his oxygen is 91", want{spo2: i(91), consciousness: alert}},
		{"o2 keyword", "O2 sat 93", want{spo2: i(93), consciousness: alert}},
		{"bare percent", "reading shows 88%", want{spo2: i(88), consciousness: alert}},
		{"keyword beats percent", "sats 90% oxygen 94", want{spo2: i(90), consciousness: alert}},
		{"spo2 decimal truncates", "spo2 92.7", want{spo2: i(92), consciousness: alert}},

		{"bp pair", "BP 120/80", want{systolic: i(120), consciousness: alert}},
		{"pair without keyword", "measured 190/110 earlier", want{systolic: i(190), consciousness: alert}},
		{"pressure keyword", "blood pressure is 88", want{systolic: i(88), consciousness: alert}},
		{"pair beats keyword", "pressure 140, later 95/60", want{systolic: i(95), consciousness: alert}},
		{"date is not a pair", "fell on 12/05, feeling fine now", want{consciousness: alert}},
		{"fraction is not a pair", "took 2 of 10/20 tablets, I feel ok", want{consciousness: alert}},
		{"diastolic above systolic", "room 80/120 upstairs", want{consciousness: alert}},
		{"pair inside longer number", "ref 1120/800", want{consciousness: alert}},
		{"date skipped for later pair", "since 12/05, bp 130/85", want{systolic: i(130), consciousness: alert}},
		{"implausible pair falls back to keyword", "bp 40/20", want{systolic: i(40), consciousness: alert}},

		{"heart keyword", "heart rate 45", want{heartRate: i(45), consciousness: alert}},
		{"pulse keyword", "Pulse: 124", want{heartRate: i(124), consciousness: alert}},
		{"bpm suffix", "counting 130 bpm", want{heartRate: i(130), consciousness: alert}},
		{"hr inside word ignored", "three days", want{consciousness: alert}},

		{"temp celsius", "temp 38.5°C", want{temperature: f(38.5), consciousness: alert}},
		{"temp fahrenheit explicit", "temp 102F", want{temperature: f(38.9), consciousness: alert}},
		{"temp fahrenheit implied", "fever 101", want{temperature: f(38.3), consciousness: alert}},
		{"temp degrees suffix", "it is 39.5 degrees", want{temperature: f(39.5), consciousness: alert}},
		{"implausible temp ignored", "fever for 2 days", want{consciousness: alert}},

		{"age suffix", "a 72 years old man", want{age: i(72), consciousness: alert}},
		{"age yo", "45 yo female", want{age: i(45), consciousness: alert}},
		{"implausible age ignored", "age 900", want{consciousness: alert}},

		{"unconscious", "He is unconscious", want{consciousness: vitals.ConsciousnessUnconscious}},
		{"not waking", "she is not waking up", want{consciousness: vitals.ConsciousnessUnconscious}},
		{"passed out", "Passed out 5 min ago", want{consciousness: vitals.ConsciousnessUnconscious}},
		{"confused", "seems confused", want{consciousness: vitals.ConsciousnessConfused}},
		{"disoriented", "Disoriented and cold", want{consciousness: vitals.ConsciousnessConfused}},
		{"sleepy", "very sleepy", want{consciousness: vitals.ConsciousnessDrowsy}},
		{"unconscious beats confused", "confused then unconscious", want{consciousness: vitals.ConsciousnessUnconscious}},
		{"confused beats drowsy", "drowsy and confused", want{consciousness: vitals.ConsciousnessConfused}},

		{"full width digits", "SpO2 ９２％", want{spo2: i(92), consciousness: alert}},
		{"clause boundary", "oxygen low, pulse 130", want{heartRate: i(130), consciousness: alert}},
		{"everything", "72 yo, BP 85/60, HR 130, SpO2 89%, temp 39.2, drowsy",
			want{age: i(72), systolic: i(85), heartRate: i(130), spo2: i(89), temperature: f(39.2), consciousness: vitals.ConsciousnessDrowsy}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			checkVitals(t, Extract(tt.text), tt.want)
		})
	}
}

func TestExtract_Hindi(t *testing.T) {
	t.Parallel()

	e := Default()

	got := e.Extract("ऑक्सीजन ८८, नाड़ी १३०, बेहोश", Hindi)
	checkVitals(t, got, want{spo2: i(88), heartRate: i(130), consciousness: vitals.ConsciousnessUnconscious})

	got = e.Extract("उम्र 70, बीपी 85/60", Hindi)
	checkVitals(t, got, want{age: i(70), systolic: i(85), consciousness: vitals.ConsciousnessAlert})

	// English vocabulary still applies under another language
	got = e.Extract("spo2 95, 65 साल", Hindi)
	checkVitals(t, got, want{spo2: i(95), age: i(65), consciousness: vitals.ConsciousnessAlert})
}

func TestExtract_Marathi(t *testing.T) {
	t.Parallel()

	got := Default().Extract("वय ७०, ताप १०२, गोंधळलेला", Marathi)
	checkVitals(t, got, want{age: i(70), temperature: f(38.9), consciousness: vitals.ConsciousnessConfused})
}

func TestExtract_LanguageTablesAreScoped(t *testing.T) {
	t.Parallel()

	// Hindi vocabulary is not applied to an English request.
	got := Default().Extract("ऑक्सीजन 88, बेहोश", English)
	checkVitals(t, got, want{consciousness: vitals.ConsciousnessAlert})
}

func TestExtract_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	t.Parallel()

	got := Default().Extract("spo2 85", Language("fr"))
	checkVitals(t, got, want{spo2: i(85), consciousness: vitals.ConsciousnessAlert})
}

func TestExtract_Deterministic(t *testing.T) {
	t.Parallel()

	text := "72 yo, BP 85/60, HR 130, SpO2 89%, temp 39.2, drowsy"
	a, b := Extract(text), Extract(text)
	if *a.SpO2 != *b.SpO2 || *a.SystolicBP != *b.SystolicBP || *a.Consciousness != *b.Consciousness {
		t.Errorf("Extract not deterministic: %+v vs %+v", a, b)
	}
}

func TestDefaultTables(t *testing.T) {
	t.Parallel()

	tables, err := DefaultTables()
	if err != nil {
		t.Fatalf("DefaultTables: %v", err)
	}
	for _, lang := range Languages {
		if _, ok := tables[lang]; !ok {
			t.Errorf("missing table for %q", lang)
		}
	}
	if len(tables[English].Consciousness.Unconscious) == 0 {
		t.Error("english table has no unconscious phrases")
	}
}

func TestLoadTables(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"empty path uses defaults", "", ""},
		{"valid file", write("ok.yaml", "en:\n  spo2:\n    before: [sat]\n"), ""},
		{"missing file", filepath.Join(dir, "nope.yaml"), "read keyword tables"},
		{"bad yaml", write("bad.yaml", "en: [unclosed"), "parse keyword tables"},
		{"no english", write("hi.yaml", "hi:\n  spo2:\n    before: [x]\n"), "english table is required"},
		{"unknown language", write("fr.yaml", "en: {}\nfr: {}\n"), "unsupported language"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadTables(tt.path)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("LoadTables: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadTables err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNew_CustomTable(t *testing.T) {
	t.Parallel()

	e, err := New(Tables{English: {SpO2: FieldKeywords{Before: []string{"sat"}}}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := e.Extract("sat 91, spo2 80", English)
	checkVitals(t, got, want{spo2: i(91), consciousness: vitals.ConsciousnessAlert})
}

func TestNew_RequiresEnglish(t *testing.T) {
	t.Parallel()

	if _, err := New(Tables{Hindi: {}}); err == nil {
		t.Fatal("New without english table should fail")
	}
}

func TestParseLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{"en", English, false},
		{"en-GB", English, false},
		{"hi", Hindi, false},
		{"hi-IN", Hindi, false},
		{"mr", Marathi, false},
		{"MR-in", Marathi, false},
		{"fr", "", true},
		{"", "", true},
		{"not a tag!", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLanguage(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLanguage(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLanguage(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLanguage_EnglishName(t *testing.T) {
	t.Parallel()

	want := map[Language]string{English: "English", Hindi: "Hindi", Marathi: "Marathi"}
	for lang, name := range want {
		if got := lang.EnglishName(); got != name {
			t.Errorf("%s.EnglishName() = %q, want %q", lang, got, name)
		}
	}
}

func FuzzExtract(f *testing.F) {
	seeds := []string{
		"",
		"spo2 85, hr 130",
		"bp 85/60, feeling drowsy, age 65",
		"temp 102F",
		"ऑक्सीजन ८८",
		"\x00\xff\xfe",
		strings.Repeat("9", 400) + "%",
		"spo2 " + strings.Repeat("1", 50),
	}
	for _, s := range seeds {
		f.Add(s)
	}

	e := Default()
	f.Fuzz(func(t *testing.T, text string) {
		for _, lang := range Languages {
			v := e.Extract(text, lang)
			if v.Consciousness == nil || !v.Consciousness.Valid() {
				t.Fatalf("Extract(%q, %s) consciousness = %v, want a valid level", text, lang, v.Consciousness)
			}
			if v.ProviderAssessment != nil {
				t.Fatalf("Extract(%q) set providerAssessment", text)
			}
			if v.Temperature != nil && (*v.Temperature < minTempC || *v.Temperature > maxTempC) {
				t.Fatalf("Extract(%q) temperature %g outside plausible range", text, *v.Temperature)
			}
		}
	})
}
