package game

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Слово", "слово"},
		{"ЁЛКА", "елка"},
		{"ёжик", "ежик"},
		{"  Apple ", "apple"},
		{"APPLE", "apple"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want Classification
	}{
		{"слово", ClassRussian},
		{"ёлка", ClassRussian},
		{"apple", ClassEnglish},
		{"wordслово", ClassMixed},
		{"app1e", ClassInvalid},
		{"сло-во", ClassInvalid},
		{"", ClassInvalid},
	}
	for _, tt := range tests {
		if got := Classify(tt.in); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMatches(t *testing.T) {
	if !Matches(LangRussian, "слово") {
		t.Error("слово should match the Russian alphabet")
	}
	if Matches(LangRussian, "apple") {
		t.Error("apple should not match the Russian alphabet")
	}
	if !Matches(LangEnglish, "apple") {
		t.Error("apple should match the English alphabet")
	}
	if Matches(LangEnglish, "слово") {
		t.Error("слово should not match the English alphabet")
	}
}

func TestRemainingLetters(t *testing.T) {
	correct := NewLetterSet()
	correct.Add('С')
	correct.Add('О')
	absent := NewLetterSet()
	absent.Add('Н')
	absent.Add('Ц')

	rest := RemainingLetters(LangRussian, correct, absent)
	for _, l := range []string{"С", "О", "Н", "Ц", "Ё"} {
		if strings.Contains(rest, l) {
			t.Errorf("remaining should not contain %s", l)
		}
	}
	if !strings.Contains(rest, "Л") || !strings.Contains(rest, "А") {
		t.Error("remaining is missing untouched letters")
	}
	if got := len(strings.Fields(rest)); got != 32-4 {
		t.Errorf("remaining has %d letters, want %d", got, 32-4)
	}
}

func TestAlphabetSizes(t *testing.T) {
	if got := len([]rune(Alphabet(LangRussian))); got != 32 {
		t.Errorf("Russian alphabet has %d letters, want 32", got)
	}
	if got := len([]rune(Alphabet(LangEnglish))); got != 26 {
		t.Errorf("English alphabet has %d letters, want 26", got)
	}
}

func TestLetterSetSorted(t *testing.T) {
	s := NewLetterSet()
	for _, r := range "ВАБ" {
		s.Add(r)
	}
	got := s.String()
	if got != "А Б В" {
		t.Errorf("String() = %q, want %q", got, "А Б В")
	}
}
