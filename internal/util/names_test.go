package util

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseNames(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "one per line",
			input: "Иван Иванов\nМария Смирнова\n",
			want:  []string{"Иван Иванов", "Мария Смирнова"},
		},
		{
			name:  "semicolons and CRLF",
			input: "Иван Иванов;Пётр Петров\r\nАнна Кузнецова",
			want:  []string{"Иван Иванов", "Пётр Петров", "Анна Кузнецова"},
		},
		{
			name:  "collapses whitespace",
			input: "   Иван    Иванов  \n\t\n",
			want:  []string{"Иван Иванов"},
		},
		{
			name:  "drops duplicates case-insensitively",
			input: "Иван Иванов\nиван иванов\nИван Иванов",
			want:  []string{"Иван Иванов"},
		},
		{
			name:  "empty",
			input: " \n ; \n",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNames(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseNames mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"Иван Иванов":            "ИИ",
		"мария":                  "М",
		"Анна Сергеевна Петрова": "АС",
		"":                       "",
	}
	for in, want := range tests {
		if got := Initials(in); got != want {
			t.Errorf("Initials(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	if got := NormalizeKey("  ПРОФИЛЬ "); got != "профиль" {
		t.Errorf("NormalizeKey = %q", got)
	}
}

func TestOrDash(t *testing.T) {
	for in, want := range map[string]string{"": "-", "  ": "-", "a@b.c": "a@b.c"} {
		if got := OrDash(in); got != want {
			t.Errorf("OrDash(%q) = %q, want %q", in, got, want)
		}
	}
}
