package slug

import (
	"strings"
	"testing"
)

// TestGenerate exercises the slug generator with a broad range of inputs
// covering typical titles, special characters, and boundary conditions.
func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Normal titles ---
		{
			name:  "simple two words",
			input: "Hello World",
			want:  "hello-world",
		},
		{
			name:  "title with punctuation and year",
			input: "Hello, World! 2019",
			want:  "hello-world-2019",
		},
		{
			name:  "already lowercase",
			input: "already lowercase",
			want:  "already-lowercase",
		},
		{
			name:  "mixed case sentence",
			input: "The Quick Brown Fox Jumps Over the Lazy Dog",
			want:  "the-quick-brown-fox-jumps-over-the-lazy-dog",
		},

		// --- Special characters ---
		{
			name:  "apostrophes collapse",
			input: "Hello, World! How's it going?",
			want:  "hello-world-hows-it-going",
		},
		{
			name:  "ampersand and at sign",
			input: "Rock & Roll @ the Arena",
			want:  "rock-roll-the-arena",
		},
		{
			name:  "parentheses and brackets",
			input: "Version (2.0) [Beta]",
			want:  "version-20-beta",
		},
		{
			name:  "hash and dollar",
			input: "Issue #42 costs $100",
			want:  "issue-42-costs-100",
		},

		// --- Edge cases ---
		{
			name:  "leading and trailing whitespace",
			input: "  padded title  ",
			want:  "padded-title",
		},
		{
			name:  "consecutive spaces collapse",
			input: "too    many     spaces",
			want:  "too-many-spaces",
		},
		{
			name:  "pre-hyphenated input",
			input: "keep-existing-hyphens",
			want:  "keep-existing-hyphens",
		},
		{
			name:  "only special characters",
			input: "!!!???...",
			want:  "",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		length int
		want   string
	}{
		{
			name:   "short slug unchanged",
			input:  "hello-world",
			length: 200,
			want:   "hello-world",
		},
		{
			name:   "trailing digit and hyphen dropped",
			input:  "hello-world-2",
			length: 200,
			want:   "hello-world",
		},
		{
			name:   "plain clip at length",
			input:  strings.Repeat("a", 210),
			length: 200,
			want:   strings.Repeat("a", 200),
		},
		{
			name:   "trailing hyphen stripped after clip",
			input:  strings.Repeat("a", 199) + "-bcd",
			length: 200,
			want:   strings.Repeat("a", 199),
		},
		{
			name:   "empty input",
			input:  "",
			length: 200,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.length)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.length, got, tt.want)
			}
		})
	}
}

// TestTruncateEncoded verifies percent-encoded slugs are clipped on rune
// boundaries rather than mid escape sequence.
func TestTruncateEncoded(t *testing.T) {
	// "nihao-" plus two percent-encoded CJK runes (9 bytes each encoded).
	encoded := "nihao-%E4%BD%A0%E5%A5%BD"
	got := Truncate(encoded, 10)
	if got != "nihao" {
		t.Errorf("Truncate(%q, 10) = %q, want %q", encoded, got, "nihao")
	}
}

// fakeLookup is an in-memory slug collection for uniqueness tests.
type fakeLookup struct {
	slugs []string
	err   error
}

func (f *fakeLookup) SlugsLike(prefix string, excludeID int64) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []string
	for _, s := range f.slugs {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestUnique(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		existing  []string
		want      string
	}{
		{
			name:      "no collision returns candidate",
			candidate: "hello-world",
			existing:  nil,
			want:      "hello-world",
		},
		{
			name:      "single collision appends 1",
			candidate: "hello-world",
			existing:  []string{"hello-world"},
			want:      "hello-world-1",
		},
		{
			name:      "suffix counts past taken values",
			candidate: "hello-world",
			existing:  []string{"hello-world", "hello-world-1", "hello-world-2"},
			want:      "hello-world-3",
		},
		{
			name:      "unrelated slugs ignored",
			candidate: "hello-world",
			existing:  []string{"other-post", "another-one"},
			want:      "hello-world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unique(tt.candidate, 0, &fakeLookup{slugs: tt.existing})
			if err != nil {
				t.Fatalf("Unique(%q) error: %v", tt.candidate, err)
			}
			if got != tt.want {
				t.Errorf("Unique(%q) = %q, want %q", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestUniqueLongCandidate(t *testing.T) {
	candidate := strings.Repeat("a", MaxLength)
	got, err := Unique(candidate, 0, &fakeLookup{slugs: []string{candidate}})
	if err != nil {
		t.Fatalf("Unique error: %v", err)
	}
	want := strings.Repeat("a", MaxLength) + "-1"
	if got != want {
		t.Errorf("Unique long candidate = %q, want %q", got, want)
	}
}
