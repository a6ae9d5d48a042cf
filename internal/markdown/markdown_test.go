package markdown

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"A.B-C!", `A\.B\-C\!`},
		{"", ""},
		{"plain text", "plain text"},
		{"_under_ and *bold*", "_under_ and *bold*"},
		{"[x](y)", `\[x\]\(y\)`},
		{"a~b`c<d>e#f+g=h|i{j}k", "a\\~b\\`c\\<d\\>e\\#f\\+g\\=h\\|i\\{j\\}k"},
		{"Привет, мир.", `Привет, мир\.`},
	}
	for _, tt := range tests {
		if got := EscapeMarkdownV2(tt.in); got != tt.want {
			t.Errorf("EscapeMarkdownV2(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLink(t *testing.T) {
	got := Link("Reuters.com", "https://example.com/a_(b)")
	want := `[Reuters\.com](https://example.com/a_(b\))`
	if got != want {
		t.Errorf("Link() = %q, want %q", got, want)
	}
}

func TestSplit_InvalidLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		_, err := SplitMessageByNewlines("hello", limit)
		if !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("limit %d: expected ErrInvalidLimit, got %v", limit, err)
		}
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n", "\t \n"} {
		got, err := SplitMessageByNewlines(in, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0] != EmptyMessage {
			t.Errorf("input %q: expected sentinel chunk, got %q", in, got)
		}
	}
	if want := EscapeMarkdownV2("Message is empty."); EmptyMessage != want {
		t.Errorf("Expected the empty chunk to be valid MarkdownV2 %q, got %q", want, EmptyMessage)
	}
}

func TestSplit_FitsInOneChunk(t *testing.T) {
	in := "line one\nline two\n\nline four"
	got, err := SplitMessageByNewlines(in, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != in {
		t.Errorf("expected the input unchanged in one chunk, got %q", got)
	}
}

func TestSplit_PacksWholeLines(t *testing.T) {
	in := "aaaa\nbbbb\ncccc\ndd"
	got, err := SplitMessageByNewlines(in, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"aaaa\nbbbb", "cccc\ndd"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSplit_SingleLongLine(t *testing.T) {
	long := strings.Repeat("x", 250)
	got, err := SplitMessageByNewlines(long, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	for i, want := range []int{100, 100, 50} {
		if len(got[i]) != want {
			t.Errorf("chunk %d: expected length %d, got %d", i, want, len(got[i]))
		}
	}
}

func TestSplit_LongLineBetweenShortOnes(t *testing.T) {
	in := "head\n" + strings.Repeat("y", 25) + "\ntail"
	got, err := SplitMessageByNewlines(in, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"head", "yyyyyyyyyy", "yyyyyyyyyy", "yyyyy", "tail"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSplit_CountsRunesNotBytes(t *testing.T) {
	in := strings.Repeat("ж", 6) + "\n" + strings.Repeat("ж", 3)
	got, err := SplitMessageByNewlines(in, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 10 runes to fit in one chunk, got %q", got)
	}
}

// join rebuilds the original text from chunk boundaries.
func join(chunks []chunk) string {
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 && !c.midLine {
			b.WriteByte('\n')
		}
		b.WriteString(c.text)
	}
	return b.String()
}

func TestSplit_RoundTrip(t *testing.T) {
	inputs := []string{
		"a",
		"a\nb",
		"a\n\nb",
		"\nleading newline",
		"trailing newline\n",
		"\n\n\nonly\n\n\n",
		strings.Repeat("z", 37),
		"short\n" + strings.Repeat("q", 23) + "\n\n" + strings.Repeat("r", 7) + "\nend",
		"*Daily News \\- 2025\\-03\\-10 \\(Morning\\)*\n\n*__Title__*\nSummary text here\\.\n[BBC](https://bbc.example/x)",
		"мир\nпривет мир, как дела\n" + strings.Repeat("ё", 19),
	}
	limits := []int{1, 2, 3, 5, 7, 10, 16, 64, 4096}

	for _, in := range inputs {
		for _, limit := range limits {
			chunks, err := splitChunks(in, limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i, c := range chunks {
				if n := utf8.RuneCountInString(c.text); n > limit {
					t.Errorf("input %q limit %d: chunk %d has %d runes", in, limit, i, n)
				}
			}
			if got := join(chunks); got != in {
				t.Errorf("input %q limit %d: round trip produced %q", in, limit, got)
			}

			plain, _ := SplitMessageByNewlines(in, limit)
			if len(plain) != len(chunks) {
				t.Errorf("input %q limit %d: exported split disagrees with internal split", in, limit)
			}
		}
	}
}
