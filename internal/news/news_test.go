package news

import "testing"

func TestNormalize(t *testing.T) {
	in := []NewsItem{
		{Title: "ok", Links: []NewsLink{{Publisher: " BBC ", URL: " https://bbc.example/a "}}},
		{Title: "no links"},
		{Title: "bad links", Links: []NewsLink{{Publisher: "", URL: "https://x"}, {Publisher: "X", URL: " "}}},
		{Title: "mixed", Links: []NewsLink{{Publisher: "A", URL: "https://a"}, {Publisher: "", URL: ""}, {Publisher: "B", URL: "https://b"}}},
	}

	out := Normalize(in)
	if len(out) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(out))
	}
	if out[0].Links[0].Publisher != "BBC" || out[0].Links[0].URL != "https://bbc.example/a" {
		t.Errorf("Expected trimmed link, got %+v", out[0].Links[0])
	}
	if out[1].Title != "mixed" || len(out[1].Links) != 2 {
		t.Errorf("Expected 'mixed' with 2 links, got %+v", out[1])
	}
}

func TestNormalize_EmptyIsNotNil(t *testing.T) {
	if out := Normalize(nil); out == nil {
		t.Error("Expected empty non-nil slice")
	}
}

func TestSignificanceQualifies(t *testing.T) {
	tests := []struct {
		in   Significance
		want bool
	}{
		{SignificanceHigh, true},
		{"high", true},
		{" HIGH ", true},
		{SignificanceMedium, false},
		{SignificanceLow, false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.in.Qualifies(); got != tt.want {
			t.Errorf("Significance(%q).Qualifies() = %v, want %v", tt.in, got, tt.want)
		}
	}
}
