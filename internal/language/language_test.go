package language_test

import (
	"reflect"
	"testing"

	"github.com/nodo1014/indexer/internal/language"
)

func TestToISO2(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{" KO ", "ko"},
		{"jpn", "ja"},
		{"chi", "zh"},
		{"fre", "fr"},
		{"en-US", "en"},
		{"zz-not-a-code!", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := language.ToISO2(tc.in); got != tc.want {
			t.Errorf("ToISO2(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := language.DisplayName("ko"); got != "Korean" {
		t.Fatalf("DisplayName(ko) = %q", got)
	}
	if got := language.DisplayName(""); got != "Unknown" {
		t.Fatalf("DisplayName empty = %q", got)
	}
	if got := language.DisplayName("jpn"); got != "Japanese" {
		t.Fatalf("DisplayName(jpn) = %q", got)
	}
}

func TestNormalizeListDedupes(t *testing.T) {
	got := language.NormalizeList([]string{"EN", "eng", " ja ", "", "ja", "bogus-!!"})
	want := []string{"en", "ja"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeList = %v, want %v", got, want)
	}
}

func TestPromotePutsPrimaryFirst(t *testing.T) {
	fallback := []string{"en", "ko", "ja", "zh", "es", "fr", "de", "it"}

	got := language.Promote("ja", fallback)
	want := []string{"ja", "en", "ko", "zh", "es", "fr", "de", "it"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Promote(ja) = %v, want %v", got, want)
	}

	// Primary already at the front stays deduplicated.
	got = language.Promote("en", fallback)
	if !reflect.DeepEqual(got, fallback) {
		t.Fatalf("Promote(en) = %v, want %v", got, fallback)
	}
}

func TestPromoteWithUnknownPrimary(t *testing.T) {
	got := language.Promote("???", []string{"en", "ko"})
	want := []string{"en", "ko"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Promote with unknown primary = %v, want %v", got, want)
	}
}
