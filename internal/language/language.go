package language

import (
	"strings"

	"golang.org/x/text/language"
)

type entry struct {
	code2   string // ISO 639-1 (2-letter)
	code3   string // ISO 639-2 primary (3-letter)
	alt3    string // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string
}

var languages = []entry{
	{"en", "eng", "", "English"},
	{"ko", "kor", "", "Korean"},
	{"ja", "jpn", "", "Japanese"},
	{"zh", "zho", "chi", "Chinese"},
	{"es", "spa", "", "Spanish"},
	{"fr", "fra", "fre", "French"},
	{"de", "deu", "ger", "German"},
	{"it", "ita", "", "Italian"},
	{"pt", "por", "", "Portuguese"},
	{"ru", "rus", "", "Russian"},
	{"ar", "ara", "", "Arabic"},
	{"hi", "hin", "", "Hindi"},
	{"nl", "nld", "dut", "Dutch"},
	{"pl", "pol", "", "Polish"},
	{"sv", "swe", "", "Swedish"},
	{"vi", "vie", "", "Vietnamese"},
	{"th", "tha", "", "Thai"},
	{"id", "ind", "", "Indonesian"},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts a recognized language code to ISO 639-1 (2-letter). Inputs
// outside the built-in table are canonicalized through BCP 47 parsing, so tags
// like "en-US" or "kor" still resolve to their base code. Returns empty string
// for unrecognized input.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if tag, err := language.Parse(code); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			if e := lookup(base.String()); e != nil {
				return e.code2
			}
			if s := base.String(); len(s) == 2 {
				return s
			}
		}
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	if iso2 := ToISO2(code); iso2 != "" {
		if e := lookup(iso2); e != nil {
			return e.display
		}
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeList deduplicates and normalizes a list of language codes to ISO 639-1.
// Entries that cannot be resolved are dropped.
func NormalizeList(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		mapped := ToISO2(code)
		if mapped == "" {
			continue
		}
		if _, ok := seen[mapped]; ok {
			continue
		}
		seen[mapped] = struct{}{}
		normalized = append(normalized, mapped)
	}
	return normalized
}

// Promote builds the acquisition search order: primary first, then the
// fallback list with the primary (and any duplicates) removed. All codes are
// normalized to ISO 639-1.
func Promote(primary string, fallback []string) []string {
	head := ToISO2(primary)
	if head == "" {
		return NormalizeList(fallback)
	}
	ordered := make([]string, 0, len(fallback)+1)
	ordered = append(ordered, head)
	ordered = append(ordered, fallback...)
	return NormalizeList(ordered)
}
