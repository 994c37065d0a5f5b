package langdetect

import "testing"

func TestNormalizeCode(t *testing.T) {
	t.Parallel()

	if got := NormalizeCode(" EN_us "); got != "en" {
		t.Fatalf("unexpected normalized code: %q", got)
	}
	if got := NormalizeCode("zh-Hans"); got != "zh" {
		t.Fatalf("unexpected normalized code: %q", got)
	}
	if got := NormalizeCode("en123"); got != "" {
		t.Fatalf("expected malformed tag to normalize to empty string, got %q", got)
	}
	if got := NormalizeCode("  "); got != "" {
		t.Fatalf("expected empty code for blank input, got %q", got)
	}
}

func TestResolve_PrefersDeclared(t *testing.T) {
	t.Parallel()

	if got := Resolve("de-DE", "this is clearly english text"); got != "de" {
		t.Fatalf("expected declared language to win, got %q", got)
	}
}

func TestDetectISO6391_TooShort(t *testing.T) {
	t.Parallel()

	if got := DetectISO6391("ab!"); got != "" {
		t.Fatalf("expected no detection for tiny sample, got %q", got)
	}
}
