package pipeline

import "testing"

func TestExtractCodeSnippets(t *testing.T) {
	t.Parallel()

	markdown := "intro text\n" +
		"```go\n" +
		"func main() {}\n" +
		"```\n" +
		"middle\n" +
		"```\n" +
		"plain block\n" +
		"```\n" +
		"```python\n" +
		"\n" +
		"```\n"

	snippets := extractCodeSnippets(markdown)

	if len(snippets) != 2 {
		t.Fatalf("extracted %d snippets, want 2", len(snippets))
	}
	if snippets[0].language != "go" || snippets[0].content != "func main() {}" {
		t.Fatalf("first snippet = %+v", snippets[0])
	}
	if snippets[1].language != "" || snippets[1].content != "plain block" {
		t.Fatalf("second snippet = %+v", snippets[1])
	}
}

func TestExtractCodeSnippetsUnclosedFence(t *testing.T) {
	t.Parallel()

	snippets := extractCodeSnippets("```go\nnever closed")
	if len(snippets) != 0 {
		t.Fatalf("extracted %d snippets from unclosed fence, want 0", len(snippets))
	}
}

func TestExtractCodeSnippetsNoFences(t *testing.T) {
	t.Parallel()

	if got := extractCodeSnippets("just prose"); got != nil {
		t.Fatalf("extractCodeSnippets = %v, want nil", got)
	}
}

func TestNewShortID(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		id, err := newShortID()
		if err != nil {
			t.Fatalf("newShortID: %v", err)
		}
		if len(id) != shortIDLength {
			t.Fatalf("short id %q has length %d, want %d", id, len(id), shortIDLength)
		}
		for _, r := range id {
			switch {
			case r >= '0' && r <= '9':
			case r >= 'a' && r <= 'z':
			case r >= 'A' && r <= 'Z':
			default:
				t.Fatalf("short id %q contains %q", id, r)
			}
		}
		seen[id] = true
	}
	if len(seen) < 2 {
		t.Fatal("short ids are not random")
	}
}
