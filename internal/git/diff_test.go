package git

import "testing"

func TestSplitLines(t *testing.T) {
	out := splitLines([]byte("a.py\n\n  b.js  \n"))
	if len(out) != 2 || out[0] != "a.py" || out[1] != "b.js" {
		t.Fatalf("lines: %v", out)
	}
	if got := splitLines(nil); len(got) != 0 {
		t.Fatalf("empty input: %v", got)
	}
}

func TestHeadCommit_OutsideRepo(t *testing.T) {
	if got := HeadCommit(t.TempDir()); got != "" {
		t.Fatalf("expected empty hash outside a repository, got %q", got)
	}
}
