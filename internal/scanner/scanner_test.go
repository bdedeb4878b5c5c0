package scanner

import (
	"context"
	"testing"

	"github.com/mergeguard/mergeguard/internal/types"
)

func TestIsDeterministic(t *testing.T) {
	det := Func{ID: "det", Det: true, ScanFunc: func(context.Context, string, string, string) ([]types.Finding, error) { return nil, nil }}
	heuristic := Func{ID: "ai", ScanFunc: func(context.Context, string, string, string) ([]types.Finding, error) { return nil, nil }}

	if !IsDeterministic(det) {
		t.Fatal("marked scanner not recognized")
	}
	if IsDeterministic(heuristic) {
		t.Fatal("unmarked scanner treated as deterministic")
	}
}

func TestAppliesTo(t *testing.T) {
	agnostic := Func{ID: "any"}
	pyOnly := Func{ID: "py", Langs: []string{"python"}}

	if !AppliesTo(agnostic, "ruby") {
		t.Fatal("language-agnostic scanner should apply everywhere")
	}
	if !AppliesTo(pyOnly, "python") || AppliesTo(pyOnly, "javascript") {
		t.Fatal("language list not honored")
	}
}
