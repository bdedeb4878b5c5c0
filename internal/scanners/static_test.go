package scanners

import (
	"context"
	"testing"

	"github.com/mergeguard/mergeguard/internal/types"
)

func TestStatic_Python(t *testing.T) {
	src := `cursor.execute(f"SELECT * FROM users WHERE id = {uid}")
os.system(cmd)
result = eval(expr)
data = pickle.loads(blob)
digest = hashlib.md5(payload)
token = random.randint(0, 9999)
`
	fs, err := NewStatic().Scan(context.Background(), src, "app.py", "python")
	if err != nil {
		t.Fatal(err)
	}
	kinds := kindsOf(fs)
	want := map[string]types.Severity{
		"sql-injection":            types.SevCritical,
		"command-injection":        types.SevCritical,
		"eval-usage":               types.SevHigh,
		"insecure-deserialization": types.SevHigh,
		"weak-crypto":              types.SevMedium,
		"insecure-random":          types.SevLow,
	}
	for kind, sev := range want {
		if kinds[kind] == 0 {
			t.Errorf("missing %s finding, kinds: %v", kind, kinds)
			continue
		}
		for _, f := range fs {
			if f.Kind == kind && f.Severity != sev {
				t.Errorf("%s severity = %s, want %s", kind, f.Severity, sev)
			}
		}
	}
}

func TestStatic_JavaScript(t *testing.T) {
	src := `el.innerHTML = userInput;
eval(code);
child_process.exec(cmd);
`
	fs, err := NewStatic().Scan(context.Background(), src, "app.js", "javascript")
	if err != nil {
		t.Fatal(err)
	}
	kinds := kindsOf(fs)
	for _, want := range []string{"xss", "eval-usage", "command-injection"} {
		if kinds[want] == 0 {
			t.Errorf("missing %s finding, kinds: %v", want, kinds)
		}
	}
}

func TestStatic_UnknownLanguageIsSilent(t *testing.T) {
	fs, err := NewStatic().Scan(context.Background(), "eval(x)", "main.rb", "ruby")
	if err != nil {
		t.Fatal(err)
	}
	if len(fs) != 0 {
		t.Fatalf("no rule set for ruby, got %v", fs)
	}
}

func TestStatic_CWEMetadata(t *testing.T) {
	fs, err := NewStatic().Scan(context.Background(), "result = eval(expr)\n", "a.py", "python")
	if err != nil {
		t.Fatal(err)
	}
	if len(fs) == 0 {
		t.Fatal("expected eval finding")
	}
	if fs[0].Metadata["cwe"] != "CWE-95" {
		t.Fatalf("metadata = %v", fs[0].Metadata)
	}
}
