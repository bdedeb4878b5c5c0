package policy

import (
	"sync"
	"testing"
)

func TestStore_FallbackAndScopes(t *testing.T) {
	st, err := NewStore(Default())
	if err != nil {
		t.Fatal(err)
	}

	if got := st.Get("unconfigured/repo"); got.Mode != Default().Mode {
		t.Fatalf("fallback: %+v", got)
	}

	strict := Config{Mode: ModeBlocking, BlockOnCritical: true, MaxMedium: 2, MaxLow: 5}
	if err := st.Set("payments/api", strict); err != nil {
		t.Fatal(err)
	}
	if got := st.Get("payments/api"); got.MaxMedium != 2 {
		t.Fatalf("scoped config: %+v", got)
	}

	st.Delete("payments/api")
	if got := st.Get("payments/api"); got.MaxMedium != Default().MaxMedium {
		t.Fatal("delete did not restore fallback")
	}
}

func TestStore_RejectsInvalidAtSet(t *testing.T) {
	st, err := NewStore(Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Set("x", Config{Mode: "bogus"}); err == nil {
		t.Fatal("invalid config accepted")
	}
	if _, err := NewStore(Config{Mode: "bogus"}); err == nil {
		t.Fatal("invalid default accepted")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	st, err := NewStore(Default())
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = st.Set("repo", Config{Mode: ModeBlocking})
		}()
		go func() {
			defer wg.Done()
			_ = st.Get("repo")
			_ = st.Scopes()
		}()
	}
	wg.Wait()
}
