package portwatch

import "testing"

type targetTester struct {
	host  string
	addr  string
	local bool
}

func (t *targetTester) runTest(test *testing.T, name string) {
	target, err := NewResolver().Resolve(t.host)
	if err != nil {
		test.Errorf("[%s] failed to resolve: %v", name, err)
		return
	}

	if t.addr != "" && target.Addr != t.addr {
		test.Errorf("[%s] expected addr %s, got %s", name, t.addr, target.Addr)
	}
	if target.Local != t.local {
		test.Errorf("[%s] expected local=%v for %s", name, t.local, target.Addr)
	}
}

var targetTests = map[string]*targetTester{
	"loopback-literal": {host: "127.0.0.1", addr: "127.0.0.1", local: true},
	"loopback-high":    {host: "127.0.0.53", addr: "127.0.0.53", local: true},
	"localhost":        {host: "localhost", local: true},
	"empty-defaults":   {host: "", local: true},
}

func TestResolveTarget(t *testing.T) {
	for name, cfg := range targetTests {
		cfg.runTest(t, name)
	}
}

func TestResolveRejectsIPv6(t *testing.T) {
	if _, err := NewResolver().Resolve("::1"); err == nil {
		t.Fatal("expected an error for an IPv6 literal")
	}
}

func TestResolveCaches(t *testing.T) {
	r := NewResolver()
	first, err := r.Resolve("127.0.0.1")
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	second, err := r.Resolve("127.0.0.1")
	if err != nil {
		t.Fatalf("failed to resolve from cache: %v", err)
	}
	if first != second {
		t.Fatalf("cached target differs: %v vs %v", first, second)
	}
}
