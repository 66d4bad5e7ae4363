package portwatch

import (
	"errors"
	"testing"
)

type portSpecTester struct {
	input string
	spec  PortSpec
	fails bool
}

func (t *portSpecTester) runTest(test *testing.T, name string) {
	spec, err := ParsePortSpec(t.input)
	if t.fails {
		if err == nil {
			test.Errorf("[%s] expected error for %q", name, t.input)
		} else if !errors.Is(err, ErrInvalidRange) {
			test.Errorf("[%s] expected ErrInvalidRange, got %v", name, err)
		}
		return
	}

	if err != nil {
		test.Errorf("[%s] failed to parse spec: %v", name, err)
		return
	}
	if spec != t.spec {
		test.Errorf("[%s] expected %v, got %v", name, t.spec, spec)
	}
}

var portSpecTests = map[string]*portSpecTester{
	"range":        {input: "8000-9000", spec: PortSpec{8000, 9000}},
	"single":       {input: "22", spec: PortSpec{22, 22}},
	"single-range": {input: "5000-5000", spec: PortSpec{5000, 5000}},
	"spaces":       {input: " 20 - 25 ", spec: PortSpec{20, 25}},
	"full":         {input: "1-65535", spec: PortSpec{1, 65535}},
	"inverted":     {input: "9000-8000", fails: true},
	"zero":         {input: "0-80", fails: true},
	"too-high":     {input: "1-65536", fails: true},
	"garbage":      {input: "http-https", fails: true},
	"empty":        {input: "", fails: true},
}

func TestParsePortSpec(t *testing.T) {
	for name, cfg := range portSpecTests {
		cfg.runTest(t, name)
	}
}

func TestPortSpecPorts(t *testing.T) {
	spec := PortSpec{Start: 20, End: 25}
	ports := spec.Ports()

	if len(ports) != spec.Count() {
		t.Fatalf("expected %d ports, got %d", spec.Count(), len(ports))
	}
	for i, p := range ports {
		if int(p) != 20+i {
			t.Fatalf("expected port %d at index %d, got %d", 20+i, i, p)
		}
	}
}

func TestPortSpecString(t *testing.T) {
	if s := (PortSpec{8080, 8080}).String(); s != "8080" {
		t.Errorf("expected single-port form, got %s", s)
	}
	if s := (PortSpec{20, 25}).String(); s != "20-25" {
		t.Errorf("expected range form, got %s", s)
	}
}
