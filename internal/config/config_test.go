package config

import "testing"

func TestParsePoolSpec(t *testing.T) {
	spec, err := ParsePoolSpec("0xAbC0000000000000000000000000000000000001:v2:3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if spec.Version != 2 || spec.PoolID != 3 {
		t.Fatalf("unexpected spec: %+v", spec)
	}

	spec, err = ParsePoolSpec(" 0xAbC0000000000000000000000000000000000001:1:0 ")
	if err != nil {
		t.Fatalf("parse without v prefix: %v", err)
	}
	if spec.Version != 1 || spec.PoolID != 0 {
		t.Fatalf("unexpected spec: %+v", spec)
	}

	for _, bad := range []string{"", "0xabc", "abc:1:0", "0xabc:x:0", "0xabc:1:x", "0xabc:1"} {
		if _, err := ParsePoolSpec(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestParsePoolSpecs(t *testing.T) {
	specs, err := ParsePoolSpecs([]string{
		"0xAbC0000000000000000000000000000000000001:1:0",
		"0xAbC0000000000000000000000000000000000002:3:7",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(specs) != 2 || specs[1].Version != 3 || specs[1].PoolID != 7 {
		t.Fatalf("unexpected specs: %+v", specs)
	}

	if _, err := ParsePoolSpecs([]string{"0xabc:1:0", "bad"}); err == nil {
		t.Fatalf("one bad entry must fail the whole list")
	}
}

func TestParseStringMap(t *testing.T) {
	out := parseStringMap("0xAA=CORN, 0xBB=WPLS ,,bad, =x, y= ")
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %v", out)
	}
	if out["0xAA"] != "CORN" || out["0xBB"] != "WPLS" {
		t.Fatalf("unexpected map: %v", out)
	}
}
