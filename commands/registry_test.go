package commands

import "testing"

func TestRegisterLookupByCodeAndName(t *testing.T) {
	r := NewRegistry()
	r.Register(ChipAPP, 1, "foo", ClassRealtime)

	e, ok := r.Lookup(1)
	if !ok || e.Name != "foo" {
		t.Fatalf("expected to find code 1 as foo, got %+v ok=%v", e, ok)
	}
	e, ok = r.LookupName("foo")
	if !ok || e.Code != 1 {
		t.Fatalf("expected to find foo as code 1, got %+v ok=%v", e, ok)
	}
}

func TestRegisterMissingLookupReturnsFalse(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup(99); ok {
		t.Error("expected Lookup to report false for an unregistered code")
	}
	if _, ok := r.LookupName("nope"); ok {
		t.Error("expected LookupName to report false for an unregistered name")
	}
}

func TestRegisterDuplicateCodePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(ChipAPP, 1, "foo", ClassRealtime)

	defer func() {
		if recover() == nil {
			t.Error("expected a panic registering a duplicate code")
		}
	}()
	r.Register(ChipAPP, 1, "bar", ClassRealtime)
}

func TestRegisterDuplicateNamePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(ChipAPP, 1, "foo", ClassRealtime)

	defer func() {
		if recover() == nil {
			t.Error("expected a panic registering a duplicate name")
		}
	}()
	r.Register(ChipAPP, 2, "foo", ClassRealtime)
}

func TestDescribeSortedByCode(t *testing.T) {
	r := NewRegistry()
	r.Register(ChipAPP, 30, "thirty", ClassMain)
	r.Register(ChipAPP, 10, "ten", ClassRealtime)
	r.Register(ChipAPP, 20, "twenty", ClassMain)

	out := r.Describe()
	if len(out) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i-1].Code >= out[i].Code {
			t.Errorf("expected strictly increasing codes, got %d then %d", out[i-1].Code, out[i].Code)
		}
	}
}

func TestGlobalRegistersAllFourChipsWithoutPanicking(t *testing.T) {
	r := Global()
	out := r.Describe()
	if len(out) == 0 {
		t.Fatal("expected Global() to register at least one command")
	}

	seen := map[Chip]bool{}
	for _, e := range out {
		seen[e.Chip] = true
	}
	for _, chip := range []Chip{ChipAPP, ChipVDP1, ChipVDP2, ChipAPU} {
		if !seen[chip] {
			t.Errorf("expected at least one command registered for %s", chip)
		}
	}
}

func TestGlobalCodesStayWithinTheirChipBase(t *testing.T) {
	cases := []struct {
		chip Chip
		lo   uint16
		hi   uint16
	}{
		{ChipAPP, BaseAPP, BaseVDP1},
		{ChipVDP1, BaseVDP1, BaseVDP2},
		{ChipVDP2, BaseVDP2, BaseAPU},
		{ChipAPU, BaseAPU, 0xFFFF},
	}

	r := Global()
	for _, e := range r.Describe() {
		for _, c := range cases {
			if e.Chip != c.chip {
				continue
			}
			if e.Code < c.lo || e.Code >= c.hi {
				t.Errorf("entry %s (chip %s) code 0x%04X outside its base range [0x%04X,0x%04X)",
					e.Name, e.Chip, e.Code, c.lo, c.hi)
			}
		}
	}
}
