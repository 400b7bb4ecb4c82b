package quantity

import "testing"

func TestParsePrefixes(t *testing.T) {
	cases := []struct {
		text string
		want float64
		unit string
	}{
		{"1k", 1e3, ""},
		{"4.7p", 4.7e-12, ""},
		{"50", 50, ""},
		{"10n", 10e-9, ""},
		{"3.2u", 3.2e-6, ""},
		{"3.2µ", 3.2e-6, ""},
		{"1Meg", 1e6, "eg"}, // "meg" is not a recognized prefix token; "M" (mega) matches and "eg" is left as the unit
		{"2.5M", 2.5e6, ""},
		{"100m", 100e-3, ""},
	}

	for _, c := range cases {
		q, err := Parse(c.text)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.text, err)
		}
		want := Quantity{Value: c.want, Unit: c.unit}
		if !want.Equal(q) {
			t.Errorf("Parse(%q) = %+v, want {%v %q}", c.text, q, c.want, c.unit)
		}
	}
}

func TestParseUnit(t *testing.T) {
	q, err := Parse("10kOhm")
	if err != nil {
		t.Fatal(err)
	}
	if q.Value != 10000 || q.Unit != "Ohm" {
		t.Errorf("got %+v", q)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
	if _, err := Parse("abc"); err == nil {
		t.Error("expected error for non-numeric text")
	}
}

func TestEqualIgnoresPrefix(t *testing.T) {
	a := MustParse("1000n")
	b := MustParse("1u")
	if !a.Equal(b) {
		t.Errorf("%v and %v should be equal", a, b)
	}
}

func TestEqualRequiresSameUnit(t *testing.T) {
	a := Quantity{Value: 1, Unit: "V"}
	b := Quantity{Value: 1, Unit: "A"}
	if a.Equal(b) {
		t.Error("quantities with different units should not be equal")
	}
}

func TestFormatRoundTrips(t *testing.T) {
	q := MustParse("4.7k")
	got := q.Format()
	reparsed, err := Parse(got)
	if err != nil {
		t.Fatalf("re-parsing formatted value %q: %v", got, err)
	}
	if !q.Equal(reparsed) {
		t.Errorf("format/parse round trip mismatch: %v != %v (formatted %q)", q, reparsed, got)
	}
}
