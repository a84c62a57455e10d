package inputval

import (
	"strings"
	"testing"
)

type sample struct {
	Name string `validate:"required,max=10" label:"name"`
	Size string `validate:"required,orgsize" label:"size"`
}

func TestValidateOK(t *testing.T) {
	res := Validate(sample{Name: "Acme", Size: "11-50"})
	if res.HasErrors() {
		t.Fatalf("unexpected failures: %v", res.All())
	}
	if res.First() != "" {
		t.Errorf("First = %q, want empty", res.First())
	}
}

func TestValidateRequired(t *testing.T) {
	res := Validate(sample{Size: "11-50"})
	if !res.HasErrors() {
		t.Fatal("expected a failure for missing name")
	}
	if got := res.First(); got != "name is required." {
		t.Errorf("First = %q, want label-based message", got)
	}
}

func TestValidateMax(t *testing.T) {
	res := Validate(sample{Name: strings.Repeat("x", 11), Size: "11-50"})
	if !res.HasErrors() {
		t.Fatal("expected a failure for oversized name")
	}
	if got := res.First(); !strings.Contains(got, "at most 10") {
		t.Errorf("First = %q, want a max-length message", got)
	}
}

func TestValidateOrgSize(t *testing.T) {
	valid := []string{"1-10", "11-50", "51-200", "201-500", "501-1000", "1001+"}
	for _, size := range valid {
		if res := Validate(sample{Name: "Acme", Size: size}); res.HasErrors() {
			t.Errorf("size %q rejected: %v", size, res.All())
		}
	}

	res := Validate(sample{Name: "Acme", Size: "lots"})
	if !res.HasErrors() {
		t.Fatal("expected a failure for unknown size bucket")
	}
	if got := res.First(); !strings.Contains(got, "must be one of") {
		t.Errorf("First = %q, want the bucket list", got)
	}
}

func TestValidateCollectsAll(t *testing.T) {
	res := Validate(sample{})
	if len(res.All()) != 2 {
		t.Errorf("got %d failures, want one per field: %v", len(res.All()), res.All())
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Acme Builders", "Acme Builders"},
		{"  padded  ", "padded"},
		{"<b>Acme</b>", "Acme"},
		{"Acme <script>alert(1)</script>", "Acme"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.in); got != tc.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
