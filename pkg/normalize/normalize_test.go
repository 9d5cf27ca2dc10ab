package normalize

import "testing"

// Written with explicit escapes so the normalization form of each literal
// is visible: u00e9 is the precomposed form, e+u0301 the decomposed one.
func TestName(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   string
		want string
	}{
		{"trims", "  alice  ", "alice"},
		{"plain", "alice", "alice"},
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"nfc input decomposes", "caf\u00e9", "cafe\u0301"},
		{"nfd input unchanged", "cafe\u0301", "cafe\u0301"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := Name(tc.in); got != tc.want {
				t.Errorf("Name(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNameEquivalentFormsCollide(t *testing.T) {
	// Both Unicode spellings of the same name must normalize identically
	// so the uniqueness constraint sees them as one.
	if Name("caf\u00e9") != Name("cafe\u0301") {
		t.Error("NFC and NFD spellings normalized differently")
	}
}

func TestOptional(t *testing.T) {
	if got := Optional(nil); got != nil {
		t.Errorf("Optional(nil) = %v, want nil", got)
	}

	empty := "   "
	if got := Optional(&empty); got != nil {
		t.Errorf("Optional(blank) = %v, want nil", got)
	}

	value := "  Kyiv "
	got := Optional(&value)
	if got == nil || *got != "Kyiv" {
		t.Errorf("Optional = %v, want Kyiv", got)
	}
}
