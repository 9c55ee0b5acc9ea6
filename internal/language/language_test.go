package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"eng", "en"},
		{"English", "en"},
		{"SPANISH", "es"},
		{"fre", "fr"},
		{"fra", "fr"},
		{"xx", "xx"},
		{"gibberish", ""},
		{"", ""},
		{"  de  ", "de"},
	}
	for _, tt := range tests {
		if got := ToISO2(tt.in); got != tt.want {
			t.Errorf("ToISO2(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("es"); got != "Spanish" {
		t.Errorf("DisplayName(es) = %q", got)
	}
	if got := DisplayName(""); got != "Unknown" {
		t.Errorf("DisplayName empty = %q", got)
	}
	if got := DisplayName("qq"); got != "QQ" {
		t.Errorf("DisplayName unknown = %q", got)
	}
}

func TestSame(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"en", "english", true},
		{"eng", "en", true},
		{"es", "en", false},
		{"", "", true},
		{"qq", "QQ", true},
		{"es", "", false},
	}
	for _, tt := range tests {
		if got := Same(tt.a, tt.b); got != tt.want {
			t.Errorf("Same(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
