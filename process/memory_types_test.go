package process

import "testing"

func TestParseAddress(t *testing.T) {
	cases := map[string]ProcessMemoryAddress{
		"0x7f1234560000": 0x7f1234560000,
		"7F1234560000":   0x7f1234560000,
		" 0X10 ":         0x10,
	}
	for in, want := range cases {
		got, err := ParseAddress(in)
		if err != nil {
			t.Fatalf("ParseAddress(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseAddress(%q) = %s, want %s", in, got.ToString(), want.ToString())
		}
	}

	for _, bad := range []string{"", "0x", "zz", "0x12g"} {
		if _, err := ParseAddress(bad); err == nil {
			t.Fatalf("ParseAddress(%q) should fail", bad)
		}
	}
}
