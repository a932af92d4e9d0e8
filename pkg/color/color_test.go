package color

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{"#000000", RGB{}, false},
		{"#ff8001", RGB{R: 0xff, G: 0x80, B: 0x01}, false},
		{"ff8001", RGB{}, true},
		{"#ff80", RGB{}, true},
		{"#zzzzzz", RGB{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil {
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseHex(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
			if back := got.Hex(); back != tt.in {
				t.Errorf("round trip %q -> %q", tt.in, back)
			}
		}
	}
}

func TestLuminance(t *testing.T) {
	if l := Luminance(0, 0, 0); l != 0 {
		t.Errorf("black luminance = %g, want 0", l)
	}
	if l := Luminance(255, 255, 255); l < 0.999 || l > 1.001 {
		t.Errorf("white luminance = %g, want 1", l)
	}
	if g, b := Luminance(0, 255, 0), Luminance(0, 0, 255); g <= b {
		t.Errorf("green (%g) should outweigh blue (%g)", g, b)
	}
}

func TestAverage(t *testing.T) {
	var a Average
	if got := a.RGB(); got != (RGB{}) {
		t.Errorf("empty average = %v, want black", got)
	}
	a.Add(10, 20, 30)
	a.Add(30, 40, 50)
	want := RGB{R: 20, G: 30, B: 40}
	if got := a.RGB(); got != want {
		t.Errorf("average = %v, want %v", got, want)
	}
	if a.Count() != 2 {
		t.Errorf("count = %d, want 2", a.Count())
	}
}
