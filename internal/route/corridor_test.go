package route

import "testing"

func TestClampCorridorMiles(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0.5, 1},
		{1, 1},
		{10, 10},
		{50, 50},
		{75, 50},
	}
	for _, c := range cases {
		if got := ClampCorridorMiles(c.in); got != c.want {
			t.Errorf("ClampCorridorMiles(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
