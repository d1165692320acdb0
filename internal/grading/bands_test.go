package grading

import "testing"

func TestBandCBC(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{100, "EE"},
		{75.0, "EE"},
		{74.9, "ME"},
		{50.0, "ME"},
		{49.9, "AE"},
		{25.0, "AE"},
		{24.9, "BE"},
		{0, "BE"},
	}
	for _, c := range cases {
		for _, cl := range []Classification{
			ClassificationPrePrimary, ClassificationLowerPrimary,
			ClassificationUpperPrimary, ClassificationJuniorSecondary,
		} {
			if got := Band(c.pct, cl); got != c.want {
				t.Errorf("Band(%v, %s) = %q, want %q", c.pct, cl, got, c.want)
			}
		}
	}
}

func TestBandSecondary(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{75.0, "A"},
		{74.9, "B"},
		{60.0, "B"},
		{59.9, "C"},
		{50.0, "C"},
		{49.9, "D"},
		{35.0, "D"},
		{34.9, "E"},
		{0, "E"},
	}
	for _, c := range cases {
		for _, cl := range []Classification{ClassificationSecondary, ClassificationSeniorSecondary} {
			if got := Band(c.pct, cl); got != c.want {
				t.Errorf("Band(%v, %s) = %q, want %q", c.pct, cl, got, c.want)
			}
		}
	}
}

func TestBandTertiary(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{70.0, "First Class"},
		{69.9, "Second Upper"},
		{60.0, "Second Upper"},
		{59.9, "Second Lower"},
		{50.0, "Second Lower"},
		{49.9, "Pass"},
		{40.0, "Pass"},
		{39.9, "Fail"},
		{0, "Fail"},
	}
	for _, c := range cases {
		if got := Band(c.pct, ClassificationTertiary); got != c.want {
			t.Errorf("Band(%v, tertiary) = %q, want %q", c.pct, got, c.want)
		}
	}
}

func TestBandUnknownLevelFallsBackToTertiary(t *testing.T) {
	if got := Band(40, ClassificationForLevel("grade4-blue")); got != "Pass" {
		t.Errorf("unknown level: got %q, want Pass", got)
	}
	if got := Band(40, ClassificationForLevel("")); got != "Pass" {
		t.Errorf("empty level: got %q, want Pass", got)
	}
}

func TestPercentage(t *testing.T) {
	if got := Percentage(2, 5); got != 40 {
		t.Errorf("Percentage(2,5) = %v, want 40", got)
	}
	if got := Percentage(3, 0); got != 0 {
		t.Errorf("Percentage(3,0) = %v, want 0", got)
	}
}
