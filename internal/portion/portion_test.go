package portion

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"
)

func TestScaleQuantity(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		portions int
		want     string
	}{
		{name: "Double", text: "300g", portions: 4, want: "600g"},
		{name: "CommaDecimalRoundsHalfUp", text: "2,5 dl", portions: 1, want: "1.3 dl"},
		{name: "Baseline", text: "4 pcs", portions: 2, want: "4 pcs"},
		{name: "HalfPortion", text: "3 pcs", portions: 1, want: "1.5 pcs"},
		{name: "DotDecimal", text: "1.5 kg", portions: 3, want: "2.3 kg"},
		{name: "SeveralTokens", text: "2 x 150g", portions: 3, want: "3 x 225g"},
		{name: "Fraction", text: "1/2 pc", portions: 4, want: "2/4 pc"},
		{name: "NoNumbers", text: "Assortiment", portions: 5, want: "Assortiment"},
		{name: "Empty", text: "", portions: 3, want: ""},
		{name: "LargeCount", text: "30ml", portions: 10, want: "150ml"},
		{name: "UnitsKept", text: "2 verres (25cl)", portions: 1, want: "1 verres (12.5cl)"},
		{name: "DecimalHalfRoundsUp", text: "0.7 kg", portions: 3, want: "1.1 kg"},
		{name: "CommaHalfRoundsUp", text: "0,3 l", portions: 7, want: "1.1 l"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScaleQuantity(tt.text, tt.portions); got != tt.want {
				t.Errorf("ScaleQuantity(%q, %d) = %q, want %q", tt.text, tt.portions, got, tt.want)
			}
		})
	}
}

func TestScaleQuantityUnparseableToken(t *testing.T) {
	huge := strings.Repeat("9", 400)
	text := huge + "g et 2 pcs"

	got := ScaleQuantity(text, 4)
	want := huge + "g et 4 pcs"
	if got != want {
		t.Errorf("Expected out-of-range token to pass through, got %q", got)
	}
}

func TestScaleQuantityIsLinear(t *testing.T) {
	quantities := []string{"300g", "2,5 dl", "4 pcs", "2 x 150g", "30ml", "1.5 kg", "Assortiment"}

	for _, q := range quantities {
		base := numbers(t, ScaleQuantity(q, Base))
		orig := numbers(t, q)
		if len(base) != len(orig) {
			t.Fatalf("ScaleQuantity(%q, 2) changed the token count", q)
		}
		for i := range orig {
			if math.Abs(base[i]-orig[i]) > 1e-9 {
				t.Errorf("ScaleQuantity(%q, 2) changed token %d: %v -> %v", q, i, orig[i], base[i])
			}
		}

		for _, p := range []int{1, 2, 3, 4, 10} {
			single := numbers(t, ScaleQuantity(q, p))
			double := numbers(t, ScaleQuantity(q, 2*p))
			for i := range single {
				// One decimal of rounding on each side.
				if math.Abs(double[i]-2*single[i]) > 0.1+1e-9 {
					t.Errorf("%q: token %d not linear for p=%d: %v vs 2*%v", q, i, p, double[i], single[i])
				}
			}
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(1); err != nil {
		t.Errorf("Expected 1 portion to be valid, got %v", err)
	}
	if err := Validate(250); err != nil {
		t.Errorf("Expected no upper bound, got %v", err)
	}
	for _, p := range []int{0, -3} {
		if err := Validate(p); !errors.Is(err, ErrInvalidPortions) {
			t.Errorf("Validate(%d): expected ErrInvalidPortions, got %v", p, err)
		}
	}
}

func TestScalePrice(t *testing.T) {
	if got := ScalePrice(8, 4); got != 16 {
		t.Errorf("Expected 16, got %v", got)
	}
	if got := ScalePrice(13.5, 1); got != 6.75 {
		t.Errorf("Expected 6.75, got %v", got)
	}
	if got := Factor(3); got != 1.5 {
		t.Errorf("Expected factor 1.5, got %v", got)
	}
	if got := ScalePrice(8.8, 3); math.Abs(got-13.2) > 1e-9 {
		t.Errorf("Expected 13.2, got %v", got)
	}
}

func numbers(t *testing.T, s string) []float64 {
	t.Helper()
	var out []float64
	for _, m := range numberPattern.FindAllString(s, -1) {
		v, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
		if err != nil {
			t.Fatalf("unparseable token %q in %q", m, s)
		}
		out = append(out, v)
	}
	return out
}
