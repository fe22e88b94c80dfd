// Package portion scales recipe quantities and prices from the 2-portion
// baseline every recipe is written for.
package portion

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Base is the number of portions stored quantities and prices refer to.
const Base = 2

// ErrInvalidPortions is returned for portion counts below 1.
var ErrInvalidPortions = errors.New("portions must be at least 1")

var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// Validate checks that portions is a usable portion count.
func Validate(portions int) error {
	if portions < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPortions, portions)
	}
	return nil
}

// Factor returns the linear scale factor for portions.
func Factor(portions int) float64 {
	return float64(portions) / Base
}

// ScaleQuantity rescales every number embedded in a free-text quantity
// ("300g", "2 x 150g", "2,5 dl") to the given portion count. Text around the
// numbers is kept verbatim. A token that does not parse is left as-is.
func ScaleQuantity(text string, portions int) string {
	return numberPattern.ReplaceAllStringFunc(text, func(match string) string {
		v, err := strconv.ParseFloat(strings.Replace(match, ",", ".", 1), 64)
		if err != nil {
			return match
		}
		return format(v * Factor(portions))
	})
}

// ScalePrice rescales a 2-portion price to the given portion count.
func ScalePrice(price float64, portions int) float64 {
	return price * Factor(portions)
}

// roundingSlack absorbs binary representation error so that decimal halves
// such as 0.7*1.5 = 1.05 round up.
const roundingSlack = 1e-9

// format renders whole numbers without decimals and everything else with
// exactly one decimal, rounding halves up.
func format(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(math.Floor(v*10+0.5+roundingSlack)/10, 'f', 1, 64)
}
