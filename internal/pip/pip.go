// Package pip converts between broker points, pips, and absolute prices.
//
// Pip size is always derived from symbol metadata (point size + digits),
// never from a hard-coded per-symbol table, per the Market Access Port
// contract: pip_size = point_size * pip_multiplier(digits).
package pip

// Multiplier returns the pip multiplier for a symbol with the given number
// of price digits. 3- and 5-digit quotes (fractional pips, e.g. EURUSD at
// 1.08123 or USDJPY at 108.123) use a multiplier of 10; everything else
// (2-digit gold, 4-digit legacy forex) is 1.
func Multiplier(digits int32) float64 {
	switch digits {
	case 3, 5:
		return 10
	default:
		return 1
	}
}

// Size returns the pip size for a symbol given its point size and digits.
func Size(pointSize float64, digits int32) float64 {
	return pointSize * Multiplier(digits)
}

// PriceToPoints converts a price difference to points.
func PriceToPoints(priceDiff, pointSize float64) float64 {
	if pointSize == 0 {
		return 0
	}
	return priceDiff / pointSize
}

// PipsToPrice converts a pip distance to a price distance for a symbol.
func PipsToPrice(pips, pipSize float64) float64 {
	return pips * pipSize
}

// RoundToDigits rounds a price to the symbol's number of decimal digits.
func RoundToDigits(price float64, digits int32) float64 {
	multiplier := 1.0
	for i := int32(0); i < digits; i++ {
		multiplier *= 10.0
	}
	return float64(int64(price*multiplier+0.5)) / multiplier
}
