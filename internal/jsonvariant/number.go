package jsonvariant

import "strconv"

// decodeDecimalInt64 parses a JSON integer literal (no '.', no
// exponent) as an int64, succeeding only when the value fits exactly.
func decodeDecimalInt64(lit []byte) (int64, bool) {
	i, err := strconv.ParseInt(string(lit), 10, 64)
	return i, err == nil
}

func decodeFloat(lit []byte) (float64, bool) {
	f, err := strconv.ParseFloat(string(lit), 64)
	return f, err == nil
}
