package mrz

// checkWeights is the ICAO 9303 7-3-1 weighting, cycled by position.
var checkWeights = [3]int{7, 3, 1}

// charValue maps an MRZ character to its check-digit value: digits to 0-9,
// letters to 10-35, the filler and anything else to 0.
func charValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return 0
	}
}

// ComputeCheckDigit returns the ICAO 9303 check digit of data as an ASCII
// digit ('0'-'9').
//
// Each character is mapped to a value (digits 0-9, A-Z 10-35, '<' 0),
// multiplied by the weight 7, 3 or 1 according to its position modulo 3,
// and the sum is reduced modulo 10.
func ComputeCheckDigit(data string) byte {
	sum := 0
	for i := 0; i < len(data); i++ {
		sum += charValue(data[i]) * checkWeights[i%3]
	}
	return byte('0' + sum%10)
}

// CheckDigit reports whether declared is the check digit of data.
//
// A declared value that is not a decimal digit never matches.
func CheckDigit(data string, declared byte) bool {
	return ComputeCheckDigit(data) == declared
}
