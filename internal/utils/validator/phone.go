package validator

var phonePrefixes = map[string]struct{}{
	"50": {}, "53": {}, "54": {}, "55": {}, "56": {},
}

// IsValidPhone accepts ten digit national numbers with a known operator prefix.
func IsValidPhone(phone string) bool {
	if len(phone) != 10 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	_, ok := phonePrefixes[phone[:2]]
	return ok
}
