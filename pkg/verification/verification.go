package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// GenerateOTP returns a numeric code of the given length. Fixed codes are all zeros.
func GenerateOTP(length int, fixed bool) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("otp length must be positive, got %d", length)
	}
	if fixed {
		return strings.Repeat("0", length), nil
	}
	return randomDigits(length)
}

func HashOTP(code string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		return "", fmt.Errorf("hashing otp: %w", err)
	}
	return string(hash), nil
}

func CompareOTP(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

// GenerateUsername builds {YYYY}{10 digits}{MM}.
func GenerateUsername(now time.Time) (string, error) {
	digits, err := randomDigits(10)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d%s%02d", now.Year(), digits, int(now.Month())), nil
}

// GeneratePostID returns a random six digit public listing id.
func GeneratePostID() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()) + 100000, nil
}

func randomDigits(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("reading random digit: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
