package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	memberIDPrefix = "GYM-"
	memberIDLength = 8
)

// Uppercase letters and digits without the look-alikes 0/O and 1/I.
var memberIDCharset = []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")

// GenerateMemberID returns a random member identifier such as GYM-7Q2K9XAB.
func GenerateMemberID() (string, error) {
	code, err := randomCode(memberIDLength, memberIDCharset)
	if err != nil {
		return "", err
	}
	return memberIDPrefix + code, nil
}

// IsMemberID reports whether value has the member identifier shape.
func IsMemberID(value string) bool {
	if !strings.HasPrefix(value, memberIDPrefix) || len(value) != len(memberIDPrefix)+memberIDLength {
		return false
	}
	for _, r := range value[len(memberIDPrefix):] {
		if !strings.ContainsRune(string(memberIDCharset), r) {
			return false
		}
	}
	return true
}

func randomCode(length int, charset []rune) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	max := big.NewInt(int64(len(charset)))
	result := make([]rune, length)
	for i := range result {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generating random code: %w", err)
		}
		result[i] = charset[idx.Int64()]
	}
	return string(result), nil
}
