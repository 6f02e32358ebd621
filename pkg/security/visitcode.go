package security

import (
	"crypto/rand"
	"fmt"
)

// VisitCodeLength is the length of generated patient visit codes.
const VisitCodeLength = 6

const visitCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateVisitCode returns an unpredictable 6-character uppercase
// alphanumeric code used as the patient's presence proof.
func GenerateVisitCode() (string, error) {
	buf := make([]byte, VisitCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate visit code: %w", err)
	}
	for i, b := range buf {
		buf[i] = visitCodeAlphabet[int(b)%len(visitCodeAlphabet)]
	}
	return string(buf), nil
}
