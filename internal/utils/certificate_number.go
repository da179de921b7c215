package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	certificateSuffixLen = 9
	base36Alphabet       = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// GenerateCertificateID membuat id publik format CERT-{unixMillis}-{9 karakter base36 uppercase}
func GenerateCertificateID(now time.Time) (string, error) {
	suffix := make([]byte, certificateSuffixLen)
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate certificate id: %w", err)
		}
		suffix[i] = base36Alphabet[n.Int64()]
	}
	return fmt.Sprintf("CERT-%d-%s", now.UnixMilli(), strings.ToUpper(string(suffix))), nil
}
