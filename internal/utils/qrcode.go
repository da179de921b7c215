package utils

import (
	"net/url"
	"strings"
)

// BuildVerificationURL membentuk payload QR: {baseURL}/certificates/verify/{certificateID}
func BuildVerificationURL(baseURL, certificateID string) string {
	return strings.TrimRight(baseURL, "/") + "/certificates/verify/" + url.PathEscape(certificateID)
}
