package backend

import "regexp"

var (
	urlCredentials = regexp.MustCompile(`(https?)://[^\s@/"]+@`)
	secretParams   = regexp.MustCompile(`(?i)(token|secret|password|passwd|bearer)=[^\s"]+`)
)

// Redact removes credentials embedded in remote URLs and obvious secret
// parameters from s.
func Redact(s string) string {
	s = urlCredentials.ReplaceAllString(s, "$1://<redacted>@")
	return secretParams.ReplaceAllString(s, "$1=<redacted>")
}
