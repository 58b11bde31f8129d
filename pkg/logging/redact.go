package logging

import "regexp"

// redaction patterns for §4.13: emails, phone numbers, authorization
// headers, and signed-URL query tokens must never reach a log record.
var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\-. ]{7,}\d`)
	authPattern  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)(Bearer\s+\S+|Basic\s+\S+)`)
	sigPattern   = regexp.MustCompile(`([?&](?:sig|signature|exp|token|X-Amz-Signature)=)[^&\s"]+`)
	addrPattern  = regexp.MustCompile(`(?i)\d{1,5}\s+\w+(\s\w+){0,4}\s(street|st|ave|avenue|road|rd|blvd|drive|dr|lane|ln)\b`)
)

// Redact strips the PII patterns above from a free-text log field, leaving
// structure intact so the record is still useful for debugging.
func Redact(s string) string {
	s = authPattern.ReplaceAllString(s, "${1}[REDACTED]")
	s = sigPattern.ReplaceAllString(s, "${1}[REDACTED]")
	s = emailPattern.ReplaceAllString(s, "[REDACTED_EMAIL]")
	s = addrPattern.ReplaceAllString(s, "[REDACTED_ADDRESS]")
	s = phonePattern.ReplaceAllString(s, "[REDACTED_PHONE]")
	return s
}
