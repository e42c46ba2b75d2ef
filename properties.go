package s3lite

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Properties carries the server-reported metadata of an object after a
// successful Get or Put.
type Properties struct {
	// ETag is the raw ETag header value, quotes included, exactly as the
	// server sent it. Pass it back verbatim as GetOptions.IfNoneMatch.
	ETag string

	// Expiration is set when the server announced a lifecycle expiry for
	// the object via x-amz-expiration, nil otherwise.
	Expiration *Expiration
}

// Expiration describes a pending lifecycle expiry.
type Expiration struct {
	// RuleID names the lifecycle rule that will expire the object.
	RuleID string

	// Time is when the object is scheduled to expire, in UTC.
	Time time.Time
}

// extractProperties pulls object metadata out of response headers. A
// malformed x-amz-expiration header fails the whole extraction; silently
// dropping a value the server did send would hide lifecycle surprises.
func extractProperties(headers http.Header) (*Properties, error) {
	props := &Properties{ETag: headers.Get("Etag")}
	if v := headers.Get("X-Amz-Expiration"); v != "" {
		exp, err := parseExpiration(v)
		if err != nil {
			return nil, err
		}
		props.Expiration = exp
	}
	return props, nil
}

var monthsByName = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// parseExpiration interprets the x-amz-expiration header, which looks like
//
//	expiry-date="Fri, 21 Dec 2012 00:00:00 GMT", rule-id="cleanup"
//
// The date is parsed against a fixed English month table so the result
// never depends on process locale.
func parseExpiration(value string) (*Expiration, error) {
	fields, ok := parseQuotedPairs(value)
	if !ok {
		return nil, &MalformedExpirationError{Value: value}
	}
	dateStr, okDate := fields["expiry-date"]
	ruleID, okRule := fields["rule-id"]
	if !okDate || !okRule {
		return nil, &MalformedExpirationError{Value: value}
	}
	when, ok := parseHTTPDate(dateStr)
	if !ok {
		return nil, &MalformedExpirationError{Value: value}
	}
	return &Expiration{RuleID: ruleID, Time: when}, nil
}

// parseQuotedPairs splits `key="value", key="value"` into a map.
func parseQuotedPairs(value string) (map[string]string, bool) {
	fields := make(map[string]string)
	for _, part := range strings.Split(value, `", `) {
		part = strings.TrimSuffix(strings.TrimSpace(part), `"`)
		key, quoted, found := strings.Cut(part, `="`)
		if !found || key == "" {
			return nil, false
		}
		fields[key] = quoted
	}
	return fields, len(fields) > 0
}

// parseHTTPDate parses an RFC 1123 GMT date like
// "Fri, 21 Dec 2012 00:00:00 GMT".
func parseHTTPDate(value string) (time.Time, bool) {
	parts := strings.Fields(value)
	if len(parts) != 6 || parts[5] != "GMT" {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	month, ok := monthsByName[parts[2]]
	if !ok {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(parts[3])
	if err != nil {
		return time.Time{}, false
	}
	clock := strings.Split(parts[4], ":")
	if len(clock) != 3 {
		return time.Time{}, false
	}
	hour, err1 := strconv.Atoi(clock[0])
	minute, err2 := strconv.Atoi(clock[1])
	second, err3 := strconv.Atoi(clock[2])
	if err1 != nil || err2 != nil || err3 != nil ||
		hour > 23 || minute > 59 || second > 59 ||
		hour < 0 || minute < 0 || second < 0 {
		return time.Time{}, false
	}
	return time.Date(year, month, day, hour, minute, second, 0, time.UTC), true
}
