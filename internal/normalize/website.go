package normalize

import (
	"net/url"
	"strings"
)

// WebsiteURL turns a registered website into a fetchable URL. Hosts that
// start with none of "www", "http", "https" get a "www." prefix, then
// anything without a scheme gets "https://".
func WebsiteURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "www") && !strings.HasPrefix(lower, "http") {
		s = "www." + s
		lower = "www." + lower
	}
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "https://" + s
	}
	return s
}

// RootVariant returns the bare site root for a deep link on a .cz host,
// e.g. https://www.x.cz/o-nas -> https://www.x.cz.
func RootVariant(website string) (string, bool) {
	u, err := url.Parse(website)
	if err != nil || u.Host == "" {
		return "", false
	}
	if !strings.HasSuffix(strings.ToLower(u.Hostname()), ".cz") {
		return "", false
	}
	if strings.Trim(u.Path, "/") == "" && u.RawQuery == "" {
		return "", false
	}
	return u.Scheme + "://" + u.Host, true
}

// ContainsWebsite reports whether candidate contains the registered website
// as a substring. A blank registered website matches nothing.
func ContainsWebsite(candidate, registered string) bool {
	registered = strings.TrimSpace(registered)
	if registered == "" {
		return false
	}
	return strings.Contains(candidate, registered)
}
