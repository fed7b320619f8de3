// Package urlutil provides URL helpers that work on the raw string form,
// so site URLs and embed sources keep their original encoding.
package urlutil

import (
	"net/url"
	"strings"
)

// HasScheme reports whether s starts with http:// or https://.
func HasScheme(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ResolveURL resolves a possibly relative reference against a base URL.
// Absolute references are returned unchanged and protocol-relative ones
// take the base scheme. String manipulation is used instead of
// url.ResolveReference, which re-encodes characters some hosts rely on.
func ResolveURL(urlStr string, baseURL string) string {
	if urlStr == "" || HasScheme(urlStr) {
		return urlStr
	}

	parsed, err := url.Parse(baseURL)
	if strings.HasPrefix(urlStr, "//") {
		if err != nil || parsed.Scheme == "" {
			return "https:" + urlStr
		}
		return parsed.Scheme + ":" + urlStr
	}

	if strings.HasPrefix(urlStr, "/") {
		if err != nil || parsed.Host == "" {
			return strings.TrimRight(baseURL, "/") + urlStr
		}
		return parsed.Scheme + "://" + parsed.Host + urlStr
	}

	base := baseURL
	if idx := strings.IndexAny(base, "?#"); idx > 0 {
		base = base[:idx]
	}
	if lastSlash := strings.LastIndex(base, "/"); lastSlash > len("https://") {
		base = base[:lastSlash+1]
	} else {
		base += "/"
	}

	for strings.HasPrefix(urlStr, "../") {
		urlStr = urlStr[3:]
		trimmed := strings.TrimSuffix(base, "/")
		if lastSlash := strings.LastIndex(trimmed, "/"); lastSlash > len("https://") {
			base = trimmed[:lastSlash+1]
		}
	}
	return base + strings.TrimPrefix(urlStr, "./")
}

// GetSchemeHost extracts scheme://host from a URL.
func GetSchemeHost(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// Host returns the host (with port, if any) of urlStr.
func Host(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return parsed.Host
}

// FileName returns the trailing path segment of a reference, ignoring any
// query string or fragment.
func FileName(ref string) string {
	if idx := strings.IndexAny(ref, "?#"); idx >= 0 {
		ref = ref[:idx]
	}
	ref = strings.TrimRight(ref, "/")
	if lastSlash := strings.LastIndex(ref, "/"); lastSlash >= 0 {
		return ref[lastSlash+1:]
	}
	return ref
}

// FirstQueryValue returns the value of the first occurrence of name in the
// query string of urlStr. The value is returned as it appears in the URL.
func FirstQueryValue(urlStr, name string) (string, bool) {
	_, query, ok := strings.Cut(urlStr, "?")
	if !ok {
		return "", false
	}
	if idx := strings.Index(query, "#"); idx >= 0 {
		query = query[:idx]
	}
	for _, pair := range strings.Split(query, "&") {
		key, value, _ := strings.Cut(pair, "=")
		if key == name {
			return value, true
		}
	}
	return "", false
}

// DowngradeToHTTP swaps a leading https:// for http://. The second return
// value is false when urlStr is not an https URL.
func DowngradeToHTTP(urlStr string) (string, bool) {
	if !strings.HasPrefix(urlStr, "https://") {
		return urlStr, false
	}
	return "http://" + strings.TrimPrefix(urlStr, "https://"), true
}
