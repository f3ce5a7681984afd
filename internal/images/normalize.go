package images

import (
	"net/url"
	"strings"
)

// Normalize canonicalizes an image reference so two differently-encoded
// references to the same resource compare equal. It is total: input that
// cannot be percent-decoded is kept as-is. Normalize(Normalize(x)) == Normalize(x).
func Normalize(ref string) string {
	decoded := ref
	for {
		next, err := url.PathUnescape(decoded)
		if err != nil || next == decoded {
			break
		}
		decoded = next
	}

	decoded = strings.TrimSpace(decoded)
	decoded = strings.ReplaceAll(decoded, "\\", "/")
	for len(decoded) > 1 && strings.HasSuffix(decoded, "/") {
		decoded = strings.TrimSuffix(decoded, "/")
	}
	return decoded
}

// PathOnly strips the query and fragment components from a normalized
// reference. Used for comparison only, never stored: it tolerates signed-URL
// query parameters that rotate on regeneration.
func PathOnly(ref string) string {
	if i := strings.IndexByte(ref, '?'); i >= 0 {
		ref = ref[:i]
	}
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		ref = ref[:i]
	}
	return ref
}

// Matcher decides whether two references point at the same image.
type Matcher struct {
	// VolatileHosts lists storage providers whose generated URLs carry query
	// parameters that change across regenerations of the same resource.
	VolatileHosts []string
}

// Same reports whether a and b reference the same image: their normalized
// forms are equal, or their path-only forms are equal and at least one side
// is hosted by a configured volatile-query provider.
func (m Matcher) Same(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return true
	}
	if PathOnly(na) != PathOnly(nb) {
		return false
	}
	return m.volatile(hostOf(na)) || m.volatile(hostOf(nb))
}

func (m Matcher) volatile(host string) bool {
	if host == "" {
		return false
	}
	for _, v := range m.VolatileHosts {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.EqualFold(host, v) || strings.HasSuffix(strings.ToLower(host), "."+strings.ToLower(v)) {
			return true
		}
	}
	return false
}

func hostOf(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return u.Host
}
