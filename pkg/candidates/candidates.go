// Package candidates expands a stream reference into the ordered list of
// URLs worth trying.
package candidates

import (
	"strings"

	"dlhd-resolver/pkg/urlutil"
)

// Prefixes are the path prefixes the site serves stream pages under, in
// the order they are tried.
var Prefixes = []string{"stream", "cast", "watch", "plus", "casting", "player"}

const pageExtension = ".php"

// Generator builds candidate URLs for a set of site domains.
type Generator struct {
	primary string
	legacy  string
}

// NewGenerator returns a Generator. legacy may be empty.
func NewGenerator(primary, legacy string) *Generator {
	return &Generator{
		primary: strings.TrimRight(primary, "/"),
		legacy:  strings.TrimRight(legacy, "/"),
	}
}

// Generate returns candidate URLs for ref in priority order. For a stream
// page it yields every prefix on the primary domain, then every prefix on
// the legacy domain. A query string or fragment on ref is carried onto
// every stream page candidate. Any other reference yields one candidate:
// ref itself when absolute, otherwise ref joined to the primary domain. The
// result is never empty.
func (g *Generator) Generate(ref string) []string {
	ref = strings.TrimSpace(ref)
	filename := urlutil.FileName(ref)
	var suffix string
	if idx := strings.IndexAny(ref, "?#"); idx >= 0 {
		suffix = ref[idx:]
	}

	if strings.HasSuffix(strings.ToLower(filename), pageExtension) {
		domains := []string{g.primary}
		if g.legacy != "" {
			domains = append(domains, g.legacy)
		}
		out := make([]string, 0, len(domains)*len(Prefixes))
		for _, domain := range domains {
			for _, prefix := range Prefixes {
				out = append(out, domain+"/"+prefix+"/"+filename+suffix)
			}
		}
		return out
	}

	switch {
	case urlutil.HasScheme(ref):
		return []string{ref}
	case strings.HasPrefix(ref, "/"):
		return []string{g.primary + ref}
	case ref != "":
		return []string{g.primary + "/" + ref}
	default:
		return []string{ref}
	}
}
