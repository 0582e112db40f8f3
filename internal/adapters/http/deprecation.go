package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DeprecatedRoute marks an endpoint as deprecated with sunset date.
type DeprecatedRoute struct {
	Path        string    // Handler path pattern
	SunsetDate  time.Time // Date when endpoint will be removed
	Alternative string    // Recommended alternative endpoint (optional)
}

// DeprecationMiddleware adds Deprecation, Sunset, and Link headers to deprecated endpoints.
// This helps clients migrate gracefully to newer API versions.
func DeprecationMiddleware(deprecated []DeprecatedRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Check if this route is deprecated
		for _, d := range deprecated {
			if matchPattern(c.Path(), d.Path) {
				// RFC 8594 Deprecation header
				c.Set("Deprecation", "true")

				// RFC 8594 Sunset header (HTTP-Date format)
				c.Set("Sunset", d.SunsetDate.UTC().Format(time.RFC1123))

				// RFC 8288 Link header with deprecation info
				if d.Alternative != "" {
					alt := fillPattern(c.Path(), d.Path, d.Alternative)
					c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, alt))
				}

				// Warning header (optional, RFC 7234)
				days := time.Until(d.SunsetDate).Hours() / 24
				c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))

				break
			}
		}

		return c.Next()
	}
}

// matchPattern matches path against a route pattern segment by segment.
// Segments starting with ':' match any non-empty segment.
func matchPattern(path, pattern string) bool {
	if path == pattern {
		return true
	}
	ps := strings.Split(strings.Trim(path, "/"), "/")
	qs := strings.Split(strings.Trim(pattern, "/"), "/")
	if len(ps) != len(qs) {
		return false
	}
	for i, q := range qs {
		if strings.HasPrefix(q, ":") {
			if ps[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != q {
			return false
		}
	}
	return true
}

// fillPattern substitutes the parameters of path into the pattern of an
// alternative route with the same parameter names.
func fillPattern(path, pattern, alt string) string {
	ps := strings.Split(strings.Trim(path, "/"), "/")
	params := make(map[string]string)
	for i, q := range strings.Split(strings.Trim(pattern, "/"), "/") {
		if strings.HasPrefix(q, ":") && i < len(ps) {
			params[q] = ps[i]
		}
	}
	out := strings.Split(alt, "/")
	for i, seg := range out {
		if v, ok := params[seg]; ok {
			out[i] = v
		}
	}
	return strings.Join(out, "/")
}
