package catalog

import (
	"regexp"
	"strings"
)

// upidPrefix matches resource prefixes of the form <scheme>://<namespace>/p/.
// Path cleaning collapses the double slash, so a single one is accepted too.
var upidPrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*:/+[^/]+/p/`)

// ExtractUPID returns the bare universal product id.
func ExtractUPID(id string) string {
	return upidPrefix.ReplaceAllString(strings.TrimSpace(id), "")
}
