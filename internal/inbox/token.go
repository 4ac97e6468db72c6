package inbox

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DeriveToken hashes a namespace prefix, the viewer id and the snapshot
// fields into an opaque change token. It is a weak validator: equal
// tokens mean "no observable change", not byte-identical content.
//
// Every call site that needs the token for the same (prefix, viewer,
// snapshot) must go through this one function; the pre-check, the cache
// key and the response validator all share it.
func DeriveToken(prefix string, viewerID int64, s Snapshot) string {
	h := xxhash.New()
	fmt.Fprintf(h, "%s|%d|%d|%d|%d|%d",
		prefix, viewerID, s.MaxMessageID, s.MaxThreadID, s.UnreadTotal, s.ThreadCount)
	return fmt.Sprintf("%016x", h.Sum64())
}

// ETag renders a token as a weak HTTP validator.
func ETag(token string) string {
	return `W/"` + token + `"`
}

// TokenFromETag extracts the raw token from an If-None-Match value.
// Returns "" when the header is absent or malformed.
func TokenFromETag(header string) string {
	v := strings.TrimSpace(header)
	v = strings.TrimPrefix(v, "W/")
	if len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
		return ""
	}
	return v[1 : len(v)-1]
}
