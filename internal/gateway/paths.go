package gateway

import "strings"

// TranslatePath maps an inbound gateway path to the registry API path under
// its versioned namespace: /<prefix>/<rest> becomes /v2/<rest>, and an empty
// remainder becomes /v2/ (the registry root/ping path).
//
// This is a pure string transformation. Repository-name syntax is not
// validated here; malformed paths are rejected by the upstream registry and
// its error is surfaced verbatim.
func TranslatePath(prefix, inbound string) string {
	rest := strings.TrimPrefix(inbound, prefix)
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return "/v2/"
	}
	return "/v2/" + rest
}
