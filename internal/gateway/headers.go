package gateway

import "net/http"

// GatewayHeader is the diagnostic marker injected on proxied responses
const GatewayHeader = "X-Registry-Gateway"

// strippedRequestHeaders must never reach the upstream registry: the
// client's host identification and any credential it sent to the gateway.
var strippedRequestHeaders = []string{
	"Host",
	"Authorization",
}

// SanitizeRequestHeaders returns a copy of the inbound headers with the
// sensitive ones removed. The input is never mutated.
func SanitizeRequestHeaders(in http.Header) http.Header {
	out := in.Clone()
	if out == nil {
		out = http.Header{}
	}
	for _, name := range strippedRequestHeaders {
		out.Del(name)
	}
	return out
}

// CopyResponseHeaders returns upstream response headers to the caller
// unmodified, then applies intentional overrides on top.
func CopyResponseHeaders(dst, src http.Header, overrides map[string]string) {
	for name, values := range src {
		for _, value := range values {
			dst.Add(name, value)
		}
	}
	for name, value := range overrides {
		dst.Set(name, value)
	}
}
