package assetcache

import "strings"

// DefaultPrefix namespaces cache keys.
const DefaultPrefix = "sherpa-wasm:"

const (
	MimeWasm   = "application/wasm"
	MimeBinary = "application/octet-stream"
)

// Key returns the cache key for url.
func Key(prefix, url string) string {
	return prefix + url
}

// Eligible reports whether url names a cacheable asset.
func Eligible(url string) bool {
	return strings.HasSuffix(url, ".wasm") || strings.HasSuffix(url, ".data")
}

// MimeType returns the content type served for a cached asset.
func MimeType(url string) string {
	if strings.HasSuffix(url, ".wasm") {
		return MimeWasm
	}
	return MimeBinary
}
