// Package assetcache caches the engine binary and its packaged model data.
//
// Only URLs ending in .wasm or .data are cached, under Key(prefix, url).
// Transport wraps an http.RoundTripper so any http.Client can be given the
// cache without the caller knowing about it:
//
//	client := &http.Client{Transport: assetcache.NewTransport(nil, store, "")}
//
// Store failures never fail a request; they are logged and the request
// falls through to the network.
package assetcache
