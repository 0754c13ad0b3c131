package assetcache

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Transport is an http.RoundTripper that serves eligible GET requests from a
// Store and fills the store on a miss.
type Transport struct {
	Base   http.RoundTripper
	Store  Store
	Prefix string
	// Disabled forwards every request untouched.
	Disabled bool
}

var _ http.RoundTripper = (*Transport)(nil)

// NewTransport wraps base, or http.DefaultTransport when base is nil. An
// empty prefix selects DefaultPrefix.
func NewTransport(base http.RoundTripper, store Store, prefix string) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Transport{Base: base, Store: store, Prefix: prefix}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Disabled || t.Store == nil || req.Method != http.MethodGet || !Eligible(req.URL.Path) {
		return t.Base.RoundTrip(req)
	}

	url := req.URL.String()
	key := Key(t.Prefix, url)
	ctx := req.Context()

	data, ok, err := t.Store.Get(ctx, key)
	if err != nil {
		Logger().Warn("asset cache read failed", zap.String("url", url), zap.Error(err))
	}
	if ok && err == nil {
		Logger().Debug("asset cache hit", zap.String("url", url), zap.Int("bytes", len(data)))
		return cachedResponse(req, data), nil
	}

	resp, err := t.Base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))

	if strings.HasSuffix(req.URL.Path, ".wasm") && !strings.Contains(resp.Header.Get("Content-Type"), MimeWasm) {
		resp.Header.Set("Content-Type", MimeWasm)
	}

	if resp.StatusCode == http.StatusOK {
		if err := t.Store.Set(ctx, key, body); err != nil {
			Logger().Warn("asset cache write failed", zap.String("url", url), zap.Error(err))
		}
	}
	return resp, nil
}

func cachedResponse(req *http.Request, data []byte) *http.Response {
	h := make(http.Header)
	h.Set("Content-Type", MimeType(req.URL.Path))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: int64(len(data)),
		Request:       req,
	}
}
