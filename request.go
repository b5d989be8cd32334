package netkit

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	json "github.com/goccy/go-json"
)

// WireRequest is a fully resolved, transport-ready request derived from an
// [Endpoint]. A GET request never carries a body.
type WireRequest struct {
	Header      http.Header
	URL         string
	Method      Method
	Body        []byte
	CachePolicy CachePolicy
}

// BuildRequest turns e into a [WireRequest]. It fails with [ErrInvalidURL]
// when BaseURL+Path is not an absolute URL. Parameters that cannot be
// encoded are ignored and the request is returned without them.
func BuildRequest(e Endpoint) (*WireRequest, error) {
	raw := e.BaseURL() + e.Path()

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &NetworkError{Kind: KindInvalidURL, Err: err}
	}

	req := &WireRequest{
		URL:         u.String(),
		Method:      e.Method(),
		CachePolicy: e.CachePolicy(),
		Header:      make(http.Header),
	}

	for k, v := range e.Headers() {
		req.Header.Set(k, v)
	}

	if params := e.Parameters(); params != nil {
		applyParameters(req, u, params)
	}

	return req, nil
}

func applyParameters(req *WireRequest, u *url.URL, params any) {
	switch req.Method {
	case MethodGet:
		items, ok := QueryItems(params)
		if !ok {
			return
		}

		withQuery := *u
		withQuery.RawQuery = items.Encode()
		req.URL = withQuery.String()

	case MethodPost, MethodPut, MethodDelete:
		body, err := json.Marshal(params)
		if err != nil || bytes.Equal(body, []byte("null")) {
			return
		}

		req.Body = body
	}
}

// QueryItems serialises params to JSON and flattens the resulting object into
// query values. Strings are used verbatim, numbers keep their JSON literal
// form, booleans become "true"/"false", nested arrays and objects are
// written as compact JSON and null members are skipped. The boolean result
// is false when params does not encode to a JSON object.
func QueryItems(params any) (url.Values, bool) {
	data, err := json.Marshal(params)
	if err != nil {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err = dec.Decode(&fields); err != nil || fields == nil {
		return nil, false
	}

	values := make(url.Values, len(fields))

	for key, value := range fields {
		s, ok := stringify(value)
		if !ok {
			continue
		}

		values.Set(key, s)
	}

	return values, true
}

func stringify(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val), true
		}

		return string(data), true
	}
}

// HTTPRequest converts r into an [http.Request] bound to ctx.
func (r *WireRequest) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	hr, err := http.NewRequestWithContext(ctx, string(r.Method), r.URL, body)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}

		return nil, fmt.Errorf("netkit: build http request: %w", err)
	}

	hr.Header = r.Header.Clone()
	if hr.Header == nil {
		hr.Header = make(http.Header)
	}

	return hr, nil
}

// credentialHeaders are mixed into [WireRequest.CacheKey] so that a shared
// cache never answers one caller with a response fetched under another
// caller's credentials.
var credentialHeaders = []string{"Authorization", "Cookie", "X-Api-Key"}

// CacheKey identifies the exact request for response caching: a SHA-256 over
// method, URL, credential headers and body, hex encoded.
func (r *WireRequest) CacheKey() string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{' '})
	h.Write([]byte(r.URL))
	h.Write([]byte{'\n'})

	for _, name := range credentialHeaders {
		for _, v := range r.Header.Values(name) {
			h.Write([]byte(name))
			h.Write([]byte{':'})
			h.Write([]byte(v))
			h.Write([]byte{'\n'})
		}
	}

	h.Write([]byte{'\n'})
	h.Write(r.Body)

	return hex.EncodeToString(h.Sum(nil))
}

// clone returns a copy of r whose header can be modified independently.
func (r *WireRequest) clone() *WireRequest {
	c := *r
	c.Header = r.Header.Clone()

	if c.Header == nil {
		c.Header = make(http.Header)
	}

	return &c
}
