package netkit

import (
	"bytes"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

// Response is the raw outcome of one transport call.
type Response struct {
	Header     http.Header
	Body       []byte
	StatusCode int
}

// Decoder binds a response body to a Go value.
type Decoder interface {
	Decode(data []byte, v any) error
}

// KeyDecoding selects how JSON object keys are mapped before binding.
type KeyDecoding int

const (
	// UseDefaultKeys binds keys unchanged.
	UseDefaultKeys KeyDecoding = iota
	// ConvertFromSnakeCase rewrites snake_case keys to camelCase, so
	// "poster_path" binds to a field tagged `json:"posterPath"`.
	ConvertFromSnakeCase
)

// JSONDecoder is the default [Decoder], backed by goccy/go-json.
type JSONDecoder struct {
	Keys KeyDecoding
}

// Decode implements [Decoder].
func (d JSONDecoder) Decode(data []byte, v any) error {
	if d.Keys != ConvertFromSnakeCase {
		return json.Unmarshal(data, v)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return err
	}

	converted, err := json.Marshal(convertKeys(tree))
	if err != nil {
		return err
	}

	return json.Unmarshal(converted, v)
}

func convertKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[SnakeToCamel(k)] = convertKeys(child)
		}

		return out
	case []any:
		for i, child := range val {
			val[i] = convertKeys(child)
		}

		return val
	default:
		return v
	}
}

// SnakeToCamel converts a snake_case key to camelCase. The first word is
// kept as-is, later words are capitalised, and leading or trailing
// underscores are preserved.
func SnakeToCamel(key string) string {
	if !strings.Contains(key, "_") {
		return key
	}

	core := strings.Trim(key, "_")
	if core == "" {
		return key
	}

	lead := key[:strings.Index(key, core)]
	trail := key[len(lead)+len(core):]

	words := strings.Split(core, "_")

	var b strings.Builder

	b.Grow(len(key))
	b.WriteString(lead)
	b.WriteString(words[0])

	for _, w := range words[1:] {
		if w == "" {
			continue
		}

		r, size := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(strings.ToLower(w[size:]))
	}

	b.WriteString(trail)

	return b.String()
}

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

// Handle classifies a response whose transport call succeeded. A nil
// response yields [ErrNoData], a status outside [200,299] a server error,
// and a body that does not decode into out a decoding error. A nil out
// skips decoding.
func Handle(resp *Response, dec Decoder, out any) error {
	if resp == nil {
		return &NetworkError{Kind: KindNoData}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ServerError(resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err := dec.Decode(resp.Body, out); err != nil {
		return DecodingError(err)
	}

	return nil
}

// HandleResult is the callback-style classifier. A transport error is
// checked first and reported as [Unknown]; an empty body on success is
// [ErrNoData]; the remaining checks match [Handle].
func HandleResult[T any](resp *Response, transportErr error, dec Decoder) Result[T] {
	if transportErr != nil {
		return Failure[T](Unknown(transportErr))
	}

	if resp == nil {
		return Failure[T](&NetworkError{Kind: KindNoData})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Failure[T](ServerError(resp.StatusCode))
	}

	if resp.Body == nil {
		return Failure[T](&NetworkError{Kind: KindNoData})
	}

	var v T
	if err := dec.Decode(resp.Body, &v); err != nil {
		return Failure[T](DecodingError(err))
	}

	return Success(v)
}

// ---------------------------------------------------------------------------
// Result
// ---------------------------------------------------------------------------

// Result carries either a decoded value or the error that prevented it.
type Result[T any] struct {
	err   error
	value T
}

// Success wraps a value.
func Success[T any](v T) Result[T] { return Result[T]{value: v} }

// Failure wraps an error.
func Failure[T any](err error) Result[T] { return Result[T]{err: err} }

// IsSuccess reports whether the result holds a value.
func (r Result[T]) IsSuccess() bool { return r.err == nil }

// IsFailure reports whether the result holds an error.
func (r Result[T]) IsFailure() bool { return r.err != nil }

// Value returns the value and whether there was one.
func (r Result[T]) Value() (T, bool) { return r.value, r.err == nil }

// Err returns the failure, nil on success.
func (r Result[T]) Err() error { return r.err }

// Get returns the value and error in the usual Go shape.
func (r Result[T]) Get() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}

	return r.value, nil
}
