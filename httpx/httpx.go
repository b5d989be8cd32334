package httpx

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/time/rate"

	"github.com/byte4ever/netkit"
)

// ErrBodyTooLarge is returned when a response body exceeds the limit set
// with [WithMaxBodySize].
var ErrBodyTooLarge = errors.New("httpx: response body too large")

// acceptEncoding is advertised when compression is enabled.
const acceptEncoding = "zstd, gzip"

// Transport executes [netkit.WireRequest] values over an [http.Client].
//
// Failures that produce no HTTP response are reported as
// [*netkit.TransportError] so that retry policies can classify them. Any
// HTTP status, error statuses included, is returned as a response.
type Transport struct {
	hc          *http.Client
	limiter     *rate.Limiter
	maxBodySize int64
	compression bool
}

var _ netkit.Transport = (*Transport)(nil)

// Option configures a [Transport].
type Option func(*Transport)

// WithRateLimiter makes every request wait for a token from l. The wait
// honours the request context.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(t *Transport) {
		t.limiter = l
	}
}

// WithRateLimit is [WithRateLimiter] with a fresh limiter allowing rps
// requests per second and bursts of burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(t *Transport) {
		t.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMaxBodySize caps the decoded response body. Zero means no cap.
func WithMaxBodySize(n int64) Option {
	return func(t *Transport) {
		t.maxBodySize = n
	}
}

// WithCompression advertises zstd and gzip and decodes compressed bodies.
func WithCompression() Option {
	return func(t *Transport) {
		t.compression = true
	}
}

// NewTransport returns a transport using hc, or [http.DefaultClient] when
// hc is nil.
func NewTransport(hc *http.Client, opts ...Option) *Transport {
	if hc == nil {
		hc = http.DefaultClient
	}

	t := &Transport{hc: hc}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Execute implements [netkit.Transport].
func (t *Transport) Execute(
	ctx context.Context,
	req *netkit.WireRequest,
) (*netkit.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			return nil, &netkit.TransportError{Err: err}
		}
	}

	hr, err := req.HTTPRequest(ctx)
	if err != nil {
		return nil, &netkit.TransportError{Err: err}
	}

	if t.compression && hr.Header.Get("Accept-Encoding") == "" {
		hr.Header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, err := t.hc.Do(hr)
	if err != nil {
		return nil, ClassifyError(err)
	}

	defer resp.Body.Close()

	body, err := t.readBody(resp)
	if err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			return nil, &netkit.TransportError{Err: err}
		}

		return nil, ClassifyError(err)
	}

	return &netkit.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// InvalidateCachedResponse implements [netkit.Transport]. The transport
// holds no cache; wrap it in a [netkit.CachingTransport] for one.
func (t *Transport) InvalidateCachedResponse(context.Context, *netkit.WireRequest) error {
	return nil
}

func (t *Transport) readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body

	if t.compression {
		decoded, err := decodeBody(resp)
		if err != nil {
			return nil, err
		}

		if decoded != nil {
			defer decoded.Close()

			r = decoded
		}
	}

	if t.maxBodySize <= 0 {
		return io.ReadAll(r)
	}

	body, err := io.ReadAll(io.LimitReader(r, t.maxBodySize+1))
	if err != nil {
		return nil, err
	}

	if int64(len(body)) > t.maxBodySize {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, t.maxBodySize)
	}

	return body, nil
}

// decodeBody returns a decompressing reader for the response's
// Content-Encoding, or nil when the body is not compressed. The encoding
// headers are removed once a decoder is in place.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	var (
		rc  io.ReadCloser
		err error
	)

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		rc, err = gzip.NewReader(resp.Body)
	case "zstd":
		var dec *zstd.Decoder

		dec, err = zstd.NewReader(resp.Body)
		if err == nil {
			rc = dec.IOReadCloser()
		}
	default:
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("httpx: decode %s body: %w",
			resp.Header.Get("Content-Encoding"), err)
	}

	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")

	return rc, nil
}

// ClassifyError maps a net/http failure to a [*netkit.TransportError].
// Context cancellation is returned as the bare cause. The request method
// and URL carried by [*url.Error] are dropped so that error strings never
// expose query parameters such as API keys.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	cause := stripURL(err)

	if errors.Is(err, context.Canceled) {
		return cause
	}

	return &netkit.TransportError{Kind: transportKind(err), Err: cause}
}

func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}

	return err
}

func transportKind(err error) netkit.TransportErrorKind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return netkit.TransportDNSFailure
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return netkit.TransportTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return netkit.TransportTimeout
	}

	var (
		recordErr tls.RecordHeaderError
		alertErr  tls.AlertError
	)

	if errors.As(err, &recordErr) || errors.As(err, &alertErr) {
		return netkit.TransportTLSHandshake
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.EHOSTDOWN):
		return netkit.TransportHostUnreachable
	case errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.ENETDOWN):
		return netkit.TransportNotConnected
	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF):
		return netkit.TransportConnectionLost
	default:
		return netkit.TransportOther
	}
}
