package netkit

// Method is the HTTP method of an [Endpoint].
type Method string

// Supported HTTP methods.
const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// CachePolicy tells the transport how to treat locally cached responses.
type CachePolicy int

const (
	// UseProtocolCachePolicy serves a fresh cached response when one exists.
	UseProtocolCachePolicy CachePolicy = iota
	// ReloadIgnoringLocalCache drops the cached response for the request and
	// always goes to the network.
	ReloadIgnoringLocalCache
	// ReloadRevalidatingCache asks the origin whether the cached response is
	// still valid before serving it.
	ReloadRevalidatingCache
)

// String returns the policy name.
func (p CachePolicy) String() string {
	switch p {
	case UseProtocolCachePolicy:
		return "protocol"
	case ReloadIgnoringLocalCache:
		return "reload-ignoring-local"
	case ReloadRevalidatingCache:
		return "reload-revalidating"
	default:
		return "unknown"
	}
}

// Endpoint is the declarative description of one HTTP operation. Concrete
// request types implement it; embed [EndpointDefaults] to inherit the
// default headers, parameters and cache policy.
type Endpoint interface {
	BaseURL() string
	Path() string
	Method() Method
	// Headers returns the header set applied as-is to the request. A nil
	// map means no headers.
	Headers() map[string]string
	// Parameters returns a JSON-serialisable record, or nil for none.
	Parameters() any
	CachePolicy() CachePolicy
}

// DefaultHeaders returns the header set used when an endpoint does not
// override [Endpoint.Headers].
func DefaultHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

// EndpointDefaults supplies the optional parts of [Endpoint].
type EndpointDefaults struct{}

// Headers returns [DefaultHeaders].
func (EndpointDefaults) Headers() map[string]string { return DefaultHeaders() }

// Parameters returns nil.
func (EndpointDefaults) Parameters() any { return nil }

// CachePolicy returns [UseProtocolCachePolicy].
func (EndpointDefaults) CachePolicy() CachePolicy { return UseProtocolCachePolicy }

// Route is a plain-value [Endpoint] for call sites that do not need a
// dedicated type. A nil Header falls back to [DefaultHeaders]; an empty
// method means GET.
type Route struct {
	Base   string
	Target string
	Verb   Method
	Header map[string]string
	Params any
	Cache  CachePolicy
}

// BaseURL implements [Endpoint].
func (r Route) BaseURL() string { return r.Base }

// Path implements [Endpoint].
func (r Route) Path() string { return r.Target }

// Method implements [Endpoint].
func (r Route) Method() Method {
	if r.Verb == "" {
		return MethodGet
	}

	return r.Verb
}

// Headers implements [Endpoint].
func (r Route) Headers() map[string]string {
	if r.Header == nil {
		return DefaultHeaders()
	}

	return r.Header
}

// Parameters implements [Endpoint].
func (r Route) Parameters() any { return r.Params }

// CachePolicy implements [Endpoint].
func (r Route) CachePolicy() CachePolicy { return r.Cache }
