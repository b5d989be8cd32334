// Package netkit is a small typed HTTP client layer for JSON APIs.
//
// An [Endpoint] describes one operation declaratively: base URL, path,
// method, headers, parameters and a [CachePolicy]. [BuildRequest] turns it
// into a [WireRequest]; a [Client] executes that through a [Transport],
// classifies the outcome into a [NetworkError] and decodes the body.
// [Client.RequestWithRetry] repeats failed attempts according to an
// immutable [RetryPolicy] built from a backoff [Strategy].
//
// Feature repositories embed [BaseRepository] and expose typed methods;
// see the movies subpackage for a complete example.
//
// The net/http transport lives in httpx. [CachingTransport] adds response
// caching over any [ResponseCache]; the otter, ristretto and redis
// subpackages provide adapters.
package netkit
