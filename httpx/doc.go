// Package httpx provides the net/http transport for netkit.
//
// Transport executes wire requests with a standard http.Client, maps
// connection-level failures to netkit.TransportError kinds, and can rate
// limit requests, cap body sizes and decode gzip or zstd responses.
package httpx
