package sheets

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"shelterstats/internal/core"
)

// ToStrings flattens one row of API cell values into trimmed strings.
func ToStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// BuildTable converts a matrix whose first row holds the headers into a
// Table. It returns ErrNoData when there is no row below the header.
func BuildTable(values [][]string) (core.Table, error) {
	if len(values) <= 1 {
		return core.Table{}, ErrNoData
	}
	return core.TableFromMatrix(values), nil
}

// NewHTTPClient returns a client with connection pooling and timeouts suited
// to a handful of calls per refresh against a single upstream host.
func NewHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
