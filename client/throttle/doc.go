// Package throttle provides an [http.RoundTripper] that spaces out
// requests to the marketplace using a token bucket from
// [golang.org/x/time/rate].
//
// # Usage
//
//	rt, err := throttle.NewRoundTripper(
//		2, // requests per second
//		1, // burst capacity
//		func() *slog.Logger { return slog.Default() },
//		http.DefaultTransport,
//	)
//	httpClient := &http.Client{Transport: rt}
//
// A request that finds the bucket empty blocks until a token is
// available or its context ends.
package throttle
