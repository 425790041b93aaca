// Package client provides the HTTP client used to talk to the
// marketplace, built on [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithConnectTimeout(30 * time.Second),
//		client.WithReadTimeout(30 * time.Second),
//		client.WithUserAgent("vsixget/1.0"),
//	)
//
// # Making Requests
//
// Construct a [Request], then execute with [Client.Do]:
//
//	req, err := client.Request(ctx, queryURL, http.MethodPost, client.WithPayload(body))
//	err = c.Do(req, http.StatusOK, client.WithDestination(&result))
//
// # Downloading Files
//
// Stream a response body directly to disk. The returned summary
// carries the byte count and the SHA-256 computed while streaming:
//
//	sum, err := c.Download(req, http.StatusOK, "ms-python.python.vsix",
//		download.WithProgressLog(),
//	)
//
// A status other than the expected one yields an
// [UnexpectedStatusError] and no file. A body that stalls for longer
// than the read timeout fails with [ErrReadTimeout].
package client
