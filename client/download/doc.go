// Package download streams HTTP response bodies to disk, hashing the
// bytes with SHA-256 as they are written.
//
// # Single Download
//
// [Handle] writes the response body to "<destPath>.temp", checks that
// every declared byte arrived, then atomically renames the temp file
// to destPath:
//
//	sum, err := download.Handle(ctx, resp.Body, resp.ContentLength, destPath, logger,
//		download.WithProgressLog(),
//	)
//	fmt.Println(sum.SHA256)
//
// The temp file is removed on every failure path, so destPath either
// holds the complete body or does not exist.
//
// Most callers should use [github.com/adamwoolhether/vsixget/client],
// which invokes Handle from [client.Client.Download].
package download
