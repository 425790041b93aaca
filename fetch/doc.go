// Package fetch runs the whole download pipeline for one extension:
// resolve the identifier, stream the package to disk while hashing it,
// and compare the digest with the one recorded by earlier runs.
//
//	f, err := fetch.New(fetch.WithDir(dir))
//	res, err := f.Fetch(ctx, "ms-python.python")
//	if res.Observation.Changed {
//		// same file name, different bytes than last time
//	}
//
// A changed digest is logged at WARN and surfaced on the [Result]; it
// never fails the fetch. Whatever goes wrong, the final file is either
// complete and verified or absent.
package fetch
