// Package marketplace turns a "publisher.extension" identifier into the
// URL of its VSIX package and a safe local file name.
//
// Two resolvers are provided. [DirectResolver] builds the well-known
// "latest" package URL without touching the network. [QueryResolver]
// asks the gallery extension query endpoint for the latest version's
// package source.
//
//	r, err := marketplace.NewDirect()
//	d, err := r.Resolve(ctx, "ms-python.python")
//	// d.Source: https://marketplace.visualstudio.com/_apis/public/gallery/publishers/ms-python/vsextensions/python/latest/vspackage
//	// d.FileName: ms-python.python.vsix
package marketplace
