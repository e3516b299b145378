// Package gnexport is the root of the bulk occurrence export tool.
// Version and Build are set by the linker during release builds.
package gnexport

var (
	// Version of gnexport.
	Version = "v0.1.0"
	// Build timestamp.
	Build = "n/a"
)
