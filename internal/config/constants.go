// Package config holds the checker's ambient constants (file
// extensions, exit codes, version string) and the optional project
// manifest the CLI can load with --config.
package config

// Version is the current checker version.
var Version = "0.1.0"

const (
	SourceFileExt    = ".mz"
	InterfaceFileExt = ".mzi"
)

// SourceFileExtensions are every recognized source suffix.
var SourceFileExtensions = []string{SourceFileExt, InterfaceFileExt}

// TrimSourceExt removes a recognized source extension from name. Returns
// name unchanged if none matches.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt reports whether path ends with a recognized source
// extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// Exit codes (§6: "0 success; 250-255 for distinct failure classes").
const (
	ExitOK              = 0
	ExitLexError        = 250
	ExitInvalidCodepoint = 251
	ExitParseError      = 252
	ExitKindError       = 253
	ExitTypeError       = 254
	ExitFileNotFound    = 255
)
