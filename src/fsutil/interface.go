package fsutil

// FileStore provides an interface for file system operations
type FileStore interface {
	// ReadFile reads a file and returns its contents
	ReadFile(path string) ([]byte, error)

	// ListFiles returns the paths of regular files in a directory whose
	// name carries the given extension, sorted by name
	ListFiles(dir string, ext string) ([]string, error)
}
