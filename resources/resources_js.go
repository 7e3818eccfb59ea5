package resources

import (
	"bytes"
	"errors"
	"io"
)

// GetEmbeddedResource
// Returns a ResourceEntry for the given snapshot name that is embedded in
// the binary, or nil when there is none.
func GetEmbeddedResource(name string) *ResourceEntry {
	resourceBytes, err := ReadFile(name + ".json")
	if err != nil {
		return nil
	}
	resourceWrapper := bytes.NewReader(resourceBytes)
	return &ResourceEntry{file: resourceWrapper, Data: &resourceBytes}
}

// EmbeddedExists
// Returns true if a snapshot of the given name is embedded in the binary.
func EmbeddedExists(name string) bool {
	for _, k := range MapKeys() {
		if k == name+".json" {
			return true
		}
	}
	return false
}

// FetchHTTP
// Stub for fetching a resource from a remote HTTP server.
func FetchHTTP(uri string) (io.ReadCloser, error) {
	return nil, errors.New("FetchHTTP not implemented")
}

// SizeHTTP
// Stub for getting the size of a resource from a remote HTTP server.
func SizeHTTP(uri string) (uint, error) {
	return 0, errors.New("SizeHTTP not implemented")
}
