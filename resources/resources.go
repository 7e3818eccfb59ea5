//go:build !js
// +build !js

package resources

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

//go:embed data/sample.json
var f embed.FS

// GetEmbeddedResource
// Returns a ResourceEntry for the given snapshot name that is embedded in
// the binary, or nil when there is none.
func GetEmbeddedResource(name string) *ResourceEntry {
	resourceFile, err := f.Open("data/" + name + ".json")
	if err != nil {
		return nil
	}
	resourceBytes, err := f.ReadFile("data/" + name + ".json")
	if err != nil {
		resourceFile.Close()
		return nil
	}
	return &ResourceEntry{file: resourceFile, Data: &resourceBytes}
}

// EmbeddedExists
// Returns true if a snapshot of the given name is embedded in the binary.
func EmbeddedExists(name string) bool {
	_, err := f.ReadFile("data/" + name + ".json")
	return err == nil
}

// FetchHTTP
// Fetch a resource from a remote HTTP server.
func FetchHTTP(uri string) (io.ReadCloser, error) {
	resp, remoteErr := http.Get(uri)
	if remoteErr != nil {
		return nil, remoteErr
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.New(fmt.Sprintf("HTTP status code %d",
			resp.StatusCode))
	}
	return resp.Body, nil
}

// SizeHTTP
// Get the size of a resource from a remote HTTP server.
func SizeHTTP(uri string) (uint, error) {
	resp, remoteErr := http.Head(uri)
	if remoteErr != nil {
		return 0, remoteErr
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, errors.New(fmt.Sprintf("HTTP status code %d",
			resp.StatusCode))
	}
	size, _ := strconv.Atoi(resp.Header.Get("Content-Length"))
	return uint(size), nil
}
