package resources

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/dustin/go-humanize"
)

// WriteCounter counts the number of bytes written to it, and every 10 seconds,
// it prints a message reporting the number of bytes written so far.
type WriteCounter struct {
	Total    uint64
	Last     time.Time
	Reported bool
	Path     string
	Size     uint64
}

func (wc *WriteCounter) Write(p []byte) (int, error) {
	n := len(p)
	wc.Total += uint64(n)
	if time.Since(wc.Last).Seconds() > 10 {
		wc.Reported = true
		wc.Last = time.Now()
		log.Printf("Downloading %s... %s / %s completed.",
			wc.Path, humanize.Bytes(wc.Total), humanize.Bytes(wc.Size))
	}
	return n, nil
}

// ResourceEntry is a resolved artefact: the bytes, plus whatever backs
// them and must be released by Cleanup.
type ResourceEntry struct {
	file  interface{}
	unmap func() error
	Data  *[]byte
}

// Cleanup releases the mapping and closes the backing file. Data must not
// be used afterwards.
func (rsrc *ResourceEntry) Cleanup() {
	if rsrc.unmap != nil {
		if err := rsrc.unmap(); err != nil {
			log.Printf("error unmapping resource: %v", err)
		}
		rsrc.unmap = nil
	}
	switch t := rsrc.file.(type) {
	case *os.File:
		t.Close()
	case fs.File:
		t.Close()
	}
	rsrc.file = nil
}

func isValidUrl(toTest string) bool {
	_, err := url.ParseRequestURI(toTest)
	if err != nil {
		return false
	}

	u, err := url.Parse(toTest)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}

// Fetch
// Given a URI, determines if the resource is local or remote, and returns a
// ReadCloser over it.
func Fetch(uri string) (io.ReadCloser, error) {
	if isValidUrl(uri) {
		return FetchHTTP(uri)
	}
	handle, fileErr := os.Open(uri)
	if fileErr != nil {
		return nil, errors.New(fmt.Sprintf("error opening %s: %v",
			uri, fileErr))
	}
	return handle, nil
}

// Size
// Given a URI, determine the size of the resource.
func Size(uri string) (uint, error) {
	if isValidUrl(uri) {
		return SizeHTTP(uri)
	}
	fsz, err := os.Stat(uri)
	if err != nil {
		return 0, err
	}
	return uint(fsz.Size()), nil
}

// OpenEntry
// Open a local file as a ResourceEntry, memory-mapping its contents.
func OpenEntry(filePath string) (*ResourceEntry, error) {
	file, openErr := os.Open(filePath)
	if openErr != nil {
		return nil, openErr
	}
	stat, statErr := file.Stat()
	if statErr != nil {
		file.Close()
		return nil, statErr
	}
	// Zero-length files cannot be mapped.
	if stat.Size() == 0 {
		empty := make([]byte, 0)
		return &ResourceEntry{file: file, Data: &empty}, nil
	}
	fileMmap, unmap, mmapErr := readMmap(file)
	if mmapErr != nil {
		file.Close()
		return nil, errors.New(
			fmt.Sprintf("error trying to mmap file: %s", mmapErr))
	}
	return &ResourceEntry{file: file, unmap: unmap, Data: fileMmap}, nil
}

// Download
// Fetches uri into dir, skipping the transfer when a file of the same name
// and size is already there. Returns the local path.
func Download(uri string, dir string) (string, error) {
	u, parseErr := url.Parse(uri)
	if parseErr != nil {
		return "", parseErr
	}
	targetPath := path.Join(dir, path.Base(u.Path))
	log.Printf("Resolving %s... ", uri)
	rsrcSize, rsrcSizeErr := Size(uri)
	if rsrcSizeErr != nil {
		return "", errors.New(fmt.Sprintf("cannot retrieve `%s`: %s",
			uri, rsrcSizeErr))
	}
	if targetStat, targetStatErr := os.Stat(targetPath); targetStatErr == nil &&
		uint(targetStat.Size()) == rsrcSize {
		log.Printf("Skipping %s... already exists, "+
			"and of the correct size.", uri)
		return targetPath, nil
	}
	rsrcReader, rsrcErr := Fetch(uri)
	if rsrcErr != nil {
		return "", errors.New(fmt.Sprintf("cannot retrieve `%s`: %s",
			uri, rsrcErr))
	}
	defer rsrcReader.Close()
	rsrcFile, rsrcFileErr := os.OpenFile(targetPath,
		os.O_TRUNC|os.O_RDWR|os.O_CREATE, 0644)
	if rsrcFileErr != nil {
		return "", errors.New(fmt.Sprintf("error opening '%s' for write: %s",
			targetPath, rsrcFileErr))
	}
	defer rsrcFile.Close()
	counter := &WriteCounter{
		Last: time.Now(),
		Path: uri,
		Size: uint64(rsrcSize),
	}
	bytesDownloaded, ioErr := io.Copy(rsrcFile,
		io.TeeReader(rsrcReader, counter))
	if ioErr != nil {
		return "", errors.New(fmt.Sprintf("error downloading '%s': %s",
			uri, ioErr))
	}
	log.Printf("Downloaded %s... %s completed.", uri,
		humanize.Bytes(uint64(bytesDownloaded)))
	return targetPath, nil
}

// ResolveSnapshot
// Resolves a snapshot reference to its bytes: an embedded snapshot name, a
// local path, or an http(s) URL. Remote snapshots are downloaded to a
// temporary directory first.
func ResolveSnapshot(uri string) (*ResourceEntry, error) {
	if EmbeddedExists(uri) {
		return GetEmbeddedResource(uri), nil
	}
	if !isValidUrl(uri) {
		return OpenEntry(uri)
	}
	dir, dirErr := os.MkdirTemp("", "gramdict")
	if dirErr != nil {
		return nil, dirErr
	}
	// The mapping stays valid after the directory entry is removed.
	defer os.RemoveAll(dir)
	localPath, dlErr := Download(uri, dir)
	if dlErr != nil {
		return nil, dlErr
	}
	return OpenEntry(localPath)
}
