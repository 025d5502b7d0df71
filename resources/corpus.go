package resources

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yargevad/filepathx"
)

// Prefix for corpora embedded in the binary, e.g. `embedded:sample.txt`.
// A bare `embedded:` names the whole embedded corpus directory.
const EMBEDDED_PREFIX = "embedded:"

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
	if time.Now().Sub(wc.Last).Seconds() > 10 {
		wc.Reported = true
		wc.Last = time.Now()
		log.Print(fmt.Sprintf("Downloading %s... %s / %s completed.",
			wc.Path, humanize.Bytes(wc.Total), humanize.Bytes(wc.Size)))
	}
	return n, nil
}

// ResourceEntry holds the bytes of one corpus. If the bytes are memory
// mapped, Cleanup must be called once they are no longer needed.
type ResourceEntry struct {
	file   interface{}
	Data   *[]byte
	mapped bool
}

func (rsrc *ResourceEntry) Cleanup() {
	if rsrc.mapped {
		if err := unmapBytes(rsrc.Data); err != nil {
			log.Printf("error unmapping corpus: %v", err)
		}
		rsrc.mapped = false
		rsrc.Data = nil
	}
	switch t := rsrc.file.(type) {
	case *os.File:
		t.Close()
	case fs.File:
		t.Close()
	}
	rsrc.file = nil
}

// Bytes returns the corpus contents, or nil after Cleanup.
func (rsrc *ResourceEntry) Bytes() []byte {
	if rsrc.Data == nil {
		return nil
	}
	return *rsrc.Data
}

// PathInfo describes one corpus file found by GlobTexts.
type PathInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
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

	return u.Scheme == "http" || u.Scheme == "https"
}

// GlobTexts
// Given a directory path, recursively finds all `.txt` files, returning a
// slice of PathInfo sorted by path.
func GlobTexts(dirPath string) (pathInfos []PathInfo, err error) {
	textPaths, err := filepathx.Glob(dirPath + "/**/*.txt")
	if err != nil {
		return nil, err
	}
	if len(textPaths) == 0 {
		return nil, errors.New(fmt.Sprintf(
			"%s does not contain any .txt files", dirPath))
	}
	sort.Strings(textPaths)
	pathInfos = make([]PathInfo, 0, len(textPaths))
	for _, currPath := range textPaths {
		stat, statErr := os.Stat(currPath)
		if statErr != nil {
			return nil, statErr
		}
		if stat.IsDir() {
			continue
		}
		pathInfos = append(pathInfos, PathInfo{
			Path:    currPath,
			Size:    stat.Size(),
			ModTime: stat.ModTime(),
		})
	}
	return pathInfos, nil
}

// OpenCorpusFile
// Opens a local file and memory maps it.
func OpenCorpusFile(path string) (*ResourceEntry, error) {
	handle, openErr := os.Open(path)
	if openErr != nil {
		return nil, errors.New(fmt.Sprintf("error opening %s: %v",
			path, openErr))
	}
	fileMmap, mmapErr := readMmap(handle)
	if mmapErr != nil {
		handle.Close()
		return nil, errors.New(fmt.Sprintf(
			"error trying to mmap file: %s", mmapErr))
	}
	return &ResourceEntry{handle, fileMmap, len(*fileMmap) > 0}, nil
}

// ReadTexts
// Reads every `.txt` file under dirPath, in path order, and concatenates
// their contents.
func ReadTexts(dirPath string) (*ResourceEntry, error) {
	matches, err := GlobTexts(dirPath)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, match := range matches {
		total += match.Size
	}
	buf := bytes.NewBuffer(make([]byte, 0, total))
	for _, match := range matches {
		log.Print("Reading ", match.Path)
		rsrc, rsrcErr := OpenCorpusFile(match.Path)
		if rsrcErr != nil {
			return nil, rsrcErr
		}
		buf.Write(rsrc.Bytes())
		rsrc.Cleanup()
	}
	data := buf.Bytes()
	return &ResourceEntry{nil, &data, false}, nil
}

// download copies a remote reader into memory, reporting progress.
func download(uri string, reader io.ReadCloser, size uint) ([]byte, error) {
	defer reader.Close()
	counter := &WriteCounter{
		Last: time.Now(),
		Path: uri,
		Size: uint64(size),
	}
	buf := bytes.NewBuffer(make([]byte, 0, size))
	bytesDownloaded, ioErr := io.Copy(buf, io.TeeReader(reader, counter))
	if ioErr != nil {
		return nil, errors.New(fmt.Sprintf("error downloading '%s': %s",
			uri, ioErr))
	}
	log.Println(fmt.Sprintf("Downloaded %s... %s completed.", uri,
		humanize.Bytes(uint64(bytesDownloaded))))
	return buf.Bytes(), nil
}

// FetchCorpus
// Resolves a corpus from an embedded name, an http(s) URL, an s3:// URI,
// a local directory of `.txt` files, or a local file.
func FetchCorpus(uri string, s3Client S3Client) (*ResourceEntry, error) {
	if strings.HasPrefix(uri, EMBEDDED_PREFIX) {
		name := strings.TrimPrefix(uri, EMBEDDED_PREFIX)
		dirPath := path.Join("corpus", name)
		if exists, _ := EmbeddedDirExists(dirPath); exists {
			return ReadEmbeddedTexts(dirPath)
		}
		rsrc := GetEmbeddedResource("corpus/" + name)
		if rsrc == nil {
			return nil, errors.New(fmt.Sprintf(
				"no embedded corpus named `%s`", name))
		}
		return rsrc, nil
	} else if isValidUrl(uri) {
		size, _ := SizeHTTP(uri, os.Getenv("HF_API_TOKEN"))
		reader, fetchErr := FetchHTTP(uri, os.Getenv("HF_API_TOKEN"))
		if fetchErr != nil {
			return nil, errors.New(fmt.Sprintf(
				"cannot retrieve `%s`: %s", uri, fetchErr))
		}
		data, dlErr := download(uri, reader, size)
		if dlErr != nil {
			return nil, dlErr
		}
		return &ResourceEntry{nil, &data, false}, nil
	} else if IsS3Uri(uri) {
		if s3Client == nil {
			return nil, errors.New("an S3 client is required for " + uri)
		}
		bucket, prefix, parseErr := ParseS3Uri(uri)
		if parseErr != nil {
			return nil, parseErr
		}
		data, s3Err := FetchS3Corpus(s3Client, bucket, prefix)
		if s3Err != nil {
			return nil, s3Err
		}
		return &ResourceEntry{nil, &data, false}, nil
	}
	stat, statErr := os.Stat(uri)
	if statErr != nil {
		return nil, statErr
	}
	if stat.IsDir() {
		return ReadTexts(uri)
	}
	return OpenCorpusFile(uri)
}

// DownloadCorpus
// Fetches a remote corpus and writes it to destPath.
func DownloadCorpus(uri string, destPath string, s3Client S3Client) (int, error) {
	rsrc, fetchErr := FetchCorpus(uri, s3Client)
	if fetchErr != nil {
		return 0, fetchErr
	}
	defer rsrc.Cleanup()
	if writeErr := os.WriteFile(destPath, rsrc.Bytes(), 0644); writeErr != nil {
		return 0, errors.New(fmt.Sprintf("error writing '%s': %s",
			destPath, writeErr))
	}
	return len(rsrc.Bytes()), nil
}
