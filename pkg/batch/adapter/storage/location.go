package storage

import (
	"fmt"
	"strings"
)

const gcsScheme = "gs://"

// Location identifies an object inside a storage type.
type Location struct {
	Type   string // "local" or "gcs"
	Bucket string // empty for local files
	Object string // file path or object name
}

// ParseLocation splits a configured input path into its storage type, bucket and object.
func ParseLocation(path string) (Location, error) {
	rest, ok := strings.CutPrefix(path, gcsScheme)
	if !ok {
		if path == "" {
			return Location{}, fmt.Errorf("empty input path")
		}
		return Location{Type: "local", Object: path}, nil
	}
	bucket, object, found := strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return Location{}, fmt.Errorf("invalid GCS location %q: expected gs://bucket/object", path)
	}
	return Location{Type: "gcs", Bucket: bucket, Object: object}, nil
}

// String returns the location in the form it was configured.
func (l Location) String() string {
	if l.Type == "gcs" {
		return gcsScheme + l.Bucket + "/" + l.Object
	}
	return l.Object
}
