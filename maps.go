package vjmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/adamwoolhether/vjmap/hasher"
)

const uploadField = "file"

// UploadMap uploads the CAD file at path. The file is closed before
// UploadMap returns.
func (c *Client) UploadMap(ctx context.Context, path string, opts ...CallOption) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	res, err := c.UploadMapReader(ctx, filepath.Base(path), f, opts...)

	var ioErr *IOError
	if errors.As(err, &ioErr) {
		ioErr.Path = path
	}

	return res, err
}

// UploadMapReader uploads a CAD file read from r under filename. r is
// read to the end but not closed.
func (c *Client) UploadMapReader(ctx context.Context, filename string, r io.Reader, opts ...CallOption) (Result, error) {
	if err := required("filename", filename); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: reader", ErrMissingArgument)
	}

	opts = append([]CallOption{WithFile(uploadField, filename, r)}, opts...)
	return c.Do(ctx, http.MethodPost, "/map/uploads", opts...)
}

// OpenMap opens a map so it can be tiled and queried. Open settings such
// as version or style are passed with [WithQuery].
func (c *Client) OpenMap(ctx context.Context, mapID string, opts ...CallOption) (Result, error) {
	if err := required("mapid", mapID); err != nil {
		return nil, err
	}

	return c.Do(ctx, http.MethodGet, "/map/openmap/"+mapID, opts...)
}

// UpdateMap creates a new version of a map from entities, which must
// encode to a JSON array of entity objects.
func (c *Client) UpdateMap(ctx context.Context, mapID string, entities any, opts ...CallOption) (Result, error) {
	if err := required("mapid", mapID); err != nil {
		return nil, err
	}

	// The service expects fileid to hold the entity document as a string.
	doc, err := json.Marshal(map[string]any{"entities": entities})
	if err != nil {
		return nil, fmt.Errorf("encoding entities: %w", err)
	}

	opts = append([]CallOption{WithJSON(map[string]string{"fileid": string(doc)})}, opts...)
	return c.Do(ctx, http.MethodPost, "/map/updatemap/"+mapID, opts...)
}

// MapFileUploaded reports whether the file at path is already stored on
// the service, looked up by its MD5 digest.
func (c *Client) MapFileUploaded(ctx context.Context, path string, opts ...CallOption) (Result, error) {
	sum, err := hasher.File(path)
	if err != nil {
		return nil, err
	}

	return c.mapFile(ctx, sum, opts)
}

// MapReaderUploaded is [Client.MapFileUploaded] for an open stream. r is
// read to the end but not closed.
func (c *Client) MapReaderUploaded(ctx context.Context, r io.Reader, opts ...CallOption) (Result, error) {
	sum, err := hasher.Reader(r)
	if err != nil {
		return nil, err
	}

	return c.mapFile(ctx, sum, opts)
}

func (c *Client) mapFile(ctx context.Context, sum string, opts []CallOption) (Result, error) {
	opts = append([]CallOption{WithQuery("md5", sum)}, opts...)
	return c.Do(ctx, http.MethodGet, "/map/mapfile", opts...)
}
