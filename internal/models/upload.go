package models

import (
	"bytes"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// Upload is a file received from a client that has not been stored yet.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

func UploadFromFileHeader(fh *multipart.FileHeader) *Upload {
	return &Upload{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func UploadFromBytes(filename, contentType string, data []byte) *Upload {
	return &Upload{
		Filename:    filename,
		Size:        int64(len(data)),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Ext returns the lower-cased extension including the dot.
func (u *Upload) Ext() string {
	return strings.ToLower(filepath.Ext(u.Filename))
}
