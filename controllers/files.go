package controller

import (
	"io"
	"mime/multipart"

	"babyshop/gateway"
)

// readFile loads an uploaded part into memory.
func readFile(fh *multipart.FileHeader) (gateway.File, error) {
	f, err := fh.Open()
	if err != nil {
		return gateway.File{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return gateway.File{}, err
	}
	return gateway.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
