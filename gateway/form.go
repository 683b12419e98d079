package gateway

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// File is one binary part staged for upload.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// IsImage reports whether the file declares an image/* content type.
func (f File) IsImage() bool {
	return strings.HasPrefix(f.ContentType, "image/")
}

type formField struct {
	name  string
	value string
	file  *File
}

// Form is an ordered multipart body. Fields keep insertion order and a name may
// repeat, which is how list-valued parts such as "Images" are sent.
type Form struct {
	fields []formField
}

func NewForm() *Form {
	return &Form{}
}

func (f *Form) Add(name, value string) *Form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

func (f *Form) AddFile(name string, file File) *Form {
	f.fields = append(f.fields, formField{name: name, file: &file})
	return f
}

// Len is the number of parts, files included.
func (f *Form) Len() int {
	return len(f.fields)
}

// Encode renders the body and returns it with its multipart content type.
func (f *Form) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, field := range f.fields {
		if field.file == nil {
			if err := w.WriteField(field.name, field.value); err != nil {
				return nil, "", err
			}
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(field.name), escapeQuotes(field.file.Name)))
		ct := field.file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(field.file.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
