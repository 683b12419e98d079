package crud

import (
	"context"
	"errors"
	"fmt"

	"babyshop/gateway"
)

var (
	ErrBusy          = errors.New("operation already in progress")
	ErrUnknownRecord = errors.New("record is not in the current list")
	ErrFormClosed    = errors.New("form is not open")
	ErrUnknownField  = errors.New("unknown field")
	ErrInvalidFile   = errors.New("invalid file")
	ErrImageLocked   = errors.New("server images cannot be removed")
	ErrImageIndex    = errors.New("image index out of range")
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("record not found")
	ErrUnsupported   = errors.New("operation not supported")
	ErrPageSize      = errors.New("page size must be at least 1")
)

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields map[string]string
	First  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.First)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Payload is what a create or update sends. Keys keeps the insertion order for
// multipart encoding.
type Payload struct {
	Fields  Record
	Keys    []string
	Files   []gateway.File
	FileKey string
}

func NewPayload() *Payload {
	return &Payload{Fields: Record{}}
}

func (p *Payload) Set(key string, v any) {
	if _, ok := p.Fields[key]; !ok {
		p.Keys = append(p.Keys, key)
	}
	p.Fields[key] = v
}

// Form renders the payload as a multipart body. Slices are sent as repeated
// parts.
func (p *Payload) Form() *gateway.Form {
	form := gateway.NewForm()
	for _, k := range p.Keys {
		switch v := p.Fields[k].(type) {
		case []string:
			for _, s := range v {
				form.Add(k, s)
			}
		default:
			form.Add(k, ToString(v))
		}
	}
	for _, f := range p.Files {
		form.AddFile(p.FileKey, f)
	}
	return form
}

// Backend is the store behind one resource.
type Backend interface {
	List(ctx context.Context) ([]map[string]any, error)
	Get(ctx context.Context, id ID) (map[string]any, error)
	Create(ctx context.Context, p *Payload) error
	Update(ctx context.Context, id ID, p *Payload) error
	Delete(ctx context.Context, id ID) error
}

// Watcher is implemented by backends that push changes. A manager over a
// Watcher reloads on every signal instead of after its own writes.
type Watcher interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Clearer is implemented by backends that can drop every record at once.
type Clearer interface {
	Clear(ctx context.Context) error
}
