package crud

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"babyshop/gateway"
)

// Endpoints are the backend paths of one resource. "{id}" in a path is
// replaced by the query-escaped record id.
type Endpoints struct {
	List         string
	Get          string
	Create       string
	Update       string
	UpdateMethod string
	Delete       string
	DeleteMethod string
	// DeleteBody builds a JSON body for deletes that carry one.
	DeleteBody func(id ID) any
	// Multipart sends create and update as multipart forms.
	Multipart bool
}

// RESTBackend talks to the remote API through the gateway.
type RESTBackend struct {
	client    *gateway.Client
	endpoints Endpoints
}

func NewRESTBackend(client *gateway.Client, endpoints Endpoints) *RESTBackend {
	if endpoints.UpdateMethod == "" {
		endpoints.UpdateMethod = http.MethodPut
	}
	if endpoints.DeleteMethod == "" {
		endpoints.DeleteMethod = http.MethodDelete
	}
	return &RESTBackend{client: client, endpoints: endpoints}
}

func expand(path string, id ID) string {
	return strings.ReplaceAll(path, "{id}", url.QueryEscape(string(id)))
}

func (b *RESTBackend) List(ctx context.Context) ([]map[string]any, error) {
	data, err := b.client.Get(ctx, b.endpoints.List)
	if err != nil {
		return nil, err
	}
	return gateway.UnwrapList(data), nil
}

func (b *RESTBackend) Get(ctx context.Context, id ID) (map[string]any, error) {
	data, err := b.client.Get(ctx, expand(b.endpoints.Get, id))
	if err != nil {
		return nil, err
	}
	rec := gateway.UnwrapRecord(data)
	if rec == nil {
		rec = map[string]any{}
	}
	return rec, nil
}

func (b *RESTBackend) Create(ctx context.Context, p *Payload) error {
	_, err := b.client.Request(ctx, b.endpoints.Create, b.options(http.MethodPost, p))
	return err
}

func (b *RESTBackend) Update(ctx context.Context, id ID, p *Payload) error {
	_, err := b.client.Request(ctx, expand(b.endpoints.Update, id), b.options(b.endpoints.UpdateMethod, p))
	return err
}

func (b *RESTBackend) Delete(ctx context.Context, id ID) error {
	opts := gateway.Options{Method: b.endpoints.DeleteMethod}
	if b.endpoints.DeleteBody != nil {
		opts.Body = b.endpoints.DeleteBody(id)
	}
	_, err := b.client.Request(ctx, expand(b.endpoints.Delete, id), opts)
	return err
}

func (b *RESTBackend) options(method string, p *Payload) gateway.Options {
	if b.endpoints.Multipart {
		return gateway.Options{Method: method, Form: p.Form()}
	}
	return gateway.Options{Method: method, Body: p.Fields}
}
