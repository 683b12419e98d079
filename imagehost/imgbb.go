package imagehost

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"babyshop/gateway"
)

var (
	ErrNotConfigured = errors.New("image host is not configured")
	ErrNotImage      = errors.New("only image files can be uploaded")
	ErrTooLarge      = errors.New("image is too large")
)

// Imgbb uploads images to imgbb.com and returns their display URL.
type Imgbb struct {
	client   *gateway.Client
	endpoint string
	key      string
	// MaxBytes rejects larger files before any request is made; 0 disables.
	MaxBytes int
}

func NewImgbb(client *gateway.Client, endpoint, key string) *Imgbb {
	return &Imgbb{client: client, endpoint: endpoint, key: key}
}

// WithLimit returns a copy that rejects files over maxBytes.
func (i *Imgbb) WithLimit(maxBytes int) *Imgbb {
	cp := *i
	cp.MaxBytes = maxBytes
	return &cp
}

func (i *Imgbb) Upload(ctx context.Context, file gateway.File) (string, error) {
	if i.key == "" {
		return "", ErrNotConfigured
	}
	if !file.IsImage() {
		return "", ErrNotImage
	}
	if i.MaxBytes > 0 && len(file.Data) > i.MaxBytes {
		return "", fmt.Errorf("%w: %s is over %dMB", ErrTooLarge, file.Name, i.MaxBytes/(1<<20))
	}

	form := gateway.NewForm().AddFile("image", file)
	target := i.endpoint + "?key=" + url.QueryEscape(i.key)
	data, err := i.client.Request(ctx, target, gateway.Options{Method: http.MethodPost, Form: form})
	if err != nil {
		return "", fmt.Errorf("imgbb upload: %w", err)
	}

	body, _ := data.(map[string]any)
	if ok, _ := body["success"].(bool); !ok {
		return "", errors.New("upload failed")
	}
	inner, _ := body["data"].(map[string]any)
	link, _ := inner["url"].(string)
	if link == "" {
		return "", errors.New("upload failed")
	}
	return link, nil
}
