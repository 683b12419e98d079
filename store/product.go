package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"babyshop/crud"
	"babyshop/gateway"
	"babyshop/models"
)

// Uploader hosts an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file gateway.File) (string, error)
}

// ProductStore owns the products table and fans change signals out to every
// live product list.
type ProductStore struct {
	db     *gorm.DB
	logger *logrus.Entry

	mu      sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
	version string
}

func NewProductStore(db *gorm.DB) *ProductStore {
	return &ProductStore{
		db:     db,
		logger: logrus.WithField("component", "product_store"),
		subs:   make(map[int]chan struct{}),
	}
}

// Backend returns the crud backend of one signed-in user; new products are
// attributed to owner.
func (s *ProductStore) Backend(owner string, uploader Uploader) *ProductBackend {
	return &ProductBackend{store: s, owner: owner, uploader: uploader}
}

// Notify wakes every subscriber. Signals coalesce: a subscriber that has not
// consumed the previous one gets nothing extra.
func (s *ProductStore) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *ProductStore) subscribe(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

// Subscribers is the number of live product lists.
func (s *ProductStore) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Version summarises the table so that writes from other processes can be
// noticed by polling.
func (s *ProductStore) Version(ctx context.Context) (string, error) {
	var total, deleted int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&models.Product{}).Count(&total).Error; err != nil {
		return "", fmt.Errorf("count products: %w", err)
	}
	if err := s.db.WithContext(ctx).Unscoped().Model(&models.Product{}).
		Where("deleted_at IS NOT NULL").Count(&deleted).Error; err != nil {
		return "", fmt.Errorf("count deleted products: %w", err)
	}
	var latest []time.Time
	if err := s.db.WithContext(ctx).Unscoped().Model(&models.Product{}).
		Order("updated_at desc").Limit(1).Pluck("updated_at", &latest).Error; err != nil {
		return "", fmt.Errorf("latest product update: %w", err)
	}
	v := fmt.Sprintf("%d:%d", total, deleted)
	if len(latest) > 0 {
		v += ":" + latest[0].UTC().Format(time.RFC3339Nano)
	}
	return v, nil
}

// Poll notifies subscribers when the table changed since the last poll or
// local write. It reports whether it did.
func (s *ProductStore) Poll(ctx context.Context) (bool, error) {
	v, err := s.Version(ctx)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	changed := s.version != "" && s.version != v
	s.version = v
	s.mu.Unlock()
	if changed {
		s.Notify()
	}
	return changed, nil
}

// touch records a local write and notifies.
func (s *ProductStore) touch(ctx context.Context) {
	if v, err := s.Version(ctx); err == nil {
		s.mu.Lock()
		s.version = v
		s.mu.Unlock()
	} else {
		s.logger.WithError(err).Warn("failed to read product version")
	}
	s.Notify()
}

// ProductBackend is the crud view of the products table.
type ProductBackend struct {
	store    *ProductStore
	owner    string
	uploader Uploader
}

func productRecord(p models.Product) map[string]any {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return map[string]any{
		"id":          float64(p.ID),
		"title":       p.Title,
		"description": p.Description,
		"images":      images,
		"createdBy":   p.CreatedBy,
		"createdAt":   p.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt":   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func parseProductID(id crud.ID) (uint, error) {
	n, err := strconv.ParseUint(string(id), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: product %q", crud.ErrNotFound, id)
	}
	return uint(n), nil
}

// List returns products newest first.
func (b *ProductBackend) List(ctx context.Context) ([]map[string]any, error) {
	var products []models.Product
	if err := b.store.db.WithContext(ctx).Order("created_at desc").Order("id desc").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]map[string]any, 0, len(products))
	for _, p := range products {
		out = append(out, productRecord(p))
	}
	return out, nil
}

func (b *ProductBackend) find(ctx context.Context, id crud.ID) (*models.Product, error) {
	n, err := parseProductID(id)
	if err != nil {
		return nil, err
	}
	var p models.Product
	if err := b.store.db.WithContext(ctx).First(&p, n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", crud.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (b *ProductBackend) Get(ctx context.Context, id crud.ID) (map[string]any, error) {
	p, err := b.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return productRecord(*p), nil
}

// images keeps the retained URLs and appends freshly uploaded ones.
func (b *ProductBackend) images(ctx context.Context, p *crud.Payload) ([]string, error) {
	urls := crud.ToStrings(p.Fields["images"])
	for _, f := range p.Files {
		if b.uploader == nil {
			return nil, errors.New("image uploads are not configured")
		}
		u, err := b.uploader.Upload(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", f.Name, err)
		}
		urls = append(urls, u)
	}
	return urls, nil
}

func (b *ProductBackend) Create(ctx context.Context, p *crud.Payload) error {
	images, err := b.images(ctx, p)
	if err != nil {
		return err
	}
	product := models.Product{
		Title:       crud.ToString(p.Fields["title"]),
		Description: crud.ToString(p.Fields["description"]),
		Images:      images,
		CreatedBy:   b.owner,
	}
	if err := b.store.db.WithContext(ctx).Create(&product).Error; err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	b.store.touch(ctx)
	return nil
}

func (b *ProductBackend) Update(ctx context.Context, id crud.ID, p *crud.Payload) error {
	product, err := b.find(ctx, id)
	if err != nil {
		return err
	}
	images, err := b.images(ctx, p)
	if err != nil {
		return err
	}
	product.Title = crud.ToString(p.Fields["title"])
	product.Description = crud.ToString(p.Fields["description"])
	product.Images = images
	if err := b.store.db.WithContext(ctx).Save(product).Error; err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	b.store.touch(ctx)
	return nil
}

func (b *ProductBackend) Delete(ctx context.Context, id crud.ID) error {
	n, err := parseProductID(id)
	if err != nil {
		return err
	}
	res := b.store.db.WithContext(ctx).Delete(&models.Product{}, n)
	if res.Error != nil {
		return fmt.Errorf("delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %s", crud.ErrNotFound, id)
	}
	b.store.touch(ctx)
	return nil
}

// Watch signals after every product change until ctx ends.
func (b *ProductBackend) Watch(ctx context.Context) (<-chan struct{}, error) {
	return b.store.subscribe(ctx), nil
}
