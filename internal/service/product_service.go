package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"shop-api/internal/domain"
	"shop-api/internal/repository"
	"shop-api/internal/storage"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ErrStorageUnavailable is returned by image operations when no object
// storage is configured.
var ErrStorageUnavailable = errors.New("image storage is not configured")

// ProductInput is a full product definition.
type ProductInput struct {
	Name        string
	Description string
	Price       int64
	Stock       int
}

// ProductPatch holds the optional fields of a product update.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *int64
	Stock       *int
}

// ImageOptions locates product images in object storage.
type ImageOptions struct {
	Bucket     string
	KeyPrefix  string
	PresignTTL time.Duration
}

// ProductService manages the public catalog.
type ProductService interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, in ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id int64, patch ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	AttachImage(ctx context.Context, id int64, filename, contentType string, body io.Reader) (*domain.Product, error)
	ImageURL(ctx context.Context, product *domain.Product) (string, error)
}

type productService struct {
	products repository.ProductRepository
	storage  storage.Service
	images   ImageOptions
	logger   logrus.FieldLogger
}

// NewProductService builds the catalog service. store may be nil, in which
// case image operations report ErrStorageUnavailable.
func NewProductService(products repository.ProductRepository, store storage.Service, images ImageOptions, logger logrus.FieldLogger) ProductService {
	if images.PresignTTL <= 0 {
		images.PresignTTL = 15 * time.Minute
	}
	images.KeyPrefix = strings.Trim(images.KeyPrefix, "/")
	if logger == nil {
		logger = logrus.New()
	}
	return &productService{
		products: products,
		storage:  store,
		images:   images,
		logger:   logger,
	}
}

func (s *productService) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageSize
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.products.List(ctx, filter)
}

func (s *productService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.Get(ctx, id)
}

func (s *productService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	product := &domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if _, err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) Update(ctx context.Context, id int64, patch ProductPatch) (*domain.Product, error) {
	changes := domain.ProductChanges{
		Description: trimmed(patch.Description),
		Name:        trimmed(patch.Name),
		Price:       patch.Price,
		Stock:       patch.Stock,
	}

	var problems []string
	if changes.Name != nil && *changes.Name == "" {
		problems = append(problems, "name should not be empty")
	}
	if changes.Price != nil {
		problems = append(problems, priceProblems(*changes.Price)...)
	}
	if changes.Stock != nil && *changes.Stock < 0 {
		problems = append(problems, "stock must not be less than 0")
	}
	if len(problems) > 0 {
		return nil, domain.NewValidationError(problems...)
	}

	return s.products.Update(ctx, id, changes)
}

func (s *productService) Delete(ctx context.Context, id int64) error {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	if product.ImageKey != "" && s.storage != nil {
		if err := s.storage.DeletePrefix(ctx, s.images.Bucket, s.imagePrefix(id)); err != nil {
			s.logger.WithError(err).WithField("product_id", id).Warn("delete product images")
		}
	}
	return nil
}

func (s *productService) AttachImage(ctx context.Context, id int64, filename, contentType string, body io.Reader) (*domain.Product, error) {
	if s.storage == nil || s.images.Bucket == "" {
		return nil, ErrStorageUnavailable
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, domain.NewValidationError("file must be an image")
	}

	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := s.imagePrefix(id) + uuid.NewString() + strings.ToLower(path.Ext(filename))
	if _, err := s.storage.PutObject(ctx, s.images.Bucket, key, body, contentType); err != nil {
		return nil, fmt.Errorf("store product image: %w", err)
	}
	if err := s.products.SetImage(ctx, id, key); err != nil {
		return nil, err
	}

	product.ImageKey = key
	return product, nil
}

// ImageURL returns a time-limited download URL, or "" when the product has no
// image or storage is not configured.
func (s *productService) ImageURL(ctx context.Context, product *domain.Product) (string, error) {
	if product == nil || product.ImageKey == "" || s.storage == nil || s.images.Bucket == "" {
		return "", nil
	}
	return s.storage.PresignGet(ctx, s.images.Bucket, product.ImageKey, s.images.PresignTTL)
}

func (s *productService) imagePrefix(id int64) string {
	prefix := fmt.Sprintf("%d/", id)
	if s.images.KeyPrefix != "" {
		prefix = s.images.KeyPrefix + "/" + prefix
	}
	return prefix
}

func validateProduct(p *domain.Product) error {
	var problems []string
	if p.Name == "" {
		problems = append(problems, "name should not be empty")
	}
	problems = append(problems, priceProblems(p.Price)...)
	if p.Stock < 0 {
		problems = append(problems, "stock must not be less than 0")
	}
	if len(problems) > 0 {
		return domain.NewValidationError(problems...)
	}
	return nil
}

func priceProblems(price int64) []string {
	switch {
	case price < 0:
		return []string{"price must not be less than 0"}
	case price > domain.MaxPrice:
		return []string{fmt.Sprintf("price must not be greater than %d", domain.MaxPrice)}
	}
	return nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}
