package service

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/valora/pkg/cache"
	"github.com/smallbiznis/valora/pkg/storage"

	"gorm.io/gorm"
)

// Service orchestrates schema, entity, calculation and attachment
// operations using Logic.
type Service struct {
	logic *Logic
	cache *cache.Cache
	store storage.Storage
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithCache attaches the resolved-schema cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithStorage attaches the attachment storage backend.
func WithStorage(st storage.Storage) Option {
	return func(s *Service) { s.store = st }
}

func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{logic: NewLogic(db)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// publishedCacheKey keys the cache on the case-folded resolution path.
func publishedCacheKey(tenantID, env, objectCode string) string {
	return fmt.Sprintf("published:%s:%s:%s", tenantID, strings.ToLower(env), strings.ToLower(objectCode))
}

// invalidateSchema evicts cached resolutions touched by a studio write.
func (s *Service) invalidateSchema(tenantID, env, objectCode string) {
	s.cache.Delete(publishedCacheKey(tenantID, env, objectCode))
}
