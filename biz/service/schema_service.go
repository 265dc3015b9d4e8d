package service

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/smallbiznis/valora/biz/schema"
	"github.com/smallbiznis/valora/pkg/common"
	"github.com/smallbiznis/valora/pkg/constants"
)

// ResolvedSchema is one resolved screen version ready for the wire.
type ResolvedSchema struct {
	TenantID    string                 `json:"tenantId"`
	Environment string                 `json:"environment"`
	ObjectCode  string                 `json:"objectCode"`
	Version     int                    `json:"version"`
	IsPublished bool                   `json:"isPublished"`
	Document    schema.VersionDocument `json:"document"`

	// HasPublished travels out-of-band (X-Is-Published) so clients can
	// tell whether any version of the object is live.
	HasPublished bool `json:"-"`
}

func resolveEnv(tc common.TenantContext) (string, error) {
	env, ok := constants.NormalizeEnvironment(tc.Environment)
	if !ok {
		return "", validationf("unknown environment %q", tc.Environment)
	}
	return env, nil
}

func newResolvedSchema(tc common.TenantContext, env, objectCode string, res *schema.Resolution) *ResolvedSchema {
	return &ResolvedSchema{
		TenantID:     tc.TenantID,
		Environment:  env,
		ObjectCode:   objectCode,
		Version:      res.Version,
		IsPublished:  res.IsPublished,
		HasPublished: res.HasPublished,
		Document:     res.Document,
	}
}

// GetLatest resolves the highest-numbered version of an object,
// published or not. Never served from cache so studio edits show up
// immediately.
func (s *Service) GetLatest(ctx context.Context, tc common.TenantContext, objectCode string) (*ResolvedSchema, error) {
	env, err := resolveEnv(tc)
	if err != nil {
		return nil, err
	}
	_, doc, err := s.logic.loadTemplate(ctx, tc.TenantID)
	if err != nil {
		return nil, err
	}
	res, err := schema.Latest(doc, env, objectCode)
	if err != nil {
		return nil, err
	}
	return newResolvedSchema(tc, env, objectCode, res), nil
}

// GetPublished resolves the live version of an object. Results are
// cached until the next studio write against the same object.
func (s *Service) GetPublished(ctx context.Context, tc common.TenantContext, objectCode string) (*ResolvedSchema, error) {
	env, err := resolveEnv(tc)
	if err != nil {
		return nil, err
	}

	key := publishedCacheKey(tc.TenantID, env, objectCode)
	if raw, ok := s.cache.Get(key); ok {
		cached := new(ResolvedSchema)
		if err := json.Unmarshal(raw, cached); err == nil {
			cached.HasPublished = true
			return cached, nil
		}
		s.cache.Delete(key)
	}

	_, doc, err := s.logic.loadTemplate(ctx, tc.TenantID)
	if err != nil {
		return nil, err
	}
	res, err := schema.Published(doc, env, objectCode)
	if err != nil {
		return nil, err
	}
	resolved := newResolvedSchema(tc, env, objectCode, res)

	if raw, err := json.Marshal(resolved); err == nil {
		s.cache.Set(key, raw)
	} else {
		hlog.CtxWarnf(ctx, "cache marshal for %s failed: %v", key, err)
	}
	return resolved, nil
}

// GetByVersion resolves an exact version number of an object.
func (s *Service) GetByVersion(ctx context.Context, tc common.TenantContext, objectCode string, version int) (*ResolvedSchema, error) {
	env, err := resolveEnv(tc)
	if err != nil {
		return nil, err
	}
	_, doc, err := s.logic.loadTemplate(ctx, tc.TenantID)
	if err != nil {
		return nil, err
	}
	res, err := schema.ByVersion(doc, env, objectCode, version)
	if err != nil {
		return nil, err
	}
	return newResolvedSchema(tc, env, objectCode, res), nil
}

// ListVersions returns the version history of an object, newest first.
func (s *Service) ListVersions(ctx context.Context, tc common.TenantContext, objectCode string) ([]schema.VersionInfo, error) {
	env, err := resolveEnv(tc)
	if err != nil {
		return nil, err
	}
	_, doc, err := s.logic.loadTemplate(ctx, tc.TenantID)
	if err != nil {
		return nil, err
	}
	return schema.ListVersions(doc, env, objectCode)
}

// ListObjectCodes returns every object code configured in the caller's
// environment.
func (s *Service) ListObjectCodes(ctx context.Context, tc common.TenantContext) ([]string, error) {
	env, err := resolveEnv(tc)
	if err != nil {
		return nil, err
	}
	_, doc, err := s.logic.loadTemplate(ctx, tc.TenantID)
	if err != nil {
		return nil, err
	}
	return schema.ListObjectCodes(doc, env)
}
