package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/smallbiznis/valora/biz/dal/db"
	"github.com/smallbiznis/valora/biz/schema"
	"github.com/smallbiznis/valora/pkg/common"
	"github.com/smallbiznis/valora/pkg/constants"
)

// templateWriteRetries bounds how often a write is replayed after a
// concurrent revision bump before the conflict is surfaced.
const templateWriteRetries = 3

// DraftResult reports where a freshly saved draft landed.
type DraftResult struct {
	ObjectCode  string `json:"objectCode"`
	Environment string `json:"environment"`
	Version     int    `json:"version"`
}

// PublishResult lists the environments a version went live in.
type PublishResult struct {
	ObjectCode   string   `json:"objectCode"`
	Version      int      `json:"version"`
	Environments []string `json:"environments"`
}

// mutateTemplate replays load-mutate-save until the revision guard
// accepts the write. The mutate callback must be safe to run again
// against a freshly loaded document.
func (s *Service) mutateTemplate(ctx context.Context, tenantID string, mutate func(doc *schema.TemplateDocument) error) error {
	var err error
	for attempt := 0; attempt < templateWriteRetries; attempt++ {
		row, doc, loadErr := s.logic.loadTemplate(ctx, tenantID)
		if loadErr != nil {
			return loadErr
		}
		if err = mutate(doc); err != nil {
			return err
		}
		if err = s.logic.saveTemplate(ctx, row, doc); err == nil {
			return nil
		}
		if !errors.Is(err, db.ErrStaleTemplate) {
			return err
		}
		hlog.CtxWarnf(ctx, "tenant %s template revision conflict, retrying (%d/%d)", tenantID, attempt+1, templateWriteRetries)
	}
	return err
}

// SaveDraft stores a new version of an object's document. The version
// number is assigned server-side and the draft never goes live until
// published, whatever flags the payload carried.
func (s *Service) SaveDraft(ctx context.Context, tc common.TenantContext, objectCode string, payload schema.VersionDocument) (*DraftResult, error) {
	env, err := resolveEnv(tc)
	if err != nil {
		return nil, err
	}
	if objectCode == "" {
		return nil, validationf("object code is required")
	}
	if payload == nil {
		return nil, validationf("document body is required")
	}

	result := &DraftResult{ObjectCode: objectCode, Environment: env}
	err = s.mutateTemplate(ctx, tc.TenantID, func(doc *schema.TemplateDocument) error {
		versions := doc.EnsureEnvironment(env).EnsureVersions(objectCode)
		draft, err := payload.Clone()
		if err != nil {
			return err
		}
		next := versions.MaxVersion() + 1
		draft.Stamp(next, false)
		versions[schema.FormatVersionKey(next)] = draft
		result.Version = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateSchema(tc.TenantID, env, objectCode)
	return result, nil
}

// Publish flips a version live in the caller's environment, or, when
// targets are given, promotes it into those environments instead. A
// promotion writes the published flag into the targets only; the
// source environment's version map is left untouched. Promotion only
// moves forward through the environment order.
func (s *Service) Publish(ctx context.Context, tc common.TenantContext, objectCode string, version int, targets []string) (*PublishResult, error) {
	if !constants.CanPublish(tc.Role) {
		return nil, fmt.Errorf("role %q cannot publish: %w", tc.Role, ErrForbidden)
	}
	env, err := resolveEnv(tc)
	if err != nil {
		return nil, err
	}
	// version 0 publishes the newest draft
	if version < 0 {
		return nil, schema.ErrInvalidVersion
	}

	var envs []string
	for _, t := range targets {
		target, ok := constants.NormalizeEnvironment(t)
		if !ok {
			return nil, validationf("unknown environment %q", t)
		}
		if target == env {
			continue
		}
		if !constants.CanPromote(env, target) {
			return nil, validationf("cannot promote from %s to %s", env, target)
		}
		envs = append(envs, target)
	}
	// no targets (or only the caller's own environment): in-place publish
	if len(envs) == 0 {
		envs = []string{env}
	}

	resolved := version
	err = s.mutateTemplate(ctx, tc.TenantID, func(doc *schema.TemplateDocument) error {
		e, err := doc.Environment(env)
		if err != nil {
			return err
		}
		_, source, err := e.Versions(objectCode)
		if err != nil {
			return err
		}
		resolved = version
		if resolved == 0 {
			resolved = source.MaxVersion()
		}
		key := schema.FormatVersionKey(resolved)
		_, published, ok := schema.LookupKey(source, key)
		if !ok || published == nil {
			return &schema.NotFoundError{Segment: "version", Key: key}
		}

		for _, target := range envs {
			versions := doc.EnsureEnvironment(target).EnsureVersions(objectCode)
			if target != env {
				copied, err := published.Clone()
				if err != nil {
					return err
				}
				versions[key] = copied
			}
			for k, v := range versions {
				if v == nil {
					continue
				}
				v.SetPublished(k == key)
			}
			versions[key].Stamp(resolved, true)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, target := range envs {
		s.invalidateSchema(tc.TenantID, target, objectCode)
	}
	return &PublishResult{ObjectCode: objectCode, Version: resolved, Environments: envs}, nil
}

// Unpublish takes every version of an object offline in the caller's
// environment. Production is refused outright.
func (s *Service) Unpublish(ctx context.Context, tc common.TenantContext, objectCode string) error {
	env, err := resolveEnv(tc)
	if err != nil {
		return err
	}
	if env == constants.EnvironmentProd {
		return ErrProdUnpublish
	}

	err = s.mutateTemplate(ctx, tc.TenantID, func(doc *schema.TemplateDocument) error {
		e, err := doc.Environment(env)
		if err != nil {
			return err
		}
		_, versions, err := e.Versions(objectCode)
		if err != nil {
			return err
		}
		for _, v := range versions {
			if v != nil {
				v.SetPublished(false)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateSchema(tc.TenantID, env, objectCode)
	return nil
}

// DeleteObject removes an object's screen from the caller's
// environment. Deleting an absent screen is a no-op.
func (s *Service) DeleteObject(ctx context.Context, tc common.TenantContext, objectCode string) error {
	env, err := resolveEnv(tc)
	if err != nil {
		return err
	}

	err = s.mutateTemplate(ctx, tc.TenantID, func(doc *schema.TemplateDocument) error {
		e, err := doc.Environment(env)
		if err != nil {
			return err
		}
		e.RemoveScreen(objectCode)
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateSchema(tc.TenantID, env, objectCode)
	return nil
}

// OnboardTenant provisions an empty template document with the default
// environment set. A second onboarding call for the same tenant fails.
func (s *Service) OnboardTenant(ctx context.Context, tenantID, tenantName string) error {
	if tenantID == "" {
		return validationf("tenant id is required")
	}
	_, _, err := s.logic.loadTemplate(ctx, tenantID)
	if err == nil {
		return fmt.Errorf("tenant %s: %w", tenantID, ErrTenantExists)
	}
	if !errors.Is(err, schema.ErrNotFound) {
		return err
	}
	return s.logic.createTemplate(ctx, tenantID, tenantName)
}
