package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/college-fees-api/internal/dto"
	"github.com/campushq/college-fees-api/internal/models"
	appErrors "github.com/campushq/college-fees-api/pkg/errors"
)

type templateRepository interface {
	List(ctx context.Context, filter models.TemplateFilter) ([]models.FeeTemplate, int, error)
	FindByID(ctx context.Context, id string) (*models.FeeTemplate, error)
	FindActiveByKey(ctx context.Context, key models.TemplateKey) ([]models.FeeTemplate, error)
	ExistsActiveKey(ctx context.Context, key models.TemplateKey, excludeID string) (bool, error)
	Create(ctx context.Context, template *models.FeeTemplate) error
	Update(ctx context.Context, template *models.FeeTemplate) error
	SoftDelete(ctx context.Context, id string) error
}

type templateCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type templateMetrics interface {
	RecordCacheHit(resource string)
	RecordCacheMiss(resource string)
}

const templateCachePattern = "fees:templates:*"

// TemplateServiceConfig tunes catalog caching.
type TemplateServiceConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// TemplateService manages the fee template catalog and performs template
// resolution. The catalog list is the only cached read in the fee engine;
// resolution always hits the database so assignments never act on stale
// templates.
type TemplateService struct {
	repo      templateRepository
	cache     templateCache
	metrics   templateMetrics
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TemplateServiceConfig
}

// NewTemplateService constructs a TemplateService.
func NewTemplateService(repo templateRepository, cache templateCache, metrics templateMetrics, validate *validator.Validate, logger *zap.Logger, cfg TemplateServiceConfig) *TemplateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &TemplateService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

type cachedTemplatePage struct {
	Items []models.FeeTemplate `json:"items"`
	Total int                  `json:"total"`
}

// List returns catalog templates with pagination metadata.
func (s *TemplateService) List(ctx context.Context, filter models.TemplateFilter) ([]models.FeeTemplate, *models.Pagination, error) {
	cacheKey := fmt.Sprintf("fees:templates:list:%s:%s:%s:%d:%d:%s:%s",
		filter.AcademicYear, filter.BatchYear, filter.SeatType,
		filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)

	if s.cacheEnabled() {
		var cached cachedTemplatePage
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.recordCacheHit()
			return cached.Items, s.pagination(filter, cached.Total), nil
		}
		s.recordCacheMiss()
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee templates")
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, cacheKey, cachedTemplatePage{Items: items, Total: total}, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache template catalog page", zap.Error(err))
		}
	}

	return items, s.pagination(filter, total), nil
}

// Get returns a single template by ID.
func (s *TemplateService) Get(ctx context.Context, id string) (*models.FeeTemplate, error) {
	template, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrTemplateNotFound, "fee template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get fee template")
	}
	if template.Deleted {
		return nil, appErrors.Clone(appErrors.ErrTemplateNotFound, "fee template not found")
	}
	return template, nil
}

// Create defines a new fee template. The (academic year, batch year, seat,
// quota) key must be free among non-deleted templates; a previously deleted
// template never blocks re-creation.
func (s *TemplateService) Create(ctx context.Context, req dto.CreateTemplateRequest, actor *models.JWTClaims) (*models.FeeTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	if err := validateTemplateKeyFields(req.SeatType, req.QuotaType); err != nil {
		return nil, err
	}
	if req.BaseFees.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "base_fees must not be negative")
	}

	key := models.TemplateKey{
		AcademicYear: req.AcademicYear,
		BatchYear:    req.BatchYear,
		SeatType:     req.SeatType,
		QuotaType:    req.QuotaType,
	}
	exists, err := s.repo.ExistsActiveKey(ctx, key, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check template key")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateTemplate, fmt.Sprintf("a fee template already exists for %s", key))
	}

	template := &models.FeeTemplate{
		AcademicYear: req.AcademicYear,
		BatchYear:    req.BatchYear,
		SeatType:     req.SeatType,
		QuotaType:    req.QuotaType,
		BaseFees:     req.BaseFees,
		Description:  req.Description,
		CreatedBy:    actorUserID(actor),
	}
	if err := s.repo.Create(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee template")
	}

	s.invalidateCatalog(ctx)
	return template, nil
}

// Update edits a template. Ledgers already derived from it are untouched;
// only future resolutions see the new values.
func (s *TemplateService) Update(ctx context.Context, id string, req dto.UpdateTemplateRequest) (*models.FeeTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	if err := validateTemplateKeyFields(req.SeatType, req.QuotaType); err != nil {
		return nil, err
	}
	if req.BaseFees.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "base_fees must not be negative")
	}

	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := models.TemplateKey{
		AcademicYear: req.AcademicYear,
		BatchYear:    req.BatchYear,
		SeatType:     req.SeatType,
		QuotaType:    req.QuotaType,
	}
	exists, err := s.repo.ExistsActiveKey(ctx, key, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check template key")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateTemplate, fmt.Sprintf("a fee template already exists for %s", key))
	}

	template.AcademicYear = req.AcademicYear
	template.BatchYear = req.BatchYear
	template.SeatType = req.SeatType
	template.QuotaType = req.QuotaType
	template.BaseFees = req.BaseFees
	template.Description = req.Description
	if err := s.repo.Update(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee template")
	}

	s.invalidateCatalog(ctx)
	return template, nil
}

// Delete soft-deletes a template. Ledgers derived from it keep their copied
// base fees.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete fee template")
	}
	s.invalidateCatalog(ctx)
	return nil
}

// Resolve finds the single template for a resolution key. MANAGEMENT keys
// that miss with a quota are retried with no quota, since management seats
// conventionally carry none. GOVERNMENT keys never fall back. More than one
// match means the catalog's unique-key invariant is broken and resolution
// refuses to guess.
func (s *TemplateService) Resolve(ctx context.Context, key models.TemplateKey) (*models.FeeTemplate, error) {
	template, err := s.lookup(ctx, key)
	if err != nil || template != nil {
		return template, err
	}

	if key.SeatType == models.SeatManagement && key.QuotaType != nil {
		fallback := key
		fallback.QuotaType = nil
		template, err = s.lookup(ctx, fallback)
		if err != nil || template != nil {
			return template, err
		}
	}

	return nil, appErrors.Clone(appErrors.ErrTemplateNotFound, fmt.Sprintf("no fee template for %s", key))
}

func (s *TemplateService) lookup(ctx context.Context, key models.TemplateKey) (*models.FeeTemplate, error) {
	candidates, err := s.repo.FindActiveByKey(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve fee template")
	}
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return &candidates[0], nil
	default:
		s.logger.Error("fee template catalog integrity violation",
			zap.String("key", key.String()),
			zap.Int("matches", len(candidates)))
		return nil, appErrors.Clone(appErrors.ErrTemplateConflict, fmt.Sprintf("multiple fee templates match %s", key))
	}
}

func (s *TemplateService) cacheEnabled() bool {
	return s.cfg.CacheEnabled && s.cache != nil
}

func (s *TemplateService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, templateCachePattern); err != nil {
		s.logger.Warn("failed to invalidate template catalog cache", zap.Error(err))
	}
}

func (s *TemplateService) recordCacheHit() {
	if s.metrics != nil {
		s.metrics.RecordCacheHit("fee_templates")
	}
}

func (s *TemplateService) recordCacheMiss() {
	if s.metrics != nil {
		s.metrics.RecordCacheMiss("fee_templates")
	}
}

func (s *TemplateService) pagination(filter models.TemplateFilter, total int) *models.Pagination {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

func validateTemplateKeyFields(seat models.SeatType, quota *models.QuotaType) error {
	if !seat.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "seat_type must be GOVERNMENT or MANAGEMENT")
	}
	if quota != nil && !quota.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "quota_type must be MERIT or CATEGORY")
	}
	return nil
}

func actorUserID(actor *models.JWTClaims) string {
	if actor == nil {
		return ""
	}
	return actor.UserID
}
