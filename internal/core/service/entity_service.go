package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/adbmx/crm/internal/core/domain"
	"github.com/adbmx/crm/internal/core/ports"
)

// Record is the method set every CRM entity exposes through its pointer.
type Record[T any] interface {
	*T
	GetID() uint
	Label() string
	Normalize() error
}

type ownerAssigner interface {
	AssignOwner(userID uint)
}

// EntityOption configures an EntityService.
type EntityOption func(*entityOptions)

type entityOptions struct {
	deleteRoles []string
}

// WithDeleteRoles limits Delete to actors holding one of roles.
func WithDeleteRoles(roles ...string) EntityOption {
	return func(o *entityOptions) { o.deleteRoles = roles }
}

// EntityService implements the CRUD use cases of one CRM table and records
// every mutation in the activity log.
type EntityService[T any, P Record[T]] struct {
	entity   string
	repo     ports.EntityRepository[T]
	activity ports.ActivityRecorder
	opts     entityOptions
	logger   zerolog.Logger
}

// NewEntityService builds the service for the table named entity
// (e.g. "cliente"). activity may be nil.
func NewEntityService[T any, P Record[T]](entity string, repo ports.EntityRepository[T], activity ports.ActivityRecorder, logger zerolog.Logger, opts ...EntityOption) *EntityService[T, P] {
	s := &EntityService[T, P]{
		entity:   entity,
		repo:     repo,
		activity: activity,
		logger:   logger.With().Str("entity", entity).Logger(),
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

func (s *EntityService[T, P]) List(ctx context.Context, filter ports.ListFilter) (*ports.Page[T], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = ports.DefaultPageLimit
	}
	if filter.Limit > ports.MaxPageLimit {
		filter.Limit = ports.MaxPageLimit
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list records")
		return nil, err
	}
	if items == nil {
		items = []T{}
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &ports.Page[T]{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *EntityService[T, P]) Get(ctx context.Context, id uint) (*T, error) {
	return s.repo.Get(ctx, id)
}

func (s *EntityService[T, P]) Create(ctx context.Context, actor ports.Actor, entity *T) (*T, error) {
	rec := P(entity)
	if a, ok := any(rec).(ownerAssigner); ok {
		a.AssignOwner(actor.UserID)
	}
	if err := rec.Normalize(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, entity); err != nil {
		s.logger.Error().Err(err).Msg("failed to create record")
		return nil, err
	}

	s.logger.Info().Uint("id", rec.GetID()).Uint("user_id", actor.UserID).Msg("record created")
	s.record(actor, domain.ActionCreated, rec.GetID(), rec.Label())
	return entity, nil
}

// Update replaces every editable column of record id with entity.
func (s *EntityService[T, P]) Update(ctx context.Context, actor ports.Actor, id uint, entity *T) (*T, error) {
	if err := P(entity).Normalize(); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, entity)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint("id", id).Uint("user_id", actor.UserID).Msg("record updated")
	s.record(actor, domain.ActionUpdated, id, P(updated).Label())
	return updated, nil
}

func (s *EntityService[T, P]) Delete(ctx context.Context, actor ports.Actor, id uint) error {
	if len(s.opts.deleteRoles) > 0 && !slices.Contains(s.opts.deleteRoles, actor.Role) {
		return domain.ErrForbidden
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("id", id).Uint("user_id", actor.UserID).Msg("record deleted")
	s.record(actor, domain.ActionDeleted, id, P(existing).Label())
	return nil
}

func (s *EntityService[T, P]) record(actor ports.Actor, action domain.ActivityAction, id uint, label string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(domain.Activity{
		UserID:      actor.UserID,
		Action:      action,
		Entity:      s.entity,
		EntityID:    id,
		Description: fmt.Sprintf("%s %q %s", s.entity, label, action),
		CreatedAt:   time.Now().UTC(),
	})
}
