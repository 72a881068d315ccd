package gormdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/adbmx/crm/internal/core/domain"
	"github.com/adbmx/crm/internal/core/ports"
)

// clienteId is the only foreign key the CRM tables carry.
var errUnknownClient = fmt.Errorf("%w: el cliente indicado no existe", domain.ErrValidation)

// FilterScope narrows a list query to the rows matching filter.
type FilterScope func(q *gorm.DB, filter ports.ListFilter) *gorm.DB

// EntityRepository is the GORM implementation of ports.EntityRepository for
// one CRM table.
type EntityRepository[T any] struct {
	db     *gorm.DB
	filter FilterScope
}

func NewEntityRepository[T any](db *gorm.DB, filter FilterScope) *EntityRepository[T] {
	return &EntityRepository[T]{db: db, filter: filter}
}

func NewClientRepository(db *gorm.DB) *EntityRepository[domain.Client] {
	return NewEntityRepository[domain.Client](db, func(q *gorm.DB, f ports.ListFilter) *gorm.DB {
		q = search(q, f.Search, "name", "email", "company")
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		return q
	})
}

func NewContactRepository(db *gorm.DB) *EntityRepository[domain.Contact] {
	return NewEntityRepository[domain.Contact](db, func(q *gorm.DB, f ports.ListFilter) *gorm.DB {
		q = search(q, f.Search, "name", "email", "position")
		return byClient(q, f.ClientID)
	})
}

func NewOpportunityRepository(db *gorm.DB) *EntityRepository[domain.Opportunity] {
	return NewEntityRepository[domain.Opportunity](db, func(q *gorm.DB, f ports.ListFilter) *gorm.DB {
		q = search(q, f.Search, "title", "description")
		if f.Status != "" {
			q = q.Where("stage = ?", f.Status)
		}
		return byClient(q, f.ClientID)
	})
}

func NewTaskRepository(db *gorm.DB) *EntityRepository[domain.Task] {
	return NewEntityRepository[domain.Task](db, func(q *gorm.DB, f ports.ListFilter) *gorm.DB {
		q = search(q, f.Search, "title", "description")
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.Priority != "" {
			q = q.Where("priority = ?", f.Priority)
		}
		return byClient(q, f.ClientID)
	})
}

// List returns one page of rows, newest first, and the total match count.
func (r *EntityRepository[T]) List(ctx context.Context, filter ports.ListFilter) ([]T, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := r.db.WithContext(ctx).Model(new(T))
	if r.filter != nil {
		q = r.filter(q, filter)
	}
	q = q.Session(&gorm.Session{})
	if filter.Limit <= 0 {
		filter.Limit = ports.DefaultPageLimit
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	var items []T
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * filter.Limit
	}
	if err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(filter.Limit).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("list: %w", err)
	}
	return items, total, nil
}

func (r *EntityRepository[T]) Get(ctx context.Context, id uint) (*T, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	out := new(T)
	if err := r.db.WithContext(ctx).First(out, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get: %w", err)
	}
	return out, nil
}

func (r *EntityRepository[T]) Create(ctx context.Context, entity *T) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return errUnknownClient
		}
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// Update overwrites every column except id and created_at, zero values
// included, and returns the stored row.
func (r *EntityRepository[T]) Update(ctx context.Context, id uint, entity *T) (*T, error) {
	tctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(tctx).Model(new(T)).
		Where("id = ?", id).
		Select("*").
		Omit("id", "created_at").
		Updates(entity)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			return nil, errUnknownClient
		}
		return nil, fmt.Errorf("update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *EntityRepository[T]) Delete(ctx context.Context, id uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return fmt.Errorf("delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// search matches term case-insensitively anywhere in any of columns.
func search(q *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return q
	}
	pattern := "%" + strings.ToLower(term) + "%"

	conds := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		conds[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = pattern
	}
	return q.Where("("+strings.Join(conds, " OR ")+")", args...)
}

func byClient(q *gorm.DB, clientID uint) *gorm.DB {
	if clientID == 0 {
		return q
	}
	return q.Where("client_id = ?", clientID)
}
