package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/ports"
	"github.com/Apurer/go-gin-workorders/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists work orders in PostgreSQL using GORM. Schema is owned by
// internal/platform/migrations.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle
// and must open it with TranslateError so duplicate ids map to ErrAlreadyExists.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	r.now = now
}

// Create inserts the order row and its items in one transaction.
func (r *Repository) Create(ctx context.Context, order *domain.WorkOrder) (*projection.Projection[*domain.WorkOrder], error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("work order is nil")
	}
	record := toRecord(order, projection.Initial(r.now().UTC()))
	items := toItemRecords(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ports.ErrAlreadyExists
			}
			return err
		}
		if len(items) > 0 {
			return tx.Create(&items).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record.toProjection(items), nil
}

// GetByID fetches a work order with its items.
func (r *Repository) GetByID(ctx context.Context, id string) (*projection.Projection[*domain.WorkOrder], error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	db := r.db.WithContext(ctx)
	var record workOrderRecord
	if err := db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	var items []workOrderItemRecord
	if err := db.Where("work_order_id = ?", id).Order("position").Find(&items).Error; err != nil {
		return nil, err
	}
	return record.toProjection(items), nil
}

// CompareAndSwap updates the row guarded by its version and replaces the items
// in the same transaction.
func (r *Repository) CompareAndSwap(ctx context.Context, expectedVersion int64, order *domain.WorkOrder) (*projection.Projection[*domain.WorkOrder], error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("work order is nil")
	}
	var saved *projection.Projection[*domain.WorkOrder]
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current workOrderRecord
		if err := tx.Select("id", "version", "created_at", "updated_at").First(&current, "id = ?", order.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		if current.Version != expectedVersion {
			return ports.ErrConcurrentModification
		}
		meta := projection.Metadata{CreatedAt: current.CreatedAt, UpdatedAt: current.UpdatedAt, Version: current.Version}.Next(r.now().UTC())
		record := toRecord(order, meta)
		result := tx.Model(&record).
			Where("version = ?", expectedVersion).
			Select("*").
			Omit("id", "created_at").
			Updates(&record)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.ErrConcurrentModification
		}
		if err := tx.Where("work_order_id = ?", order.ID).Delete(&workOrderItemRecord{}).Error; err != nil {
			return err
		}
		items := toItemRecords(order)
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		saved = record.toProjection(items)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// ListByStatus returns orders in any of the given statuses, oldest first.
func (r *Repository) ListByStatus(ctx context.Context, statuses []domain.Status) ([]*projection.Projection[*domain.WorkOrder], error) {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	if len(values) == 0 {
		return nil, nil
	}
	return r.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("status IN ?", values) })
}

// ListByAcceptor returns orders claimed by the technician, oldest first.
func (r *Repository) ListByAcceptor(ctx context.Context, technicianID string) ([]*projection.Projection[*domain.WorkOrder], error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("accepted_by = ?", technicianID) })
}

// List returns every order, oldest first.
func (r *Repository) List(ctx context.Context) ([]*projection.Projection[*domain.WorkOrder], error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB { return db })
}

func (r *Repository) find(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]*projection.Projection[*domain.WorkOrder], error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	db := r.db.WithContext(ctx)
	var records []workOrderRecord
	if err := scope(db.Model(&workOrderRecord{})).Order("created_at, id").Find(&records).Error; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []*projection.Projection[*domain.WorkOrder]{}, nil
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	var items []workOrderItemRecord
	if err := db.Where("work_order_id IN ?", ids).Order("work_order_id, position").Find(&items).Error; err != nil {
		return nil, err
	}
	byOrder := make(map[string][]workOrderItemRecord, len(records))
	for _, item := range items {
		byOrder[item.WorkOrderID] = append(byOrder[item.WorkOrderID], item)
	}
	list := make([]*projection.Projection[*domain.WorkOrder], 0, len(records))
	for _, rec := range records {
		list = append(list, rec.toProjection(byOrder[rec.ID]))
	}
	return list, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres work order repository not configured")
	}
	return nil
}
