package content

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

// SiblingRow is the order-relevant projection of any child row.
type SiblingRow struct {
	ID    uuid.UUID `gorm:"column:id"`
	Order int       `gorm:"column:sort_order"`
}

// SiblingRepo works on any child collection described by a content.Scope.
// Callers pass the transaction; row locks are only taken on Postgres.
type SiblingRepo interface {
	LockParent(ctx context.Context, tx *gorm.DB, scope content.Scope, parentID uuid.UUID) (bool, error)
	ListChildren(ctx context.Context, tx *gorm.DB, scope content.Scope, parentID uuid.UUID) ([]SiblingRow, error)
	MaxOrder(ctx context.Context, tx *gorm.DB, scope content.Scope, parentID uuid.UUID) (int, error)
	SetOrder(ctx context.Context, tx *gorm.DB, scope content.Scope, id uuid.UUID, order int, stamp *time.Time) error
	Touch(ctx context.Context, tx *gorm.DB, kind content.NodeKind, ids []uuid.UUID, at time.Time) error
}

type siblingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSiblingRepo(db *gorm.DB, baseLog *logger.Logger) SiblingRepo {
	repoLog := baseLog.With("repo", "SiblingRepo")
	return &siblingRepo{db: db, log: repoLog}
}

func (r *siblingRepo) LockParent(ctx context.Context, tx *gorm.DB, scope content.Scope, parentID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	table, ok := content.TableFor(scope.ParentKind)
	if !ok {
		return false, fmt.Errorf("no table for parent kind %q", scope.ParentKind)
	}

	var ids []uuid.UUID
	q := transaction.WithContext(ctx).Table(table).Where("id = ?", parentID)
	if lockable(transaction) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Limit(1).Pluck("id", &ids).Error; err != nil {
		return false, err
	}
	return len(ids) == 1, nil
}

func (r *siblingRepo) ListChildren(ctx context.Context, tx *gorm.DB, scope content.Scope, parentID uuid.UUID) ([]SiblingRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []SiblingRow
	q := transaction.WithContext(ctx).
		Table(scope.Table).
		Select("id, sort_order").
		Where(scope.ParentColumn+" = ?", parentID).
		Order("sort_order ASC")
	if lockable(transaction) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *siblingRepo) MaxOrder(ctx context.Context, tx *gorm.DB, scope content.Scope, parentID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var max int
	if err := transaction.WithContext(ctx).
		Table(scope.Table).
		Select("COALESCE(MAX(sort_order), 0)").
		Where(scope.ParentColumn+" = ?", parentID).
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max, nil
}

// SetOrder writes one child's order. stamp, when set and the scope is
// timestamped, also moves updated_at.
func (r *siblingRepo) SetOrder(ctx context.Context, tx *gorm.DB, scope content.Scope, id uuid.UUID, order int, stamp *time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	updates := map[string]interface{}{"sort_order": order}
	if stamp != nil && scope.Timestamped {
		updates["updated_at"] = *stamp
	}
	res := transaction.WithContext(ctx).
		Table(scope.Table).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("%s %s: expected 1 row updated, got %d", scope.Kind, id, res.RowsAffected)
	}
	return nil
}

func (r *siblingRepo) Touch(ctx context.Context, tx *gorm.DB, kind content.NodeKind, ids []uuid.UUID, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	if kind == content.KindExerciseAssignment {
		return fmt.Errorf("%s rows carry no updated_at", kind)
	}
	table, ok := content.TableFor(kind)
	if !ok {
		return fmt.Errorf("no table for kind %q", kind)
	}
	return transaction.WithContext(ctx).
		Table(table).
		Where("id IN ?", ids).
		Update("updated_at", at).Error
}

func lockable(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres"
}
