package bookinstances

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveBookInstanceOptions struct {
	ID *uuid.UUID
}

type ListBookInstancesOptions struct {
	Limit      *int
	Offset     *int
	Status     *string
	BorrowerID *int
	BookID     *int
	// DueBackFrom and DueBackTo bound due_back inclusively.
	DueBackFrom *models.Date
	DueBackTo   *models.Date

	includeTotal bool
}

type UpdateBookInstanceOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateBookInstance stores a new copy. A fresh UUID is assigned when the
// instance doesn't carry one and the status defaults to maintenance.
func (svc *Service) CreateBookInstance(ctx context.Context, instance *models.BookInstance) error {
	if instance.ID == uuid.Nil {
		instance.ID = uuid.New()
	}
	if instance.Status == "" {
		instance.Status = models.LoanStatusMaintenance
	}
	if !models.IsValidLoanStatus(instance.Status) {
		return errcodes.FieldError("status", "Select a valid choice. "+instance.Status+" is not one of the available choices.")
	}

	now := time.Now()
	if instance.CreatedAt.IsZero() {
		instance.CreatedAt = now
	}
	instance.UpdatedAt = instance.CreatedAt

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := checkReferences(ctx, tx, instance); err != nil {
			return err
		}
		_, err := tx.
			NewInsert().
			Model(instance).
			Exec(ctx)
		return errors.WithStack(err)
	})
}

func (svc *Service) RetrieveBookInstance(ctx context.Context, opts RetrieveBookInstanceOptions) (*models.BookInstance, error) {
	instance := &models.BookInstance{}

	q := svc.db.
		NewSelect().
		Model(instance).
		Relation("Book").
		Relation("Borrower")

	if opts.ID != nil {
		q = q.Where("bi.id = ?", opts.ID.String())
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book instance")
		}
		return nil, errors.WithStack(err)
	}

	return instance, nil
}

func (svc *Service) ListBookInstances(ctx context.Context, opts ListBookInstancesOptions) ([]*models.BookInstance, error) {
	bi, _, err := svc.listBookInstancesWithTotal(ctx, opts)
	return bi, errors.WithStack(err)
}

func (svc *Service) ListBookInstancesWithTotal(ctx context.Context, opts ListBookInstancesOptions) ([]*models.BookInstance, int, error) {
	opts.includeTotal = true
	return svc.listBookInstancesWithTotal(ctx, opts)
}

func (svc *Service) listBookInstancesWithTotal(ctx context.Context, opts ListBookInstancesOptions) ([]*models.BookInstance, int, error) {
	var instances []*models.BookInstance
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&instances).
		Relation("Book").
		Relation("Borrower").
		Order("bi.due_back ASC", "bi.id ASC")

	q = applyFilters(q, opts)

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return instances, total, nil
}

func (svc *Service) CountBookInstances(ctx context.Context, opts ListBookInstancesOptions) (int, error) {
	q := svc.db.NewSelect().Model((*models.BookInstance)(nil))
	count, err := applyFilters(q, opts).Count(ctx)
	return count, errors.WithStack(err)
}

func (svc *Service) UpdateBookInstance(ctx context.Context, instance *models.BookInstance, opts UpdateBookInstanceOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}
	if !models.IsValidLoanStatus(instance.Status) {
		return errcodes.FieldError("status", "Select a valid choice. "+instance.Status+" is not one of the available choices.")
	}

	instance.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := checkReferences(ctx, tx, instance); err != nil {
			return err
		}
		res, err := tx.
			NewUpdate().
			Model(instance).
			Column(columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Book instance")
		}
		return nil
	})
}

// RenewBookInstance moves the due date of a loan.
func (svc *Service) RenewBookInstance(ctx context.Context, id uuid.UUID, dueBack models.Date) error {
	res, err := svc.db.
		NewUpdate().
		Model((*models.BookInstance)(nil)).
		Set("due_back = ?", dueBack).
		Set("updated_at = ?", time.Now()).
		Where("bi.id = ?", id.String()).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Book instance")
	}
	return nil
}

func (svc *Service) DeleteBookInstance(ctx context.Context, id uuid.UUID) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.BookInstance)(nil)).
		Where("id = ?", id.String()).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Book instance")
	}
	return nil
}

func applyFilters(q *bun.SelectQuery, opts ListBookInstancesOptions) *bun.SelectQuery {
	if opts.Status != nil {
		q = q.Where("bi.status = ?", *opts.Status)
	}
	if opts.BorrowerID != nil {
		q = q.Where("bi.borrower_id = ?", *opts.BorrowerID)
	}
	if opts.BookID != nil {
		q = q.Where("bi.book_id = ?", *opts.BookID)
	}
	if opts.DueBackFrom != nil {
		q = q.Where("bi.due_back >= ?", *opts.DueBackFrom)
	}
	if opts.DueBackTo != nil {
		q = q.Where("bi.due_back <= ?", *opts.DueBackTo)
	}
	return q
}

func checkReferences(ctx context.Context, tx bun.Tx, instance *models.BookInstance) error {
	if instance.BookID != nil {
		exists, err := tx.NewSelect().Model((*models.Book)(nil)).Where("id = ?", *instance.BookID).Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.FieldError("book_id", "Select a valid choice. That choice is not one of the available choices.")
		}
	}
	if instance.BorrowerID != nil {
		exists, err := tx.NewSelect().Model((*models.User)(nil)).Where("id = ?", *instance.BorrowerID).Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.FieldError("borrower_id", "Select a valid choice. That choice is not one of the available choices.")
		}
	}
	return nil
}
