package roles

import (
	"context"
	"database/sql"
	"time"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveRoleOptions struct {
	ID   *int
	Name *string
}

type ListRolesOptions struct {
	Limit  *int
	Offset *int

	includeTotal bool
}

type UpdateRoleOptions struct {
	Name      *string
	Codenames *[]string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateRole stores a role granting codenames.
func (svc *Service) CreateRole(ctx context.Context, role *models.Role, codenames []string) error {
	if err := validateCodenames(codenames); err != nil {
		return err
	}

	now := time.Now()
	role.CreatedAt = now
	role.UpdatedAt = now

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := checkNameAvailable(ctx, tx, role.Name, 0); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(role).Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
		return setPermissions(ctx, tx, role.ID, codenames)
	})
}

func (svc *Service) RetrieveRole(ctx context.Context, opts RetrieveRoleOptions) (*models.Role, error) {
	role := &models.Role{}

	q := svc.db.
		NewSelect().
		Model(role).
		Relation("Permissions", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("rp.codename ASC")
		})

	if opts.ID != nil {
		q = q.Where("r.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		q = q.Where("r.name = ? COLLATE NOCASE", *opts.Name)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Role")
		}
		return nil, errors.WithStack(err)
	}

	return role, nil
}

func (svc *Service) ListRoles(ctx context.Context, opts ListRolesOptions) ([]*models.Role, error) {
	r, _, err := svc.listRolesWithTotal(ctx, opts)
	return r, errors.WithStack(err)
}

func (svc *Service) ListRolesWithTotal(ctx context.Context, opts ListRolesOptions) ([]*models.Role, int, error) {
	opts.includeTotal = true
	return svc.listRolesWithTotal(ctx, opts)
}

func (svc *Service) listRolesWithTotal(ctx context.Context, opts ListRolesOptions) ([]*models.Role, int, error) {
	var roles []*models.Role
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&roles).
		Relation("Permissions", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("rp.codename ASC")
		}).
		Order("r.name ASC")

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

	return roles, total, nil
}

func (svc *Service) CountRoles(ctx context.Context) (int, error) {
	count, err := svc.db.NewSelect().Model((*models.Role)(nil)).Count(ctx)
	return count, errors.WithStack(err)
}

// UpdateRole renames a role and/or replaces its permissions. System roles
// keep their name.
func (svc *Service) UpdateRole(ctx context.Context, role *models.Role, opts UpdateRoleOptions) error {
	if opts.Name != nil && role.IsSystem && *opts.Name != role.Name {
		return errcodes.Forbidden("Renaming system roles")
	}
	if opts.Codenames != nil {
		if err := validateCodenames(*opts.Codenames); err != nil {
			return err
		}
	}

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		role.UpdatedAt = time.Now()
		columns := []string{"updated_at"}
		if opts.Name != nil {
			if err := checkNameAvailable(ctx, tx, *opts.Name, role.ID); err != nil {
				return err
			}
			role.Name = *opts.Name
			columns = append(columns, "name")
		}

		res, err := tx.NewUpdate().Model(role).Column(columns...).WherePK().Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Role")
		}

		if opts.Codenames == nil {
			return nil
		}
		_, err = tx.NewDelete().Model((*models.RolePermission)(nil)).Where("role_id = ?", role.ID).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		return setPermissions(ctx, tx, role.ID, *opts.Codenames)
	})
}

// DeleteRole removes a role that is neither a system role nor assigned.
func (svc *Service) DeleteRole(ctx context.Context, id int) error {
	role, err := svc.RetrieveRole(ctx, RetrieveRoleOptions{ID: &id})
	if err != nil {
		return err
	}
	if role.IsSystem {
		return errcodes.Forbidden("Deleting system roles")
	}

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		assigned, err := tx.NewSelect().Model((*models.User)(nil)).Where("role_id = ?", id).Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if assigned {
			return errcodes.Conflict("Role is still assigned to users.")
		}
		_, err = tx.NewDelete().Model((*models.RolePermission)(nil)).Where("role_id = ?", id).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = tx.NewDelete().Model((*models.Role)(nil)).Where("id = ?", id).Exec(ctx)
		return errors.WithStack(err)
	})
}

func validateCodenames(codenames []string) error {
	for _, codename := range codenames {
		if !models.IsValidPermission(codename) {
			return errcodes.FieldError("permissions", "Unknown permission \""+codename+"\".")
		}
	}
	return nil
}

func setPermissions(ctx context.Context, tx bun.Tx, roleID int, codenames []string) error {
	seen := map[string]bool{}
	for _, codename := range codenames {
		if seen[codename] {
			continue
		}
		seen[codename] = true
		perm := &models.RolePermission{RoleID: roleID, Codename: codename}
		if _, err := tx.NewInsert().Model(perm).Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func checkNameAvailable(ctx context.Context, tx bun.Tx, name string, exceptID int) error {
	exists, err := tx.NewSelect().
		Model((*models.Role)(nil)).
		Where("name = ? COLLATE NOCASE", name).
		Where("id != ?", exceptID).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errcodes.FieldError("name", "Role with this Name already exists.")
	}
	return nil
}
