package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`INSERT INTO roles (name, is_system) VALUES ('librarian', TRUE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			INSERT INTO role_permissions (role_id, codename)
			SELECT id, 'catalog.can_mark_returned' FROM roles WHERE name = 'librarian'
			UNION ALL
			SELECT id, 'catalog.staff_member_required' FROM roles WHERE name = 'librarian'
`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`DELETE FROM roles WHERE name = 'librarian'`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
