package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/chekinout/core/class"
)

const classColumns = `id, name, grade_level, teacher_id, created_at, updated_at`

type classRepository struct {
	db *sqlx.DB
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *sqlx.DB) class.Repository {
	return &classRepository{db: db}
}

func (repo *classRepository) CheckNameUniqueness(ctx context.Context, name string, excludedClasses ...class.Class) error {
	query := `SELECT EXISTS (SELECT 1 FROM class WHERE name = ?`
	args := []interface{}{name}
	if len(excludedClasses) > 0 {
		exclIDs := make([]string, 0, len(excludedClasses))
		for _, cls := range excludedClasses {
			exclIDs = append(exclIDs, cls.ID)
		}
		q, qArgs, err := sqlx.In(query+` AND id NOT IN (?))`, name, exclIDs)
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		query, args = q, qArgs
	} else {
		query += `)`
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking uniqueness")
	}
	if exists {
		return class.ErrNameExists
	}
	return nil
}

func (repo *classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	const query = `
		INSERT INTO class (id, name, grade_level, teacher_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, query,
		cls.ID, cls.Name, cls.GradeLevel, cls.TeacherID, cls.CreatedAt, cls.UpdatedAt,
	)
	if err != nil {
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo *classRepository) GetClassByID(ctx context.Context, id string) (class.Class, error) {
	var cls class.Class
	if err := repo.db.GetContext(ctx, &cls, `SELECT `+classColumns+` FROM class WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return class.Class{}, class.ErrNotFound
		}
		return class.Class{}, errors.Wrap(err, "getting class")
	}
	return cls, nil
}

func (repo *classRepository) QueryAllClasses(ctx context.Context) ([]class.Class, error) {
	var classes []class.Class
	if err := repo.db.SelectContext(ctx, &classes, `SELECT `+classColumns+` FROM class ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	return classes, nil
}

func (repo *classRepository) UpdateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	const query = `
		UPDATE class SET name = $1, grade_level = $2, teacher_id = $3, updated_at = $4
		WHERE id = $5`
	res, err := repo.db.ExecContext(ctx, query, cls.Name, cls.GradeLevel, cls.TeacherID, cls.UpdatedAt, cls.ID)
	if err != nil {
		return class.Class{}, errors.Wrap(err, "updating class")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return class.Class{}, class.ErrNotFound
	}
	return cls, nil
}

func (repo *classRepository) DeleteClassesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM class WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting classes")
	}
	return nil
}
