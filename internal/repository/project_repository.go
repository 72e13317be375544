package repository

import (
	"context"
	"database/sql"

	"github.com/admin-dashboard/api/internal/model"
)

// ProjectRepo encapsulates queries against the projects table.
type ProjectRepo struct{ DB *sql.DB }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

// Create inserts a project and populates its ID.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO projects (name, client, status, completion, due_date) VALUES (?,?,?,?,?)",
		p.Name, p.Client, p.Status, p.Completion, p.DueDate)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID fetches one project.
func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (model.Project, error) {
	var (
		p       model.Project
		dueDate sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, client, status, completion, due_date, created_at, updated_at FROM projects WHERE id=? LIMIT 1",
		id).Scan(&p.ID, &p.Name, &p.Client, &p.Status, &p.Completion, &dueDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Project{}, ErrNotFound
		}
		return model.Project{}, err
	}
	if dueDate.Valid {
		p.DueDate = &dueDate.Time
	}
	return p, nil
}

// List returns all projects, newest first.
func (r *ProjectRepo) List(ctx context.Context) ([]model.Project, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, client, status, completion, due_date, created_at, updated_at FROM projects ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		var (
			p       model.Project
			dueDate sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Client, &p.Status, &p.Completion, &dueDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if dueDate.Valid {
			p.DueDate = &dueDate.Time
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update overwrites the editable fields of a project.
func (r *ProjectRepo) Update(ctx context.Context, p *model.Project) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE projects SET name=?, client=?, status=?, completion=?, due_date=? WHERE id=?",
		p.Name, p.Client, p.Status, p.Completion, p.DueDate, p.ID)
	if err != nil {
		return err
	}
	return noneAffected(res)
}

// Delete removes a project.
func (r *ProjectRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM projects WHERE id=?", id)
	if err != nil {
		return err
	}
	return noneAffected(res)
}
