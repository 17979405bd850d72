package services

import (
	"database/sql"
	"fmt"

	"printfarm-backend/internal/models"
)

type ProjectService struct {
	db *sql.DB
}

func NewProjectService(db *sql.DB) *ProjectService {
	return &ProjectService{db: db}
}

// GetProjectByID gets a project by ID
func (p *ProjectService) GetProjectByID(id string) (*models.Project, error) {
	query := `
		SELECT id, name, status, created_at, updated_at
		FROM projects
		WHERE id = ?
	`

	var project models.Project
	err := p.db.QueryRow(query, id).Scan(
		&project.ID,
		&project.Name,
		&project.Status,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query project by ID: %w", err)
	}

	return &project, nil
}

// GetAllProjects returns all projects ordered by creation time.
func (p *ProjectService) GetAllProjects() ([]models.Project, error) {
	query := `
		SELECT id, name, status, created_at, updated_at
		FROM projects
		ORDER BY created_at ASC
	`

	rows, err := p.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query all projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var project models.Project
		err := rows.Scan(
			&project.ID,
			&project.Name,
			&project.Status,
			&project.CreatedAt,
			&project.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	return projects, nil
}

// GetProjectSummary returns a project with its items and piece totals.
func (p *ProjectService) GetProjectSummary(id string) (*models.ProjectSummary, error) {
	project, err := p.GetProjectByID(id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, nil
	}

	items, err := p.GetProjectItems(id)
	if err != nil {
		return nil, err
	}

	summary := &models.ProjectSummary{
		Project: *project,
		Items:   items,
	}
	for _, item := range items {
		summary.TotalPieces += item.Quantity
		summary.PiecesComplete += item.Completed
	}

	return summary, nil
}

// GetProjectItems returns a project's items.
func (p *ProjectService) GetProjectItems(projectID string) ([]models.ProjectItem, error) {
	query := `
		SELECT id, project_id, name, quantity, completed, file_keyword, material, created_at
		FROM project_items
		WHERE project_id = ?
		ORDER BY created_at ASC
	`

	rows, err := p.db.Query(query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query project items: %w", err)
	}
	defer rows.Close()

	var items []models.ProjectItem
	for rows.Next() {
		var item models.ProjectItem
		err := rows.Scan(
			&item.ID,
			&item.ProjectID,
			&item.Name,
			&item.Quantity,
			&item.Completed,
			&item.FileKeyword,
			&item.Material,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project item: %w", err)
		}
		items = append(items, item)
	}

	return items, nil
}
