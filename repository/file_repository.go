package repository

import (
	"context"
	"errors"
	"fmt"

	"clausecheck-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrFileNotFound is returned when no contract file has the requested id
var ErrFileNotFound = errors.New("contract file not found")

// FileRepository handles database operations for archived contract uploads
type FileRepository struct {
	db *pgxpool.Pool
}

// NewFileRepository creates a new file repository
func NewFileRepository(db *pgxpool.Pool) *FileRepository {
	return &FileRepository{db: db}
}

// Create records an upload. The id is assigned by the caller so that it
// matches the storage path.
func (r *FileRepository) Create(ctx context.Context, file *models.ContractFile) error {
	query := `
		INSERT INTO contract_files (id, filename, mime_type, size, storage_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		file.ID,
		file.Filename,
		file.MimeType,
		file.Size,
		file.StoragePath,
	).Scan(&file.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert contract file: %w", err)
	}
	return nil
}

// GetByID retrieves an upload record
func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ContractFile, error) {
	query := `
		SELECT id, filename, mime_type, size, storage_path, created_at
		FROM contract_files
		WHERE id = $1`

	file, err := scanFile(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract file: %w", err)
	}
	return file, nil
}

// ListRecent returns the most recent uploads, newest first
func (r *FileRepository) ListRecent(ctx context.Context, limit int) ([]*models.ContractFile, error) {
	query := `
		SELECT id, filename, mime_type, size, storage_path, created_at
		FROM contract_files
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contract files: %w", err)
	}
	defer rows.Close()

	var files []*models.ContractFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract file: %w", err)
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// Delete removes an upload record
func (r *FileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM contract_files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contract file: %w", err)
	}
	return nil
}

func scanFile(row pgx.Row) (*models.ContractFile, error) {
	file := &models.ContractFile{}
	err := row.Scan(
		&file.ID,
		&file.Filename,
		&file.MimeType,
		&file.Size,
		&file.StoragePath,
		&file.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return file, nil
}
