package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/templui/hrvault/internal/model"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

type FileRepository interface {
	Create(file *model.VaultFile) error
	ByID(id string) (*model.VaultFile, error)
	Delete(id string) error
}

type fileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(file *model.VaultFile) error {
	query := `INSERT INTO vault_files (id, user_id, resource_type, filename, original_name, mime_type, size, storage_path, is_shared, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(query,
		file.ID,
		file.UserID,
		string(file.ResourceType),
		file.Filename,
		file.OriginalName,
		file.MimeType,
		file.Size,
		file.StoragePath,
		file.IsShared,
		file.CreatedAt,
	)

	return err
}

func (r *fileRepository) ByID(id string) (*model.VaultFile, error) {
	file := &model.VaultFile{}
	query := `SELECT * FROM vault_files WHERE id = $1`

	err := r.db.Get(file, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}

	return file, err
}

func (r *fileRepository) Delete(id string) error {
	query := `DELETE FROM vault_files WHERE id = $1`
	_, err := r.db.Exec(query, id)
	return err
}
