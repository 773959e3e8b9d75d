package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vault_store.go -package=mocks github.com/csells/ragamuffin/internal/storage VaultStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// VaultStore defines the interface for vault operations.
type VaultStore interface {
	// Create creates a new vault. Returns ErrAlreadyExists if the name is taken.
	Create(ctx context.Context, name, rootPath string) (VaultRecord, error)
	// GetByName returns the vault with the given name, or ErrNotFound.
	GetByName(ctx context.Context, name string) (VaultRecord, error)
	// Delete removes a vault and all chunks it owns. Returns ErrNotFound if
	// the vault does not exist.
	Delete(ctx context.Context, name string) error
	// ListAll returns all vaults ordered by name.
	ListAll(ctx context.Context) ([]VaultRecord, error)
}

// VaultRepo provides methods for vault operations backed by SQLite.
// It implements the VaultStore interface.
type VaultRepo struct {
	db *sql.DB
}

// NewVaultRepo creates a new VaultRepo.
func NewVaultRepo(db *sql.DB) *VaultRepo {
	return &VaultRepo{db: db}
}

// Create creates a new vault with the given name and root path.
func (r *VaultRepo) Create(ctx context.Context, name, rootPath string) (VaultRecord, error) {
	_, err := r.GetByName(ctx, name)
	if err == nil {
		return VaultRecord{}, fmt.Errorf("vault %q: %w", name, ErrAlreadyExists)
	}
	if !errors.Is(err, ErrNotFound) {
		return VaultRecord{}, err
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO vaults (name, root_path) VALUES (?, ?)",
		name, rootPath,
	)
	if err != nil {
		return VaultRecord{}, fmt.Errorf("failed to insert vault: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return VaultRecord{}, err
	}

	var vault VaultRecord
	err = r.db.QueryRowContext(ctx,
		"SELECT id, name, root_path, created_at FROM vaults WHERE id = ?",
		id,
	).Scan(&vault.ID, &vault.Name, &vault.RootPath, &vault.CreatedAt)
	if err != nil {
		return VaultRecord{}, err
	}

	return vault, nil
}

// GetByName returns the vault with the given name.
func (r *VaultRepo) GetByName(ctx context.Context, name string) (VaultRecord, error) {
	var vault VaultRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, root_path, created_at FROM vaults WHERE name = ?",
		name,
	).Scan(&vault.ID, &vault.Name, &vault.RootPath, &vault.CreatedAt)

	if err == sql.ErrNoRows {
		return VaultRecord{}, fmt.Errorf("vault %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return VaultRecord{}, fmt.Errorf("failed to query vault: %w", err)
	}

	return vault, nil
}

// Delete removes a vault and all its chunks. Chunks go first so referential
// integrity holds even without ON DELETE CASCADE.
func (r *VaultRepo) Delete(ctx context.Context, name string) error {
	vault, err := r.GetByName(ctx, name)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM chunks WHERE vault_id = ?", vault.ID); err != nil {
		return fmt.Errorf("failed to delete vault chunks: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM vaults WHERE id = ?", vault.ID); err != nil {
		return fmt.Errorf("failed to delete vault: %w", err)
	}

	return nil
}

// ListAll returns all vaults ordered by name.
func (r *VaultRepo) ListAll(ctx context.Context) ([]VaultRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, root_path, created_at FROM vaults ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var vaults []VaultRecord
	for rows.Next() {
		var vault VaultRecord
		if err := rows.Scan(&vault.ID, &vault.Name, &vault.RootPath, &vault.CreatedAt); err != nil {
			return nil, err
		}
		vaults = append(vaults, vault)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return vaults, nil
}
