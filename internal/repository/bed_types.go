package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"

	"owl-hotel/internal/domain"
)

// MemoryBedTypesRepo keeps the reference list in a map.
type MemoryBedTypesRepo struct {
	mu    sync.RWMutex
	types map[string]domain.BedType
}

func NewMemoryBedTypesRepo() *MemoryBedTypesRepo {
	return &MemoryBedTypesRepo{types: map[string]domain.BedType{}}
}

func (r *MemoryBedTypesRepo) ListBedTypes(_ context.Context) ([]*domain.BedType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.BedType, 0, len(r.types))
	for _, bt := range r.types {
		c := bt
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryBedTypesRepo) GetBedType(_ context.Context, name string) (*domain.BedType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bt, ok := r.types[domain.NormalizeTypeName(name)]
	if !ok {
		return nil, domain.NotFoundf("bed type %q", name)
	}
	return &bt, nil
}

func (r *MemoryBedTypesRepo) UpsertBedType(_ context.Context, bt *domain.BedType) error {
	if err := validateBedType(bt); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	name := domain.NormalizeTypeName(bt.Name)
	r.types[name] = domain.BedType{Name: name, Capacity: bt.Capacity}
	return nil
}

func validateBedType(bt *domain.BedType) error {
	if bt == nil || domain.NormalizeTypeName(bt.Name) == "" {
		return domain.Validationf("bed type name is required")
	}
	if bt.Capacity < 1 {
		return domain.Validationf("bed type capacity must be positive")
	}
	return nil
}

// PostgresBedTypesRepository reads and writes the bed_types table.
type PostgresBedTypesRepository struct {
	db *sql.DB
}

func NewPostgresBedTypesRepository(db *sql.DB) *PostgresBedTypesRepository {
	return &PostgresBedTypesRepository{db: db}
}

func (r *PostgresBedTypesRepository) ListBedTypes(ctx context.Context) ([]*domain.BedType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, capacity FROM bed_types ORDER BY name`)
	if err != nil {
		return nil, translateErr("list bed types", err)
	}
	defer rows.Close()

	out := []*domain.BedType{}
	for rows.Next() {
		var bt domain.BedType
		if err := rows.Scan(&bt.Name, &bt.Capacity); err != nil {
			return nil, translateErr("scan bed type", err)
		}
		out = append(out, &bt)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr("list bed types", err)
	}
	return out, nil
}

func (r *PostgresBedTypesRepository) GetBedType(ctx context.Context, name string) (*domain.BedType, error) {
	var bt domain.BedType
	err := r.db.QueryRowContext(ctx,
		`SELECT name, capacity FROM bed_types WHERE name = $1`,
		domain.NormalizeTypeName(name),
	).Scan(&bt.Name, &bt.Capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("bed type %q", name)
	}
	if err != nil {
		return nil, translateErr("get bed type", err)
	}
	return &bt, nil
}

func (r *PostgresBedTypesRepository) UpsertBedType(ctx context.Context, bt *domain.BedType) error {
	if err := validateBedType(bt); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bed_types (name, capacity)
		 VALUES ($1, $2)
		 ON CONFLICT (name)
		 DO UPDATE SET capacity = EXCLUDED.capacity, updated_at = CURRENT_TIMESTAMP`,
		domain.NormalizeTypeName(bt.Name), bt.Capacity,
	)
	return translateErr("upsert bed type", err)
}
