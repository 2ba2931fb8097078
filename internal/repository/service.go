package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/jmoiron/sqlx"
)

var serviceColumnList = []string{
	"id", "chef_id", "name", "description", "price", "duration_minutes", "created_at", "updated_at",
}

var serviceColumns = strings.Join(serviceColumnList, ", ")

type ServiceRepository interface {
	Create(ctx context.Context, service *model.Service) (*model.Service, error)
	ByID(ctx context.Context, id int64) (*model.Service, error)
	ByChef(ctx context.Context, chefID int64) ([]model.Service, error)
	Update(ctx context.Context, id int64, patch model.ServiceUpdate) (*model.Service, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}

type serviceRepository struct {
	db *sqlx.DB
}

func NewServiceRepository(db *sqlx.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

func (r *serviceRepository) Create(ctx context.Context, service *model.Service) (*model.Service, error) {
	now := time.Now().UTC()
	query := `INSERT INTO services (chef_id, name, description, price, duration_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + serviceColumns

	created := &model.Service{}
	err := r.db.GetContext(ctx, created, query,
		service.ChefID, service.Name, service.Description, service.Price, service.DurationMinutes, now, now)
	if err != nil {
		return nil, storeError("create service", err)
	}

	return created, nil
}

func (r *serviceRepository) ByID(ctx context.Context, id int64) (*model.Service, error) {
	service := &model.Service{}
	err := r.db.GetContext(ctx, service, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("service by id", err)
	}

	return service, nil
}

func (r *serviceRepository) ByChef(ctx context.Context, chefID int64) ([]model.Service, error) {
	services := []model.Service{}
	err := r.db.SelectContext(ctx, &services, `SELECT `+serviceColumns+` FROM services WHERE chef_id = $1 ORDER BY id`, chefID)
	if err != nil {
		return nil, storeError("services by chef", err)
	}

	return services, nil
}

func (r *serviceRepository) Update(ctx context.Context, id int64, patch model.ServiceUpdate) (*model.Service, error) {
	set := &setClause{}
	setIf(set, "name", patch.Name)
	setIf(set, "description", patch.Description)
	setIf(set, "price", patch.Price)
	setIf(set, "duration_minutes", patch.DurationMinutes)
	if set.empty() {
		return r.ByID(ctx, id)
	}
	set.add("updated_at", time.Now().UTC())

	query := r.db.Rebind(`UPDATE services SET ` + set.String() + ` WHERE id = ? RETURNING ` + serviceColumns)
	args := append(set.args, id)

	service := &model.Service{}
	err := r.db.GetContext(ctx, service, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("update service", err)
	}

	return service, nil
}

func (r *serviceRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return false, storeError("delete service", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, storeError("delete service", err)
	}

	return rows > 0, nil
}
