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

var chefColumnList = []string{
	"id", "user_id", "bio", "location", "price_per_person", "rating", "review_count",
	"years_experience", "is_approved", "is_available", "created_at", "updated_at",
}

var chefColumns = strings.Join(chefColumnList, ", ")

// chefUserSelect joins a chef with its owning user for nested scans into chefUserRow.
var chefUserSelect = `SELECT ` + qualify("c", chefColumnList) + `, ` + aliasColumns("u", "user", userColumnList) + `
	FROM chefs c
	JOIN users u ON u.id = c.user_id`

type chefUserRow struct {
	model.Chef
	User model.User `db:"user"`
}

type ChefRepository interface {
	Create(ctx context.Context, chef *model.Chef) (*model.Chef, error)
	ByID(ctx context.Context, id int64) (*model.Chef, error)
	ByUserID(ctx context.Context, userID int64) (*model.Chef, error)
	// WithUser loads the chef with its user, specialties, services and reviews.
	WithUser(ctx context.Context, id int64) (*model.ChefWithUser, error)
	Update(ctx context.Context, id int64, patch model.ChefUpdate) (*model.Chef, error)
	SetSpecialties(ctx context.Context, chefID int64, specialties []string) error
	// Featured returns approved and available chefs by rating, at most limit rows.
	Featured(ctx context.Context, limit int) ([]model.ChefWithUser, error)
	Search(ctx context.Context, filter model.ChefFilter) ([]model.ChefWithUser, error)
}

type chefRepository struct {
	db *sqlx.DB
}

func NewChefRepository(db *sqlx.DB) ChefRepository {
	return &chefRepository{db: db}
}

func (r *chefRepository) Create(ctx context.Context, chef *model.Chef) (*model.Chef, error) {
	now := time.Now().UTC()
	query := `INSERT INTO chefs (user_id, bio, location, price_per_person, years_experience, is_approved, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + chefColumns

	created := &model.Chef{}
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, created, query,
			chef.UserID, chef.Bio, chef.Location, chef.PricePerPerson, chef.YearsExperience,
			chef.IsApproved, chef.IsAvailable, now, now)
		if err != nil {
			return err
		}
		return replaceSpecialties(ctx, tx, created.ID, chef.Specialties)
	})
	if err != nil {
		return nil, storeError("create chef", err)
	}

	created.Specialties = normalizeSpecialties(chef.Specialties)
	return created, nil
}

func (r *chefRepository) ByID(ctx context.Context, id int64) (*model.Chef, error) {
	return r.getOne(ctx, "chef by id", `SELECT `+chefColumns+` FROM chefs WHERE id = $1`, id)
}

func (r *chefRepository) ByUserID(ctx context.Context, userID int64) (*model.Chef, error) {
	return r.getOne(ctx, "chef by user id", `SELECT `+chefColumns+` FROM chefs WHERE user_id = $1`, userID)
}

func (r *chefRepository) getOne(ctx context.Context, op, query string, arg any) (*model.Chef, error) {
	chef := &model.Chef{}
	err := r.db.GetContext(ctx, chef, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(op, err)
	}

	specialties, err := r.specialties(ctx, []int64{chef.ID})
	if err != nil {
		return nil, storeError(op, err)
	}
	chef.Specialties = specialtiesOf(specialties, chef.ID)

	return chef, nil
}

func (r *chefRepository) WithUser(ctx context.Context, id int64) (*model.ChefWithUser, error) {
	row := chefUserRow{}
	err := r.db.GetContext(ctx, &row, chefUserSelect+` WHERE c.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("chef with user", err)
	}

	chefs, err := r.assemble(ctx, []chefUserRow{row})
	if err != nil {
		return nil, storeError("chef with user", err)
	}
	chef := &chefs[0]

	err = r.db.SelectContext(ctx, &chef.Reviews,
		`SELECT `+reviewColumns+` FROM reviews WHERE chef_id = $1 ORDER BY created_at DESC, id DESC`, id)
	if err != nil {
		return nil, storeError("chef with user", err)
	}
	if chef.Reviews == nil {
		chef.Reviews = []model.Review{}
	}

	return chef, nil
}

func (r *chefRepository) Update(ctx context.Context, id int64, patch model.ChefUpdate) (*model.Chef, error) {
	set := &setClause{}
	setIf(set, "bio", patch.Bio)
	setIf(set, "location", patch.Location)
	setIf(set, "price_per_person", patch.PricePerPerson)
	setIf(set, "years_experience", patch.YearsExperience)
	setIf(set, "is_approved", patch.IsApproved)
	setIf(set, "is_available", patch.IsAvailable)
	if set.empty() {
		return r.ByID(ctx, id)
	}
	set.add("updated_at", time.Now().UTC())

	query := r.db.Rebind(`UPDATE chefs SET ` + set.String() + ` WHERE id = ? RETURNING ` + chefColumns)
	args := append(set.args, id)

	chef := &model.Chef{}
	err := r.db.GetContext(ctx, chef, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("update chef", err)
	}

	specialties, err := r.specialties(ctx, []int64{chef.ID})
	if err != nil {
		return nil, storeError("update chef", err)
	}
	chef.Specialties = specialtiesOf(specialties, chef.ID)

	return chef, nil
}

// SetSpecialties replaces the chef's specialty set.
func (r *chefRepository) SetSpecialties(ctx context.Context, chefID int64, specialties []string) error {
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return replaceSpecialties(ctx, tx, chefID, specialties)
	})
	if err != nil {
		return storeError("set chef specialties", err)
	}
	return nil
}

func replaceSpecialties(ctx context.Context, tx *sqlx.Tx, chefID int64, specialties []string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM chef_specialties WHERE chef_id = $1`, chefID)
	if err != nil {
		return err
	}

	for _, specialty := range normalizeSpecialties(specialties) {
		_, err = tx.ExecContext(ctx, `INSERT INTO chef_specialties (chef_id, specialty) VALUES ($1, $2)`, chefID, specialty)
		if err != nil {
			return err
		}
	}

	return nil
}

// normalizeSpecialties trims, lower-cases and de-duplicates, keeping input order.
func normalizeSpecialties(specialties []string) []string {
	seen := make(map[string]bool, len(specialties))
	out := make([]string, 0, len(specialties))
	for _, s := range specialties {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func (r *chefRepository) Featured(ctx context.Context, limit int) ([]model.ChefWithUser, error) {
	if limit <= 0 || limit > model.FeaturedChefLimit {
		limit = model.FeaturedChefLimit
	}

	query := chefUserSelect + `
		WHERE c.is_approved = $1 AND c.is_available = $2
		ORDER BY c.rating DESC, c.id ASC
		LIMIT $3`

	rows := []chefUserRow{}
	err := r.db.SelectContext(ctx, &rows, query, true, true, limit)
	if err != nil {
		return nil, storeError("featured chefs", err)
	}

	chefs, err := r.assemble(ctx, rows)
	if err != nil {
		return nil, storeError("featured chefs", err)
	}
	return chefs, nil
}

// Search ANDs every set filter; unset filters do not constrain the result.
func (r *chefRepository) Search(ctx context.Context, filter model.ChefFilter) ([]model.ChefWithUser, error) {
	where := []string{}
	args := []any{}

	if filter.ApprovedOnly {
		where = append(where, "c.is_approved = ?")
		args = append(args, true)
	}
	if filter.Location != nil && strings.TrimSpace(*filter.Location) != "" {
		where = append(where, `LOWER(c.location) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(strings.TrimSpace(*filter.Location)))+"%")
	}
	specialties := normalizeSpecialties(filter.Specialties)
	if len(specialties) > 0 {
		where = append(where, `EXISTS (SELECT 1 FROM chef_specialties cs WHERE cs.chef_id = c.id AND cs.specialty IN (?))`)
		args = append(args, specialties)
	}
	if filter.MaxPrice != nil {
		where = append(where, "c.price_per_person <= ?")
		args = append(args, *filter.MaxPrice)
	}
	if filter.MinRating != nil {
		where = append(where, "c.rating >= ?")
		args = append(args, *filter.MinRating)
	}

	query := chefUserSelect
	if len(where) > 0 {
		query += "\n\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\tORDER BY c.rating DESC, c.id ASC"

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, storeError("search chefs", err)
	}

	rows := []chefUserRow{}
	err = r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...)
	if err != nil {
		return nil, storeError("search chefs", err)
	}

	chefs, err := r.assemble(ctx, rows)
	if err != nil {
		return nil, storeError("search chefs", err)
	}
	return chefs, nil
}

// assemble attaches specialties and services to joined rows. Reviews are left empty.
func (r *chefRepository) assemble(ctx context.Context, rows []chefUserRow) ([]model.ChefWithUser, error) {
	chefs := make([]model.ChefWithUser, 0, len(rows))
	if len(rows) == 0 {
		return chefs, nil
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	specialties, err := r.specialties(ctx, ids)
	if err != nil {
		return nil, err
	}

	services, err := r.services(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		chef := model.ChefWithUser{
			Chef:     row.Chef,
			User:     row.User,
			Services: services[row.ID],
			Reviews:  []model.Review{},
		}
		chef.Specialties = specialtiesOf(specialties, row.ID)
		if chef.Services == nil {
			chef.Services = []model.Service{}
		}
		chefs = append(chefs, chef)
	}

	return chefs, nil
}

func (r *chefRepository) specialties(ctx context.Context, chefIDs []int64) (map[int64][]string, error) {
	query, args, err := sqlx.In(`SELECT chef_id, specialty FROM chef_specialties WHERE chef_id IN (?) ORDER BY specialty`, chefIDs)
	if err != nil {
		return nil, err
	}

	rows := []struct {
		ChefID    int64  `db:"chef_id"`
		Specialty string `db:"specialty"`
	}{}
	err = r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	byChef := make(map[int64][]string, len(chefIDs))
	for _, row := range rows {
		byChef[row.ChefID] = append(byChef[row.ChefID], row.Specialty)
	}
	return byChef, nil
}

func specialtiesOf(byChef map[int64][]string, chefID int64) []string {
	if s, ok := byChef[chefID]; ok {
		return s
	}
	return []string{}
}

func (r *chefRepository) services(ctx context.Context, chefIDs []int64) (map[int64][]model.Service, error) {
	query, args, err := sqlx.In(`SELECT `+serviceColumns+` FROM services WHERE chef_id IN (?) ORDER BY id`, chefIDs)
	if err != nil {
		return nil, err
	}

	services := []model.Service{}
	err = r.db.SelectContext(ctx, &services, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	byChef := make(map[int64][]model.Service, len(chefIDs))
	for _, s := range services {
		byChef[s.ChefID] = append(byChef[s.ChefID], s)
	}
	return byChef, nil
}
