package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"stockservice/internal/domain"
)

// ErrNotFound is returned when no stock row matches the requested id.
var ErrNotFound = errors.New("stock not found")

// timestampLayout is fixed width so that created_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

type StockRepo struct{ db *sqlx.DB }

func NewStockRepo(db *sqlx.DB) *StockRepo { return &StockRepo{db: db} }

const stockColumns = `
    id, image, content_type, price, detail,
    created_at, COALESCE(updated_at,'') AS updated_at`

// FindAll returns every stock, oldest first.
func (r *StockRepo) FindAll(ctx context.Context) ([]domain.Stock, error) {
	out := []domain.Stock{}
	err := r.db.SelectContext(ctx, &out, `
  SELECT`+stockColumns+`
  FROM stocks
  ORDER BY created_at, rowid
`)
	return out, err
}

func (r *StockRepo) FindByID(ctx context.Context, id string) (domain.Stock, error) {
	var s domain.Stock
	err := r.db.GetContext(ctx, &s, `
  SELECT`+stockColumns+`
  FROM stocks
  WHERE id = ?
`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Stock{}, ErrNotFound
	}
	return s, err
}

// Save inserts s when it has no id yet (assigning one) and otherwise replaces
// the row with the same id. The stored timestamps are written back into s.
func (r *StockRepo) Save(ctx context.Context, s *domain.Stock) error {
	now := time.Now().UTC().Format(timestampLayout)
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Image == nil {
		s.Image = []byte{}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stocks(id, image, content_type, price, detail, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(id) DO UPDATE SET
		  image = excluded.image,
		  content_type = excluded.content_type,
		  price = excluded.price,
		  detail = excluded.detail,
		  updated_at = ?
	`, s.ID, s.Image, s.ContentType, s.Price, s.Detail, now, now); err != nil {
		return err
	}

	var ts struct {
		CreatedAt string `db:"created_at"`
		UpdatedAt string `db:"updated_at"`
	}
	if err := tx.GetContext(ctx, &ts, `
		SELECT created_at, COALESCE(updated_at,'') AS updated_at FROM stocks WHERE id = ?
	`, s.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.CreatedAt, s.UpdatedAt = ts.CreatedAt, ts.UpdatedAt
	return nil
}

// DeleteByID removes the row if present. Deleting a missing id is not an error.
func (r *StockRepo) DeleteByID(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM stocks WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

