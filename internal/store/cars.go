package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/dealership/internal/model"
)

// Cars is the dealer-scoped inventory store. Every method takes the dealer ID
// of the authenticated caller and applies it as a hard filter, so a dealer can
// never read or change another dealer's rows.
type Cars struct {
	DB *sql.DB

	// Now supplies the current time for year validation. Defaults to time.Now.
	Now func() time.Time
}

const carColumns = `id, make, model, year, stock_level, dealer_id, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Cars) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ListAll returns every car owned by dealerID in insertion order.
func (s *Cars) ListAll(ctx context.Context, dealerID int64) ([]model.Car, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+carColumns+` FROM cars WHERE dealer_id = ? ORDER BY id`, dealerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing cars: %w", err)
	}
	defer rows.Close()

	return scanCars(rows)
}

// GetByID returns the car with the given ID if dealerID owns it. Missing cars
// and cars owned by someone else both return nil.
func (s *Cars) GetByID(ctx context.Context, id, dealerID int64) (*model.Car, error) {
	c := &model.Car{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT `+carColumns+` FROM cars WHERE id = ? AND dealer_id = ?`, id, dealerID,
	).Scan(&c.ID, &c.Make, &c.Model, &c.Year, &c.StockLevel, &c.DealerID, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting car: %w", err)
	}
	return c, nil
}

// Create inserts a car owned by dealerID. Any ID or dealer ID on the input is
// ignored.
func (s *Cars) Create(ctx context.Context, car model.Car, dealerID int64) (*model.Car, error) {
	car.ID = 0
	car.DealerID = dealerID
	if err := car.Validate(s.now()); err != nil {
		return nil, err
	}

	result, err := s.DB.ExecContext(ctx,
		`INSERT INTO cars (make, model, year, stock_level, dealer_id) VALUES (?, ?, ?, ?, ?)`,
		car.Make, car.Model, car.Year, car.StockLevel, dealerID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating car: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting car id: %w", err)
	}

	return s.GetByID(ctx, id, dealerID)
}

// Update overwrites make, model, year and stock level of car.ID if dealerID
// owns it. It reports whether a row was changed.
func (s *Cars) Update(ctx context.Context, car model.Car, dealerID int64) (bool, error) {
	if err := car.Validate(s.now()); err != nil {
		return false, err
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE cars SET make = ?, model = ?, year = ?, stock_level = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND dealer_id = ?`,
		car.Make, car.Model, car.Year, car.StockLevel, car.ID, dealerID,
	)
	if err != nil {
		return false, fmt.Errorf("updating car: %w", err)
	}
	return affected(result)
}

// Delete removes the car if dealerID owns it and reports whether it did.
func (s *Cars) Delete(ctx context.Context, id, dealerID int64) (bool, error) {
	result, err := s.DB.ExecContext(ctx,
		`DELETE FROM cars WHERE id = ? AND dealer_id = ?`, id, dealerID,
	)
	if err != nil {
		return false, fmt.Errorf("deleting car: %w", err)
	}
	return affected(result)
}

// UpdateStock sets the stock level of a single car owned by dealerID.
func (s *Cars) UpdateStock(ctx context.Context, id int64, stockLevel int, dealerID int64) (bool, error) {
	if err := model.ValidateStockLevel(stockLevel); err != nil {
		return false, err
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE cars SET stock_level = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND dealer_id = ?`,
		stockLevel, id, dealerID,
	)
	if err != nil {
		return false, fmt.Errorf("updating car stock: %w", err)
	}
	return affected(result)
}

// Search returns dealerID's cars whose make and model contain the given
// substrings. An empty substring matches everything. Matching follows SQLite
// LIKE, which ignores ASCII case.
func (s *Cars) Search(ctx context.Context, makeSub, modelSub string, dealerID int64) ([]model.Car, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+carColumns+` FROM cars
		 WHERE dealer_id = ?
		   AND make LIKE ? ESCAPE '\'
		   AND model LIKE ? ESCAPE '\'
		 ORDER BY id`,
		dealerID, containsPattern(makeSub), containsPattern(modelSub),
	)
	if err != nil {
		return nil, fmt.Errorf("searching cars: %w", err)
	}
	defer rows.Close()

	return scanCars(rows)
}

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func scanCars(rows *sql.Rows) ([]model.Car, error) {
	var cars []model.Car
	for rows.Next() {
		var c model.Car
		if err := rows.Scan(&c.ID, &c.Make, &c.Model, &c.Year, &c.StockLevel, &c.DealerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning car: %w", err)
		}
		cars = append(cars, c)
	}
	return cars, rows.Err()
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting affected rows: %w", err)
	}
	return n > 0, nil
}
