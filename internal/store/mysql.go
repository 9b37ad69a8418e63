package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/transitdesk/busboard/internal/model"
)

// MySQLStore persists the snapshot into two tables, bookings and
// booking_seats. Save rewrites both tables inside one transaction; with
// a sixty-seat bus the snapshot is small enough that a full rewrite is
// cheaper than diffing, and it keeps the Store contract trivially
// atomic. Timestamps are stored as DATETIME in UTC.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore returns a MySQLStore bound to the given database.
func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

// EnsureSchema creates the snapshot tables when they do not exist. It is
// called once at startup.
func (s *MySQLStore) EnsureSchema(ctx context.Context) error {
	const bookingsDDL = `CREATE TABLE IF NOT EXISTS bookings (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        booking_id VARCHAR(32) NOT NULL,
        travel_date CHAR(10) NOT NULL,
        mobile_number CHAR(10) NOT NULL,
        is_boarded TINYINT(1) NOT NULL DEFAULT 0,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL,
        UNIQUE KEY uq_booking_id (booking_id),
        KEY idx_travel_date (travel_date)
    )`
	const seatsDDL = `CREATE TABLE IF NOT EXISTS booking_seats (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        booking_id VARCHAR(32) NOT NULL,
        seat_label VARCHAR(4) NOT NULL,
        KEY idx_booking_id (booking_id)
    )`
	if _, err := s.db.ExecContext(ctx, bookingsDDL); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, seatsDDL)
	return err
}

// Load reads all bookings in insertion order and attaches their seats.
func (s *MySQLStore) Load(ctx context.Context) ([]model.Booking, error) {
	const q = `SELECT booking_id, travel_date, mobile_number, is_boarded, created_at, updated_at
               FROM bookings ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	index := make(map[string]int)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.TravelDate, &b.MobileNumber, &b.IsBoarded, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.Seats = []string{}
		index[b.ID] = len(bookings)
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return bookings, nil
	}
	const seatQ = `SELECT booking_id, seat_label FROM booking_seats ORDER BY id`
	srows, err := s.db.QueryContext(ctx, seatQ)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var id, seat string
		if err := srows.Scan(&id, &seat); err != nil {
			return nil, err
		}
		if idx, ok := index[id]; ok {
			bookings[idx].Seats = append(bookings[idx].Seats, seat)
		}
	}
	if err := srows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// Save replaces the stored snapshot. Both tables are cleared and
// repopulated with bulk inserts inside a single transaction so a failed
// save never leaves a partial snapshot behind.
func (s *MySQLStore) Save(ctx context.Context, bookings []model.Booking) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_seats`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings`); err != nil {
		return err
	}
	if len(bookings) > 0 {
		query := `INSERT INTO bookings (booking_id, travel_date, mobile_number, is_boarded, created_at, updated_at) VALUES `
		args := make([]interface{}, 0, len(bookings)*6)
		placeholders := make([]string, 0, len(bookings))
		seatQuery := `INSERT INTO booking_seats (booking_id, seat_label) VALUES `
		seatArgs := make([]interface{}, 0)
		seatPlaceholders := make([]string, 0)
		for _, b := range bookings {
			placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?)")
			args = append(args, b.ID, b.TravelDate, b.MobileNumber, b.IsBoarded,
				b.CreatedAt.UTC().Format(mysqlTimeLayout), b.UpdatedAt.UTC().Format(mysqlTimeLayout))
			for _, seat := range b.Seats {
				seatPlaceholders = append(seatPlaceholders, "(?, ?)")
				seatArgs = append(seatArgs, b.ID, seat)
			}
		}
		if _, err := tx.ExecContext(ctx, query+strings.Join(placeholders, ","), args...); err != nil {
			return err
		}
		if len(seatPlaceholders) > 0 {
			if _, err := tx.ExecContext(ctx, seatQuery+strings.Join(seatPlaceholders, ","), seatArgs...); err != nil {
				return err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// mysqlTimeLayout matches the DATETIME column format; the driver's
// parseTime option converts it back to time.Time on load.
const mysqlTimeLayout = "2006-01-02 15:04:05"
