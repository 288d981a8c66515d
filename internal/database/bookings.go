package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"styledecor/internal/domain"
	"styledecor/internal/models"
)

const bookingColumns = `id, customer_name, customer_email, phone, location, note,
        service_id, service_title, quantity, total_price, payment, payment_status,
        transaction_id, decorator_state, decorator_email, decorator_name, decorator_photo,
        assigned_at, created_at, updated_at, version`

// InsertBookingIfAbsent вставляет заявку; повтор с тем же transaction_id ничего не пишет
func (db *DB) InsertBookingIfAbsent(ctx context.Context, booking *models.Booking) (bool, error) {
	query := `INSERT INTO bookings (
            id, customer_name, customer_email, phone, location, note,
            service_id, service_title, quantity, total_price, payment, payment_status,
            transaction_id, stage, created_at, updated_at, version
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
        ON CONFLICT (transaction_id) DO NOTHING`

	result, err := db.ExecContext(ctx, db.rebind(query),
		booking.ID,
		booking.Name,
		booking.Email,
		booking.Phone,
		booking.Location,
		booking.Note,
		booking.ServiceID,
		booking.ServiceTitle,
		booking.Quantity,
		booking.TotalPrice,
		booking.Payment,
		booking.PaymentStatus,
		booking.TransactionID,
		int(models.StageNone),
		booking.CreatedAt.UTC(),
		booking.UpdatedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert booking: %w", err)
	}
	if rows == 1 {
		booking.Version = 1
	}
	return rows == 1, nil
}

// GetBooking возвращает заявку по ID
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return db.getBooking(ctx, db, id)
}

func (db *DB) GetBookingByTransaction(ctx context.Context, transactionID string) (*models.Booking, error) {
	bookings, err := db.listBookings(ctx, db, "transaction_id = ?", transactionID)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, domain.ErrNotFound
	}
	return bookings[0], nil
}

func (db *DB) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	return db.listBookings(ctx, db, "1 = 1")
}

func (db *DB) ListBookingsByEmail(ctx context.Context, email string) ([]*models.Booking, error) {
	return db.listBookings(ctx, db, "customer_email = ?", email)
}

func (db *DB) ListCompletedByDecorator(ctx context.Context, email string) ([]*models.Booking, error) {
	return db.listBookings(ctx, db, "decorator_email = ? AND stage = ?", email, int(models.StageCompleted))
}

// ClaimBooking records the decorator's claim and moves the booking from
// unclaimed to pending. Both writes commit together or not at all.
func (db *DB) ClaimBooking(ctx context.Context, decoratorID, bookingID string, at time.Time) (*models.Claim, error) {
	var claim *models.Claim
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		decorator, err := db.queryAccount(ctx, tx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, decoratorID)
		if err != nil {
			return fmt.Errorf("decorator %s: %w", decoratorID, err)
		}
		if !decorator.IsDecorator() {
			return domain.ErrNotDecorator
		}

		c := &models.Claim{
			ID:             newID(),
			BookingID:      bookingID,
			DecoratorID:    decorator.ID,
			DecoratorEmail: decorator.Email,
			DecoratorName:  decorator.Name,
			CreatedAt:      at.UTC(),
		}
		insert := `INSERT INTO decorator_claims (id, booking_id, decorator_id, decorator_email, decorator_name, created_at)
                   VALUES (?, ?, ?, ?, ?, ?)
                   ON CONFLICT (booking_id) DO NOTHING`
		result, err := tx.ExecContext(ctx, db.rebind(insert),
			c.ID, c.BookingID, c.DecoratorID, c.DecoratorEmail, c.DecoratorName, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert claim: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return domain.ErrAlreadyClaimed
		}

		update := `UPDATE bookings SET decorator_state = ?, updated_at = ?, version = version + 1
                   WHERE id = ? AND decorator_state IS NULL`
		result, err = tx.ExecContext(ctx, db.rebind(update), models.DecoratorPending, at.UTC(), bookingID)
		if err != nil {
			return fmt.Errorf("failed to claim booking: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			if err := db.bookingExists(ctx, tx, bookingID); err != nil {
				return err
			}
			return domain.ErrAlreadyClaimed
		}

		claim = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// ReleaseClaim drops a pending claim held by decoratorEmail and returns the
// booking to unclaimed.
func (db *DB) ReleaseClaim(ctx context.Context, bookingID, decoratorEmail string) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			db.rebind(`DELETE FROM decorator_claims WHERE booking_id = ? AND decorator_email = ?`),
			bookingID, decoratorEmail)
		if err != nil {
			return fmt.Errorf("failed to delete claim: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			if err := db.bookingExists(ctx, tx, bookingID); err != nil {
				return err
			}
			return domain.ErrNotPending
		}

		update := `UPDATE bookings SET decorator_state = NULL, updated_at = ?, version = version + 1
                   WHERE id = ? AND decorator_state = ?`
		result, err = tx.ExecContext(ctx, db.rebind(update), time.Now().UTC(), bookingID, models.DecoratorPending)
		if err != nil {
			return fmt.Errorf("failed to release booking: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return domain.ErrNotPending
		}
		return nil
	})
}

func (db *DB) GetClaim(ctx context.Context, bookingID string) (*models.Claim, error) {
	return db.getClaim(ctx, db, bookingID)
}

func (db *DB) ListClaimsByDecorator(ctx context.Context, email string) ([]*models.Claim, error) {
	query := `SELECT id, booking_id, decorator_id, decorator_email, decorator_name, created_at
              FROM decorator_claims WHERE decorator_email = ? ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, db.rebind(query), email)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	claims := make([]*models.Claim, 0)
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// ConfirmAssignment turns the pending claim into an assignment: the booking
// gets the decorator's info and slot 0, the decorator becomes busy.
func (db *DB) ConfirmAssignment(ctx context.Context, bookingID string, at time.Time) (*models.Booking, error) {
	var booking *models.Booking
	at = at.UTC()
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		current, err := db.getBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if !current.Decorator.Pending() {
			return domain.ErrNotPending
		}

		claim, err := db.getClaim(ctx, tx, bookingID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotPending
		}
		if err != nil {
			return err
		}

		decorator, err := db.queryAccount(ctx, tx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, claim.DecoratorID)
		if err != nil {
			return fmt.Errorf("decorator %s: %w", claim.DecoratorID, err)
		}

		busy := `UPDATE accounts SET status = ?, updated_at = ? WHERE id = ? AND role = ? AND status = ?`
		result, err := tx.ExecContext(ctx, db.rebind(busy),
			models.StatusBusy, at, decorator.ID, models.RoleDecorator, models.StatusOpen)
		if err != nil {
			return fmt.Errorf("failed to mark decorator busy: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			if !decorator.IsDecorator() {
				return domain.ErrNotDecorator
			}
			return domain.ErrDecoratorBusy
		}

		assign := `UPDATE bookings SET decorator_state = ?, decorator_email = ?, decorator_name = ?, decorator_photo = ?,
                       assigned_at = ?, stage = ?, updated_at = ?, version = version + 1
                   WHERE id = ? AND decorator_state = ? AND stage = ?`
		result, err = tx.ExecContext(ctx, db.rebind(assign),
			models.DecoratorAssigned, decorator.Email, decorator.Name, decorator.PhotoURL,
			at, int(models.StageAssigned), at,
			bookingID, models.DecoratorPending, int(models.StageNone))
		if err != nil {
			return fmt.Errorf("failed to assign booking: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return domain.ErrConcurrentModification
		}

		if err := db.insertStage(ctx, tx, bookingID, models.StageAssigned, at); err != nil {
			return err
		}

		booking, err = db.getBooking(ctx, tx, bookingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// AdvanceStage moves the booking from stage from to stage to. Reaching the
// terminal stage frees the assigned decorator in the same transaction.
func (db *DB) AdvanceStage(ctx context.Context, bookingID string, from, to models.Stage, at time.Time) (*models.Booking, error) {
	if !models.CanAdvance(from, to) || to == models.StageAssigned {
		return nil, domain.ErrStageOrder
	}

	var booking *models.Booking
	at = at.UTC()
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		update := `UPDATE bookings SET stage = ?, updated_at = ?, version = version + 1
                   WHERE id = ? AND stage = ? AND decorator_state = ?`
		result, err := tx.ExecContext(ctx, db.rebind(update),
			int(to), at, bookingID, int(from), models.DecoratorAssigned)
		if err != nil {
			return fmt.Errorf("failed to advance stage: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			if err := db.bookingExists(ctx, tx, bookingID); err != nil {
				return err
			}
			return domain.ErrConcurrentModification
		}

		if err := db.insertStage(ctx, tx, bookingID, to, at); err != nil {
			return err
		}

		booking, err = db.getBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		if to.Terminal() {
			return db.releaseDecorator(ctx, tx, booking.Decorator.Email, at)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (db *DB) releaseDecorator(ctx context.Context, tx *sql.Tx, email string, at time.Time) error {
	query := `UPDATE accounts SET status = ?, updated_at = ? WHERE email = ? AND status = ?`
	result, err := tx.ExecContext(ctx, db.rebind(query), models.StatusOpen, at, email, models.StatusBusy)
	if err != nil {
		return fmt.Errorf("failed to release decorator: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		db.logger.Warn().Str("decorator", email).Msg("completed booking had no busy decorator to release")
	}
	return nil
}

func (db *DB) insertStage(ctx context.Context, tx *sql.Tx, bookingID string, stage models.Stage, at time.Time) error {
	query := `INSERT INTO booking_stages (booking_id, slot, status, reached_at) VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, db.rebind(query), bookingID, int(stage), stage.Label(), at); err != nil {
		return fmt.Errorf("failed to write stage %d: %w", int(stage), err)
	}
	return nil
}

func (db *DB) bookingExists(ctx context.Context, q querier, id string) error {
	var one int
	err := q.QueryRowContext(ctx, db.rebind(`SELECT 1 FROM bookings WHERE id = ?`), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
	}
	return err
}

func (db *DB) getBooking(ctx context.Context, q querier, id string) (*models.Booking, error) {
	bookings, err := db.listBookings(ctx, q, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
	}
	return bookings[0], nil
}

// listBookings loads bookings matching where, newest first, with their stage slots.
func (db *DB) listBookings(ctx context.Context, q querier, where string, args ...interface{}) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + where + ` ORDER BY created_at DESC, id`
	rows, err := q.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}

	bookings := make([]*models.Booking, 0)
	byID := make(map[string]*models.Booking)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
		byID[b.ID] = b
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(bookings) == 0 {
		return bookings, nil
	}

	stageQuery := `SELECT booking_id, slot, status, reached_at FROM booking_stages
                   WHERE booking_id IN (SELECT id FROM bookings WHERE ` + where + `)`
	stageRows, err := q.QueryContext(ctx, db.rebind(stageQuery), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages: %w", err)
	}
	defer stageRows.Close()

	for stageRows.Next() {
		var (
			bookingID string
			slot      int
			entry     models.StageEntry
		)
		if err := stageRows.Scan(&bookingID, &slot, &entry.Status, &entry.Time); err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		b, ok := byID[bookingID]
		if !ok || slot < 0 || slot >= models.StageSlots {
			continue
		}
		b.BookingStatus[slot] = &entry
	}
	return bookings, stageRows.Err()
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b          models.Booking
		state      sql.NullString
		assignedAt sql.NullTime
	)
	err := row.Scan(
		&b.ID, &b.Name, &b.Email, &b.Phone, &b.Location, &b.Note,
		&b.ServiceID, &b.ServiceTitle, &b.Quantity, &b.TotalPrice, &b.Payment, &b.PaymentStatus,
		&b.TransactionID, &state, &b.Decorator.Email, &b.Decorator.Name, &b.Decorator.PhotoURL,
		&assignedAt, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	b.Decorator.State = state.String
	if assignedAt.Valid {
		b.Decorator.AssignedAt = assignedAt.Time
	}
	return &b, nil
}

func (db *DB) getClaim(ctx context.Context, q querier, bookingID string) (*models.Claim, error) {
	query := `SELECT id, booking_id, decorator_id, decorator_email, decorator_name, created_at
              FROM decorator_claims WHERE booking_id = ?`
	c, err := scanClaim(q.QueryRowContext(ctx, db.rebind(query), bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("claim for booking %s: %w", bookingID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return c, nil
}

func scanClaim(row rowScanner) (*models.Claim, error) {
	var c models.Claim
	if err := row.Scan(&c.ID, &c.BookingID, &c.DecoratorID, &c.DecoratorEmail, &c.DecoratorName, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
