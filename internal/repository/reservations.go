package repository

import (
	"context"
	"time"

	"github.com/megak-dev/headhunter/backend/internal/domain"
)

func (r *Repository) GetReservationByPair(hrID string, studentID string) (*domain.Reservation, error) {
	query := `
		SELECT id, hr_id, student_id, reservation_end_date, created_at
		FROM reservations WHERE hr_id = $1 AND student_id = $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	reservation := &domain.Reservation{}
	dst := []any{&reservation.ID, &reservation.HRID, &reservation.StudentID, &reservation.ReservationEndDate, &reservation.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, hrID, studentID).Scan(dst...); err != nil {
		return nil, err
	}

	return reservation, nil
}

// ListLiveReservations 返回所有还没有到期的预约，用于构建学员的全局占用视图
func (r *Repository) ListLiveReservations(now time.Time) ([]*domain.Reservation, error) {
	query := `
		SELECT id, hr_id, student_id, reservation_end_date, created_at
		FROM reservations WHERE reservation_end_date > $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]*domain.Reservation, 0)
	for rows.Next() {
		reservation := &domain.Reservation{}
		dst := []any{&reservation.ID, &reservation.HRID, &reservation.StudentID, &reservation.ReservationEndDate, &reservation.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reservations, nil
}

// 统计某个 HR 名下还没有过期的预约数量，用于预约上限的校验
func (r *Repository) CountLiveReservationsByHR(hrID string, now time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM reservations WHERE hr_id = $1 AND reservation_end_date > $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	count := 0
	if err := r.dbpool.QueryRowContext(ctx, query, hrID, now).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *Repository) CreateReservation(reservation *domain.Reservation) error {
	query := `
		INSERT INTO reservations (id, hr_id, student_id, reservation_end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{reservation.ID, reservation.HRID, reservation.StudentID, reservation.ReservationEndDate}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&reservation.CreatedAt); err != nil {
		return err
	}

	return nil
}

// 续约时保留原来的记录 id，只推后到期时间
func (r *Repository) UpdateReservationEndDate(id string, endDate time.Time) error {
	query := `
		UPDATE reservations SET reservation_end_date = $1 WHERE id = $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, endDate, id)
	if err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteReservationByPair(hrID string, studentID string) error {
	query := `
		DELETE FROM reservations WHERE hr_id = $1 AND student_id = $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, hrID, studentID)
	if err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteExpiredReservations(before time.Time) (int64, error) {
	query := `
		DELETE FROM reservations WHERE reservation_end_date < $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, before)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
