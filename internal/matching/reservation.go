package matching

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/megak-dev/headhunter/backend/internal/domain"
)

var (
	ErrStudentNotFound     = errors.New("学员不存在")
	ErrHRNotFound          = errors.New("HR 账号不存在")
	ErrReservationCapFull  = errors.New("已达到可同时预约的学员数量上限")
	ErrReservationNotFound = errors.New("预约记录不存在")
)

// Reserve 为 HR 在学员身上登记一段临时预约。
// 同一对 (hrID, studentID) 重复预约会复用原有记录并把到期时间重置为
// 当前时间加上冷却窗口，而不是在旧的到期时间上累加。
func (s *Service) Reserve(studentID string, hrID string) error {
	student, err := s.users.GetUserByID(studentID)
	if err != nil || student.Role != domain.RoleStudent {
		return ErrStudentNotFound
	}

	hr, err := s.users.GetUserByID(hrID)
	if err != nil || hr.Role != domain.RoleHR || hr.HR == nil {
		return ErrHRNotFound
	}

	now := s.now()
	endDate := now.Add(time.Duration(s.cfg.HeadHunter.ReservationDays) * 24 * time.Hour)

	existing, err := s.reservations.GetReservationByPair(hrID, studentID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		// 只有占用新名额的预约才做上限校验，有效预约的续期不算
		if err := s.checkReservationCap(hr, now); err != nil {
			return err
		}

		return s.reservations.CreateReservation(&domain.Reservation{
			ID:                 uuid.NewString(),
			HRID:               hrID,
			StudentID:          studentID,
			ReservationEndDate: endDate,
		})
	}

	// 已到期但还没被清理的记录等同于新预约，续期前同样要过名额校验，
	// 否则 HR 可以在两次清理之间靠续期旧记录绕开上限
	if !existing.ReservationEndDate.After(now) {
		if err := s.checkReservationCap(hr, now); err != nil {
			return err
		}
	}

	return s.reservations.UpdateReservationEndDate(existing.ID, endDate)
}

func (s *Service) checkReservationCap(hr *domain.User, now time.Time) error {
	count, err := s.reservations.CountLiveReservationsByHR(hr.ID, now)
	if err != nil {
		return err
	}
	if maxReserved := int(hr.HR.MaxReservedStudents); maxReserved > 0 && count >= maxReserved {
		return ErrReservationCapFull
	}
	return nil
}

// SweepExpired 删除所有到期时间不晚于今天的预约记录（按天比较，不看具体时刻）。
// 学员的状态不在这里改动，状态流转由显式的 HR/学员操作负责。
func (s *Service) SweepExpired() (int64, error) {
	now := s.now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	return s.reservations.DeleteExpiredReservations(cutoff)
}

// ChangeStudentStatus 由 HR 调用，结束自己与学员之间的预约；
// 学员被标记为 HIRED 时同时封锁其账号
func (s *Service) ChangeStudentStatus(studentID string, status domain.StudentStatus, hrID string) error {
	student, err := s.users.GetUserByID(studentID)
	if err != nil || student.Student == nil {
		return ErrStudentNotFound
	}

	if _, err := s.reservations.GetReservationByPair(hrID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReservationNotFound
		}
		return err
	}

	if err := s.reservations.DeleteReservationByPair(hrID, studentID); err != nil {
		return err
	}

	if status == domain.StudentStatusHired {
		student.Student.Status = domain.StudentStatusHired
		student.AccountBlocked = true
	} else {
		student.Student.Status = status
	}

	if err := s.users.UpdateUser(student); err != nil {
		return fmt.Errorf("更新学员状态失败: %w", err)
	}

	return nil
}

// CloseStudentAccount 学员主动关闭账号，等价于被录用后的终态
func (s *Service) CloseStudentAccount(studentID string) error {
	student, err := s.users.GetUserByID(studentID)
	if err != nil || student.Student == nil {
		return ErrStudentNotFound
	}

	student.Student.Status = domain.StudentStatusHired
	student.AccountBlocked = true

	return s.users.UpdateUser(student)
}
