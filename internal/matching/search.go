package matching

import (
	"time"

	"github.com/megak-dev/headhunter/backend/internal/domain"
)

// StudentRow 是返回给 HR 的学员视图，
// ReservationEndDate 只是该 HR 自己预约的投影，不会写回存储
type StudentRow struct {
	*domain.User
	ReservationEndDate *time.Time `json:"reservationEndDate"`
}

// FindStudentsForHR 先按筛选条件在存储层查出一页学员，
// 再根据预约集合在内存中划分可约/已约两种视图：
// 已约视图只包含该 HR 自己预约的学员，可约视图排除被任何 HR 占用的学员。
// 注意分页发生在划分之前，所以返回的一页可能少于 limit 条。
func (s *Service) FindStudentsForHR(hrID string, filters domain.StudentFilters, page int, limit int, status domain.StudentStatus) ([]*StudentRow, int, error) {
	claims, err := s.reservations.ListLiveReservations(s.now())
	if err != nil {
		return nil, 0, err
	}

	// 该 HR 自己的预约到期时间，以及所有 HR 的占用集合
	ownEndDates := map[string]time.Time{}
	claimedByAnyone := map[string]bool{}
	for _, claim := range claims {
		claimedByAnyone[claim.StudentID] = true
		if claim.HRID == hrID {
			ownEndDates[claim.StudentID] = claim.ReservationEndDate
		}
	}

	students, err := s.users.SearchStudents(filters, page, limit)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]*StudentRow, 0, len(students))
	for _, student := range students {
		if student.Student == nil || student.Student.Status == domain.StudentStatusHired {
			continue
		}

		_, claimedByMe := ownEndDates[student.ID]
		// 状态轴只支持已约/可约两种查询方式，其余取值一律返回空集
		switch status {
		case domain.StudentStatusBusy:
			if !claimedByMe {
				continue
			}
		case domain.StudentStatusAvailable:
			if claimedByAnyone[student.ID] {
				continue
			}
		default:
			continue
		}

		row := &StudentRow{User: student}
		if endDate, ok := ownEndDates[student.ID]; ok {
			row.ReservationEndDate = &endDate
		}
		rows = append(rows, row)
	}

	return rows, len(rows), nil
}
