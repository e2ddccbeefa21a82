package matching

import (
	"time"

	"github.com/megak-dev/headhunter/backend/internal/config"
	"github.com/megak-dev/headhunter/backend/internal/domain"
)

// UserDirectory 是匹配逻辑需要的用户存储能力
type UserDirectory interface {
	GetUserByID(id string) (*domain.User, error)
	UpdateUser(user *domain.User) error
	SearchStudents(filters domain.StudentFilters, page int, limit int) ([]*domain.User, error)
}

// ReservationLedger 是匹配逻辑需要的预约存储能力
type ReservationLedger interface {
	GetReservationByPair(hrID string, studentID string) (*domain.Reservation, error)
	ListLiveReservations(now time.Time) ([]*domain.Reservation, error)
	CountLiveReservationsByHR(hrID string, now time.Time) (int, error)
	CreateReservation(reservation *domain.Reservation) error
	UpdateReservationEndDate(id string, endDate time.Time) error
	DeleteReservationByPair(hrID string, studentID string) error
	DeleteExpiredReservations(before time.Time) (int64, error)
}

// Service 承载 HR 搜索学员、预约学员以及过期预约清理的逻辑
type Service struct {
	cfg          *config.Config
	users        UserDirectory
	reservations ReservationLedger

	// 测试时可以替换掉的时间源
	now func() time.Time
}

func NewService(cfg *config.Config, users UserDirectory, reservations ReservationLedger) *Service {
	return &Service{
		cfg:          cfg,
		users:        users,
		reservations: reservations,
		now:          time.Now,
	}
}
