package matching

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/megak-dev/headhunter/backend/internal/config"
	"github.com/megak-dev/headhunter/backend/internal/domain"
)

type fakeUserDirectory struct {
	users    map[string]*domain.User
	searched []*domain.User
}

func newFakeUserDirectory() *fakeUserDirectory {
	return &fakeUserDirectory{users: map[string]*domain.User{}}
}

func (d *fakeUserDirectory) GetUserByID(id string) (*domain.User, error) {
	user, ok := d.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (d *fakeUserDirectory) UpdateUser(user *domain.User) error {
	d.users[user.ID] = user
	return nil
}

func (d *fakeUserDirectory) SearchStudents(filters domain.StudentFilters, page int, limit int) ([]*domain.User, error) {
	return d.searched, nil
}

type fakeReservationLedger struct {
	reservations map[string]*domain.Reservation // key: hrID + "/" + studentID
}

func newFakeReservationLedger() *fakeReservationLedger {
	return &fakeReservationLedger{reservations: map[string]*domain.Reservation{}}
}

func pairKey(hrID string, studentID string) string {
	return hrID + "/" + studentID
}

func (l *fakeReservationLedger) GetReservationByPair(hrID string, studentID string) (*domain.Reservation, error) {
	reservation, ok := l.reservations[pairKey(hrID, studentID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return reservation, nil
}

func (l *fakeReservationLedger) ListLiveReservations(now time.Time) ([]*domain.Reservation, error) {
	list := []*domain.Reservation{}
	for _, reservation := range l.reservations {
		if reservation.ReservationEndDate.After(now) {
			list = append(list, reservation)
		}
	}
	return list, nil
}

func (l *fakeReservationLedger) CountLiveReservationsByHR(hrID string, now time.Time) (int, error) {
	count := 0
	for _, reservation := range l.reservations {
		if reservation.HRID == hrID && reservation.ReservationEndDate.After(now) {
			count++
		}
	}
	return count, nil
}

func (l *fakeReservationLedger) CreateReservation(reservation *domain.Reservation) error {
	l.reservations[pairKey(reservation.HRID, reservation.StudentID)] = reservation
	return nil
}

func (l *fakeReservationLedger) UpdateReservationEndDate(id string, endDate time.Time) error {
	for _, reservation := range l.reservations {
		if reservation.ID == id {
			reservation.ReservationEndDate = endDate
			return nil
		}
	}
	return sql.ErrNoRows
}

func (l *fakeReservationLedger) DeleteReservationByPair(hrID string, studentID string) error {
	delete(l.reservations, pairKey(hrID, studentID))
	return nil
}

func (l *fakeReservationLedger) DeleteExpiredReservations(before time.Time) (int64, error) {
	deleted := int64(0)
	for key, reservation := range l.reservations {
		if reservation.ReservationEndDate.Before(before) {
			delete(l.reservations, key)
			deleted++
		}
	}
	return deleted, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.HeadHunter.ReservationDays = 10
	return cfg
}

func newStudent(id string, status domain.StudentStatus) *domain.User {
	return &domain.User{
		ID:    id,
		Email: id + "@example.com",
		Role:  domain.RoleStudent,
		Student: &domain.StudentProfile{
			Status: status,
		},
	}
}

func newHR(id string, maxReserved int32) *domain.User {
	return &domain.User{
		ID:    id,
		Email: id + "@example.com",
		Role:  domain.RoleHR,
		HR: &domain.HRProfile{
			Company:             "某公司",
			MaxReservedStudents: maxReserved,
		},
	}
}

func newTestService(users *fakeUserDirectory, reservations *fakeReservationLedger, now time.Time) *Service {
	service := NewService(testConfig(), users, reservations)
	service.now = func() time.Time { return now }
	return service
}

func TestReserve(t *testing.T) {
	baseTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("首次预约创建记录并把到期时间设为十天后", func(t *testing.T) {
		users := newFakeUserDirectory()
		users.users["s1"] = newStudent("s1", domain.StudentStatusAvailable)
		users.users["hr1"] = newHR("hr1", 5)
		reservations := newFakeReservationLedger()
		service := newTestService(users, reservations, baseTime)

		require.NoError(t, service.Reserve("s1", "hr1"))

		reservation, err := reservations.GetReservationByPair("hr1", "s1")
		require.NoError(t, err)
		assert.Equal(t, baseTime.Add(10*24*time.Hour), reservation.ReservationEndDate)
	})

	t.Run("重复预约复用原记录并重置到期时间", func(t *testing.T) {
		users := newFakeUserDirectory()
		users.users["s1"] = newStudent("s1", domain.StudentStatusAvailable)
		users.users["hr1"] = newHR("hr1", 5)
		reservations := newFakeReservationLedger()

		service := newTestService(users, reservations, baseTime)
		require.NoError(t, service.Reserve("s1", "hr1"))
		first, err := reservations.GetReservationByPair("hr1", "s1")
		require.NoError(t, err)

		// 五天后再次预约，到期时间应从当下重新起算而不是累加
		service.now = func() time.Time { return baseTime.Add(5 * 24 * time.Hour) }
		require.NoError(t, service.Reserve("s1", "hr1"))

		assert.Len(t, reservations.reservations, 1)
		second, err := reservations.GetReservationByPair("hr1", "s1")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, baseTime.Add(15*24*time.Hour), second.ReservationEndDate)
	})

	t.Run("达到预约名额上限后新预约被拒绝但续约不受影响", func(t *testing.T) {
		users := newFakeUserDirectory()
		users.users["s1"] = newStudent("s1", domain.StudentStatusAvailable)
		users.users["s2"] = newStudent("s2", domain.StudentStatusAvailable)
		users.users["hr1"] = newHR("hr1", 1)
		reservations := newFakeReservationLedger()
		service := newTestService(users, reservations, baseTime)

		require.NoError(t, service.Reserve("s1", "hr1"))
		assert.ErrorIs(t, service.Reserve("s2", "hr1"), ErrReservationCapFull)
		assert.NoError(t, service.Reserve("s1", "hr1"))
	})

	t.Run("续期已过期未清理的预约同样要过名额校验", func(t *testing.T) {
		users := newFakeUserDirectory()
		users.users["s1"] = newStudent("s1", domain.StudentStatusAvailable)
		users.users["s2"] = newStudent("s2", domain.StudentStatusAvailable)
		users.users["hr1"] = newHR("hr1", 1)
		reservations := newFakeReservationLedger()
		service := newTestService(users, reservations, baseTime)

		require.NoError(t, service.Reserve("s1", "hr1"))

		// 第十一天，s1 的预约已过期但清理任务还没跑，名额应该重新可用
		service.now = func() time.Time { return baseTime.Add(11 * 24 * time.Hour) }
		require.NoError(t, service.Reserve("s2", "hr1"))

		// 此时名额又被 s2 占满，续期 s1 的过期记录等同于新预约，应被拒绝
		assert.ErrorIs(t, service.Reserve("s1", "hr1"), ErrReservationCapFull)
	})

	t.Run("名额未满时过期记录的续期复用原记录", func(t *testing.T) {
		users := newFakeUserDirectory()
		users.users["s1"] = newStudent("s1", domain.StudentStatusAvailable)
		users.users["hr1"] = newHR("hr1", 1)
		reservations := newFakeReservationLedger()
		service := newTestService(users, reservations, baseTime)

		require.NoError(t, service.Reserve("s1", "hr1"))
		first, err := reservations.GetReservationByPair("hr1", "s1")
		require.NoError(t, err)

		service.now = func() time.Time { return baseTime.Add(11 * 24 * time.Hour) }
		require.NoError(t, service.Reserve("s1", "hr1"))

		second, err := reservations.GetReservationByPair("hr1", "s1")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, baseTime.Add(21*24*time.Hour), second.ReservationEndDate)
	})

	t.Run("不同 HR 可以同时预约同一个学员", func(t *testing.T) {
		users := newFakeUserDirectory()
		users.users["s1"] = newStudent("s1", domain.StudentStatusAvailable)
		users.users["hr1"] = newHR("hr1", 5)
		users.users["hr2"] = newHR("hr2", 5)
		reservations := newFakeReservationLedger()
		service := newTestService(users, reservations, baseTime)

		require.NoError(t, service.Reserve("s1", "hr1"))
		require.NoError(t, service.Reserve("s1", "hr2"))
		assert.Len(t, reservations.reservations, 2)
	})

	t.Run("学员或 HR 不存在时返回对应错误", func(t *testing.T) {
		users := newFakeUserDirectory()
		users.users["hr1"] = newHR("hr1", 5)
		reservations := newFakeReservationLedger()
		service := newTestService(users, reservations, baseTime)

		assert.ErrorIs(t, service.Reserve("ghost", "hr1"), ErrStudentNotFound)

		users.users["s1"] = newStudent("s1", domain.StudentStatusAvailable)
		assert.ErrorIs(t, service.Reserve("s1", "ghost"), ErrHRNotFound)
		// 学员账号不能顶替 HR 的位置
		assert.ErrorIs(t, service.Reserve("s1", "s1"), ErrHRNotFound)
	})
}

func TestSweepExpired(t *testing.T) {
	baseTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("按天清理过期预约且不碰未到期的记录", func(t *testing.T) {
		users := newFakeUserDirectory()
		users.users["s1"] = newStudent("s1", domain.StudentStatusAvailable)
		users.users["s2"] = newStudent("s2", domain.StudentStatusAvailable)
		users.users["hr1"] = newHR("hr1", 5)
		reservations := newFakeReservationLedger()
		service := newTestService(users, reservations, baseTime)

		require.NoError(t, service.Reserve("s1", "hr1"))
		require.NoError(t, service.Reserve("s2", "hr1"))

		// 第十一天凌晨执行清理，两条预约都应按天过期
		service.now = func() time.Time { return baseTime.Add(11 * 24 * time.Hour) }
		deleted, err := service.SweepExpired()
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)
		assert.Empty(t, reservations.reservations)
	})

	t.Run("还未到期的预约保持原状", func(t *testing.T) {
		users := newFakeUserDirectory()
		users.users["s1"] = newStudent("s1", domain.StudentStatusAvailable)
		users.users["hr1"] = newHR("hr1", 5)
		reservations := newFakeReservationLedger()
		service := newTestService(users, reservations, baseTime)

		require.NoError(t, service.Reserve("s1", "hr1"))

		service.now = func() time.Time { return baseTime.Add(5 * 24 * time.Hour) }
		deleted, err := service.SweepExpired()
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)
		assert.Len(t, reservations.reservations, 1)
	})

	t.Run("清理不改动学员状态", func(t *testing.T) {
		users := newFakeUserDirectory()
		users.users["s1"] = newStudent("s1", domain.StudentStatusBusy)
		users.users["hr1"] = newHR("hr1", 5)
		reservations := newFakeReservationLedger()
		service := newTestService(users, reservations, baseTime)

		require.NoError(t, service.Reserve("s1", "hr1"))
		service.now = func() time.Time { return baseTime.Add(30 * 24 * time.Hour) }
		_, err := service.SweepExpired()
		require.NoError(t, err)

		assert.Equal(t, domain.StudentStatusBusy, users.users["s1"].Student.Status)
	})
}

func TestChangeStudentStatus(t *testing.T) {
	baseTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("标记为已录用时删除预约并封锁账号", func(t *testing.T) {
		users := newFakeUserDirectory()
		users.users["s1"] = newStudent("s1", domain.StudentStatusBusy)
		users.users["hr1"] = newHR("hr1", 5)
		reservations := newFakeReservationLedger()
		service := newTestService(users, reservations, baseTime)

		require.NoError(t, service.Reserve("s1", "hr1"))
		require.NoError(t, service.ChangeStudentStatus("s1", domain.StudentStatusHired, "hr1"))

		assert.Empty(t, reservations.reservations)
		assert.Equal(t, domain.StudentStatusHired, users.users["s1"].Student.Status)
		assert.True(t, users.users["s1"].AccountBlocked)
	})

	t.Run("释放学员时只删除预约不封锁账号", func(t *testing.T) {
		users := newFakeUserDirectory()
		users.users["s1"] = newStudent("s1", domain.StudentStatusBusy)
		users.users["hr1"] = newHR("hr1", 5)
		reservations := newFakeReservationLedger()
		service := newTestService(users, reservations, baseTime)

		require.NoError(t, service.Reserve("s1", "hr1"))
		require.NoError(t, service.ChangeStudentStatus("s1", domain.StudentStatusAvailable, "hr1"))

		assert.Empty(t, reservations.reservations)
		assert.Equal(t, domain.StudentStatusAvailable, users.users["s1"].Student.Status)
		assert.False(t, users.users["s1"].AccountBlocked)
	})

	t.Run("没有对应预约时返回错误", func(t *testing.T) {
		users := newFakeUserDirectory()
		users.users["s1"] = newStudent("s1", domain.StudentStatusAvailable)
		users.users["hr1"] = newHR("hr1", 5)
		reservations := newFakeReservationLedger()
		service := newTestService(users, reservations, baseTime)

		err := service.ChangeStudentStatus("s1", domain.StudentStatusHired, "hr1")
		assert.ErrorIs(t, err, ErrReservationNotFound)
	})
}

func TestCloseStudentAccount(t *testing.T) {
	t.Run("学员关闭账号后进入终态并被封锁", func(t *testing.T) {
		users := newFakeUserDirectory()
		users.users["s1"] = newStudent("s1", domain.StudentStatusAvailable)
		service := newTestService(users, newFakeReservationLedger(), time.Now())

		require.NoError(t, service.CloseStudentAccount("s1"))
		assert.Equal(t, domain.StudentStatusHired, users.users["s1"].Student.Status)
		assert.True(t, users.users["s1"].AccountBlocked)
	})

	t.Run("非学员账号不能被关闭", func(t *testing.T) {
		users := newFakeUserDirectory()
		users.users["hr1"] = newHR("hr1", 5)
		service := newTestService(users, newFakeReservationLedger(), time.Now())

		assert.ErrorIs(t, service.CloseStudentAccount("hr1"), ErrStudentNotFound)
	})
}

func TestFindStudentsForHR(t *testing.T) {
	baseTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	setup := func() (*fakeUserDirectory, *fakeReservationLedger, *Service) {
		users := newFakeUserDirectory()
		users.users["hr1"] = newHR("hr1", 5)
		for _, id := range []string{"s1", "s2", "s3"} {
			users.users[id] = newStudent(id, domain.StudentStatusAvailable)
		}
		users.searched = []*domain.User{users.users["s1"], users.users["s2"], users.users["s3"]}
		reservations := newFakeReservationLedger()
		service := newTestService(users, reservations, baseTime)
		return users, reservations, service
	}

	t.Run("可约视图只包含该 HR 未预约的学员", func(t *testing.T) {
		_, _, service := setup()
		require.NoError(t, service.Reserve("s2", "hr1"))

		rows, total, err := service.FindStudentsForHR("hr1", domain.StudentFilters{}, 1, 10, domain.StudentStatusAvailable)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		for _, row := range rows {
			assert.NotEqual(t, "s2", row.ID)
			assert.Nil(t, row.ReservationEndDate)
		}
	})

	t.Run("已约视图只包含该 HR 自己预约的学员并带到期时间", func(t *testing.T) {
		_, _, service := setup()
		require.NoError(t, service.Reserve("s2", "hr1"))

		rows, total, err := service.FindStudentsForHR("hr1", domain.StudentFilters{}, 1, 10, domain.StudentStatusBusy)
		require.NoError(t, err)
		require.Equal(t, 1, total)
		assert.Equal(t, "s2", rows[0].ID)
		require.NotNil(t, rows[0].ReservationEndDate)
		assert.Equal(t, baseTime.Add(10*24*time.Hour), *rows[0].ReservationEndDate)
	})

	t.Run("被其他 HR 预约的学员也不出现在可约视图里", func(t *testing.T) {
		users, _, service := setup()
		users.users["hr2"] = newHR("hr2", 5)
		require.NoError(t, service.Reserve("s2", "hr2"))

		rows, total, err := service.FindStudentsForHR("hr1", domain.StudentFilters{}, 1, 10, domain.StudentStatusAvailable)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		for _, row := range rows {
			assert.NotEqual(t, "s2", row.ID)
		}

		// 但该学员不在 hr1 的已约视图里，已约视图只看自己的预约
		rows, _, err = service.FindStudentsForHR("hr1", domain.StudentFilters{}, 1, 10, domain.StudentStatusBusy)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("预约到期清理后学员重新回到所有 HR 的可约视图", func(t *testing.T) {
		users, _, service := setup()
		users.users["hr2"] = newHR("hr2", 5)
		require.NoError(t, service.Reserve("s2", "hr1"))

		// 第十一天，清理后 hr2 重新能看到 s2
		service.now = func() time.Time { return baseTime.Add(11 * 24 * time.Hour) }
		_, err := service.SweepExpired()
		require.NoError(t, err)

		rows, total, err := service.FindStudentsForHR("hr2", domain.StudentFilters{}, 1, 10, domain.StudentStatusAvailable)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, rows, 3)
	})

	t.Run("已录用的学员在任何视图里都不出现", func(t *testing.T) {
		users, _, service := setup()
		users.users["s3"].Student.Status = domain.StudentStatusHired

		rows, _, err := service.FindStudentsForHR("hr1", domain.StudentFilters{}, 1, 10, domain.StudentStatusAvailable)
		require.NoError(t, err)
		for _, row := range rows {
			assert.NotEqual(t, "s3", row.ID)
		}
	})

	t.Run("状态轴取值非法时返回空集", func(t *testing.T) {
		_, _, service := setup()

		rows, total, err := service.FindStudentsForHR("hr1", domain.StudentFilters{}, 1, 10, domain.StudentStatusHired)
		require.NoError(t, err)
		assert.Empty(t, rows)
		assert.Equal(t, 0, total)
	})
}
