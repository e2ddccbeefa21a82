package importer

import (
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/megak-dev/headhunter/backend/internal/config"
	"github.com/megak-dev/headhunter/backend/internal/domain"
)

type fakeUserStore struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	updates int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*domain.User{}}
}

func (s *fakeUserStore) GetUserByEmail(email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	if user.Student != nil {
		profile := *user.Student
		copied.Student = &profile
	}
	return &copied, nil
}

func (s *fakeUserStore) CreateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Email] = user
	return nil
}

func (s *fakeUserStore) UpdateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Email] = user
	s.updates++
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []domain.MailMessage
	err      error
}

func (p *fakePublisher) Publish(message domain.MailMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, message)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.HeadHunter.DomainName = "http://127.0.0.1:8080"
	cfg.HeadHunter.ImportMaxRows = 300
	cfg.HeadHunter.ReservationDays = 10
	cfg.HeadHunter.MailConcurrency = 4
	return cfg
}

const importHeader = "email,courseCompletion,courseEngagement,projectDegree,teamProjectDegree,bonusProjectUrls\n"

func TestImport(t *testing.T) {
	t.Run("新学员建档并发送邀请邮件", func(t *testing.T) {
		store := newFakeUserStore()
		mail := &fakePublisher{}
		imp := NewImporter(testConfig(), store, mail)

		raw := importHeader +
			"alice@example.com,5,4,3,2,https://github.com/alice/demo\n" +
			"bob@example.com,1,2,3,4,\n"

		summary, err := imp.Import(raw)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Total)
		assert.Equal(t, 2, summary.Created)
		assert.Equal(t, 0, summary.Updated)
		assert.Equal(t, 0, summary.Rejected)
		assert.Equal(t, 2, summary.EmailsSent)

		alice, err := store.GetUserByEmail("alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleStudent, alice.Role)
		assert.True(t, alice.AccountBlocked)
		require.NotNil(t, alice.ActivationLink)
		require.NotNil(t, alice.Student)
		assert.Equal(t, int32(5), alice.Student.CourseCompletion)
		assert.Equal(t, []string{"https://github.com/alice/demo"}, alice.Student.BonusProjectUrls)
		assert.Equal(t, domain.StudentStatusAvailable, alice.Student.Status)

		require.Len(t, mail.messages, 2)
		for _, message := range mail.messages {
			assert.Equal(t, "invitation", message.Type)
		}
	})

	t.Run("评分超出范围的行被拒绝且不影响其他行", func(t *testing.T) {
		store := newFakeUserStore()
		mail := &fakePublisher{}
		imp := NewImporter(testConfig(), store, mail)

		raw := importHeader +
			"alice@example.com,5,4,3,2,\n" +
			"bad@example.com,6,4,3,2,\n" +
			"bob@example.com,1,2,3,4,\n"

		summary, err := imp.Import(raw)
		require.NoError(t, err)
		assert.Equal(t, 3, summary.Total)
		assert.Equal(t, 2, summary.Created)
		assert.Equal(t, 1, summary.Rejected)
		assert.Equal(t, 2, summary.EmailsSent)

		_, err = store.GetUserByEmail("bad@example.com")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("同一批次内重复邮箱只认第一次出现", func(t *testing.T) {
		store := newFakeUserStore()
		mail := &fakePublisher{}
		imp := NewImporter(testConfig(), store, mail)

		raw := importHeader +
			"alice@example.com,5,4,3,2,\n" +
			"alice@example.com,1,1,1,1,\n"

		summary, err := imp.Import(raw)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Total)
		assert.Equal(t, 1, summary.Created)
		assert.Equal(t, 1, summary.Rejected)

		alice, err := store.GetUserByEmail("alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, int32(5), alice.Student.CourseCompletion)
	})

	t.Run("重复导入同一份文件不产生任何变更和邮件", func(t *testing.T) {
		store := newFakeUserStore()
		mail := &fakePublisher{}
		imp := NewImporter(testConfig(), store, mail)

		raw := importHeader + "alice@example.com,5,4,3,2,https://github.com/alice/demo\n"

		_, err := imp.Import(raw)
		require.NoError(t, err)

		summary, err := imp.Import(raw)
		require.NoError(t, err)
		assert.Equal(t, 0, summary.Created)
		assert.Equal(t, 0, summary.Updated)
		assert.Equal(t, 0, summary.EmailsSent)
		assert.Equal(t, 0, store.updates)
	})

	t.Run("已有学员只在导入字段变化时覆盖且不重发邮件", func(t *testing.T) {
		store := newFakeUserStore()
		mail := &fakePublisher{}
		imp := NewImporter(testConfig(), store, mail)

		_, err := imp.Import(importHeader + "alice@example.com,5,4,3,2,\n")
		require.NoError(t, err)

		summary, err := imp.Import(importHeader + "alice@example.com,3,4,3,2,\n")
		require.NoError(t, err)
		assert.Equal(t, 0, summary.Created)
		assert.Equal(t, 1, summary.Updated)
		assert.Equal(t, 0, summary.EmailsSent)

		alice, err := store.GetUserByEmail("alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, int32(3), alice.Student.CourseCompletion)
	})

	t.Run("邮箱已被非学员账号占用时该行被拒绝", func(t *testing.T) {
		store := newFakeUserStore()
		store.users["hr@example.com"] = &domain.User{
			ID:    "hr-1",
			Email: "hr@example.com",
			Role:  domain.RoleHR,
			HR:    &domain.HRProfile{Company: "某公司", MaxReservedStudents: 5},
		}
		mail := &fakePublisher{}
		imp := NewImporter(testConfig(), store, mail)

		summary, err := imp.Import(importHeader + "hr@example.com,5,4,3,2,\n")
		require.NoError(t, err)
		assert.Equal(t, 0, summary.Created)
		assert.Equal(t, 1, summary.Rejected)
	})

	t.Run("邮件投递失败不回滚建档", func(t *testing.T) {
		store := newFakeUserStore()
		mail := &fakePublisher{err: errors.New("队列不可用")}
		imp := NewImporter(testConfig(), store, mail)

		summary, err := imp.Import(importHeader + "alice@example.com,5,4,3,2,\n")
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Created)
		assert.Equal(t, 0, summary.EmailsSent)

		_, err = store.GetUserByEmail("alice@example.com")
		assert.NoError(t, err)
	})

	t.Run("文件级别解析错误直接返回", func(t *testing.T) {
		store := newFakeUserStore()
		mail := &fakePublisher{}
		imp := NewImporter(testConfig(), store, mail)

		_, err := imp.Import("")
		assert.Error(t, err)
	})
}

func TestParseStudents(t *testing.T) {
	t.Run("超出行数上限的部分不会被读取", func(t *testing.T) {
		raw := importHeader +
			"a@example.com,1,1,1,1,\n" +
			"b@example.com,1,1,1,1,\n" +
			"c@example.com,1,1,1,1,\n"

		students, total, err := parseStudents(raw, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, students, 2)
	})

	t.Run("缺列的行按无效处理", func(t *testing.T) {
		raw := importHeader +
			"a@example.com,1,1,1\n" +
			"b@example.com,1,1,1,1,\n"

		students, total, err := parseStudents(raw, 300)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, students, 1)
		assert.Equal(t, "b@example.com", students[0].Email)
	})

	t.Run("非法邮箱的行按无效处理", func(t *testing.T) {
		raw := importHeader + "not-an-email,1,1,1,1,\n"

		students, total, err := parseStudents(raw, 300)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Empty(t, students)
	})
}
