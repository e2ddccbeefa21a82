package importer

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/megak-dev/headhunter/backend/internal/config"
	"github.com/megak-dev/headhunter/backend/internal/domain"
)

type UserStore interface {
	GetUserByEmail(email string) (*domain.User, error)
	CreateUser(user *domain.User) error
	UpdateUser(user *domain.User) error
}

type MailPublisher interface {
	Publish(message domain.MailMessage) error
}

type Importer struct {
	cfg   *config.Config
	store UserStore
	mail  MailPublisher
}

func NewImporter(cfg *config.Config, store UserStore, mail MailPublisher) *Importer {
	return &Importer{
		cfg:   cfg,
		store: store,
		mail:  mail,
	}
}

type Summary struct {
	Total      int `json:"total"`
	Created    int `json:"created"`
	Updated    int `json:"updated"`
	Rejected   int `json:"rejected"`
	EmailsSent int `json:"emailsSent"`
}

// Import 解析一份学员名单并与数据库对账：没见过的邮箱创建新学员并发送邀请邮件，
// 已存在的学员只在导入字段有变化时覆盖保存。邮件发送失败不会回滚任何记录，
// 调用方可以通过 EmailsSent 和 Created 的差值发现发送失败的情况。
func (imp *Importer) Import(raw string) (*Summary, error) {
	students, total, err := parseStudents(raw, imp.cfg.HeadHunter.ImportMaxRows)
	if err != nil {
		return nil, fmt.Errorf("解析导入文件失败: %w", err)
	}

	summary := &Summary{
		Total:    total,
		Rejected: total - len(students),
	}

	mu := sync.Mutex{}
	invitees := make([]*domain.User, 0)

	// 每一行的对账相互独立，单行失败只计入 Rejected，不影响其他行
	group := errgroup.Group{}
	group.SetLimit(imp.cfg.HeadHunter.MailConcurrency)

	for _, student := range students {
		group.Go(func() error {
			outcome, created, err := imp.reconcile(student)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				slog.Error("导入单行学员失败", "email", student.Email, "error", err)
				summary.Rejected++
			case outcome == outcomeCreated:
				summary.Created++
				invitees = append(invitees, created)
			case outcome == outcomeUpdated:
				summary.Updated++
			}
			return nil
		})
	}
	_ = group.Wait()

	// 全部对账完成后再并发发送邀请邮件，失败的收件人只是不计入 EmailsSent
	summary.EmailsSent = imp.sendInvitations(invitees)

	return summary, nil
}

type reconcileOutcome int

const (
	outcomeUnchanged reconcileOutcome = iota
	outcomeCreated
	outcomeUpdated
)

// reconcile 对单行记录做出建档或覆盖的决定；已有记录且导入字段没有变化时什么都不做
func (imp *Importer) reconcile(student importedStudent) (reconcileOutcome, *domain.User, error) {
	found, err := imp.store.GetUserByEmail(student.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			created, err := imp.createStudent(student)
			if err != nil {
				return outcomeUnchanged, nil, err
			}
			return outcomeCreated, created, nil
		}
		return outcomeUnchanged, nil, err
	}

	if found.Student == nil {
		return outcomeUnchanged, nil, fmt.Errorf("邮箱 %s 已被非学员账号占用", student.Email)
	}

	if !applyImportedFields(found.Student, student) {
		return outcomeUnchanged, nil, nil
	}

	if err := imp.store.UpdateUser(found); err != nil {
		return outcomeUnchanged, nil, err
	}

	return outcomeUpdated, nil, nil
}

func (imp *Importer) createStudent(student importedStudent) (*domain.User, error) {
	activationLink := uuid.NewString()
	user := &domain.User{
		ID:             uuid.NewString(),
		Email:          student.Email,
		Role:           domain.RoleStudent,
		AccountBlocked: true,
		Avatar:         domain.DefaultAvatar,
		ActivationLink: &activationLink,
		Student: &domain.StudentProfile{
			CourseCompletion:     student.CourseCompletion,
			CourseEngagement:     student.CourseEngagement,
			ProjectDegree:        student.ProjectDegree,
			TeamProjectDegree:    student.TeamProjectDegree,
			BonusProjectUrls:     student.BonusProjectUrls,
			ExpectedTypeWork:     domain.TypeWorkIrrelevant,
			ExpectedContractType: domain.ContractNoPreference,
			Status:               domain.StudentStatusAvailable,
		},
	}

	if err := imp.store.CreateUser(user); err != nil {
		return nil, err
	}

	return user, nil
}

// applyImportedFields 逐字段比较导入行和已有记录中可导入的五个字段，
// 有差异才覆盖并返回 true
func applyImportedFields(profile *domain.StudentProfile, student importedStudent) bool {
	changed := false

	if profile.CourseCompletion != student.CourseCompletion {
		profile.CourseCompletion = student.CourseCompletion
		changed = true
	}
	if profile.CourseEngagement != student.CourseEngagement {
		profile.CourseEngagement = student.CourseEngagement
		changed = true
	}
	if profile.ProjectDegree != student.ProjectDegree {
		profile.ProjectDegree = student.ProjectDegree
		changed = true
	}
	if profile.TeamProjectDegree != student.TeamProjectDegree {
		profile.TeamProjectDegree = student.TeamProjectDegree
		changed = true
	}
	if !slices.Equal(profile.BonusProjectUrls, student.BonusProjectUrls) {
		profile.BonusProjectUrls = student.BonusProjectUrls
		changed = true
	}

	return changed
}

func (imp *Importer) sendInvitations(invitees []*domain.User) int {
	sent := 0
	mu := sync.Mutex{}

	group := errgroup.Group{}
	group.SetLimit(imp.cfg.HeadHunter.MailConcurrency)

	for _, invitee := range invitees {
		group.Go(func() error {
			message := domain.MailMessage{
				Type: "invitation",
				To:   invitee.Email,
				Data: domain.InvitationMailData{
					Email: invitee.Email,
					URL:   RegistrationURL(imp.cfg, invitee),
				},
			}
			if err := imp.mail.Publish(message); err != nil {
				slog.Error("投递邀请邮件失败", "email", invitee.Email, "error", err)
				return nil
			}
			mu.Lock()
			sent++
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	return sent
}

// RegistrationURL 拼接邀请邮件里的注册确认链接
func RegistrationURL(cfg *config.Config, user *domain.User) string {
	token := ""
	if user.ActivationLink != nil {
		token = *user.ActivationLink
	}
	return fmt.Sprintf("%s/confirm-registration?id=%s&token=%s", cfg.HeadHunter.DomainName, user.ID, token)
}
