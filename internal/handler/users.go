package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/megak-dev/headhunter/backend/internal/domain"
	"github.com/megak-dev/headhunter/backend/internal/importer"
)

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email               string `json:"email" validate:"required,email"`
		FirstName           string `json:"firstName" validate:"required"`
		LastName            string `json:"lastName" validate:"required"`
		Role                string `json:"role" validate:"required,oneof=STUDENT HR ADMIN"`
		Company             string `json:"company"`
		MaxReservedStudents int32  `json:"maxReservedStudents" validate:"omitempty,min=1,max=999"`
		CourseCompletion    int32  `json:"courseCompletion" validate:"min=0,max=5"`
		CourseEngagement    int32  `json:"courseEngagement" validate:"min=0,max=5"`
		ProjectDegree       int32  `json:"projectDegree" validate:"min=0,max=5"`
		TeamProjectDegree   int32  `json:"teamProjectDegree" validate:"min=0,max=5"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 新账号在用户通过激活链接完成注册前处于封锁状态
	activationLink := uuid.NewString()
	user := &domain.User{
		ID:             uuid.NewString(),
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           domain.Role(req.Role),
		AccountBlocked: true,
		Avatar:         domain.DefaultAvatar,
		ActivationLink: &activationLink,
	}

	switch user.Role {
	case domain.RoleStudent:
		user.Student = &domain.StudentProfile{
			CourseCompletion:     req.CourseCompletion,
			CourseEngagement:     req.CourseEngagement,
			ProjectDegree:        req.ProjectDegree,
			TeamProjectDegree:    req.TeamProjectDegree,
			ExpectedTypeWork:     domain.TypeWorkIrrelevant,
			ExpectedContractType: domain.ContractNoPreference,
			Status:               domain.StudentStatusAvailable,
		}
	case domain.RoleHR:
		maxReserved := req.MaxReservedStudents
		if maxReserved == 0 {
			maxReserved = 1
		}
		user.HR = &domain.HRProfile{
			Company:             req.Company,
			MaxReservedStudents: maxReserved,
		}
	}

	if err := h.repository.CreateUser(user); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch {
			case pgErr.ConstraintName == "users_email_key":
				h.badRequest(w, r, errors.New("邮箱已存在"))
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 向新用户发送带激活链接的邀请邮件
	mailMessage := domain.MailMessage{
		Type: "invitation",
		To:   user.Email,
		Data: domain.InvitationMailData{
			Email: user.Email,
			URL:   importer.RegistrationURL(h.config, user),
		},
	}

	if err := h.mail.Publish(mailMessage); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "用户创建成功", user)
}

func (h *Handler) FindAllUsers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page    int                 `json:"page" validate:"required,min=1"`
		Limit   int                 `json:"limit" validate:"required,min=1,max=100"`
		Filters domain.AdminFilters `json:"filters"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	users, total, err := h.repository.FindAllUsers(req.Filters, req.Page, req.Limit)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取用户列表成功", map[string]any{
		"users": users,
		"total": total,
	})
}

func (h *Handler) ImportStudents(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		h.badRequest(w, r, errors.New("缺少导入文件"))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	summary, err := h.importer.Import(string(raw))
	if err != nil {
		h.errorResponse(w, r, "导入学员失败，请检查文件格式")
		return
	}

	message := fmt.Sprintf("共提交 %d 行，新建 %d 个学员，更新 %d 个学员，发送 %d 封邀请邮件",
		summary.Total, summary.Created, summary.Updated, summary.EmailsSent)
	h.successResponse(w, r, message, summary)
}

type editUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	// 留空表示不修改密码
	Password string `json:"password" validate:"omitempty,min=6"`

	// 学员资料
	ExpectedTypeWork      string  `json:"expectedTypeWork" validate:"omitempty,oneof=IRRELEVANT ON_SITE REMOTE HYBRID RELOCATION"`
	ExpectedContractType  string  `json:"expectedContractType" validate:"omitempty,oneof=NO_PREFERENCES EMPLOYMENT B2B MANDATE CONTRACT_WORK"`
	TargetWorkCity        string  `json:"targetWorkCity"`
	ExpectedSalary        float64 `json:"expectedSalary" validate:"min=0,max=9999999"`
	MonthsOfCommercialExp int32   `json:"monthsOfCommercialExp" validate:"min=0,max=999"`
	CanTakeApprenticeship bool    `json:"canTakeApprenticeship"`
	Status                string  `json:"status" validate:"omitempty,oneof=AVAILABLE BUSY HIRED"`

	// HR 资料
	Company             string `json:"company"`
	MaxReservedStudents int32  `json:"maxReservedStudents" validate:"omitempty,min=1,max=999"`
}

// applyUserEdits 把编辑请求写入用户记录；身份字段（id、role）和
// 激活/重置链接不允许通过这个入口修改
func applyUserEdits(user *domain.User, req editUserRequest) error {
	user.Email = req.Email
	user.FirstName = req.FirstName
	user.LastName = req.LastName

	if req.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user.PasswordHash = string(hashedPassword)
	}

	if user.Student != nil {
		if req.ExpectedTypeWork != "" {
			user.Student.ExpectedTypeWork = domain.TypeWork(req.ExpectedTypeWork)
		}
		if req.ExpectedContractType != "" {
			user.Student.ExpectedContractType = domain.ContractType(req.ExpectedContractType)
		}
		if req.TargetWorkCity != "" {
			user.Student.TargetWorkCity = req.TargetWorkCity
		}
		user.Student.ExpectedSalary = req.ExpectedSalary
		user.Student.MonthsOfCommercialExp = req.MonthsOfCommercialExp
		user.Student.CanTakeApprenticeship = req.CanTakeApprenticeship
		if req.Status != "" {
			user.Student.Status = domain.StudentStatus(req.Status)
		}
	}

	if user.HR != nil {
		if req.Company != "" {
			user.HR.Company = req.Company
		}
		if req.MaxReservedStudents != 0 {
			user.HR.MaxReservedStudents = req.MaxReservedStudents
		}
	}

	return nil
}

// EditUser 管理员修改用户的通用资料和角色扩展资料
func (h *Handler) EditUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	var req editUserRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := applyUserEdits(user, req); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.repository.UpdateUser(user); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "users_email_key":
			h.badRequest(w, r, errors.New("邮箱已存在"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "用户信息已更新", user)
}

func (h *Handler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取用户信息成功", user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if err := h.repository.DeleteUser(user.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除用户成功", nil)
}

func (h *Handler) BlockUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	user.AccountBlocked = true
	if err := h.repository.UpdateUser(user); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "用户已被封锁", nil)
}

func (h *Handler) ResetUserPassword(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	var req struct {
		Password string `json:"password" validate:"required,min=6"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user.PasswordHash = string(hashedPassword)
	if err := h.repository.UpdateUser(user); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "修改密码成功", nil)
}
