package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/megak-dev/headhunter/backend/internal/domain"
)

func (h *Handler) CheckRegisterLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID    string `json:"id" validate:"required"`
		Token string `json:"token" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, err := h.repository.GetUserByID(req.ID)
	if err != nil || user.ActivationLink == nil || *user.ActivationLink != req.Token {
		h.errorResponse(w, r, "激活链接已失效")
		return
	}

	h.successResponse(w, r, "激活链接有效", user)
}

// ConfirmRegister 通过激活链接完成注册：填写个人资料、设置密码并解除账号封锁。
// 激活链接是一次性的，成功后立即清空。
func (h *Handler) ConfirmRegister(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	user, err := h.repository.GetUserByActivationLink(token)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "激活链接已失效")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	var req struct {
		FirstName string `json:"firstName" validate:"required"`
		LastName  string `json:"lastName" validate:"required"`
		Password  string `json:"password" validate:"required,min=6"`

		// 学员在注册时补全的求职偏好
		ExpectedTypeWork      string  `json:"expectedTypeWork" validate:"omitempty,oneof=IRRELEVANT ON_SITE REMOTE HYBRID RELOCATION"`
		ExpectedContractType  string  `json:"expectedContractType" validate:"omitempty,oneof=NO_PREFERENCES EMPLOYMENT B2B MANDATE CONTRACT_WORK"`
		TargetWorkCity        string  `json:"targetWorkCity"`
		ExpectedSalary        float64 `json:"expectedSalary" validate:"min=0,max=9999999"`
		MonthsOfCommercialExp int32   `json:"monthsOfCommercialExp" validate:"min=0,max=999"`
		CanTakeApprenticeship bool    `json:"canTakeApprenticeship"`

		// HR 在注册时补全的公司信息
		Company string `json:"company"`
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

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.PasswordHash = string(hashedPassword)

	if user.Student != nil {
		if req.ExpectedTypeWork != "" {
			user.Student.ExpectedTypeWork = domain.TypeWork(req.ExpectedTypeWork)
		}
		if req.ExpectedContractType != "" {
			user.Student.ExpectedContractType = domain.ContractType(req.ExpectedContractType)
		}
		user.Student.TargetWorkCity = req.TargetWorkCity
		user.Student.ExpectedSalary = req.ExpectedSalary
		user.Student.MonthsOfCommercialExp = req.MonthsOfCommercialExp
		user.Student.CanTakeApprenticeship = req.CanTakeApprenticeship
	}
	if user.HR != nil && req.Company != "" {
		user.HR.Company = req.Company
	}

	// 消费激活链接并解除封锁
	user.ActivationLink = nil
	user.AccountBlocked = false

	if err := h.repository.UpdateUser(user); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "注册失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "注册成功", user)
}
