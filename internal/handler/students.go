package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/megak-dev/headhunter/backend/internal/domain"
	"github.com/megak-dev/headhunter/backend/internal/matching"
)

func (h *Handler) FindStudentsForHR(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page    int                   `json:"page" validate:"required,min=1"`
		Limit   int                   `json:"limit" validate:"required,min=1,max=100"`
		Status  string                `json:"status" validate:"required,oneof=AVAILABLE BUSY"`
		Filters domain.StudentFilters `json:"filters"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	hrID := r.Context().Value(SubCtxKey).(string)

	students, total, err := h.matching.FindStudentsForHR(hrID, req.Filters, req.Page, req.Limit, domain.StudentStatus(req.Status))
	if err != nil {
		h.logInternalServerError(r, err)
		// 搜索失败时返回空结果而不是暴露内部错误
		h.errorResponse(w, r, "获取学员列表失败")
		return
	}

	h.successResponse(w, r, "获取学员列表成功", map[string]any{
		"students": students,
		"total":    total,
	})
}

func (h *Handler) ReserveStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")
	hrID := r.Context().Value(SubCtxKey).(string)

	if err := h.matching.Reserve(studentID, hrID); err != nil {
		switch {
		case errors.Is(err, matching.ErrStudentNotFound),
			errors.Is(err, matching.ErrHRNotFound),
			errors.Is(err, matching.ErrReservationCapFull):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "预约学员成功", nil)
}

func (h *Handler) ChangeStudentStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status" validate:"required,oneof=AVAILABLE BUSY HIRED"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	studentID := chi.URLParam(r, "id")
	hrID := r.Context().Value(SubCtxKey).(string)

	if err := h.matching.ChangeStudentStatus(studentID, domain.StudentStatus(req.Status), hrID); err != nil {
		switch {
		case errors.Is(err, matching.ErrStudentNotFound),
			errors.Is(err, matching.ErrReservationNotFound):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新学员状态成功", nil)
}

func (h *Handler) CloseStudentAccount(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	if err := h.matching.CloseStudentAccount(studentID); err != nil {
		switch {
		case errors.Is(err, matching.ErrStudentNotFound):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "账号已关闭", nil)
}
