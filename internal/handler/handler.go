package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/redis/go-redis/v9"

	"github.com/megak-dev/headhunter/backend/internal/config"
	"github.com/megak-dev/headhunter/backend/internal/domain"
	"github.com/megak-dev/headhunter/backend/internal/importer"
	"github.com/megak-dev/headhunter/backend/internal/matching"
	"github.com/megak-dev/headhunter/backend/internal/repository"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mail        importer.MailPublisher
	redisClient *redis.Client
	importer    *importer.Importer
	matching    *matching.Service

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mail importer.MailPublisher, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mail:        mail,
		redisClient: rdb,
		importer:    importer.NewImporter(cfg, repo, mail),
		matching:    matching.NewService(cfg, repo, repo),

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password", h.ResetPassword)
	})

	// 注册确认不需要登录，凭激活链接即可调用
	h.Mux.Post("/users/check-register-link", h.CheckRegisterLink)
	h.Mux.Patch("/users/confirm-register/{token}", h.ConfirmRegister)

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/search", h.FindAllUsers)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/import", h.ImportStudents)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleHR})).Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.EditUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/block", h.BlockUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/password", h.ResetUserPassword)
			})
		})

		r.Route("/students", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleHR})).Post("/search", h.FindStudentsForHR)
			r.Route("/{id}", func(r chi.Router) {
				r.With(h.RequiredRole([]domain.Role{domain.RoleHR})).Post("/reserve", h.ReserveStudent)
				r.With(h.RequiredRole([]domain.Role{domain.RoleHR})).Patch("/status", h.ChangeStudentStatus)
				r.With(h.RequiredRole([]domain.Role{domain.RoleStudent})).With(h.requireOwnID).Patch("/close", h.CloseStudentAccount)
			})
		})
	})
}
