package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"otadmin/middleware"
	"otadmin/models"
)

type RouterConfig struct {
	DB          *gorm.DB
	CORSOrigins []string
	Auth        *AuthHandler
	Overtime    *OvertimeHandler
	Admin       *AdminHandler
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", promhttp.Handler())

	perm := middleware.RequirePermission

	router.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", cfg.Auth.Login)
		r.Post("/auth/logout", cfg.Auth.Logout)
		r.Post("/auth/register", cfg.Auth.Register)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(cfg.DB))

			r.Get("/auth/me", cfg.Auth.Me)
			r.Post("/auth/change-password", cfg.Auth.ChangePassword)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePasswordChange)

				r.Route("/ot", func(r chi.Router) {
					ot := cfg.Overtime
					r.With(perm(models.PermOTRead)).Get("/", ot.List)
					r.With(perm(models.PermOTCreate)).Post("/bulk", ot.CreateBulk)
					r.With(perm(models.PermOTStatsRead)).Get("/stats/day", ot.DayStats)
					r.With(perm(models.PermOTStatsRead)).Get("/stats/week", ot.WeekStats)
					r.With(perm(models.PermOTStatsRead)).Get("/stats/summary", ot.Summary)
					r.With(perm(models.PermOTRead)).Get("/notifications/count", ot.NotificationCount)
					r.With(perm(models.PermOTRead)).Get("/notifications/pending", ot.PendingNotifications)
					r.With(perm(models.PermOTExport)).Get("/export.csv", ot.ExportCSV)
					r.With(perm(models.PermOTUpdate)).Patch("/{id}", ot.Update)
					r.With(perm(models.PermOTApprove)).Patch("/{id}/approve", ot.Approve)
					r.With(perm(models.PermOTReject)).Patch("/{id}/reject", ot.Reject)
				})

				r.Route("/triple-ot", func(r chi.Router) {
					r.With(perm(models.PermTripleOTRead)).Get("/", cfg.Admin.ListTripleDays)
					r.With(perm(models.PermTripleOTCreate)).Post("/", cfg.Admin.CreateTripleDay)
					r.With(perm(models.PermTripleOTDelete)).Delete("/{id}", cfg.Admin.DeleteTripleDay)
				})

				r.With(perm(models.PermAuditRead)).Get("/audit", cfg.Admin.ListAudit)

				r.Route("/reasons", func(r chi.Router) {
					r.With(perm(models.PermReasonsRead)).Get("/", cfg.Admin.ListReasons)
					r.With(perm(models.PermReasonsManage)).Post("/", cfg.Admin.CreateReason)
					r.With(perm(models.PermReasonsManage)).Delete("/{id}", cfg.Admin.DeleteReason)
				})

				r.Route("/employees", func(r chi.Router) {
					r.With(perm(models.PermEmployeesRead)).Get("/", cfg.Admin.ListEmployees)
					r.With(perm(models.PermEmployeesManage)).Post("/", cfg.Admin.CreateEmployee)
					r.With(perm(models.PermEmployeesRead)).Get("/{id}", cfg.Admin.GetEmployee)
				})

				r.Group(func(r chi.Router) {
					r.Use(perm(models.PermUsersManage))
					r.Get("/users", cfg.Auth.ListUsers)
					r.Post("/users", cfg.Auth.CreateUser)
					r.Patch("/users/{id}", cfg.Auth.UpdateUser)
					r.Post("/users/{id}/reset-password", cfg.Auth.ResetPassword)
					r.Post("/invites", cfg.Auth.CreateInvite)
				})
			})
		})
	})

	return router
}
