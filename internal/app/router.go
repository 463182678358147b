package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gymops-erp/gymops/internal/auth"
	"github.com/gymops-erp/gymops/internal/boardsync"
	"github.com/gymops-erp/gymops/internal/contracts"
	"github.com/gymops-erp/gymops/internal/employees"
	"github.com/gymops-erp/gymops/internal/members"
	"github.com/gymops-erp/gymops/internal/observability"
	"github.com/gymops-erp/gymops/internal/payments"
	"github.com/gymops-erp/gymops/internal/products"
	"github.com/gymops-erp/gymops/internal/sales"
	"github.com/gymops-erp/gymops/internal/schedule"
	"github.com/gymops-erp/gymops/internal/shared"
	"github.com/gymops-erp/gymops/internal/webhooks"
	"github.com/gymops-erp/gymops/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler      *auth.Handler
	MembersHandler   *members.Handler
	EmployeesHandler *employees.Handler
	ContractsHandler *contracts.Handler
	PaymentsHandler  *payments.Handler
	ProductsHandler  *products.Handler
	SalesHandler     *sales.Handler
	ScheduleHandler  *schedule.Handler
	SyncHandler      *boardsync.Handler
	WebhookHandler   *webhooks.Handler

	JobHandler *jobs.Handler
	Metrics    *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		r.Route("/members", params.MembersHandler.MountRoutes)
		r.Route("/employees", params.EmployeesHandler.MountRoutes)
		r.Route("/contracts", params.ContractsHandler.MountRoutes)
		r.Route("/payments", params.PaymentsHandler.MountRoutes)
		r.Route("/products", params.ProductsHandler.MountRoutes)
		r.Route("/sales", params.SalesHandler.MountRoutes)
		r.Route("/schedule", params.ScheduleHandler.MountRoutes)
		if params.SyncHandler != nil {
			r.Route("/sync", params.SyncHandler.MountRoutes)
		}
	})

	if params.WebhookHandler != nil {
		r.Route("/webhooks", params.WebhookHandler.MountRoutes)
	}

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
