package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"roster/internal/employee/models"
	"roster/pkg/platform/httputil"
	"roster/pkg/platform/middleware/request"
)

// BasePath is where the employee routes are mounted.
const BasePath = "/api/v2/employee"

// Service defines the employee operations used by handlers.
type Service interface {
	List(ctx context.Context) ([]models.Employee, error)
	Search(ctx context.Context, term string) ([]models.Employee, error)
	Get(ctx context.Context, id models.EmployeeID) (*models.Employee, error)
	HighestSalary(ctx context.Context) (int, error)
	TopEarnerNames(ctx context.Context) ([]string, error)
	Summary(ctx context.Context) (*models.Summary, error)
	Create(ctx context.Context, req models.CreateEmployeeRequest) (*models.Employee, error)
	Delete(ctx context.Context, id models.EmployeeID) (models.EmployeeID, error)
}

// Handler serves the employee API.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the handler routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Route(BasePath, func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.With(request.ContentTypeJSON).Post("/", h.HandleCreate)
		r.Get("/search/{searchString}", h.HandleSearch)
		r.Get("/highestSalary", h.HandleHighestSalary)
		r.Get("/topTenHighestEarningEmployeeNames", h.HandleTopEarnerNames)
		r.Get("/summary", h.HandleSummary)
		r.Get("/{id}", h.HandleGet)
		r.Delete("/{id}", h.HandleDelete)
	})
}

// HandleList handles GET /api/v2/employee.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, employees)
}

// HandleSearch handles GET /api/v2/employee/search/{searchString}.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.Search(r.Context(), pathParam(r, "searchString"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, employees)
}

// HandleGet handles GET /api/v2/employee/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	employee, err := h.service.Get(r.Context(), models.ParseEmployeeID(pathParam(r, "id")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, employee)
}

// HandleHighestSalary handles GET /api/v2/employee/highestSalary.
func (h *Handler) HandleHighestSalary(w http.ResponseWriter, r *http.Request) {
	highest, err := h.service.HighestSalary(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, highest)
}

// HandleTopEarnerNames handles GET /api/v2/employee/topTenHighestEarningEmployeeNames.
func (h *Handler) HandleTopEarnerNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.TopEarnerNames(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, names)
}

// HandleSummary handles GET /api/v2/employee/summary.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// HandleCreate handles POST /api/v2/employee.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[models.CreateEmployeeRequest](w, r, h.logger)
	if !ok {
		return
	}

	employee, err := h.service.Create(r.Context(), *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, employee)
}

// HandleDelete handles DELETE /api/v2/employee/{id}. The body is the deleted id.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := h.service.Delete(r.Context(), models.ParseEmployeeID(pathParam(r, "id")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, id.String())
}

// pathParam returns the decoded value of a chi URL parameter. chi matches on
// RawPath when the request has one, so only then is the value still escaped.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw
	}
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
