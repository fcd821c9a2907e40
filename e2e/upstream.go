package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// FakeEmployee is a seeded upstream record. Nil pointers are sent as null.
type FakeEmployee struct {
	ID     string
	Name   string
	Salary *int
	Age    *int
	Title  *string
}

// FakeUpstream is a scripted stand-in for the employee upstream. It speaks
// the upstream's envelope format and can throttle a fixed number of requests.
type FakeUpstream struct {
	mu            sync.Mutex
	employees     []FakeEmployee
	rateLimitNext int
	requests      []string
	deletedNames  []string

	server *httptest.Server
}

func NewFakeUpstream() *FakeUpstream {
	f := &FakeUpstream{}

	r := chi.NewRouter()
	r.Use(f.record)
	r.Route("/api/v1/employee", func(r chi.Router) {
		r.Get("/", f.list)
		r.Post("/", f.create)
		r.Delete("/", f.delete)
		r.Get("/{id}", f.get)
	})
	f.server = httptest.NewServer(r)
	return f
}

func (f *FakeUpstream) URL() string { return f.server.URL }

func (f *FakeUpstream) Close() { f.server.Close() }

func (f *FakeUpstream) Seed(employees []FakeEmployee) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.employees = append(f.employees, employees...)
}

// RateLimitNext answers the next n requests with 429.
func (f *FakeUpstream) RateLimitNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rateLimitNext = n
}

// Requests returns "METHOD path" for every request received, throttled ones included.
func (f *FakeUpstream) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *FakeUpstream) DeletedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletedNames...)
}

func (f *FakeUpstream) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		throttled := f.rateLimitNext > 0
		if throttled {
			f.rateLimitNext--
		}
		f.mu.Unlock()

		if throttled {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeUpstream) list(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	records := make([]map[string]any, 0, len(f.employees))
	for _, e := range f.employees {
		records = append(records, e.wire())
	}
	f.mu.Unlock()
	writeEnvelope(w, http.StatusOK, records)
}

func (f *FakeUpstream) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.employees {
		if e.ID == id {
			writeEnvelope(w, http.StatusOK, e.wire())
			return
		}
	}
	http.Error(w, "Not Found", http.StatusNotFound)
}

func (f *FakeUpstream) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name   string `json:"name"`
		Salary int    `json:"salary"`
		Age    int    `json:"age"`
		Title  string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	e := FakeEmployee{
		ID:     uuid.NewString(),
		Name:   body.Name,
		Salary: &body.Salary,
		Age:    &body.Age,
		Title:  &body.Title,
	}
	f.mu.Lock()
	f.employees = append(f.employees, e)
	f.mu.Unlock()
	writeEnvelope(w, http.StatusOK, e.wire())
}

func (f *FakeUpstream) delete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedNames = append(f.deletedNames, body.Name)
	for i, e := range f.employees {
		if e.Name == body.Name {
			f.employees = append(f.employees[:i], f.employees[i+1:]...)
			writeEnvelope(w, http.StatusOK, true)
			return
		}
	}
	writeEnvelope(w, http.StatusOK, false)
}

func (e FakeEmployee) wire() map[string]any {
	m := map[string]any{
		"id":              e.ID,
		"employee_name":   e.Name,
		"employee_salary": e.Salary,
		"employee_age":    e.Age,
		"employee_title":  e.Title,
	}
	if e.Name != "" {
		m["employee_email"] = strings.ToLower(strings.ReplaceAll(e.Name, " ", ".")) + "@company.com"
	}
	return m
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":   data,
		"status": "Successfully processed request.",
	})
}
