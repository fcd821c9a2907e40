package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultPort             = "8112"
	defaultLatencyMs        = "50"
	defaultRateLimitPercent = "0"
)

// Employee is the upstream wire shape. Every field except id carries the
// employee_ prefix the way the real upstream sends it.
type Employee struct {
	ID     string  `json:"id"`
	Name   string  `json:"employee_name"`
	Salary *int    `json:"employee_salary"`
	Age    *int    `json:"employee_age"`
	Title  *string `json:"employee_title"`
	Email  *string `json:"employee_email"`
}

type CreateRequest struct {
	Name   string `json:"name"`
	Salary int    `json:"salary"`
	Age    int    `json:"age"`
	Title  string `json:"title"`
}

type DeleteRequest struct {
	Name string `json:"name"`
}

type Envelope struct {
	Data   any    `json:"data"`
	Status string `json:"status"`
}

var (
	latencyMs        = getEnvInt("LATENCY_MS", defaultLatencyMs)
	rateLimitPercent = getEnvInt("RATE_LIMIT_PERCENT", defaultRateLimitPercent)
)

type store struct {
	mu        sync.Mutex
	employees []Employee
}

func main() {
	port := getEnv("PORT", defaultPort)
	s := &store{employees: seedEmployees()}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /api/v1/employee", throttle(http.HandlerFunc(s.handleList)))
	mux.Handle("POST /api/v1/employee", throttle(http.HandlerFunc(s.handleCreate)))
	mux.Handle("DELETE /api/v1/employee", throttle(http.HandlerFunc(s.handleDelete)))
	mux.Handle("GET /api/v1/employee/{id}", throttle(http.HandlerFunc(s.handleGet)))

	log.Printf("👥 Mock Employee Upstream starting on port %s", port)
	log.Printf("⏱️  Simulated latency: %dms", latencyMs)
	log.Printf("🚦 Rate limit percent: %d%%", rateLimitPercent)

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "employee-upstream",
		"version": "1.0.0",
	})
}

// throttle simulates latency and answers a configurable share of requests
// with 429, mirroring the real upstream's aggressive rate limiting.
func throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(latencyMs) * time.Millisecond)
		log.Printf("📥 Incoming request: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		if rateLimitPercent > 0 && rand.IntN(100) < rateLimitPercent {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("Too Many Requests"))
			log.Printf("🚦 Rate limited: %s %s", r.Method, r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *store) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	employees := append([]Employee(nil), s.employees...)
	s.mu.Unlock()

	sendData(w, employees)
}

func (s *store) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.employees {
		if e.ID == id {
			sendData(w, e)
			return
		}
	}
	sendError(w, http.StatusNotFound)
	log.Printf("🔍 Employee not found: %s", id)
}

func (s *store) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		sendError(w, http.StatusBadRequest)
		return
	}

	e := newEmployee(req.Name, req.Salary, req.Age, req.Title)
	s.mu.Lock()
	s.employees = append(s.employees, e)
	s.mu.Unlock()

	sendData(w, e)
	log.Printf("✅ Employee created: %s -> %s", e.ID, e.Name)
}

// handleDelete removes the first employee with the given name. The real
// upstream deletes by name, not id, and reports a bare boolean.
func (s *store) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.employees {
		if e.Name == req.Name {
			s.employees = append(s.employees[:i], s.employees[i+1:]...)
			sendData(w, true)
			log.Printf("🗑️  Employee deleted: %s", req.Name)
			return
		}
	}
	sendData(w, false)
}

func seedEmployees() []Employee {
	seed := []struct {
		name   string
		salary int
		age    int
		title  string
	}{
		{"Tiger Nixon", 320800, 61, "System Architect"},
		{"Garrett Winters", 170750, 63, "Accountant"},
		{"Ashton Cox", 86000, 66, "Junior Technical Author"},
		{"Cedric Kelly", 433060, 22, "Senior Javascript Developer"},
		{"Airi Satou", 162700, 33, "Accountant"},
		{"Brielle Williamson", 372000, 61, "Integration Specialist"},
		{"Herrod Chandler", 137500, 59, "Sales Assistant"},
		{"Rhona Davidson", 327900, 55, "Integration Specialist"},
		{"Colleen Hurst", 205500, 39, "Javascript Developer"},
		{"Sonya Frost", 103600, 23, "Software Engineer"},
		{"Jena Gaines", 90560, 30, "Office Manager"},
		{"Quinn Flynn", 342000, 22, "Support Lead"},
	}

	employees := make([]Employee, 0, len(seed)+1)
	for _, e := range seed {
		employees = append(employees, newEmployee(e.name, e.salary, e.age, e.title))
	}
	// One record with an unknown salary so aggregate endpoints see a gap.
	unknown := newEmployee("Haley Kennedy", 0, 43, "Senior Marketing Designer")
	unknown.Salary = nil
	return append(employees, unknown)
}

func newEmployee(name string, salary, age int, title string) Employee {
	email := strings.ToLower(strings.Join(strings.Fields(name), ".")) + "@company.com"
	return Employee{
		ID:     employeeID(name),
		Name:   name,
		Salary: &salary,
		Age:    &age,
		Title:  &title,
		Email:  &email,
	}
}

// employeeID derives a stable UUID-shaped id from the name so restarts keep
// the same ids.
func employeeID(name string) string {
	hash := sha256.Sum256([]byte(name))
	h := hex.EncodeToString(hash[:16])
	return fmt.Sprintf("%s-%s-%s-%s-%s", h[0:8], h[8:12], h[12:16], h[16:20], h[20:32])
}

func sendData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(Envelope{Data: data, Status: "Successfully processed request."})
}

func sendError(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(Envelope{Data: nil, Status: http.StatusText(code)})
	log.Printf("❌ Error response: %d", code)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key, defaultValue string) int {
	value := getEnv(key, defaultValue)
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️  Invalid integer value for %s, using default: %s", key, defaultValue)
		intValue, _ = strconv.Atoi(defaultValue)
	}
	return intValue
}
