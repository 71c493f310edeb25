// Package bitbuckettest provides an in-memory fake of the repository
// variables and environments endpoints for tests.
package bitbuckettest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// Credentials accepted by the fake server.
const (
	Username = "bot"
	Password = "app-password"
)

// Variable is a stored pipeline variable.
type Variable struct {
	UUID    string
	Key     string
	Value   string
	Secured bool
}

// Environment is a stored deployment environment.
type Environment struct {
	UUID string
	Name string
	Type string
}

// Request is a request observed by the server.
type Request struct {
	Method string
	Path   string
	Query  string
	// Body is the raw request body, empty for GET and DELETE.
	Body string
}

type failure struct {
	method string
	status int
	body   string
}

// Server is a fake API for a single repository.
type Server struct {
	*httptest.Server

	// PageSize caps the page length the server honours.
	PageSize int

	mu           sync.Mutex
	variables    []Variable
	environments []Environment
	requests     []Request
	failures     []failure
}

// NewServer starts a fake server. It is closed by t.Cleanup via the caller.
func NewServer() *Server {
	s := &Server{PageSize: 100}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /2.0/repositories/{ws}/{slug}/pipelines_config/variables", s.listVariables)
	mux.HandleFunc("POST /2.0/repositories/{ws}/{slug}/pipelines_config/variables", s.createVariable)
	mux.HandleFunc("PUT /2.0/repositories/{ws}/{slug}/pipelines_config/variables/{uuid}", s.updateVariable)
	mux.HandleFunc("DELETE /2.0/repositories/{ws}/{slug}/pipelines_config/variables/{uuid}", s.deleteVariable)
	mux.HandleFunc("GET /2.0/repositories/{ws}/{slug}/environments", s.listEnvironments)
	mux.HandleFunc("POST /2.0/repositories/{ws}/{slug}/environments", s.createEnvironment)

	s.Server = httptest.NewServer(s.middleware(mux))
	return s
}

// BaseURL is the API root to configure clients with.
func (s *Server) BaseURL() string {
	return s.URL + "/2.0"
}

// AddVariable seeds a variable and returns its uuid.
func (s *Server) AddVariable(key, value string, secured bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := Variable{UUID: newUUID(), Key: key, Value: value, Secured: secured}
	s.variables = append(s.variables, v)
	return v.UUID
}

// AddEnvironment seeds an environment and returns its uuid.
func (s *Server) AddEnvironment(name, envType string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	env := Environment{UUID: newUUID(), Name: name, Type: envType}
	s.environments = append(s.environments, env)
	return env.UUID
}

// Variables returns a snapshot of stored variables, values included.
func (s *Server) Variables() []Variable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Variable(nil), s.variables...)
}

// Environments returns a snapshot of stored environments.
func (s *Server) Environments() []Environment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Environment(nil), s.environments...)
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsWith returns the requests received with method, in order.
func (s *Server) RequestsWith(method string) []Request {
	var matched []Request
	for _, r := range s.Requests() {
		if r.Method == method {
			matched = append(matched, r)
		}
	}
	return matched
}

// Mutations counts POST, PUT and DELETE requests received so far.
func (s *Server) Mutations() int {
	count := 0
	for _, r := range s.Requests() {
		if r.Method != http.MethodGet {
			count++
		}
	}
	return count
}

// FailNext makes the next request with method answer status and body.
func (s *Server) FailNext(method string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, status: status, body: body})
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
		for i, f := range s.failures {
			if f.method == r.Method {
				s.failures = append(s.failures[:i], s.failures[i+1:]...)
				s.mu.Unlock()
				http.Error(w, f.body, f.status)
				return
			}
		}
		s.mu.Unlock()

		user, pass, ok := r.BasicAuth()
		if !ok || user != Username || pass != Password {
			http.Error(w, `{"type":"error","error":{"message":"Unauthorized"}}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listVariables(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	values := make([]any, 0, len(s.variables))
	for _, v := range s.variables {
		values = append(values, variableDoc(v))
	}
	s.mu.Unlock()
	s.writePage(w, r, values)
}

func (s *Server) listEnvironments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	values := make([]any, 0, len(s.environments))
	for _, env := range s.environments {
		values = append(values, environmentDoc(env))
	}
	s.mu.Unlock()
	s.writePage(w, r, values)
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, values []any) {
	pageLen := s.PageSize
	if requested, err := strconv.Atoi(r.URL.Query().Get("pagelen")); err == nil && requested > 0 && requested < pageLen {
		pageLen = requested
	}
	pageNum := 1
	if requested, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && requested > 0 {
		pageNum = requested
	}

	start := min((pageNum-1)*pageLen, len(values))
	end := min(start+pageLen, len(values))

	doc := map[string]any{
		"page":    pageNum,
		"pagelen": pageLen,
		"size":    len(values),
		"values":  values[start:end],
	}
	if end < len(values) {
		doc["next"] = fmt.Sprintf("%s%s?pagelen=%d&page=%d", s.URL, r.URL.Path, pageLen, pageNum+1)
	}
	writeJSON(w, http.StatusOK, doc)
}

type variablePayload struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Secured bool   `json:"secured"`
}

func (s *Server) createVariable(w http.ResponseWriter, r *http.Request) {
	var payload variablePayload
	if !decode(w, r, &payload) {
		return
	}

	s.mu.Lock()
	v := Variable{UUID: newUUID(), Key: payload.Key, Value: payload.Value, Secured: payload.Secured}
	s.variables = append(s.variables, v)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, variableDoc(v))
}

func (s *Server) updateVariable(w http.ResponseWriter, r *http.Request) {
	var payload variablePayload
	if !decode(w, r, &payload) {
		return
	}

	id := r.PathValue("uuid")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.variables {
		if s.variables[i].UUID == id {
			s.variables[i].Key = payload.Key
			s.variables[i].Value = payload.Value
			s.variables[i].Secured = payload.Secured
			writeJSON(w, http.StatusOK, variableDoc(s.variables[i]))
			return
		}
	}
	http.Error(w, `{"type":"error","error":{"message":"variable not found"}}`, http.StatusNotFound)
}

func (s *Server) deleteVariable(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("uuid")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.variables {
		if s.variables[i].UUID == id {
			s.variables = append(s.variables[:i], s.variables[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.Error(w, `{"type":"error","error":{"message":"variable not found"}}`, http.StatusNotFound)
}

func (s *Server) createEnvironment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name            string `json:"name"`
		EnvironmentType struct {
			Name string `json:"name"`
		} `json:"environment_type"`
	}
	if !decode(w, r, &payload) {
		return
	}

	s.mu.Lock()
	for _, existing := range s.environments {
		if existing.Name == payload.Name {
			s.mu.Unlock()
			http.Error(w, `{"type":"error","error":{"message":"environment name already exists"}}`, http.StatusConflict)
			return
		}
	}
	env := Environment{UUID: newUUID(), Name: payload.Name, Type: payload.EnvironmentType.Name}
	s.environments = append(s.environments, env)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, environmentDoc(env))
}

func variableDoc(v Variable) map[string]any {
	doc := map[string]any{
		"type":    "pipeline_variable",
		"uuid":    v.UUID,
		"key":     v.Key,
		"secured": v.Secured,
	}
	// The real API never returns secured values.
	if !v.Secured {
		doc["value"] = v.Value
	}
	return doc
}

func environmentDoc(env Environment) map[string]any {
	return map[string]any{
		"type": "deployment_environment",
		"uuid": env.UUID,
		"name": env.Name,
		"environment_type": map[string]any{
			"type": "deployment_environment_type",
			"name": env.Type,
		},
	}
}

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	data, err := io.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(data, out)
	}
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"type":"error","error":{"message":%q}}`, err.Error()), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, doc any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(doc)
}

func newUUID() string {
	return "{" + uuid.NewString() + "}"
}
