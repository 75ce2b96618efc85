// Package apitest provides an in-memory platform backend for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"stopro/roster/internal/domain"
)

// Prefix is the API root path served by Server.
const Prefix = "/api/v1"

// Call is one request received by the server.
type Call struct {
	Method string
	Path   string
	Body   string
}

func (c Call) String() string {
	if c.Body == "" {
		return c.Method + " " + c.Path
	}
	return c.Method + " " + c.Path + " " + c.Body
}

type failure struct {
	status  int
	message string
}

// Server is a fake backing store speaking the platform's REST dialect.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	students []domain.Student
	groups   []domain.Group
	calls    []Call
	failures map[string]failure
	nextID   int

	// Token, when set, is required as the bearer token on every
	// authenticated route.
	Token string
	// User is returned by /auth/me and /auth/login.
	User domain.User
	// Password is accepted by /auth/login for User.Email.
	Password string
}

// NewServer starts a server and registers its shutdown with t.
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		failures: make(map[string]failure),
		User: domain.User{
			ID:        "teacher-1",
			Email:     "teacher@school.ru",
			FirstName: "Анна",
			LastName:  "Петрова",
			Role:      domain.RoleTeacher,
		},
		Password: "secret",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+Prefix+"/teacher/students", s.authed(s.listStudents))
	mux.HandleFunc("PUT "+Prefix+"/teacher/students/{id}", s.authed(s.setStudentGroup))
	mux.HandleFunc("DELETE "+Prefix+"/teacher/students/{id}", s.authed(s.deleteStudent))
	mux.HandleFunc("GET "+Prefix+"/teacher/groups", s.authed(s.listGroups))
	mux.HandleFunc("POST "+Prefix+"/groups", s.authed(s.createGroup))
	mux.HandleFunc("PUT "+Prefix+"/groups/{id}", s.authed(s.renameGroup))
	mux.HandleFunc("DELETE "+Prefix+"/groups/{id}", s.authed(s.deleteGroup))
	mux.HandleFunc("POST "+Prefix+"/groups/{id}/students", s.authed(s.addStudents))
	mux.HandleFunc("POST "+Prefix+"/auth/login", s.login)
	mux.HandleFunc("GET "+Prefix+"/auth/me", s.authed(s.me))
	mux.HandleFunc("POST "+Prefix+"/auth/logout", s.authed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	}))

	s.srv = httptest.NewServer(s.record(mux))
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the API base URL, including Prefix.
func (s *Server) URL() string { return s.srv.URL + Prefix }

// Seed replaces the stored students and groups.
func (s *Server) Seed(students []domain.Student, groups []domain.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students = append([]domain.Student(nil), students...)
	s.groups = append([]domain.Group(nil), groups...)
}

// Students returns a copy of the stored students.
func (s *Server) Students() []domain.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decorated()
}

// Groups returns a copy of the stored groups.
func (s *Server) Groups() []domain.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countedGroups()
}

// Fail makes every request matching "METHOD /path" (path relative to
// Prefix) answer with status and message until Recover is called.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

// Recover clears a failure installed with Fail.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Calls returns every request received so far, in order. Paths are
// relative to Prefix.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Mutations returns the received calls other than GETs.
func (s *Server) Mutations() []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many requests matched "METHOD /path".
func (s *Server) Count(route string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method+" "+c.Path == route {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		path := strings.TrimPrefix(r.URL.Path, Prefix)

		s.mu.Lock()
		s.calls = append(s.calls, Call{Method: r.Method, Path: path, Body: strings.TrimSpace(string(body))})
		f, failing := s.failures[r.Method+" "+path]
		s.mu.Unlock()

		if failing {
			writeJSON(w, f.status, map[string]string{"message": f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		h(w, r)
	}
}

// decorated returns students with groupName filled from the groups. The
// caller holds mu.
func (s *Server) decorated() []domain.Student {
	out := make([]domain.Student, len(s.students))
	for i, st := range s.students {
		st.GroupName = ""
		if st.GroupID != nil {
			gid := *st.GroupID
			st.GroupID = &gid
			if g := domain.FindGroup(s.groups, gid); g != nil {
				st.GroupName = g.Name
			}
		}
		out[i] = st
	}
	return out
}

// countedGroups returns groups with studentsCount computed. The caller
// holds mu.
func (s *Server) countedGroups() []domain.Group {
	out := make([]domain.Group, len(s.groups))
	for i, g := range s.groups {
		g.StudentsCount = len(domain.MemberIDs(s.students, g.ID))
		out[i] = g
	}
	return out
}

func (s *Server) listStudents(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.decorated())
}

func (s *Server) listGroups(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.countedGroups())
}

func (s *Server) setStudentGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		GroupID *string `json:"groupId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Некорректный запрос"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := domain.FindStudent(s.students, r.PathValue("id"))
	if st == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Ученик не найден"})
		return
	}
	if body.GroupID != nil && domain.FindGroup(s.groups, *body.GroupID) == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Группа не найдена"})
		return
	}
	st.GroupID = body.GroupID
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) deleteStudent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	for i, st := range s.students {
		if st.ID == id {
			s.students = append(s.students[:i], s.students[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Ученик не найден"})
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Название группы обязательно"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	g := domain.Group{
		ID:         fmt.Sprintf("group-new-%d", s.nextID),
		Name:       strings.TrimSpace(body.Name),
		TeacherID:  s.User.ID,
		InviteCode: fmt.Sprintf("INV%03d", s.nextID),
	}
	s.groups = append(s.groups, g)
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) renameGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Название группы обязательно"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g := domain.FindGroup(s.groups, r.PathValue("id"))
	if g == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Группа не найдена"})
		return
	}
	g.Name = strings.TrimSpace(body.Name)
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	for i, g := range s.groups {
		if g.ID != id {
			continue
		}
		s.groups = append(s.groups[:i], s.groups[i+1:]...)
		for j := range s.students {
			if s.students[j].InGroup(id) {
				s.students[j].GroupID = nil
			}
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Группа не найдена"})
}

func (s *Server) addStudents(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StudentNames []string `json:"studentNames"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.StudentNames) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Список учеников пуст"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g := domain.FindGroup(s.groups, r.PathValue("id"))
	if g == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Группа не найдена"})
		return
	}

	res := domain.AddStudentsResult{GroupID: g.ID, GroupName: g.Name}
	for _, name := range body.StudentNames {
		s.nextID++
		first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
		gid := g.ID
		s.students = append(s.students, domain.Student{
			ID:        fmt.Sprintf("student-new-%d", s.nextID),
			FirstName: first,
			LastName:  last,
			GroupID:   &gid,
		})
		res.Credentials = append(res.Credentials, domain.StudentCredentials{
			FullName: strings.TrimSpace(name),
			Username: fmt.Sprintf("student_%d", 100+s.nextID),
			Password: "Pa55word",
		})
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	user, password, token := s.User, s.Password, s.Token
	s.mu.Unlock()

	if body.Email != user.Email || body.Password != password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Неверный email или пароль"})
		return
	}
	if token == "" {
		token = "test-access-token"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  token,
		"refreshToken": "test-refresh-token",
		"user":         user,
	})
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.User)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StrPtr returns a pointer to v.
func StrPtr(v string) *string { return &v }
