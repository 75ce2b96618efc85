package groups

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"stopro/roster/cmd/commands/cmdutil"
	"stopro/roster/cmd/commands/cmdutil/cmdtest"
	"stopro/roster/internal/api/apitest"
	"stopro/roster/internal/domain"
)

func seededServer(t *testing.T) *apitest.Server {
	t.Helper()
	srv := apitest.NewServer(t)
	srv.Seed(
		[]domain.Student{
			{ID: "s1", FirstName: "Иван", LastName: "Петров", GroupID: apitest.StrPtr("g1")},
			{ID: "s2", FirstName: "Мария", LastName: "Смирнова", GroupID: apitest.StrPtr("g1")},
			{ID: "s3", FirstName: "Олег", LastName: "Сидоров"},
		},
		[]domain.Group{
			{ID: "g1", Name: "9А", InviteCode: "INV001"},
			{ID: "g2", Name: "10Б"},
		},
	)
	return srv
}

func execGroups(t *testing.T, srv *apitest.Server, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	store := cmdtest.Setup(t, srv)
	cmdtest.Login(t, store, srv)
	return cmdtest.Exec(t, NewCommand(), args...)
}

func mutations(srv *apitest.Server) []string {
	var out []string
	for _, c := range srv.Mutations() {
		out = append(out, c.String())
	}
	return out
}

func TestList_Table(t *testing.T) {
	srv := seededServer(t)

	stdout, stderr, err := execGroups(t, srv, "list")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, stderr)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got:\n%s", stdout)
	}
	if fields := strings.Fields(lines[2]); !cmp.Equal(fields, []string{"g1", "9А", "2", "INV001"}) {
		t.Errorf("unexpected first row %q", fields)
	}
	if fields := strings.Fields(lines[3]); !cmp.Equal(fields, []string{"g2", "10Б", "0", "-"}) {
		t.Errorf("unexpected second row %q", fields)
	}
}

func TestShow_ListsMembers(t *testing.T) {
	srv := seededServer(t)

	stdout, _, err := execGroups(t, srv, "show", "9а")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Группа:  9А", "Код:     INV001", "Иван Петров", "Мария Смирнова"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in output:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "Олег Сидоров") {
		t.Errorf("expected non-member excluded:\n%s", stdout)
	}
}

func TestShow_UnknownGroup(t *testing.T) {
	srv := seededServer(t)

	_, stderr, err := execGroups(t, srv, "show", "11В")
	if err == nil || !strings.Contains(stderr, `группа "11В" не найдена`) {
		t.Errorf("expected not-found error, got err=%v stderr=%s", err, stderr)
	}
}

func TestCreate(t *testing.T) {
	srv := seededServer(t)

	stdout, stderr, err := execGroups(t, srv, "create", "  11   В ")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, stderr)
	}
	if diff := cmp.Diff([]string{`POST /groups {"name":"11 В"}`}, mutations(srv)); diff != "" {
		t.Errorf("unexpected mutations (-want +got):\n%s", diff)
	}
	if !strings.Contains(stdout, "Группа «11 В» создана") {
		t.Errorf("expected confirmation, got:\n%s", stdout)
	}
}

func TestCreate_RejectsShortName(t *testing.T) {
	srv := seededServer(t)

	_, stderr, err := execGroups(t, srv, "create", "A")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if !strings.Contains(stderr, "name must be at least 2 characters") {
		t.Errorf("expected validation message, got:\n%s", stderr)
	}
	if len(srv.Mutations()) != 0 {
		t.Errorf("expected no mutations, got %v", mutations(srv))
	}
}

func TestRename(t *testing.T) {
	srv := seededServer(t)

	stdout, _, err := execGroups(t, srv, "rename", "10Б", "10Б профиль")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{`PUT /groups/g2 {"name":"10Б профиль"}`}, mutations(srv)); diff != "" {
		t.Errorf("unexpected mutations (-want +got):\n%s", diff)
	}
	if !strings.Contains(stdout, "«10Б» переименована в «10Б профиль»") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestDelete_KeepsMembersUngrouped(t *testing.T) {
	srv := seededServer(t)

	stdout, stderr, err := execGroups(t, srv, "delete", "9А", "--yes")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, stderr)
	}
	if diff := cmp.Diff([]string{"DELETE /groups/g1"}, mutations(srv)); diff != "" {
		t.Errorf("unexpected mutations (-want +got):\n%s", diff)
	}
	if !strings.Contains(stdout, "✓ Группа «9А» удалена") {
		t.Errorf("expected success line, got:\n%s", stdout)
	}
	for _, s := range srv.Students() {
		if s.GroupID != nil {
			t.Errorf("student %s still in group %s", s.ID, *s.GroupID)
		}
	}
}

func TestDelete_RequiresConfirmationWithoutTerminal(t *testing.T) {
	srv := seededServer(t)

	_, _, err := execGroups(t, srv, "delete", "9А")
	if !errors.Is(err, cmdutil.ErrConfirmationRequired) {
		t.Errorf("expected ErrConfirmationRequired, got %v", err)
	}
	if len(srv.Mutations()) != 0 {
		t.Errorf("expected no mutations, got %v", mutations(srv))
	}
}

func TestDelete_NoArgumentWithoutTerminal(t *testing.T) {
	srv := seededServer(t)

	_, _, err := execGroups(t, srv, "delete", "--yes")
	if !errors.Is(err, errNoGroup) {
		t.Errorf("expected errNoGroup, got %v", err)
	}
}

func TestAddStudents_FromArgs(t *testing.T) {
	srv := seededServer(t)

	stdout, stderr, err := execGroups(t, srv, "add-students", "10Б", "Пётр Иванов", "пётр  иванов", "Анна Орлова")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, stderr)
	}
	if diff := cmp.Diff([]string{`POST /groups/g2/students {"studentNames":["Пётр Иванов","Анна Орлова"]}`}, mutations(srv)); diff != "" {
		t.Errorf("unexpected mutations (-want +got):\n%s", diff)
	}
	for _, want := range []string{"добавлено учеников: 2", "USERNAME", "PASSWORD", "Pa55word", "Сохраните пароли"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in output:\n%s", want, stdout)
		}
	}
}

func TestAddStudents_FromFileJSON(t *testing.T) {
	srv := seededServer(t)
	path := filepath.Join(t.TempDir(), "names.txt")
	if err := os.WriteFile(path, []byte("Пётр Иванов\n\nАнна Орлова; Олег Ким\n"), 0o600); err != nil {
		t.Fatalf("write names: %v", err)
	}

	stdout, _, err := execGroups(t, srv, "add-students", "g2", "--file", path, "-o", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var res domain.AddStudentsResult
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if res.GroupID != "g2" || len(res.Credentials) != 3 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestAddStudents_NoNamesWithoutTerminal(t *testing.T) {
	srv := seededServer(t)

	_, stderr, err := execGroups(t, srv, "add-students", "g2")
	if err == nil || !strings.Contains(stderr, "no student names given") {
		t.Errorf("expected missing names error, got err=%v stderr=%s", err, stderr)
	}
}
