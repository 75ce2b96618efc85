package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"

	"stopro/roster/internal/domain"
	"stopro/roster/internal/util"
)

// ErrAborted is returned when the user leaves an interactive form.
var ErrAborted = errors.New("aborted by user")

// Accessible reports whether forms should run in accessible mode.
func Accessible() bool {
	return os.Getenv("ACCESSIBLE") != ""
}

// runForm creates and runs a huh.Form, translating ErrUserAborted to ErrAborted.
func runForm(accessible bool, groups ...*huh.Group) error {
	err := huh.NewForm(groups...).WithAccessible(accessible).Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return err
	}
	return nil
}

// Spin runs fn behind a spinner written to w. ctrl+c aborts with
// ErrAborted.
func Spin(ctx context.Context, w io.Writer, title string, fn func(ctx context.Context) error) error {
	err := spinner.New().
		Title(title).
		Accessible(Accessible()).
		Output(w).
		Context(ctx).
		ActionWithErr(fn).
		Run()
	if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
		return ErrAborted
	}
	return err
}

// SelectStudentForm lets the user pick a student and returns its ID.
func SelectStudentForm(students []domain.Student, title string) (string, error) {
	if len(students) == 0 {
		return "", fmt.Errorf("no students found")
	}

	var selected string
	options := buildStudentOptions(students)
	field := huh.NewSelect[string]().
		Title(title).
		Options(options...).
		Value(&selected).
		Height(selectHeight(len(options), 12))

	if err := runForm(Accessible(), huh.NewGroup(field)); err != nil {
		return "", err
	}
	return selected, nil
}

// SelectGroupForm lets the user pick a group and returns its ID.
func SelectGroupForm(groups []domain.Group, title string) (string, error) {
	if len(groups) == 0 {
		return "", fmt.Errorf("no groups found")
	}

	var selected string
	options := buildGroupOptions(groups)
	field := huh.NewSelect[string]().
		Title(title).
		Options(options...).
		Value(&selected).
		Height(selectHeight(len(options), 12))

	if err := runForm(Accessible(), huh.NewGroup(field)); err != nil {
		return "", err
	}
	return selected, nil
}

// StudentNamesForm asks for the names of students to add to groupName,
// one per line, and returns them cleaned and deduplicated.
func StudentNamesForm(groupName string) ([]string, error) {
	var raw string
	field := huh.NewText().
		Title(fmt.Sprintf("Ученики для группы «%s»", groupName)).
		Description("По одному «Имя Фамилия» на строку").
		Lines(8).
		Value(&raw).
		Validate(func(v string) error {
			if len(util.ParseNames(v)) == 0 {
				return errors.New("введите хотя бы одно имя")
			}
			return nil
		})

	if err := runForm(Accessible(), huh.NewGroup(field)); err != nil {
		return nil, err
	}
	return util.ParseNames(raw), nil
}

func buildStudentOptions(students []domain.Student) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(students))
	for _, s := range students {
		options = append(options, huh.NewOption(studentOptionLabel(s), s.ID))
	}
	return options
}

// studentOptionLabel formats a student for selection lists.
func studentOptionLabel(s domain.Student) string {
	parts := []string{s.FullName()}
	if s.GroupName != "" {
		parts = append(parts, s.GroupName)
	}
	if s.Email != "" {
		parts = append(parts, s.Email)
	}
	return strings.Join(parts, " - ")
}

func buildGroupOptions(groups []domain.Group) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(groups))
	for _, g := range groups {
		options = append(options, huh.NewOption(groupOptionLabel(g), g.ID))
	}
	return options
}

func groupOptionLabel(g domain.Group) string {
	return fmt.Sprintf("%s - %s", g.Name, pluralStudents(g.StudentsCount))
}

// pluralStudents renders n with the matching Russian noun form.
func pluralStudents(n int) string {
	form := "учеников"
	switch mod100 := n % 100; {
	case mod100 >= 11 && mod100 <= 14:
	case n%10 == 1:
		form = "ученик"
	case n%10 >= 2 && n%10 <= 4:
		form = "ученика"
	}
	return fmt.Sprintf("%d %s", n, form)
}

func selectHeight(optionCount, max int) int {
	height := optionCount + 2
	if height < 5 {
		return 5
	}
	if height > max {
		return max
	}
	return height
}
