package tui

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"

	"stopro/roster/internal/domain"
	"stopro/roster/internal/services/auth"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    "teacher@school.ru",
		"userId": "u1",
		"role":   "TEACHER",
		"type":   "access",
		"exp":    exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAuthStatusRows_NotLoggedIn(t *testing.T) {
	rows := AuthStatusRows(auth.NewMockStore(), "default", time.Now())

	expected := []StatusRow{
		{Label: "Профиль", Value: "default", OK: true},
		{Label: "Статус", Value: "не выполнен вход"},
	}
	if diff := cmp.Diff(expected, rows); diff != "" {
		t.Errorf("unexpected rows (-want +got):\n%s", diff)
	}
}

func TestAuthStatusRows_ActiveSession(t *testing.T) {
	store := auth.NewMockStore()
	exp := time.Date(2030, 1, 2, 3, 4, 0, 0, time.Local)
	err := auth.SaveSession(store, "default", domain.Session{
		AccessToken: signedToken(t, exp),
		User:        domain.User{Email: "teacher@school.ru", FirstName: "Анна", LastName: "Петрова"},
	})
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	rows := AuthStatusRows(store, "default", time.Date(2029, 1, 1, 0, 0, 0, 0, time.Local))

	expected := []StatusRow{
		{Label: "Профиль", Value: "default", OK: true},
		{Label: "Пользователь", Value: "Анна Петрова <teacher@school.ru>", OK: true},
		{Label: "Роль", Value: "TEACHER", OK: true},
		{Label: "Статус", Value: "вход выполнен", OK: true},
		{Label: "Действует до", Value: "02.01.2030 03:04", OK: true},
	}
	if diff := cmp.Diff(expected, rows); diff != "" {
		t.Errorf("unexpected rows (-want +got):\n%s", diff)
	}
}

func TestAuthStatusRows_ExpiredSession(t *testing.T) {
	store := auth.NewMockStore()
	exp := time.Date(2020, 5, 6, 7, 8, 0, 0, time.Local)
	if err := auth.SaveSession(store, "work", domain.Session{AccessToken: signedToken(t, exp)}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	rows := AuthStatusRows(store, "work", time.Date(2021, 1, 1, 0, 0, 0, 0, time.Local))
	last := rows[len(rows)-1]
	if !last.Warn || last.Value != "сессия истекла 06.05.2020 07:08" {
		t.Errorf("unexpected last row %+v", last)
	}
}

func TestAuthStatusRows_OpaqueToken(t *testing.T) {
	store := auth.NewMockStore()
	if err := store.SetToken("default", "opaque-token"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	rows := AuthStatusRows(store, "default", time.Now())
	expected := []StatusRow{
		{Label: "Профиль", Value: "default", OK: true},
		{Label: "Статус", Value: "вход выполнен", OK: true},
	}
	if diff := cmp.Diff(expected, rows); diff != "" {
		t.Errorf("unexpected rows (-want +got):\n%s", diff)
	}
}
