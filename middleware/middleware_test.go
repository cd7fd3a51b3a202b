package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"FleetDesk/Models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuth(t *testing.T) (*Auth, map[string]Models.User) {
	t.Helper()
	db, err := Models.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))

	users := map[string]Models.User{}
	for _, role := range []string{Models.RoleReader, Models.RoleAccountant, "retired"} {
		u := Models.User{Nom: role, Email: role + "@fleetdesk.cm", Role: role}
		require.NoError(t, db.Create(&u).Error)
		users[role] = u
	}
	return NewAuth(db, "test-secret"), users
}

func guardedApp(auth *Auth, level int) *fiber.App {
	app := fiber.New()
	app.Get("/guarded", auth.Verify(level), func(c *fiber.Ctx) error {
		user, _ := CurrentUser(c)
		return c.SendString(user.Role)
	})
	return app
}

func TestVerify(t *testing.T) {
	auth, users := setupAuth(t)
	app := guardedApp(auth, 3)

	cases := []struct {
		name   string
		token  func() string
		cookie bool
		status int
	}{
		{"no token", func() string { return "" }, false, fiber.StatusUnauthorized},
		{"garbage", func() string { return "abc" }, false, fiber.StatusUnauthorized},
		{"reader below level", func() string { tok, _, _ := auth.Sign(users[Models.RoleReader]); return tok }, false, fiber.StatusForbidden},
		{"unknown role", func() string { tok, _, _ := auth.Sign(users["retired"]); return tok }, true, fiber.StatusForbidden},
		{"accountant by cookie", func() string { tok, _, _ := auth.Sign(users[Models.RoleAccountant]); return tok }, true, fiber.StatusOK},
		{"accountant by header", func() string { tok, _, _ := auth.Sign(users[Models.RoleAccountant]); return tok }, false, fiber.StatusOK},
		{"deleted user", func() string { tok, _, _ := auth.Sign(Models.User{Base: Models.Base{ID: "gone"}}); return tok }, false, fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			if tok := tc.token(); tok != "" {
				if tc.cookie {
					req.AddCookie(&http.Cookie{Name: CookieName, Value: tok})
				} else {
					req.Header.Set("Authorization", "Bearer "+tok)
				}
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	auth, users := setupAuth(t)
	app := guardedApp(auth, 1)

	expired := *auth
	expired.TTL = -time.Minute
	tok, _, err := expired.Sign(users[Models.RoleReader])
	require.NoError(t, err)

	other := NewAuth(auth.DB, "another-secret")
	foreign, _, err := other.Sign(users[Models.RoleReader])
	require.NoError(t, err)

	for _, raw := range []string{tok, foreign} {
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	}
}

func readLines(t *testing.T, path string) []LogData {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var out []LogData
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var data LogData
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &data))
		out = append(out, data)
	}
	return out
}

func TestRequestAndErrorLoggers(t *testing.T) {
	dir := t.TempDir()
	app := fiber.New()
	app.Use(RequestLogger(dir), ErrorLogger(dir))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Truck not found"})
	})
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusConflict, "conflict") })

	for _, path := range []string{"/health", "/ok", "/missing", "/boom"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if path == "/ok" {
			req.Header.Set("X-Request-ID", "req-1")
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		if path == "/health" {
			assert.Empty(t, resp.Header.Get("X-Request-ID"))
		} else {
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		}
	}

	requests := readLines(t, filepath.Join(dir, RequestLogFile))
	require.Len(t, requests, 3)
	assert.Equal(t, "/ok", requests[0].Path)
	assert.Equal(t, "req-1", requests[0].RequestID)
	assert.Equal(t, fiber.StatusConflict, requests[2].Status)

	errorsLog := readLines(t, filepath.Join(dir, ErrorLogFile))
	require.Len(t, errorsLog, 2)
	assert.Equal(t, fiber.StatusNotFound, errorsLog[0].Status)
	assert.Equal(t, "conflict", errorsLog[1].Error)
}

func TestErrorLoggerRedactsCredentials(t *testing.T) {
	dir := t.TempDir()
	app := fiber.New()
	app.Use(ErrorLogger(dir))
	app.Post("/api/login", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(`{"email":"a@b.cm","password":"secret123"}`))
	req.Header.Set("Content-Type", "application/json")
	_, err := app.Test(req, -1)
	require.NoError(t, err)

	entries := readLines(t, filepath.Join(dir, ErrorLogFile))
	require.Len(t, entries, 1)
	body := entries[0].RequestBody.(map[string]interface{})
	assert.Equal(t, "a@b.cm", body["email"])
	assert.Equal(t, "***", body["password"])
}
