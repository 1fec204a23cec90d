package response

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 8000, time.FixedZone("TRT", 3*3600)) }
	defer func() { now = time.Now }()

	tests := []struct {
		name    string
		code    int
		success bool
	}{
		{name: "ok", code: 200, success: true},
		{name: "created", code: 201, success: true},
		{name: "not found", code: 404, success: false},
		{name: "rate limited", code: 429, success: false},
		{name: "internal", code: 500, success: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := New(tt.code, "msg", nil)
			assert.Equal(t, tt.success, env.Success)
			assert.Equal(t, tt.code, env.Code)
			assert.Equal(t, "2025-03-04T02:06:07.000008Z", env.Timestamp)
			assert.Equal(t, fiber.Map{}, env.Data)
		})
	}
}

func TestSend(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return Created(c, "made", fiber.Map{"id": 7})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env map[string]any
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, true, env["success"])
	assert.Equal(t, float64(201), env["code"])
	assert.Equal(t, "made", env["message"])
	assert.Equal(t, map[string]any{"id": float64(7)}, env["data"])
	assert.Regexp(t, `Z$`, env["timestamp"])
}
