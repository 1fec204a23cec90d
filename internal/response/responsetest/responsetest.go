// Package responsetest decodes envelope responses in handler tests.
package responsetest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// Envelope mirrors response.Envelope with Data left undecoded.
type Envelope struct {
	Success   bool            `json:"success"`
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Decode unmarshals Data into dest.
func (e Envelope) Decode(t testing.TB, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, dest))
}

// Do sends req through app and decodes the envelope. The HTTP status must
// match the envelope code.
func Do(t testing.TB, app *fiber.App, req *http.Request) (Envelope, *http.Response) {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	require.Equal(t, resp.StatusCode, env.Code, "body: %s", body)
	return env, resp
}

// JSON builds a request with a JSON body. A nil body sends none.
func JSON(t testing.TB, method, path string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return req
}
