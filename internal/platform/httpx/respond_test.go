package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchenboard/kitchenboard/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", shared.ValidationError{Field: "date", Reason: "required"}, http.StatusBadRequest, "date: required"},
		{"not found", fmt.Errorf("batch x: %w", shared.ErrNotFound), http.StatusNotFound, "batch x: not found"},
		{"config", shared.ConfigError{Settings: []string{"POS_API_TOKEN"}}, http.StatusInternalServerError, "missing configuration: POS_API_TOKEN"},
		{"upstream", &shared.UpstreamError{Vendor: "pos", StatusCode: 500, Body: "boom"}, http.StatusBadGateway, "pos vendor unavailable"},
		{"too large", fmt.Errorf("read: %w", &http.MaxBytesError{Limit: maxBodyBytes}), http.StatusRequestEntityTooLarge, "request body too large"},
		{"other", errors.New("db down"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondError(rr, nil, tc.err)
			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			var body ErrorBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tc.body, body.Error)
		})
	}
}

func TestReadBodyRejectsOversizedBody(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", maxBodyBytes+1)))
	_, err := ReadBody(rr, req)
	require.Error(t, err)
	assert.True(t, IsTooLarge(err))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("<table></table>"))
	body, err := ReadBody(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.False(t, IsTooLarge(err))
	assert.Equal(t, "<table></table>", string(body))
}
