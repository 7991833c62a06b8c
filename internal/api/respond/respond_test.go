package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestWriteSoftOmitsData(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteSoft(rr, "Jurisdiction for ZZ not found.", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	body := decode(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Jurisdiction for ZZ not found.", body["message"])
	assert.NotContains(t, body, "data")
}

func TestWriteInternalErrorCarriesTag(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteInternalError(rr, "order intake failed", model.IdentityErr("sign-up", errors.New("throttled")))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "identity:sign-up", body["type"])
	assert.Equal(t, "order intake failed", body["message"])
	assert.Equal(t, "identity:sign-up: throttled", body["error"])
}

func TestWriteBadRequest(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteBadRequest(rr, "state is required")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "Bad Request", body["error"])
	assert.EqualValues(t, 400, body["code"])
	assert.NotContains(t, body, "type")
}
