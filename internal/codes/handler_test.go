package codes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo Repository) chi.Router {
	h := NewHandler(nil, NewService(nil, repo))
	r := chi.NewRouter()
	h.MountRoutes(r)
	r.Route("/admin", h.MountAdminRoutes)
	return r
}

func doRequest(router chi.Router, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBatchEndpointAssigns(t *testing.T) {
	router := newTestRouter(newMemoryRepo(7))

	rec := doRequest(router, http.MethodPost, "/admin/products/7/codes", `{
		"items": [
			{"code": "4006381333931"},
			{"code_type": "qr"},
			{}
		]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var payload struct {
		Codes []AssignedCode `json:"codes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Codes, 3)
	require.Equal(t, "4006381333931", payload.Codes[0].Code)
	require.False(t, payload.Codes[0].Regenerated)
	require.True(t, payload.Codes[1].Regenerated)
	require.Equal(t, TypeQR, payload.Codes[1].CodeType)
	require.Equal(t, TypeBarcode, payload.Codes[2].CodeType)
}

func TestBatchEndpointValidation(t *testing.T) {
	router := newTestRouter(newMemoryRepo(7))

	require.Equal(t, http.StatusBadRequest, doRequest(router, http.MethodPost, "/admin/products/abc/codes", `{"items":[{}]}`).Code)
	require.Equal(t, http.StatusBadRequest, doRequest(router, http.MethodPost, "/admin/products/0/codes", `{"items":[{}]}`).Code)
	require.Equal(t, http.StatusBadRequest, doRequest(router, http.MethodPost, "/admin/products/7/codes", `{`).Code)
	require.Equal(t, http.StatusBadRequest, doRequest(router, http.MethodPost, "/admin/products/7/codes", `{"items":[]}`).Code)
	require.Equal(t, http.StatusBadRequest, doRequest(router, http.MethodPost, "/admin/products/7/codes", `{"items":[{"code_type":"nfc"}]}`).Code)
}

func TestBatchEndpointUnknownProduct(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	rec := doRequest(router, http.MethodPost, "/admin/products/7/codes", `{"items":[{}]}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCodesEndpoint(t *testing.T) {
	repo := newMemoryRepo(7)
	router := newTestRouter(repo)

	rec := doRequest(router, http.MethodGet, "/products/7/codes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"codes":[]}`, rec.Body.String())

	require.Equal(t, http.StatusCreated, doRequest(router, http.MethodPost, "/admin/products/7/codes", `{"items":[{"code":"5901234123457"}]}`).Code)

	rec = doRequest(router, http.MethodGet, "/products/7/codes", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Codes []ProductCode `json:"codes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Codes, 1)
	require.Equal(t, "5901234123457", payload.Codes[0].Code)
}

func TestListCodesRejectsNonPositiveProduct(t *testing.T) {
	router := newTestRouter(newMemoryRepo(7))

	require.Equal(t, http.StatusBadRequest, doRequest(router, http.MethodGet, "/products/0/codes", "").Code)
	require.Equal(t, http.StatusBadRequest, doRequest(router, http.MethodGet, "/products/-3/codes", "").Code)
}

func TestBatchAssignmentNotMountedPublicly(t *testing.T) {
	router := newTestRouter(newMemoryRepo(7))

	rec := doRequest(router, http.MethodPost, "/products/7/codes", `{"items":[{}]}`)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
