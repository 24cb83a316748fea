package scan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/grocerysaver/grocerysaver/internal/codes"
)

type stubService struct {
	input  Input
	result Result
	err    error
}

func (s *stubService) Scan(ctx context.Context, input Input) (Result, error) {
	s.input = input
	return s.result, s.err
}

func postScan(t *testing.T, svc ScanService, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(nil, svc, nil)
	r := chi.NewRouter()
	h.MountRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/scan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestScanEndpointCreated(t *testing.T) {
	svc := &stubService{result: Result{
		CodeCreated:    true,
		ProductCreated: true,
		ScannedCode:    codes.ProductCode{ID: 1, ProductID: 2, Code: "4006381333931", CodeType: codes.TypeBarcode},
	}}

	rec := postScan(t, svc, `{"code":"4006381333931","category_id":3,"name":"Whole Milk 1L"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.True(t, got.CodeCreated)
	require.Equal(t, "4006381333931", got.ScannedCode.Code)

	require.Equal(t, int64(3), svc.input.CategoryID)
	require.Equal(t, codes.CodeType(""), svc.input.CodeType)
}

func TestScanEndpointMatchedOK(t *testing.T) {
	svc := &stubService{result: Result{Matched: true}}

	rec := postScan(t, svc, `{"code":"4006381333931"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestScanEndpointParsesPrice(t *testing.T) {
	svc := &stubService{result: Result{Matched: true}}

	rec := postScan(t, svc, `{"code":"4006381333931","store_id":10,"price":"1.99"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.input.Price)
	require.Equal(t, "1.99", svc.input.Price.StringFixed(2))
	require.Equal(t, int64(10), svc.input.StoreID)
}

func TestScanEndpointRejectsBadInput(t *testing.T) {
	svc := &stubService{}

	require.Equal(t, http.StatusBadRequest, postScan(t, svc, `{`).Code)
	require.Equal(t, http.StatusBadRequest, postScan(t, svc, `{}`).Code)
	require.Equal(t, http.StatusBadRequest, postScan(t, svc, `{"code":"x","code_type":"nfc"}`).Code)
	require.Equal(t, http.StatusBadRequest, postScan(t, svc, `{"code":"x","price":"cheap"}`).Code)
}

func TestScanEndpointErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrInsufficientData, http.StatusNotFound},
		{ErrPricePairIncomplete, http.StatusBadRequest},
		{ErrNegativePrice, http.StatusBadRequest},
		{ErrCategoryNotFound, http.StatusBadRequest},
		{ErrStoreNotFound, http.StatusBadRequest},
		{codes.ErrGenerationExhausted, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		rec := postScan(t, &stubService{err: tc.err}, `{"code":"4006381333931"}`)
		require.Equal(t, tc.want, rec.Code, "error %v", tc.err)
		require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	}
}
