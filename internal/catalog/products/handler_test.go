package products

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/grocerysaver/grocerysaver/internal/shared"
)

func newTestRouter(repo Repository) chi.Router {
	h := NewHandler(nil, NewService(repo))
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func seedProducts(t *testing.T, repo *memoryRepo, count int) {
	t.Helper()
	svc := NewService(repo)
	for i := 0; i < count; i++ {
		_, err := svc.Create(context.Background(), Product{
			CategoryID: 3,
			Name:       fmt.Sprintf("Product %02d", i),
		})
		require.NoError(t, err)
	}
}

func listProducts(t *testing.T, router chi.Router, target string) ([]ListEntry, shared.Pagination) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Products   []ListEntry       `json:"products"`
		Pagination shared.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Products, payload.Pagination
}

func TestProductListDefaultsPagination(t *testing.T) {
	repo := newMemoryRepo()
	seedProducts(t, repo, 25)
	router := newTestRouter(repo)

	entries, pagination := listProducts(t, router, "/products")
	require.Len(t, entries, 20)
	require.Equal(t, 1, pagination.Page)
	require.Equal(t, 20, pagination.PerPage)
	require.Equal(t, 25, pagination.Total)
	require.Equal(t, 2, pagination.TotalPages)
}

func TestProductListExplicitPage(t *testing.T) {
	repo := newMemoryRepo()
	seedProducts(t, repo, 5)
	router := newTestRouter(repo)

	entries, pagination := listProducts(t, router, "/products?limit=2&page=2")
	require.Len(t, entries, 2)
	require.Equal(t, "Product 02", entries[0].Name)
	require.Equal(t, 2, pagination.Page)
	require.Equal(t, 2, pagination.PerPage)
	require.Equal(t, 5, pagination.Total)
	require.Equal(t, 3, pagination.TotalPages)
}

func TestProductListRejectsBadPagination(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	for _, target := range []string{
		"/products?page=abc",
		"/products?page=0",
		"/products?limit=nope",
		"/products?limit=0",
		"/products?limit=101",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}
