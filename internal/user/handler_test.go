// AngelaMos | 2026
// handler_test.go

package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carterperez-dev/templates/account-api/internal/core"
	"github.com/carterperez-dev/templates/account-api/internal/middleware"
)

// asUser stands in for the access-token authenticator.
func asUser(id string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newUserRouter(repo Repository, callerID string) http.Handler {
	r := chi.NewRouter()
	NewHandler(NewService(repo)).RegisterRoutes(r, asUser(callerID))
	return r
}

func TestHandler_FindAllEmpty(t *testing.T) {
	repo := new(mockRepository)
	repo.On("List", mock.Anything).Return([]User{}, nil)

	rr := httptest.NewRecorder()
	newUserRouter(repo, "u-1").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":{"users":[],"total":0}}`, rr.Body.String())
}

func TestHandler_FindOneMissing(t *testing.T) {
	repo := new(mockRepository)
	repo.On("GetByID", mock.Anything, absentID).Return(nil, core.ErrNotFound)

	rr := httptest.NewRecorder()
	newUserRouter(repo, "u-1").
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/"+absentID, nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	repo.AssertExpectations(t)
}

func TestHandler_FindOneMalformedID(t *testing.T) {
	repo := new(mockRepository)

	rr := httptest.NewRecorder()
	newUserRouter(repo, "u-1").
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/not-a-uuid", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestHandler_RemoveReturnsNoContent(t *testing.T) {
	repo := new(mockRepository)
	repo.On("SoftDelete", mock.Anything, "u-1").Return(true, nil)

	rr := httptest.NewRecorder()
	newUserRouter(repo, "u-1").ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/users", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	repo.AssertExpectations(t)
}

func TestHandler_UpdateRejectsLonePassword(t *testing.T) {
	repo := new(mockRepository)

	req := httptest.NewRequest(http.MethodPut, "/users",
		strings.NewReader(`{"new_password":"brand-new-pass"}`))
	rr := httptest.NewRecorder()
	newUserRouter(repo, "u-1").ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "must be sent together")
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestHandler_UpdateWrongOldPassword(t *testing.T) {
	repo := new(mockRepository)
	repo.On("GetByID", mock.Anything, "u-1").Return(existingUser(t, "old-password"), nil)

	req := httptest.NewRequest(http.MethodPut, "/users",
		strings.NewReader(`{"new_password":"brand-new-pass","old_password":"guess"}`))
	rr := httptest.NewRecorder()
	newUserRouter(repo, "u-1").ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "current password is incorrect")
}

func TestHandler_UpdateReturnsProfileWithoutHash(t *testing.T) {
	repo := new(mockRepository)
	u := existingUser(t, "old-password")
	repo.On("GetByID", mock.Anything, "u-1").Return(u, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodPut, "/users", strings.NewReader(`{"first_name":"Janet"}`))
	rr := httptest.NewRecorder()
	newUserRouter(repo, "u-1").ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"first_name":"Janet"`)
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestHandler_UpdateNewPasswordOverByteLimit(t *testing.T) {
	repo := new(mockRepository)
	repo.On("GetByID", mock.Anything, "u-1").Return(existingUser(t, "old-password"), nil)

	body := `{"new_password":"` + strings.Repeat("é", 40) + `","old_password":"old-password"}`
	rr := httptest.NewRecorder()
	newUserRouter(repo, "u-1").
		ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/users", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "new_password must be at most 72 bytes")
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
