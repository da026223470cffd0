package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAccounts struct {
	signUpFn        func(ctx context.Context, email, password, name string) (user.PublicUser, error)
	getFn           func(ctx context.Context, id string) (user.PublicUser, error)
	listFn          func(ctx context.Context) ([]user.PublicUser, error)
	listByRoleFn    func(ctx context.Context, role user.Role) ([]user.PublicUser, error)
	searchByEmailFn func(ctx context.Context, fragment string) ([]user.PublicUser, error)
	searchFn        func(ctx context.Context, filter user.SearchFilter) ([]user.PublicUser, error)
}

func (f *fakeAccounts) SignUp(ctx context.Context, email, password, name string) (user.PublicUser, error) {
	if f.signUpFn != nil {
		return f.signUpFn(ctx, email, password, name)
	}
	return user.PublicUser{}, nil
}

func (f *fakeAccounts) GetUserByID(ctx context.Context, id string) (user.PublicUser, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return user.PublicUser{}, nil
}

func (f *fakeAccounts) GetAllUsers(ctx context.Context) ([]user.PublicUser, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return []user.PublicUser{}, nil
}

func (f *fakeAccounts) GetUsersByRole(ctx context.Context, role user.Role) ([]user.PublicUser, error) {
	if f.listByRoleFn != nil {
		return f.listByRoleFn(ctx, role)
	}
	return []user.PublicUser{}, nil
}

func (f *fakeAccounts) SearchUsersByEmail(ctx context.Context, fragment string) ([]user.PublicUser, error) {
	if f.searchByEmailFn != nil {
		return f.searchByEmailFn(ctx, fragment)
	}
	return []user.PublicUser{}, nil
}

func (f *fakeAccounts) SearchUsers(ctx context.Context, filter user.SearchFilter) ([]user.PublicUser, error) {
	if f.searchFn != nil {
		return f.searchFn(ctx, filter)
	}
	return []user.PublicUser{}, nil
}

func newTestRouter(f *fakeAccounts) *gin.Engine {
	r := gin.New()

	ah := handlers.NewAuthHandler(f)
	uh := handlers.NewUsersHandler(f)

	r.POST("/api/auth/signup", ah.SignUp)
	r.GET("/api/users", uh.GetAllUsers)
	r.GET("/api/users/:id", uh.GetUserByID)
	r.GET("/api/users/role/:role", uh.GetUsersByRole)
	r.GET("/api/users/search", uh.SearchByEmail)
	r.GET("/api/users/search/complex", uh.Search)

	return r
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error handlers.APIError `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error body: %v body=%s", err, w.Body.String())
	}
	return body.Error.Code
}

var alice = user.PublicUser{
	ID:        "11111111-1111-1111-1111-111111111111",
	Email:     "a@x.com",
	Name:      "Alice",
	Role:      user.RoleUser,
	CreatedAt: "2024-03-01 09:30:05",
	UpdatedAt: "2024-03-01 09:30:05",
}

func TestSignUp_Created(t *testing.T) {
	var gotEmail, gotPassword, gotName string

	f := &fakeAccounts{
		signUpFn: func(ctx context.Context, email, password, name string) (user.PublicUser, error) {
			gotEmail, gotPassword, gotName = email, password, name
			return alice, nil
		},
	}

	w := do(newTestRouter(f), http.MethodPost, "/api/auth/signup",
		`{"email":"a@x.com","password":"secret1","name":"Alice"}`, nil)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if gotEmail != "a@x.com" || gotPassword != "secret1" || gotName != "Alice" {
		t.Fatalf("service got %q %q %q", gotEmail, gotPassword, gotName)
	}

	var got user.PublicUser
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != alice {
		t.Fatalf("body = %+v", got)
	}
}

func TestSignUp_DuplicateEmailIsConflict(t *testing.T) {
	f := &fakeAccounts{
		signUpFn: func(ctx context.Context, email, password, name string) (user.PublicUser, error) {
			return user.PublicUser{}, user.ErrDuplicateEmail
		},
	}

	w := do(newTestRouter(f), http.MethodPost, "/api/auth/signup",
		`{"email":"a@x.com","password":"secret1","name":"Alice"}`, nil)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if code := errorCode(t, w); code != "email_taken" {
		t.Fatalf("code = %q", code)
	}
}

func TestSignUp_InvalidBodyNeverReachesService(t *testing.T) {
	f := &fakeAccounts{
		signUpFn: func(ctx context.Context, email, password, name string) (user.PublicUser, error) {
			t.Fatal("service should not be called")
			return user.PublicUser{}, nil
		},
	}

	w := do(newTestRouter(f), http.MethodPost, "/api/auth/signup", `{"email":"a@x.com"}`, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestSignUp_StoreFailureIsInternal(t *testing.T) {
	f := &fakeAccounts{
		signUpFn: func(ctx context.Context, email, password, name string) (user.PublicUser, error) {
			return user.PublicUser{}, errors.New("db down")
		},
	}

	w := do(newTestRouter(f), http.MethodPost, "/api/auth/signup",
		`{"email":"a@x.com","password":"secret1","name":"Alice"}`, nil)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestGetUserByID(t *testing.T) {
	f := &fakeAccounts{
		getFn: func(ctx context.Context, id string) (user.PublicUser, error) {
			if id != alice.ID {
				return user.PublicUser{}, user.ErrNotFound
			}
			return alice, nil
		},
	}
	r := newTestRouter(f)

	w := do(r, http.MethodGet, "/api/users/"+alice.ID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	w = do(r, http.MethodGet, "/api/users/"+alice.ID, "", map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusNotModified {
		t.Fatalf("conditional status = %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/users/"+alice.ID, "", map[string]string{"If-None-Match": `W/` + etag})
	if w.Code != http.StatusNotModified {
		t.Fatalf("weak conditional status = %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/users/missing", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d", w.Code)
	}
	if code := errorCode(t, w); code != "not_found" {
		t.Fatalf("code = %q", code)
	}
}

func TestGetAllUsers_EmptyIsArray(t *testing.T) {
	w := do(newTestRouter(&fakeAccounts{}), http.MethodGet, "/api/users", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() != "[]" {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestGetUsersByRole(t *testing.T) {
	var got user.Role
	f := &fakeAccounts{
		listByRoleFn: func(ctx context.Context, role user.Role) ([]user.PublicUser, error) {
			got = role
			return []user.PublicUser{alice}, nil
		},
	}
	r := newTestRouter(f)

	w := do(r, http.MethodGet, "/api/users/role/USER", "", nil)
	if w.Code != http.StatusOK || got != user.RoleUser {
		t.Fatalf("status = %d role = %q", w.Code, got)
	}

	for _, bad := range []string{"ROOT", "admin"} {
		w = do(r, http.MethodGet, "/api/users/role/"+bad, "", nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", bad, w.Code)
		}
		if code := errorCode(t, w); code != "invalid_role" {
			t.Fatalf("%s: code = %q", bad, code)
		}
	}
}

func TestSearchByEmail(t *testing.T) {
	var got string
	f := &fakeAccounts{
		searchByEmailFn: func(ctx context.Context, fragment string) ([]user.PublicUser, error) {
			got = fragment
			return []user.PublicUser{alice}, nil
		},
	}
	r := newTestRouter(f)

	w := do(r, http.MethodGet, "/api/users/search?email=X.COM", "", nil)
	if w.Code != http.StatusOK || got != "X.COM" {
		t.Fatalf("status = %d fragment = %q", w.Code, got)
	}

	w = do(r, http.MethodGet, "/api/users/search?email=%20", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank status = %d", w.Code)
	}
}

func TestSearchComplex(t *testing.T) {
	var got user.SearchFilter
	f := &fakeAccounts{
		searchFn: func(ctx context.Context, filter user.SearchFilter) ([]user.PublicUser, error) {
			got = filter
			return []user.PublicUser{}, nil
		},
	}
	r := newTestRouter(f)

	w := do(r, http.MethodGet, "/api/users/search/complex?name=ali&role=ADMIN", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got.NameContains == nil || *got.NameContains != "ali" || got.Role == nil || *got.Role != user.RoleAdmin {
		t.Fatalf("filter = %+v", got)
	}

	w = do(r, http.MethodGet, "/api/users/search/complex", "", nil)
	if w.Code != http.StatusOK || got.NameContains != nil || got.Role != nil {
		t.Fatalf("empty filter: status = %d filter = %+v", w.Code, got)
	}

	w = do(r, http.MethodGet, "/api/users/search/complex?role=GUEST", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad role status = %d", w.Code)
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadyz(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("refused") })

	r := gin.New()
	r.GET("/readyz", handlers.NewHealthHandler(map[string]handlers.Pinger{"db": up}, nil).Readyz)
	if w := do(r, http.MethodGet, "/readyz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("ready status = %d", w.Code)
	}

	r = gin.New()
	r.GET("/readyz", handlers.NewHealthHandler(map[string]handlers.Pinger{"db": up, "redis": down}, nil).Readyz)
	w := do(r, http.MethodGet, "/readyz", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("not ready status = %d", w.Code)
	}

	var body struct {
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Checks["redis"] != "down" || body.Checks["db"] != "up" {
		t.Fatalf("checks = %v", body.Checks)
	}

	r = gin.New()
	r.GET("/readyz", handlers.NewHealthHandler(map[string]handlers.Pinger{"db": up}, func() bool { return true }).Readyz)
	if w := do(r, http.MethodGet, "/readyz", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("draining status = %d", w.Code)
	}
}
