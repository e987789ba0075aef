package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sollo/sheet-admin/internal/api/middleware"
	"github.com/sollo/sheet-admin/internal/core/domain"
	"github.com/sollo/sheet-admin/internal/core/ports"
)

type stubAuthService struct {
	loginFn  func(ctx context.Context, username, password string) (*ports.LoginResult, error)
	logoutFn func(ctx context.Context, claims *domain.Claims) error
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) Logout(ctx context.Context, claims *domain.Claims) error {
	return s.logoutFn(ctx, claims)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.Claims, error) {
	return nil, domain.ErrUnauthenticated
}

type stubUserService struct {
	listFn   func(ctx context.Context) ([]domain.UserSummary, error)
	createFn func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error)
	updateFn func(ctx context.Context, ref string, in ports.UpdateUserInput) (*domain.User, error)
	deleteFn func(ctx context.Context, actor *domain.Claims, ref string) error
}

func (s *stubUserService) List(ctx context.Context) ([]domain.UserSummary, error) {
	return s.listFn(ctx)
}

func (s *stubUserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}

func (s *stubUserService) Update(ctx context.Context, ref string, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, ref, in)
}

func (s *stubUserService) Delete(ctx context.Context, actor *domain.Claims, ref string) error {
	return s.deleteFn(ctx, actor, ref)
}

func (s *stubUserService) Bootstrap(context.Context, string) error { return nil }

type stubRecordService struct {
	listFn   func(ctx context.Context) (domain.Record, error)
	createFn func(ctx context.Context, rec domain.Record) (domain.Record, error)
	updateFn func(ctx context.Context, index int, rec domain.Record) (domain.Record, error)
	deleteFn func(ctx context.Context, index int) (domain.Record, error)
	importFn func(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error)
}

func (s *stubRecordService) List(ctx context.Context) (domain.Record, error) {
	return s.listFn(ctx)
}

func (s *stubRecordService) Create(ctx context.Context, rec domain.Record) (domain.Record, error) {
	return s.createFn(ctx, rec)
}

func (s *stubRecordService) Update(ctx context.Context, index int, rec domain.Record) (domain.Record, error) {
	return s.updateFn(ctx, index, rec)
}

func (s *stubRecordService) Delete(ctx context.Context, index int) (domain.Record, error) {
	return s.deleteFn(ctx, index)
}

func (s *stubRecordService) Import(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
	return s.importFn(ctx, filename, r)
}

// newContext builds an echo context for a JSON request. claims, when not
// nil, are injected the way the Auth middleware does.
func newContext(method, target, body string, claims *domain.Claims) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if claims != nil {
		c.Set(middleware.ClaimsKey, claims)
		c.Set(middleware.UsernameKey, claims.Username)
		c.Set(middleware.RoleKey, string(claims.Role))
	}
	return c, rec
}

var (
	adminClaims = &domain.Claims{Username: "admin", Role: domain.RoleAdmin, TokenID: "admin-token"}
	userClaims  = &domain.Claims{Username: "bob", Role: domain.RoleUser, TokenID: "bob-token"}
)
