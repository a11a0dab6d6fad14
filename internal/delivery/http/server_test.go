package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"recipes/config"
	"recipes/internal/delivery/http/cookie"
	"recipes/internal/delivery/http/middleware"
	"recipes/internal/delivery/http/router"
	"recipes/internal/delivery/http/router/handler"
	"recipes/internal/domain/repository"
	"recipes/internal/infra/auth"
	"recipes/internal/infra/persistence/memory"
	"recipes/internal/infra/persistence/model"
	"recipes/internal/infra/persistence/rdb"
	"recipes/internal/usecase/impl"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const longInstructions = "Whisk the eggs, fold in the flour, and bake for twenty minutes at 180C."

type testApp struct {
	e  *echo.Echo
	db *gorm.DB
}

func newTestApp(t *testing.T, store string) *testApp {
	t.Helper()

	return newTestAppWithDatabase(t, store, &config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:", AutoMigrate: true})
}

func newTestAppWithDatabase(t *testing.T, store string, dbCfg *config.DatabaseConfig) *testApp {
	t.Helper()

	cfg := &config.Config{
		Database: dbCfg,
		Session:  &config.SessionConfig{Store: store},
		Auth:     &config.AuthConfig{BcryptCost: bcrypt.MinCost},
	}
	cfg.ApplyDefaults()
	logger := slog.New(slog.DiscardHandler)

	db, err := rdb.Open(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, rdb.Migrate(db, cfg))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	var sessionRepo repository.SessionRepository = memory.NewSessionRepository()
	if store == config.SessionStoreDatabase {
		sessionRepo = rdb.NewSessionRepository(db)
	}

	txManager := rdb.NewTransactionManager(db)
	users := impl.NewUserService(impl.UserServiceParams{
		TxManager: txManager,
		UserRepo:  rdb.NewUserRepository(db),
		Hasher:    auth.NewBcryptHasher(cfg),
		Logger:    logger,
	})
	sessions := impl.NewSessionService(impl.SessionServiceParams{
		SessionRepo:  sessionRepo,
		TokenService: auth.NewSessionTokenService(),
		Config:       cfg,
		Logger:       logger,
	})
	recipes := impl.NewRecipeService(impl.RecipeServiceParams{
		TxManager:  txManager,
		RecipeRepo: rdb.NewRecipeRepository(db),
		Logger:     logger,
	})
	cookies := cookie.NewManager(cfg)

	routerParams := router.RouterParams{
		UserHandler: handler.NewUserHandler(handler.UserHandlerParams{
			Users:    users,
			Sessions: sessions,
			Cookies:  cookies,
			Logger:   logger,
		}),
		RecipeHandler: handler.NewRecipeHandler(handler.RecipeHandlerParams{
			Recipes: recipes,
			Logger:  logger,
		}),
		SessionMiddleware: middleware.NewSessionMiddleware(middleware.SessionMiddlewareParams{
			Sessions: sessions,
			Cookies:  cookies,
			Logger:   logger,
		}),
	}

	return &testApp{
		e:  NewEcho(cfg, logger, middleware.NewErrorMiddleware(logger), routerParams),
		db: db,
	}
}

// client keeps the session cookie between requests the way a browser would.
type client struct {
	t       *testing.T
	app     *testApp
	session *http.Cookie
}

func (app *testApp) client(t *testing.T) *client {
	return &client{t: t, app: app}
}

func (cl *client) do(method, path string, body any) *httptest.ResponseRecorder {
	cl.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(cl.t, err)
		reader = strings.NewReader(string(raw))
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if cl.session != nil {
		req.AddCookie(cl.session)
	}

	rec := httptest.NewRecorder()
	cl.app.e.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name != "session" {
			continue
		}
		if ck.MaxAge < 0 || ck.Value == "" {
			cl.session = nil
		} else {
			cl.session = ck
		}
	}

	return rec
}

func (cl *client) signup(username, password string) *httptest.ResponseRecorder {
	return cl.do(http.MethodPost, "/signup", map[string]any{"username": username, "password": password})
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return out
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["error"]
}

type APISuite struct {
	suite.Suite
	store string
	app   *testApp
}

func TestAPI_MemorySessions(t *testing.T) {
	suite.Run(t, &APISuite{store: config.SessionStoreMemory})
}

func TestAPI_DatabaseSessions(t *testing.T) {
	suite.Run(t, &APISuite{store: config.SessionStoreDatabase})
}

func (s *APISuite) SetupTest() {
	s.app = newTestApp(s.T(), s.store)
}

func (s *APISuite) count(m any) int64 {
	var n int64
	s.Require().NoError(s.app.db.Model(m).Count(&n).Error)

	return n
}

func (s *APISuite) TestHealth() {
	rec := s.app.client(s.T()).do(http.MethodGet, "/health", nil)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
}

func (s *APISuite) TestSignup_MissingFields() {
	bodies := []any{
		map[string]any{"username": "", "password": "pw"},
		map[string]any{"username": "alice", "password": ""},
		map[string]any{"username": "alice"},
		map[string]any{},
		`{"username": 5}`,
	}

	for _, body := range bodies {
		cl := s.app.client(s.T())
		rec := cl.do(http.MethodPost, "/signup", body)

		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Equal("Username and password are required.", errorMessage(s.T(), rec))
		s.Nil(cl.session)
	}

	s.Zero(s.count(&model.UserModel{}))
}

func (s *APISuite) TestSignup_DuplicateUsername() {
	first := s.app.client(s.T())
	s.Require().Equal(http.StatusCreated, first.signup("alice", "pw1").Code)
	before := s.count(&model.UserModel{})

	second := s.app.client(s.T())
	rec := second.signup("alice", "pw2")

	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal("Username already exists.", errorMessage(s.T(), rec))
	s.Nil(second.session)
	s.Equal(before, s.count(&model.UserModel{}))
}

func (s *APISuite) TestSignup_ColumnWidthLimits() {
	cl := s.app.client(s.T())

	rec := cl.signup(strings.Repeat("u", 51), "secret")
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal("Username must be at most 50 characters long", errorMessage(s.T(), rec))

	rec = cl.do(http.MethodPost, "/signup", map[string]any{
		"username": "alice",
		"password": "secret",
		"bio":      strings.Repeat("b", 256),
	})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal("Bio must be at most 255 characters long", errorMessage(s.T(), rec))
	s.Zero(s.count(&model.UserModel{}))
}

func (s *APISuite) TestSignup_ThenCheckSession() {
	cl := s.app.client(s.T())
	rec := cl.do(http.MethodPost, "/signup", map[string]any{
		"username":  "alice",
		"password":  "secret",
		"image_url": "https://example.com/a.png",
		"bio":       "Cooks a lot.",
	})

	s.Require().Equal(http.StatusCreated, rec.Code)
	s.NotContains(rec.Body.String(), "password")
	created := decode[map[string]any](s.T(), rec)
	s.ElementsMatch([]string{"id", "username", "image_url", "bio"}, keys(created))
	s.Equal("alice", created["username"])
	s.Equal("https://example.com/a.png", created["image_url"])
	s.Require().NotNil(cl.session)
	s.True(cl.session.HttpOnly)

	rec = cl.do(http.MethodGet, "/check_session", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(created["id"], decode[map[string]any](s.T(), rec)["id"])
}

func (s *APISuite) TestCheckSession_Unauthenticated() {
	cl := s.app.client(s.T())
	rec := cl.do(http.MethodGet, "/check_session", nil)

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.JSONEq(`{"error":"Unauthorized"}`, rec.Body.String())

	cl.session = &http.Cookie{Name: "session", Value: "forged"}
	rec = cl.do(http.MethodGet, "/check_session", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Nil(cl.session, "invalid cookie is cleared")
}

func (s *APISuite) TestLogin() {
	s.Require().Equal(http.StatusCreated, s.app.client(s.T()).signup("alice", "secret").Code)

	cl := s.app.client(s.T())
	rec := cl.do(http.MethodPost, "/login", map[string]any{"username": "alice", "password": "secret"})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("alice", decode[map[string]any](s.T(), rec)["username"])
	s.NotContains(rec.Body.String(), "password")
	s.Require().NotNil(cl.session)
	s.Equal(http.StatusOK, cl.do(http.MethodGet, "/check_session", nil).Code)

	wrongPassword := s.app.client(s.T()).do(http.MethodPost, "/login", map[string]any{"username": "alice", "password": "nope"})
	unknownUser := s.app.client(s.T()).do(http.MethodPost, "/login", map[string]any{"username": "bob", "password": "secret"})
	malformed := s.app.client(s.T()).do(http.MethodPost, "/login", `{"username": [`)

	for _, rec := range []*httptest.ResponseRecorder{wrongPassword, unknownUser, malformed} {
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.JSONEq(`{"error":"Invalid credentials"}`, rec.Body.String())
		s.Empty(rec.Result().Cookies())
	}
}

func (s *APISuite) TestLogout() {
	anonymous := s.app.client(s.T())
	rec := anonymous.do(http.MethodDelete, "/logout", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.JSONEq(`{"error":"Unauthorized"}`, rec.Body.String())

	cl := s.app.client(s.T())
	s.Require().Equal(http.StatusCreated, cl.signup("alice", "secret").Code)
	stale := *cl.session

	rec = cl.do(http.MethodDelete, "/logout", nil)
	s.Equal(http.StatusNoContent, rec.Code)
	s.Empty(rec.Body.String())
	s.Nil(cl.session)

	s.Equal(http.StatusUnauthorized, cl.do(http.MethodGet, "/check_session", nil).Code)

	// Replaying the old cookie must not resurrect the session.
	cl.session = &stale
	s.Equal(http.StatusUnauthorized, cl.do(http.MethodGet, "/check_session", nil).Code)
}

func (s *APISuite) TestCreateRecipe_Unauthenticated() {
	cl := s.app.client(s.T())
	bodies := []any{
		map[string]any{"title": "Cake", "instructions": longInstructions, "minutes_to_complete": 30},
		map[string]any{},
		"not json",
	}

	for _, body := range bodies {
		rec := cl.do(http.MethodPost, "/recipes", body)
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.JSONEq(`{"error":"Unauthorized"}`, rec.Body.String())
	}

	s.Equal(http.StatusUnauthorized, cl.do(http.MethodGet, "/recipes", nil).Code)
	s.Zero(s.count(&model.RecipeModel{}))
}

func (s *APISuite) TestCreateRecipe_Validation() {
	cl := s.app.client(s.T())
	s.Require().Equal(http.StatusCreated, cl.signup("alice", "secret").Code)

	tests := []struct {
		body    any
		message string
	}{
		{map[string]any{"title": "Cake", "instructions": "Too short.", "minutes_to_complete": 30}, "Instructions must be at least 50 characters long"},
		{map[string]any{"title": "", "instructions": longInstructions, "minutes_to_complete": 30}, "Title, instructions, and minutes to complete are required."},
		{map[string]any{"title": "Cake", "instructions": longInstructions, "minutes_to_complete": 0}, "Title, instructions, and minutes to complete are required."},
		{map[string]any{"title": "Cake", "instructions": longInstructions}, "Title, instructions, and minutes to complete are required."},
		{map[string]any{"title": "Cake", "instructions": longInstructions, "minutes_to_complete": "thirty"}, "Title, instructions, and minutes to complete are required."},
		{map[string]any{"title": "Cake", "instructions": strings.Repeat("a", 256), "minutes_to_complete": 30}, "Instructions must be at most 255 characters long"},
	}

	for _, tt := range tests {
		rec := cl.do(http.MethodPost, "/recipes", tt.body)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Equal(tt.message, errorMessage(s.T(), rec))
	}

	s.Zero(s.count(&model.RecipeModel{}))
}

func (s *APISuite) TestRecipes_RoundTrip() {
	alice := s.app.client(s.T())
	s.Require().Equal(http.StatusCreated, alice.signup("alice", "secret").Code)
	bob := s.app.client(s.T())
	s.Require().Equal(http.StatusCreated, bob.signup("bob", "secret").Code)

	rec := alice.do(http.MethodGet, "/recipes", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())

	type recipeBody struct {
		Title             string `json:"title"`
		Instructions      string `json:"instructions"`
		MinutesToComplete int    `json:"minutes_to_complete"`
		User              struct {
			ID       int64   `json:"id"`
			Username string  `json:"username"`
			ImageURL *string `json:"image_url"`
			Bio      *string `json:"bio"`
		} `json:"user"`
	}

	authors := []*client{alice, bob, alice}
	for i, author := range authors {
		rec := author.do(http.MethodPost, "/recipes", map[string]any{
			"title":               "Recipe " + string(rune('A'+i)),
			"instructions":        longInstructions,
			"minutes_to_complete": 10 + i,
		})
		s.Require().Equal(http.StatusCreated, rec.Code)
		s.NotContains(rec.Body.String(), "password")

		created := decode[recipeBody](s.T(), rec)
		s.Equal("Recipe "+string(rune('A'+i)), created.Title)
		s.Equal(10+i, created.MinutesToComplete)
	}

	rec = bob.do(http.MethodGet, "/recipes", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	listed := decode[[]recipeBody](s.T(), rec)
	s.Require().Len(listed, len(authors))

	wantOwners := []string{"alice", "bob", "alice"}
	for i, r := range listed {
		s.Equal("Recipe "+string(rune('A'+i)), r.Title)
		s.Equal(longInstructions, r.Instructions)
		s.Equal(10+i, r.MinutesToComplete)
		s.Equal(wantOwners[i], r.User.Username)
		s.NotZero(r.User.ID)
		s.Nil(r.User.ImageURL)
	}
	s.NotContains(rec.Body.String(), "password")
}

func (s *APISuite) TestUnknownRouteUsesErrorShape() {
	rec := s.app.client(s.T()).do(http.MethodGet, "/nope", nil)

	s.Equal(http.StatusNotFound, rec.Code)
	s.JSONEq(`{"error":"Not Found"}`, rec.Body.String())
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	return out
}

func TestNewEcho_RequestIDHeader(t *testing.T) {
	app := newTestApp(t, config.SessionStoreMemory)
	rec := app.client(t).do(http.MethodGet, "/health", nil)

	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

// serveConcurrently runs one request per body in parallel and returns the recorders in order.
func (app *testApp) serveConcurrently(method, path string, bodies []string, cookies []*http.Cookie) []*httptest.ResponseRecorder {
	recs := make([]*httptest.ResponseRecorder, len(bodies))

	var wg sync.WaitGroup
	for i, body := range bodies {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			if cookies != nil {
				req.AddCookie(cookies[i])
			}
			recs[i] = httptest.NewRecorder()
			app.e.ServeHTTP(recs[i], req)
		}()
	}
	wg.Wait()

	return recs
}

func TestAPI_ConcurrentWritesOnFileDatabase(t *testing.T) {
	const parallel = 40

	app := newTestAppWithDatabase(t, config.SessionStoreMemory, &config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "recipes.db"),
		MaxOpenConns: 20,
		AutoMigrate:  true,
	})

	signups := make([]string, parallel)
	for i := range signups {
		signups[i] = fmt.Sprintf(`{"username":"cook-%d","password":"secret"}`, i)
	}

	cookies := make([]*http.Cookie, parallel)
	for i, rec := range app.serveConcurrently(http.MethodPost, "/signup", signups, nil) {
		require.Equal(t, http.StatusCreated, rec.Code, "signup %d: %s", i, rec.Body.String())
		for _, ck := range rec.Result().Cookies() {
			if ck.Name == "session" {
				cookies[i] = ck
			}
		}
		require.NotNil(t, cookies[i], "signup %d set no session cookie", i)
	}

	recipes := make([]string, parallel)
	for i := range recipes {
		recipes[i] = fmt.Sprintf(`{"title":"Recipe %d","instructions":%q,"minutes_to_complete":%d}`, i, longInstructions, 10+i)
	}
	for i, rec := range app.serveConcurrently(http.MethodPost, "/recipes", recipes, cookies) {
		assert.Equal(t, http.StatusCreated, rec.Code, "recipe %d: %s", i, rec.Body.String())
	}

	var users, created int64
	require.NoError(t, app.db.Model(&model.UserModel{}).Count(&users).Error)
	require.NoError(t, app.db.Model(&model.RecipeModel{}).Count(&created).Error)
	assert.Equal(t, int64(parallel), users)
	assert.Equal(t, int64(parallel), created)
}
