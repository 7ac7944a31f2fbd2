package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/appraise/core/appraisal"
	"github.com/trezcool/appraise/core/faculty"
	"github.com/trezcool/appraise/core/user"
)

var (
	signingKey = []byte("appraise-test-secret")

	errInvalidCredentials = echo.NewHTTPError(http.StatusBadRequest, "invalid credentials")
	errEmailTaken         = echo.NewHTTPError(http.StatusBadRequest, "email already registered")
	errUnknownVisitor     = echo.NewHTTPError(http.StatusBadRequest, "unknown matriculation number")
	errHttpNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
)

const (
	contextTokenKey = "userToken"
	DefaultTokenTTL = time.Hour
)

type (
	// Request is what the Backend saw of one incoming request.
	Request struct {
		Method    string
		Path      string
		RequestID string
		Auth      string
		Body      map[string]interface{}
	}

	// StreamEvent is one scripted server push.
	StreamEvent struct {
		Name string
		Data interface{}
	}

	account struct {
		user     user.User
		password string
	}
)

// Backend is an in-process fake of the appraisal backend: the REST endpoints and the users SSE feed.
type Backend struct {
	t      *testing.T
	app    *echo.Echo
	server *httptest.Server

	mu         sync.Mutex
	accounts   []*account
	appraisals []appraisal.Appraisal
	faculties  []faculty.Faculty
	scores     []appraisal.Submission
	requests   []Request
	streams    map[int]chan StreamEvent
	nextStream int
	tokenTTL   time.Duration
	failWith   map[string]*echo.HTTPError
}

// NewBackend starts a fake backend that is shut down with the test.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		t:        t,
		app:      echo.New(),
		streams:  make(map[int]chan StreamEvent),
		tokenTTL: DefaultTokenTTL,
		failWith: make(map[string]*echo.HTTPError),
	}
	b.setup()
	b.server = httptest.NewServer(b.app)
	t.Cleanup(b.Close)
	return b
}

func (b *Backend) setup() {
	b.app.HideBanner = true
	b.app.Logger.SetLevel(log.OFF)
	b.app.HTTPErrorHandler = httpErrorHandler
	b.app.Pre(middleware.RemoveTrailingSlash())
	b.app.Use(b.record)

	headerJWT := middleware.JWTWithConfig(jwtConfig("header:" + echo.HeaderAuthorization))
	queryJWT := middleware.JWTWithConfig(jwtConfig("query:token"))

	b.app.POST("/login", b.login)
	b.app.POST("/register", b.register)
	b.app.POST("/visitor", b.visitor)
	b.app.POST("/users", b.createUser, headerJWT)
	b.app.GET("/appraisals", b.listAppraisals, headerJWT)
	b.app.POST("/appraisals", b.createAppraisal, headerJWT)
	b.app.POST("/appraisals/:id/scores", b.submitScores, headerJWT)
	b.app.GET("/faculties", b.listFaculties, headerJWT)
	b.app.GET("/stream/users", b.streamUsers, queryJWT)
}

func jwtConfig(lookup string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    signingKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(jwt.StandardClaims),
		TokenLookup:   lookup,
	}
}

// URL is the base URL to give to the API client.
func (b *Backend) URL() string {
	return b.server.URL
}

// Close drops every stream and stops the server. It is safe to call more than once.
func (b *Backend) Close() {
	b.DropStreams()
	b.server.Close()
}

// SetTokenTTL changes the lifetime of tokens issued from now on.
func (b *Backend) SetTokenTTL(ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokenTTL = ttl
}

// FailNext makes the next request to path answer with code and {"error": msg}.
func (b *Backend) FailNext(path string, code int, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWith[path] = echo.NewHTTPError(code, msg)
}

// AddUser registers an account; an empty ID gets a fresh uuid.
func (b *Backend) AddUser(usr user.User, password string) user.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(usr, password)
}

func (b *Backend) addUserLocked(usr user.User, password string) user.User {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	if !usr.CreatedAt.Valid {
		usr.CreatedAt = null.TimeFrom(time.Now().UTC().Truncate(time.Second))
	}
	b.accounts = append(b.accounts, &account{user: usr, password: password})
	return usr
}

func (b *Backend) AddAppraisal(a appraisal.Appraisal) appraisal.Appraisal {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	b.appraisals = append(b.appraisals, a)
	return a
}

func (b *Backend) AddFaculty(f faculty.Faculty) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faculties = append(b.faculties, f)
}

func (b *Backend) Users() []user.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	users := make([]user.User, 0, len(b.accounts))
	for _, acc := range b.accounts {
		users = append(users, acc.user)
	}
	return users
}

func (b *Backend) Scores() []appraisal.Submission {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]appraisal.Submission(nil), b.scores...)
}

// Requests returns every request received so far, in arrival order.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Token signs a token for usr expiring after ttl.
func (b *Backend) Token(usr user.User, ttl time.Duration) string {
	token, err := GenerateToken(usr, ttl)
	if err != nil {
		b.t.Fatalf("Token() failed: %v", err)
	}
	return token
}

// GenerateToken signs a HS256 JWT whose subject is usr.ID.
func GenerateToken(usr user.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &jwt.StandardClaims{
		Subject:   usr.ID,
		Issuer:    "appraise-test",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString(signingKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Push broadcasts an event to every open users stream.
func (b *Backend) Push(name string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.streams {
		select {
		case ch <- StreamEvent{Name: name, Data: data}:
		default:
			b.t.Logf("users stream full: dropping %s event", name)
		}
	}
}

// StreamCount is the number of users streams currently open.
func (b *Backend) StreamCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.streams)
}

// DropStreams ends every open users stream, as a server restart would.
func (b *Backend) DropStreams() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.streams {
		close(ch)
		delete(b.streams, id)
	}
}

func (b *Backend) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		rec := Request{
			Method:    req.Method,
			Path:      req.URL.Path,
			RequestID: req.Header.Get("X-Request-ID"),
			Auth:      req.Header.Get(echo.HeaderAuthorization),
		}
		if req.Body != nil && req.Method != http.MethodGet {
			raw, err := io.ReadAll(req.Body)
			if err != nil {
				return err
			}
			req.Body = io.NopCloser(bytes.NewReader(raw))
			var body map[string]interface{}
			if json.Unmarshal(raw, &body) == nil {
				rec.Body = body
			}
		}

		b.mu.Lock()
		b.requests = append(b.requests, rec)
		fail, ok := b.failWith[req.URL.Path]
		delete(b.failWith, req.URL.Path)
		b.mu.Unlock()

		if ok {
			return fail
		}
		return next(ctx)
	}
}

// httpErrorHandler answers {"error": msg}, like the real backend.
func httpErrorHandler(err error, ctx echo.Context) {
	code := http.StatusInternalServerError
	var message interface{} = http.StatusText(code)

	if herr, ok := errors.Cause(err).(*echo.HTTPError); ok {
		code = herr.Code
		message = herr.Message
		if herr == middleware.ErrJWTMissing {
			code = http.StatusUnauthorized
		}
	}
	if m, ok := message.(string); ok {
		message = echo.Map{"error": m}
	}
	if !ctx.Response().Committed {
		_ = ctx.JSON(code, message)
	}
}

func contextUserID(ctx echo.Context) string {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*jwt.StandardClaims); ok {
			return claims.Subject
		}
	}
	return ""
}

func (b *Backend) authResponse(ctx echo.Context, code int, usr user.User, msg string) error {
	b.mu.Lock()
	ttl := b.tokenTTL
	b.mu.Unlock()

	token, err := GenerateToken(usr, ttl)
	if err != nil {
		return err
	}
	return ctx.JSON(code, user.AuthResponse{User: usr, Token: token, Message: msg})
}

func (b *Backend) login(ctx echo.Context) error {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.Bind(&creds); err != nil {
		return err
	}

	b.mu.Lock()
	var found *account
	for _, acc := range b.accounts {
		if strings.EqualFold(acc.user.Email, creds.Email) && acc.password == creds.Password {
			found = acc
			break
		}
	}
	b.mu.Unlock()

	if found == nil {
		return errInvalidCredentials
	}
	return b.authResponse(ctx, http.StatusOK, found.user, "Login successful")
}

func (b *Backend) visitor(ctx echo.Context) error {
	var vis struct {
		MatNo string `json:"matno"`
	}
	if err := ctx.Bind(&vis); err != nil {
		return err
	}

	b.mu.Lock()
	var found *account
	for _, acc := range b.accounts {
		if acc.user.MatNo != "" && strings.EqualFold(acc.user.MatNo, vis.MatNo) {
			found = acc
			break
		}
	}
	b.mu.Unlock()

	if found == nil {
		return errUnknownVisitor
	}
	return b.authResponse(ctx, http.StatusOK, found.user, "Welcome")
}

func (b *Backend) register(ctx echo.Context) error {
	var reg struct {
		Firstname string `json:"firstname"`
		Lastname  string `json:"lastname"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}
	if err := ctx.Bind(&reg); err != nil {
		return err
	}

	b.mu.Lock()
	for _, acc := range b.accounts {
		if strings.EqualFold(acc.user.Email, reg.Email) {
			b.mu.Unlock()
			return errEmailTaken
		}
	}
	usr := b.addUserLocked(user.User{
		Firstname: reg.Firstname,
		Lastname:  reg.Lastname,
		Email:     reg.Email,
		Role:      user.RoleAdmin,
	}, reg.Password)
	b.mu.Unlock()

	b.Push("userUpdate", usr)
	return b.authResponse(ctx, http.StatusCreated, usr, "Registration successful")
}

func (b *Backend) createUser(ctx echo.Context) error {
	var nu struct {
		Firstname string `json:"firstname"`
		Lastname  string `json:"lastname"`
		Email     string `json:"email"`
		Role      string `json:"role"`
		Password  string `json:"password"`
	}
	if err := ctx.Bind(&nu); err != nil {
		return err
	}

	b.mu.Lock()
	for _, acc := range b.accounts {
		if strings.EqualFold(acc.user.Email, nu.Email) {
			b.mu.Unlock()
			return errEmailTaken
		}
	}
	usr := b.addUserLocked(user.User{
		Firstname: nu.Firstname,
		Lastname:  nu.Lastname,
		Email:     nu.Email,
		Role:      nu.Role,
	}, nu.Password)
	b.mu.Unlock()

	b.Push("userUpdate", usr)
	return ctx.JSON(http.StatusCreated, usr)
}

func (b *Backend) listAppraisals(ctx echo.Context) error {
	b.mu.Lock()
	appraisals := append([]appraisal.Appraisal{}, b.appraisals...)
	b.mu.Unlock()
	return ctx.JSON(http.StatusOK, appraisals)
}

func (b *Backend) createAppraisal(ctx echo.Context) error {
	var na appraisal.NewAppraisal
	if err := ctx.Bind(&na); err != nil {
		return err
	}
	a := appraisal.Appraisal{
		Name:        na.Name,
		Description: na.Description,
		Status:      na.Status,
		Criteria:    na.Criteria,
		CreatedAt:   null.TimeFrom(time.Now().UTC().Truncate(time.Second)),
	}
	for i := range a.Criteria {
		a.Criteria[i].ID = uuid.New().String()
	}
	return ctx.JSON(http.StatusCreated, b.AddAppraisal(a))
}

func (b *Backend) submitScores(ctx echo.Context) error {
	var sub appraisal.Submission
	if err := ctx.Bind(&sub); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.appraisals {
		if a.ID == ctx.Param("id") {
			b.scores = append(b.scores, sub)
			return ctx.NoContent(http.StatusNoContent)
		}
	}
	return errHttpNotFound
}

func (b *Backend) listFaculties(ctx echo.Context) error {
	b.mu.Lock()
	faculties := append([]faculty.Faculty{}, b.faculties...)
	b.mu.Unlock()
	return ctx.JSON(http.StatusOK, faculties)
}

// streamUsers seeds the stream with every user (initUsers) then forwards pushed events.
func (b *Backend) streamUsers(ctx echo.Context) error {
	b.mu.Lock()
	id := b.nextStream
	b.nextStream++
	events := make(chan StreamEvent, 16)
	b.streams[id] = events
	users := make([]user.User, 0, len(b.accounts))
	for _, acc := range b.accounts {
		users = append(users, acc.user)
	}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		if ch, ok := b.streams[id]; ok && ch == events {
			delete(b.streams, id)
		}
		b.mu.Unlock()
	}()

	resp := ctx.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.WriteHeader(http.StatusOK)

	if err := writeEvent(resp, StreamEvent{Name: "initUsers", Data: users}); err != nil {
		return nil
	}
	for {
		select {
		case <-ctx.Request().Context().Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := writeEvent(resp, ev); err != nil {
				return nil
			}
		}
	}
}

// writeEvent writes ev; string data is sent verbatim so tests can push malformed payloads.
func writeEvent(resp *echo.Response, ev StreamEvent) error {
	var data string
	switch d := ev.Data.(type) {
	case string:
		data = d
	default:
		raw, err := json.Marshal(d)
		if err != nil {
			return err
		}
		data = string(raw)
	}
	if _, err := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", ev.Name, data); err != nil {
		return err
	}
	resp.Flush()
	return nil
}
