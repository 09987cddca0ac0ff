package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-pools/internal/auth"
	"github.com/hugh/go-pools/internal/database"
	"github.com/hugh/go-pools/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the plaintext password of every user created by CreateTestUser.
const TestPassword = "testpassword123"

// SetupTestDB creates an in-memory SQLite database for testing. The pool is
// limited to one connection so that concurrent goroutines share the same
// in-memory database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// CreateTestUser creates an active user. An empty email gets a random one.
func CreateTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	return createUser(t, db, email, models.RoleUser)
}

// CreateTestAdmin creates a global admin.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return createUser(t, db, "", models.RoleAdmin)
}

func createUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	if email == "" {
		email = "test-" + uuid.New().String()[:8] + "@example.com"
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		IsActive:     true,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateTestBoard creates a board owned by owner. The squares grid is not
// materialized.
func CreateTestBoard(t *testing.T, db *gorm.DB, owner *models.User, boardType models.BoardType) *models.Board {
	t.Helper()

	board := &models.Board{
		Name:            "Test Board " + uuid.New().String()[:8],
		Type:            boardType,
		CreatedByUserID: owner.ID,
		IsEditable:      true,
	}

	if err := db.Create(board).Error; err != nil {
		t.Fatalf("failed to create test board: %v", err)
	}

	AddTestMember(t, db, board, owner, models.BoardRoleOwner)
	return board
}

// AddTestMember adds user to board with the given role.
func AddTestMember(t *testing.T, db *gorm.DB, board *models.Board, user *models.User, role models.BoardRole) *models.BoardMember {
	t.Helper()

	member := &models.BoardMember{
		BoardID: board.ID,
		UserID:  user.ID,
		Role:    role,
	}

	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to add test member: %v", err)
	}

	return member
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken signs a token for user and stores the backing session.
func GenerateTestToken(t *testing.T, db *gorm.DB, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, claims, err := jwtService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	session := &models.Session{
		UserID:    user.ID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := db.Create(session).Error; err != nil {
		t.Fatalf("failed to create test session: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB         *gorm.DB
	JWTService *auth.JWTService
	Auth       *auth.Service
	User       *models.User
	Token      string
}

// NewTestContext creates a complete test setup with DB, user, and a token
// backed by a live session.
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	user := CreateTestUser(t, db, "")
	token := GenerateTestToken(t, db, jwtService, user)

	return &TestSetup{
		DB:         db,
		JWTService: jwtService,
		Auth:       auth.NewService(db, jwtService),
		User:       user,
		Token:      token,
	}
}

// TokenFor returns a session-backed token for another user.
func (ts *TestSetup) TokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	return GenerateTestToken(t, ts.DB, ts.JWTService, user)
}
