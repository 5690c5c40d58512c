package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/config"
	"github.com/noah-isme/gema-lms-api/internal/database"
	"github.com/noah-isme/gema-lms-api/internal/events"
	"github.com/noah-isme/gema-lms-api/internal/handler"
	"github.com/noah-isme/gema-lms-api/internal/lock"
	"github.com/noah-isme/gema-lms-api/internal/repository"
	"github.com/noah-isme/gema-lms-api/internal/router"
	"github.com/noah-isme/gema-lms-api/internal/service"
)

const (
	teacherID uint = 900
	studentID uint = 42
)

type testApp struct {
	app *fiber.App
	db  *gorm.DB
}

// identity is carried in test headers and copied into the locals the JWT middleware would set.
func testIdentity(c *fiber.Ctx) error {
	if raw := c.Get("X-Test-User"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		c.Locals("user_id", uint(id))
	}
	if role := c.Get("X-Test-Role"); role != "" {
		c.Locals("user_role", role)
	}
	return c.Next()
}

func setupApp(t *testing.T) *testApp {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.ConnectSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)
	locker := lock.NewLocalLocker()
	publisher := events.NopPublisher{}

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	resultRepo := repository.NewGradedResultRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	certificationService := service.NewCertificationService(certificateRepo, resultRepo, assignmentRepo, locker, activityService, publisher,
		service.CertificationConfig{PassThreshold: 60, MaxNumberAttempts: 5}, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, activityService, validate, logger)
	submissionService := service.NewSubmissionService(assignmentRepo, submissionRepo, resultRepo, certificationService, locker, activityService, publisher, validate, logger)
	regradeService := service.NewRegradeService(assignmentRepo, resultRepo, submissionRepo, certificationService, locker, activityService, publisher, validate, logger)
	resultService := service.NewGradedResultService(resultRepo, assignmentRepo, logger)

	app := fiber.New()
	router.Register(app, config.Config{
		AppName:          "Test",
		JWTSecret:        "secret",
		SubmitRateLimit:  100,
		SubmitRateWindow: time.Minute,
	}, router.Dependencies{
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:   handler.NewSubmissionHandler(submissionService, regradeService, logger),
		GradedResultHandler: handler.NewGradedResultHandler(resultService, regradeService, logger),
		CertificateHandler:  handler.NewCertificateHandler(certificationService, logger),
		ActivityHandler:     handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:       testIdentity,
		DisableMetrics:      true,
	})

	return &testApp{app: app, db: db}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}, userID uint, role string) *http.Response {
	t.Helper()

	var reader io.Reader
	switch payload := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(payload)
	default:
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(userID), 10))
	}
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// createAssignment creates a two-question bank worth 20 marks as the teacher.
func (a *testApp) createAssignment(t *testing.T, courseID uint) uint {
	t.Helper()

	payload := map[string]interface{}{
		"courseId":   courseID,
		"title":      "Arithmetic",
		"dueDate":    time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"totalMarks": 100,
		"questions": []map[string]interface{}{
			{"text": "2+2", "type": "short-answer", "correctAnswer": "4", "marks": 10},
			{"text": "Capital of France", "type": "short-answer", "correctAnswer": "Paris", "marks": 10},
		},
	}

	resp := a.do(t, http.MethodPost, "/api/v1/assignments", payload, teacherID, "teacher")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Data struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.NotZero(t, body.Data.ID)
	return body.Data.ID
}

func submitPath(assignmentID uint) string {
	return fmt.Sprintf("/api/v1/assignments/%d/submit", assignmentID)
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}
