package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/events"
	"github.com/noah-isme/gema-lms-api/internal/lock"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) count(eventType events.Type) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, event := range p.events {
		if event.Type == eventType {
			total++
		}
	}
	return total
}

type pipeline struct {
	db            *gorm.DB
	assignments   repository.AssignmentRepository
	results       repository.GradedResultRepository
	certificates  repository.CertificateRepository
	activityLogs  repository.ActivityLogRepository
	publisher     *recordingPublisher
	certification CertificationService
	submissions   SubmissionService
	regrades      RegradeService
	reads         GradedResultService
}

type certificateRepoWrapper func(repository.CertificateRepository) repository.CertificateRepository

func newPipeline(t *testing.T, threshold int, wrap ...certificateRepoWrapper) *pipeline {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Assignment{}, &models.GradedResult{}, &models.Certificate{}, &models.ActivityLog{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	p := &pipeline{
		db:           db,
		assignments:  repository.NewAssignmentRepository(db),
		results:      repository.NewGradedResultRepository(db),
		certificates: repository.NewCertificateRepository(db),
		activityLogs: repository.NewActivityLogRepository(db),
		publisher:    &recordingPublisher{},
	}
	for _, w := range wrap {
		p.certificates = w(p.certificates)
	}

	locker := lock.NewLocalLocker()
	activity := NewActivityService(p.activityLogs, testLogger())
	validate := validator.New(validator.WithRequiredStructEnabled())
	submissionRepo := repository.NewSubmissionRepository(db)

	p.certification = NewCertificationService(p.certificates, p.results, p.assignments, locker, activity, p.publisher, CertificationConfig{PassThreshold: threshold, MaxNumberAttempts: 5}, testLogger())
	p.submissions = NewSubmissionService(p.assignments, submissionRepo, p.results, p.certification, locker, activity, p.publisher, validate, testLogger())
	p.regrades = NewRegradeService(p.assignments, p.results, submissionRepo, p.certification, locker, activity, p.publisher, validate, testLogger())
	p.reads = NewGradedResultService(p.results, p.assignments, testLogger())

	return p
}

func (p *pipeline) createAssignment(t *testing.T, courseID uint, totalMarks int, questions ...models.Question) models.Assignment {
	t.Helper()

	assignment := models.Assignment{
		CourseID:     courseID,
		InstructorID: 900,
		Title:        "Assignment",
		DueDate:      time.Now().Add(48 * time.Hour),
		TotalMarks:   totalMarks,
		Questions:    questions,
	}
	require.NoError(t, p.db.Create(&assignment).Error)
	return assignment
}

func (p *pipeline) certificateCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, p.db.Model(&models.Certificate{}).Count(&count).Error)
	return count
}

func submitRequest(texts ...string) dto.SubmitRequest {
	answers := make([]dto.AnswerRequest, 0, len(texts))
	for idx, text := range texts {
		id := idx
		value := text
		answers = append(answers, dto.AnswerRequest{QuestionID: &id, Answer: &value})
	}
	return dto.SubmitRequest{Answers: answers}
}

func marks(id int, value float64) dto.RegradeAnswerRequest {
	return dto.RegradeAnswerRequest{QuestionID: &id, Marks: &value}
}

func shortQuestion(answer string, marks float64) models.Question {
	return models.Question{Text: "short", Type: models.QuestionTypeShortAnswer, CorrectAnswer: answer, Marks: marks}
}

func essayQuestion(answer string, marks float64) models.Question {
	return models.Question{Text: "essay", Type: models.QuestionTypeEssay, CorrectAnswer: answer, Marks: marks}
}

var staff = ActivityActor{ID: 900, Role: "teacher"}
