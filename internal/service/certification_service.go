package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/events"
	"github.com/noah-isme/gema-lms-api/internal/lock"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/observability"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

const (
	certificateKindAssignment = "assignment"
	certificateKindCourse     = "course"
)

// CertificationConfig carries the pass threshold and number generation limits.
type CertificationConfig struct {
	PassThreshold     int
	MaxNumberAttempts int
}

// CertificationService decides and records certificate issuance.
type CertificationService interface {
	// MaybeIssue issues at most one certificate for the result's (student, course, assignment)
	// when the percentage reaches the pass threshold. It returns nil when no certificate applies.
	MaybeIssue(ctx context.Context, result models.GradedResult, instructorID uint) (*models.Certificate, error)
	IssueCourseCompletion(ctx context.Context, studentID, courseID uint) (dto.CertificateResponse, error)
	Revoke(ctx context.Context, certificateID uint, actor ActivityActor) (dto.CertificateResponse, error)
	ListByStudent(ctx context.Context, studentID uint) ([]dto.CertificateResponse, error)
	PassThreshold() int
}

type certificationService struct {
	certificates repository.CertificateRepository
	results      repository.GradedResultRepository
	assignments  repository.AssignmentRepository
	locker       lock.Locker
	activity     ActivityRecorder
	publisher    events.Publisher
	cfg          CertificationConfig
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
	suffix       func() int
}

// NewCertificationService constructs the certification gate.
func NewCertificationService(certificates repository.CertificateRepository, results repository.GradedResultRepository, assignments repository.AssignmentRepository, locker lock.Locker, activity ActivityRecorder, publisher events.Publisher, cfg CertificationConfig, logger zerolog.Logger) CertificationService {
	if cfg.MaxNumberAttempts <= 0 {
		cfg.MaxNumberAttempts = 5
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &certificationService{
		certificates: certificates,
		results:      results,
		assignments:  assignments,
		locker:       locker,
		activity:     activity,
		publisher:    publisher,
		cfg:          cfg,
		logger:       logger.With().Str("component", "certification_service").Logger(),
		tracer:       otel.Tracer(tracerPrefix + "certification"),
		now:          time.Now,
		suffix:       func() int { return rand.Intn(10000) },
	}
}

func (s *certificationService) PassThreshold() int {
	return s.cfg.PassThreshold
}

func (s *certificationService) MaybeIssue(ctx context.Context, result models.GradedResult, instructorID uint) (*models.Certificate, error) {
	ctx, span := s.tracer.Start(ctx, "certification.maybe_issue", trace.WithAttributes(
		attribute.Int64("certificate.student_id", int64(result.StudentID)),
		attribute.Int64("certificate.assignment_id", int64(result.AssignmentID)),
		attribute.Int("certificate.percentage", result.Percentage),
	))
	defer span.End()

	if result.Percentage < s.cfg.PassThreshold {
		observability.CertificatesTotal().WithLabelValues(certificateKindAssignment, "below_threshold").Inc()
		return nil, nil
	}

	release, err := acquireLock(ctx, s.locker, lock.CertificateKey(result.StudentID, result.CourseID, result.AssignmentID))
	if err != nil {
		failSpan(span, err, "lock_failed")
		return nil, err
	}
	defer release()

	existing, err := s.certificates.FindForAssignment(ctx, result.StudentID, result.CourseID, result.AssignmentID)
	switch {
	case err == nil:
		if !existing.IsActive() {
			observability.CertificatesTotal().WithLabelValues(certificateKindAssignment, "revoked").Inc()
			return nil, nil
		}
		s.link(ctx, result, existing)
		observability.CertificatesTotal().WithLabelValues(certificateKindAssignment, "existing").Inc()
		return &existing, nil
	case !isNotFound(err):
		failSpan(span, err, "certificate_lookup_failed")
		return nil, err
	}

	assignmentID := result.AssignmentID
	certificate := models.Certificate{
		StudentID:    result.StudentID,
		CourseID:     result.CourseID,
		AssignmentID: &assignmentID,
		InstructorID: instructorID,
		Grade:        strconv.Itoa(result.ScaledScore),
		Status:       models.CertificateStatusIssued,
	}

	issued, created, err := s.create(ctx, certificate, func(ctx context.Context) (models.Certificate, error) {
		return s.certificates.FindForAssignment(ctx, result.StudentID, result.CourseID, result.AssignmentID)
	})
	if err != nil {
		failSpan(span, err, "certificate_create_failed")
		observability.CertificatesTotal().WithLabelValues(certificateKindAssignment, "failed").Inc()
		return nil, err
	}

	s.link(ctx, result, issued)
	if created {
		s.announce(ctx, issued, result.ID, certificateKindAssignment)
	}

	span.SetAttributes(attribute.String("certificate.number", issued.CertificateNumber))
	return &issued, nil
}

func (s *certificationService) IssueCourseCompletion(ctx context.Context, studentID, courseID uint) (dto.CertificateResponse, error) {
	ctx, span := s.tracer.Start(ctx, "certification.course_completion", trace.WithAttributes(
		attribute.Int64("certificate.student_id", int64(studentID)),
		attribute.Int64("certificate.course_id", int64(courseID)),
	))
	defer span.End()

	assignments, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		failSpan(span, err, "assignment_lookup_failed")
		return dto.CertificateResponse{}, err
	}
	if len(assignments) == 0 {
		return dto.CertificateResponse{}, fmt.Errorf("%w: course %d has no assignments", ErrCourseNotCompleted, courseID)
	}

	results, err := s.results.ListByStudent(ctx, studentID, &courseID)
	if err != nil {
		failSpan(span, err, "result_lookup_failed")
		return dto.CertificateResponse{}, err
	}

	byAssignment := make(map[uint]models.GradedResult, len(results))
	for _, result := range results {
		byAssignment[result.AssignmentID] = result
	}

	scaledSum := 0
	for _, assignment := range assignments {
		result, ok := byAssignment[assignment.ID]
		if !ok {
			return dto.CertificateResponse{}, fmt.Errorf("%w: assignment %d has no graded result", ErrCourseNotCompleted, assignment.ID)
		}
		if result.Percentage < s.cfg.PassThreshold {
			return dto.CertificateResponse{}, fmt.Errorf("%w: assignment %d scored %d%%", ErrCourseNotCompleted, assignment.ID, result.Percentage)
		}
		scaledSum += result.ScaledScore
	}

	release, err := acquireLock(ctx, s.locker, lock.CertificateKey(studentID, courseID, 0))
	if err != nil {
		failSpan(span, err, "lock_failed")
		return dto.CertificateResponse{}, err
	}
	defer release()

	existing, err := s.certificates.FindCourseCompletion(ctx, studentID, courseID)
	switch {
	case err == nil:
		if !existing.IsActive() {
			return dto.CertificateResponse{}, ErrCertificateRevoked
		}
		observability.CertificatesTotal().WithLabelValues(certificateKindCourse, "existing").Inc()
		return dto.NewCertificateResponse(existing), nil
	case !isNotFound(err):
		failSpan(span, err, "certificate_lookup_failed")
		return dto.CertificateResponse{}, err
	}

	// grade is the mean scaled score across the course, like per-assignment grades
	average := int(math.Round(float64(scaledSum) / float64(len(assignments))))
	certificate := models.Certificate{
		StudentID:        studentID,
		CourseID:         courseID,
		InstructorID:     assignments[0].InstructorID,
		Grade:            strconv.Itoa(average),
		Status:           models.CertificateStatusIssued,
		CourseCompletion: true,
	}

	issued, created, err := s.create(ctx, certificate, func(ctx context.Context) (models.Certificate, error) {
		return s.certificates.FindCourseCompletion(ctx, studentID, courseID)
	})
	if err != nil {
		failSpan(span, err, "certificate_create_failed")
		observability.CertificatesTotal().WithLabelValues(certificateKindCourse, "failed").Inc()
		return dto.CertificateResponse{}, err
	}

	if created {
		s.announce(ctx, issued, 0, certificateKindCourse)
	}

	return dto.NewCertificateResponse(issued), nil
}

func (s *certificationService) Revoke(ctx context.Context, certificateID uint, actor ActivityActor) (dto.CertificateResponse, error) {
	certificate, err := s.certificates.GetByID(ctx, certificateID)
	if err != nil {
		if isNotFound(err) {
			return dto.CertificateResponse{}, ErrCertificateNotFound
		}
		return dto.CertificateResponse{}, err
	}

	if !certificate.IsActive() {
		return dto.NewCertificateResponse(certificate), nil
	}

	if err := s.certificates.UpdateStatus(ctx, certificate.ID, models.CertificateStatusRevoked); err != nil {
		if isNotFound(err) {
			return dto.CertificateResponse{}, ErrCertificateNotFound
		}
		return dto.CertificateResponse{}, err
	}
	certificate.Status = models.CertificateStatusRevoked

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     ActionCertificateRevoked,
		EntityType: "certificate",
		EntityID:   &certificate.ID,
		Metadata: map[string]interface{}{
			"student_id":         certificate.StudentID,
			"course_id":          certificate.CourseID,
			"certificate_number": certificate.CertificateNumber,
		},
	})

	certID := certificate.ID
	_ = s.publisher.Publish(ctx, events.Event{
		Type:          events.TypeCertificateRevoked,
		StudentID:     certificate.StudentID,
		CourseID:      certificate.CourseID,
		CertificateID: &certID,
	})

	s.logger.Info().Uint("certificate_id", certificate.ID).Uint("actor_id", actor.ID).Msg("certificate revoked")
	return dto.NewCertificateResponse(certificate), nil
}

func (s *certificationService) ListByStudent(ctx context.Context, studentID uint) ([]dto.CertificateResponse, error) {
	certificates, err := s.certificates.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return dto.NewCertificateResponseSlice(certificates), nil
}

// create stores the certificate under a fresh number. When the scope index reports a
// concurrent winner, winner() supplies it and created is false.
func (s *certificationService) create(ctx context.Context, certificate models.Certificate, winner func(context.Context) (models.Certificate, error)) (models.Certificate, bool, error) {
	for attempt := 0; attempt < s.cfg.MaxNumberAttempts; attempt++ {
		now := s.now()
		number := fmt.Sprintf("CERT-%d-%04d", now.UnixMilli(), s.suffix())

		taken, err := s.certificates.ExistsByNumber(ctx, number)
		if err != nil {
			return models.Certificate{}, false, err
		}
		if taken {
			continue
		}

		candidate := certificate
		candidate.CertificateNumber = number
		candidate.CompletionDate = now

		err = s.certificates.Create(ctx, &candidate)
		if err == nil {
			return candidate, true, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return models.Certificate{}, false, err
		}

		existing, findErr := winner(ctx)
		if findErr == nil {
			return existing, false, nil
		}
		if !isNotFound(findErr) {
			return models.Certificate{}, false, findErr
		}
		// The number collided between the existence check and the insert; try another.
	}

	return models.Certificate{}, false, fmt.Errorf("%w after %d attempts", ErrCertificateNumberExhausted, s.cfg.MaxNumberAttempts)
}

func (s *certificationService) link(ctx context.Context, result models.GradedResult, certificate models.Certificate) {
	if result.ID == 0 {
		return
	}
	if result.CertificateIssued && result.CertificateID != nil && *result.CertificateID == certificate.ID {
		return
	}
	if err := s.results.MarkCertificate(ctx, result.ID, certificate.ID); err != nil {
		s.logger.Warn().Err(err).Uint("result_id", result.ID).Uint("certificate_id", certificate.ID).Msg("failed to link certificate to graded result")
	}
}

func (s *certificationService) announce(ctx context.Context, certificate models.Certificate, resultID uint, kind string) {
	observability.CertificatesTotal().WithLabelValues(kind, "issued").Inc()

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    certificate.InstructorID,
		ActorRole:  "system",
		Action:     ActionCertificateIssued,
		EntityType: "certificate",
		EntityID:   &certificate.ID,
		Metadata: map[string]interface{}{
			"student_id":         certificate.StudentID,
			"course_id":          certificate.CourseID,
			"certificate_number": certificate.CertificateNumber,
			"kind":               kind,
		},
	})

	certID := certificate.ID
	event := events.Event{
		Type:          events.TypeCertificateIssued,
		StudentID:     certificate.StudentID,
		CourseID:      certificate.CourseID,
		CertificateID: &certID,
	}
	if certificate.AssignmentID != nil {
		event.AssignmentID = *certificate.AssignmentID
	}
	if resultID != 0 {
		event.ResultID = &resultID
	}
	_ = s.publisher.Publish(ctx, event)

	s.logger.Info().
		Uint("certificate_id", certificate.ID).
		Uint("student_id", certificate.StudentID).
		Str("certificate_number", certificate.CertificateNumber).
		Str("kind", kind).
		Msg("certificate issued")
}
