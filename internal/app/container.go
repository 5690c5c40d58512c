// Package app assembles the infrastructure and services shared by the API server and gradectl.
package app

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/config"
	"github.com/noah-isme/gema-lms-api/internal/database"
	"github.com/noah-isme/gema-lms-api/internal/events"
	"github.com/noah-isme/gema-lms-api/internal/lock"
	"github.com/noah-isme/gema-lms-api/internal/repository"
	"github.com/noah-isme/gema-lms-api/internal/service"
)

// Container holds the connections and services built from configuration.
type Container struct {
	DB        *gorm.DB
	Redis     *redis.Client
	NATS      *nats.Conn
	Validator *validator.Validate

	Assignments   service.AssignmentService
	Submissions   service.SubmissionService
	Regrades      service.RegradeService
	Results       service.GradedResultService
	Certification service.CertificationService
	Activity      service.ActivityService
}

// Options tunes optional behaviour of Build.
type Options struct {
	// SkipMigrate leaves the schema untouched, for commands that only read.
	SkipMigrate bool
}

// Build connects to the configured stores and wires every grading service.
// Redis and NATS are optional; without redis the tuple locks are process-local.
func Build(cfg config.Config, logger zerolog.Logger, opts Options) (*Container, error) {
	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if !opts.SkipMigrate {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
	}

	c := &Container{
		DB:        db,
		Validator: validator.New(validator.WithRequiredStructEnabled()),
	}

	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Redis = client
	}

	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.NATS = conn
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if c.Redis != nil {
		locker = lock.NewRedisLocker(c.Redis, cfg.LockTTL, logger)
	} else {
		logger.Warn().Msg("redis not configured, grading locks are local to this process")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if c.Redis != nil || c.NATS != nil {
		publisher = events.NewBrokerPublisher(c.Redis, c.NATS, cfg.EventChannel, logger)
	}

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	resultRepo := repository.NewGradedResultRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	c.Activity = service.NewActivityService(activityRepo, logger)
	c.Certification = service.NewCertificationService(certificateRepo, resultRepo, assignmentRepo, locker, c.Activity, publisher,
		service.CertificationConfig{
			PassThreshold:     cfg.PassThreshold,
			MaxNumberAttempts: cfg.CertificateMaxAttempts,
		}, logger)
	c.Assignments = service.NewAssignmentService(assignmentRepo, c.Activity, c.Validator, logger)
	c.Submissions = service.NewSubmissionService(assignmentRepo, submissionRepo, resultRepo, c.Certification, locker, c.Activity, publisher, c.Validator, logger)
	c.Regrades = service.NewRegradeService(assignmentRepo, resultRepo, submissionRepo, c.Certification, locker, c.Activity, publisher, c.Validator, logger)
	c.Results = service.NewGradedResultService(resultRepo, assignmentRepo, logger)

	return c, nil
}

// Probe is a named connectivity check against one backing store.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Probes returns a connectivity check for every store the container holds.
func (c *Container) Probes() []Probe {
	probes := []Probe{{
		Name: "database",
		Check: func(ctx context.Context) error {
			sqlDB, err := c.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if c.Redis != nil {
		probes = append(probes, Probe{
			Name:  "redis",
			Check: func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() },
		})
	}
	if c.NATS != nil {
		probes = append(probes, Probe{
			Name: "nats",
			Check: func(context.Context) error {
				if !c.NATS.IsConnected() {
					return nats.ErrConnectionClosed
				}
				return nil
			},
		})
	}
	return probes
}

// Close releases every connection the container opened.
func (c *Container) Close() error {
	var errs []error
	if c.NATS != nil {
		if err := c.NATS.Drain(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
