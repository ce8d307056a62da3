package scheduler

import (
	"os"
	"sync"
	"time"

	"estatehub/server/internal/database"
	"estatehub/server/internal/imagery"
	"estatehub/server/internal/metrics"
	"estatehub/server/internal/models"

	"github.com/sirupsen/logrus"
)

// JobType represents the background jobs the scheduler runs
type JobType int

const (
	JobTypeImageAudit JobType = iota
	JobTypeCoordinates
	JobTypeDigest
)

// String returns the string representation of a JobType
func (j JobType) String() string {
	switch j {
	case JobTypeImageAudit:
		return "image_audit"
	case JobTypeCoordinates:
		return "coordinates"
	case JobTypeDigest:
		return "digest"
	default:
		return "unknown"
	}
}

// Store is the data the jobs read and update
type Store interface {
	GetAllProperties() ([]models.Property, error)
	GetInquiriesSince(since time.Time) ([]models.Inquiry, error)
	UpdateMissingCoordinates(geocoder database.Geocoder) error
}

// DigestSender delivers the daily inquiry summary
type DigestSender interface {
	SendDigest(inquiries []models.Inquiry, since time.Time) error
}

type Options struct {
	ImageAuditInterval time.Duration
	// DigestHour is the local hour the digest is sent; negative disables it
	DigestHour int
}

// Scheduler manages periodic execution of background jobs
type Scheduler struct {
	store    Store
	geocoder database.Geocoder
	digest   DigestSender
	opts     Options
	logger   *logrus.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	jobMutex sync.Mutex // Ensures sequential job execution

	lastAudit       time.Time
	lastAuditReport imagery.Report
}

// NewScheduler creates a new scheduler. geocoder and digest may be nil to disable those jobs.
func NewScheduler(store Store, geocoder database.Geocoder, digest DigestSender, opts Options, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}
	if opts.ImageAuditInterval <= 0 {
		opts.ImageAuditInterval = 6 * time.Hour
	}

	return &Scheduler{
		store:    store,
		geocoder: geocoder,
		digest:   digest,
		opts:     opts,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start runs the startup jobs and begins the minute ticker
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.runScheduler()
}

// Stop signals the scheduler to stop and waits for the running job
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	s.runStartupJobs(time.Now())

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case t := <-ticker.C:
			s.executeScheduledJobs(t)
		}
	}
}

func (s *Scheduler) runStartupJobs(now time.Time) {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	s.logger.Info("Running startup jobs")
	s.runImageAudit(now)
	s.runCoordinateBackfill()
	s.logger.Info("Startup jobs completed")
}

// executeScheduledJobs runs all jobs that are due at t
func (s *Scheduler) executeScheduledJobs(t time.Time) {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	if t.Sub(s.lastAudit) >= s.opts.ImageAuditInterval {
		s.runImageAudit(t)
	}

	if t.Minute() == 0 {
		s.runCoordinateBackfill()
	}

	if s.opts.DigestHour >= 0 && t.Hour() == s.opts.DigestHour && t.Minute() == 0 {
		s.runDigest(t)
	}
}

// runImageAudit counts how listing images resolve and exports the tally
func (s *Scheduler) runImageAudit(now time.Time) {
	s.lastAudit = now

	properties, err := s.store.GetAllProperties()
	if err != nil {
		s.logger.WithError(err).WithField("job_type", JobTypeImageAudit.String()).Error("Failed to load properties")
		return
	}

	galleries := make([][]string, 0, len(properties))
	for _, p := range properties {
		galleries = append(galleries, p.Images)
	}

	report := imagery.AuditGalleries(galleries)
	s.lastAuditReport = report
	for _, rule := range []imagery.Rule{
		imagery.RuleEmpty, imagery.RuleLegacyPath, imagery.RuleBrand, imagery.RuleFolderHash,
		imagery.RuleAtAssets, imagery.RulePlaceholder, imagery.RuleDomainHash, imagery.RulePassThrough,
	} {
		metrics.ImageAuditReferences.WithLabelValues(string(rule)).Set(float64(report.ByRule[rule]))
	}

	s.logger.WithFields(logrus.Fields{
		"job_type":       JobTypeImageAudit.String(),
		"references":     report.Total,
		"broken":         len(report.Broken),
		"fallback_share": report.FallbackShare(),
	}).Info("Image audit completed")
}

// LastAudit returns the most recent image audit
func (s *Scheduler) LastAudit() imagery.Report {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()
	return s.lastAuditReport
}

func (s *Scheduler) runCoordinateBackfill() {
	if s.geocoder == nil {
		return
	}
	if err := s.store.UpdateMissingCoordinates(s.geocoder); err != nil {
		s.logger.WithError(err).WithField("job_type", JobTypeCoordinates.String()).Error("Failed to update coordinates")
	}
}

func (s *Scheduler) runDigest(now time.Time) {
	if s.digest == nil {
		return
	}

	since := now.Add(-24 * time.Hour)
	inquiries, err := s.store.GetInquiriesSince(since)
	if err != nil {
		s.logger.WithError(err).WithField("job_type", JobTypeDigest.String()).Error("Failed to load inquiries")
		return
	}

	if err := s.digest.SendDigest(inquiries, since); err != nil {
		s.logger.WithError(err).WithField("job_type", JobTypeDigest.String()).Error("Failed to send digest")
		return
	}
	s.logger.WithField("inquiries", len(inquiries)).Info("Sent inquiry digest")
}
