package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/roster/internal/logging"
	"github.com/google/uuid"
)

// Store is the persistence contract for records.
//
// Implementations own schema evolution and deduplication: InsertBatch adds a
// column for every safe, previously unseen extra key and silently drops rows
// whose hash already exists. Faults are returned as *StorageError.
type Store interface {
	// InsertBatch inserts records in one transaction and returns exactly the
	// newly inserted ones, in input order.
	InsertBatch(ctx context.Context, records []Record) ([]Record, error)
	// ReadPage returns one page ordered by name, then hash. page is 1-based.
	ReadPage(ctx context.Context, page, pageSize int) (Page, error)
	// ReadByName returns the first case-insensitive name match or ErrNotFound.
	ReadByName(ctx context.Context, name string) (Record, error)
	// UpdateByHash replaces the fixed fields of the row keyed by oldHash.
	UpdateByHash(ctx context.Context, oldHash string, r Record) error
	Ping(ctx context.Context) error
	Close() error
}

// Page is a slice of the roster plus the total it was cut from.
type Page struct {
	Records  []Record
	Total    int
	Page     int
	PageSize int
}

// TotalPages returns ceil(Total/PageSize).
func (p Page) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// Options tunes a Service. Zero values pick the defaults.
type Options struct {
	Validator       Validator
	Dispatcher      *Dispatcher
	Limiter         *IngestLimiter
	IngestTimeout   time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

// Paging defaults.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// DefaultIngestTimeout bounds a single ingest, including the store commit.
const DefaultIngestTimeout = 2 * time.Minute

// Service provides the core business logic for employee ingestion and lookup.
type Service struct {
	store      Store
	dispatcher *Dispatcher
	validator  Validator
	limiter    *IngestLimiter
	timeout    time.Duration

	defaultPageSize int
	maxPageSize     int
}

// NewService creates a Service on top of store.
func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:           store,
		dispatcher:      opts.Dispatcher,
		validator:       opts.Validator,
		limiter:         opts.Limiter,
		timeout:         opts.IngestTimeout,
		defaultPageSize: opts.DefaultPageSize,
		maxPageSize:     opts.MaxPageSize,
	}
	if s.dispatcher == nil {
		s.dispatcher = NewDispatcher()
	}
	if s.validator == nil {
		s.validator = DefaultValidator{}
	}
	if s.limiter == nil {
		s.limiter = NewIngestLimiter(0, 0)
	}
	if s.timeout <= 0 {
		s.timeout = DefaultIngestTimeout
	}
	if s.maxPageSize <= 0 {
		s.maxPageSize = MaxPageSize
	}
	if s.defaultPageSize <= 0 {
		s.defaultPageSize = DefaultPageSize
	}
	if s.defaultPageSize > s.maxPageSize {
		s.defaultPageSize = s.maxPageSize
	}
	return s
}

// IngestRequest is one payload with whatever metadata the caller knows.
type IngestRequest struct {
	Content       string
	ContentType   string // declared media type, may be empty
	FileExtension string // e.g. ".csv", may be empty
}

// IngestReport is the partial-success result of an ingest.
type IngestReport struct {
	IngestID   string
	Format     string
	Parsed     int
	Valid      int
	Inserted   []Record
	Duplicates int
	Skipped    []RowIssue
	Violations []IndexedViolation
}

// Ingest parses, validates and stores a payload.
//
// Parser failures are returned unchanged. Zero extracted records yields
// ErrNoValidData; zero valid records yields a *ValidationError. Otherwise the
// valid subset is stored and the report lists exactly the inserted records.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestReport, error) {
	report := &IngestReport{IngestID: uuid.New().String()}
	ctx = logging.WithIngestID(ctx, report.IngestID)
	log := logging.FromContext(ctx)

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	parser, batch, err := s.dispatcher.Parse(req.Content, req.ContentType, req.FileExtension)
	if err != nil {
		log.Warn("ingest rejected", "content_type", req.ContentType, "ext", req.FileExtension, "error", err)
		return nil, err
	}
	report.Format = parser.Name()
	report.Parsed = len(batch.Records)
	report.Skipped = batch.Skipped

	if len(batch.Records) == 0 {
		log.Info("no records extracted", "format", report.Format, "skipped", len(batch.Skipped))
		return nil, ErrNoValidData
	}

	valid, violations := ValidateBatch(s.validator, batch.Records)
	report.Valid = len(valid)
	report.Violations = violations
	if len(valid) == 0 {
		log.Info("every record failed validation", "format", report.Format, "violations", len(violations))
		return nil, &ValidationError{Violations: violations}
	}

	inserted, err := s.store.InsertBatch(ctx, valid)
	if err != nil {
		log.Error("store insert failed", "error", err)
		return nil, err
	}
	report.Inserted = inserted
	report.Duplicates = len(valid) - len(inserted)

	log.Info("ingest completed",
		"format", report.Format,
		"parsed", report.Parsed,
		"valid", report.Valid,
		"inserted", len(inserted),
		"duplicates", report.Duplicates,
		"skipped", len(report.Skipped),
	)
	return report, nil
}

// ListEmployees returns one page, clamping page to >= 1 and pageSize into
// [1, max] with non-positive sizes replaced by the default.
func (s *Service) ListEmployees(ctx context.Context, page, pageSize int) (Page, error) {
	page, pageSize = s.ClampPage(page, pageSize)
	return s.store.ReadPage(ctx, page, pageSize)
}

// ClampPage applies the paging rules used by ListEmployees.
func (s *Service) ClampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	return page, pageSize
}

// GetEmployee looks a record up by name, ignoring case.
func (s *Service) GetEmployee(ctx context.Context, name string) (Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Record{}, ErrNotFound
	}
	return s.store.ReadByName(ctx, name)
}

// UpdateRequest carries replacement values; blank fields keep the old value.
type UpdateRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Tel    string `json:"tel"`
	Joined string `json:"joined"`
}

// UpdateEmployee merges req into the record currently named name, validates
// the result and rewrites the row under its new hash. Extra fields are kept.
func (s *Service) UpdateEmployee(ctx context.Context, name string, req UpdateRequest) (Record, error) {
	current, err := s.GetEmployee(ctx, name)
	if err != nil {
		return Record{}, err
	}

	updated := current
	if v := strings.TrimSpace(req.Name); v != "" {
		updated.Name = v
	}
	if v := strings.TrimSpace(req.Email); v != "" {
		updated.Email = v
	}
	if v := strings.TrimSpace(req.Tel); v != "" {
		updated.Phone = v
	}
	if strings.TrimSpace(req.Joined) != "" {
		joined, ok := ParseDate(req.Joined)
		if !ok {
			return Record{}, &ValidationError{Violations: []IndexedViolation{{
				Index:          -1,
				FieldViolation: FieldViolation{"Joined", fmt.Sprintf("invalid date: '%s' (use yyyy-MM-dd)", req.Joined)},
			}}}
		}
		updated.Joined = joined
	}

	if fv := s.validator.Validate(updated); len(fv) > 0 {
		violations := make([]IndexedViolation, len(fv))
		for i, f := range fv {
			violations[i] = IndexedViolation{Index: -1, FieldViolation: f}
		}
		return Record{}, &ValidationError{Violations: violations}
	}

	if err := s.store.UpdateByHash(ctx, current.Hash(), updated); err != nil {
		return Record{}, err
	}

	logging.FromContext(ctx).Info("employee updated", "old_hash", current.Hash(), "new_hash", updated.Hash())
	return updated, nil
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// IngestStatus reports the limiter state.
func (s *Service) IngestStatus() IngestLimiterStatus {
	return s.limiter.Status()
}

// WaitForIngests blocks until in-flight ingests finish or ctx is done.
func (s *Service) WaitForIngests(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
