package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"formgateway/internal/model"
	"formgateway/internal/recordstore"

	"github.com/go-playground/validator/v10"
	"github.com/useinsider/go-pkg/inslogger"
)

const (
	msgNameAndEmailRequired = "Name and Email required"
	msgEmailRequired        = "Email required"
	msgRecordIDMissing      = "Record ID missing"
)

type IntakeService interface {
	Submit(ctx context.Context, submission model.Submission) (model.Record, error)
	List(ctx context.Context) ([]model.Record, error)
	GetByEmail(ctx context.Context, email string) (model.Record, error)
	Update(ctx context.Context, id string, fields model.Fields) error
}

// intakeService holds no per-request state. The duplicate check and the create
// that follows are two separate store calls, so two concurrent submissions of
// the same email can both pass the check. The email lock narrows that window and
// stores with a uniqueness constraint close it.
type intakeService struct {
	store     recordstore.Store
	emailLock EmailLock
	validate  *validator.Validate
	logger    inslogger.Interface
}

func NewIntakeService(store recordstore.Store, emailLock EmailLock, logger inslogger.Interface) IntakeService {
	if emailLock == nil {
		emailLock = NoopEmailLock()
	}
	return &intakeService{
		store:     store,
		emailLock: emailLock,
		validate:  validator.New(),
		logger:    logger,
	}
}

func (s *intakeService) Submit(ctx context.Context, submission model.Submission) (model.Record, error) {
	if err := s.validate.Struct(submission); err != nil {
		submissionsCounter.WithLabelValues(outcomeInvalid).Inc()
		return model.Record{}, &ValidationError{Message: msgNameAndEmailRequired}
	}

	release, claimed, err := s.emailLock.Claim(ctx, submission.Email)
	switch {
	case err != nil:
		s.logger.Warnf("Email claim unavailable, continuing without it: %v", err)
	case !claimed:
		s.logger.Logf("Submission for %s rejected, another one is in flight", submission.Email)
		submissionsCounter.WithLabelValues(outcomeDuplicate).Inc()
		return model.Record{}, ErrEmailExists
	default:
		defer release()
	}

	exists, err := s.emailExists(ctx, submission.Email)
	if err != nil {
		// fail open: an inconclusive check must not block the submission
		dedupCheckFailuresCounter.Inc()
		s.logger.Warnf("Duplicate check failed, proceeding with creation: %v", err)
	} else if exists {
		s.logger.Logf("Submission rejected, email %s already exists", submission.Email)
		submissionsCounter.WithLabelValues(outcomeDuplicate).Inc()
		return model.Record{}, ErrEmailExists
	}

	record, err := s.store.CreateRecord(ctx, submission.Fields())
	if errors.Is(err, recordstore.ErrDuplicateEmail) {
		submissionsCounter.WithLabelValues(outcomeDuplicate).Inc()
		return model.Record{}, ErrEmailExists
	}
	if err != nil {
		s.logger.Errorf("Failed to create record: %v", err)
		submissionsCounter.WithLabelValues(outcomeStoreError).Inc()
		return model.Record{}, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	s.logger.Logf("Created record %s", record.ID)
	submissionsCounter.WithLabelValues(outcomeCreated).Inc()
	return record, nil
}

func (s *intakeService) emailExists(ctx context.Context, email string) (bool, error) {
	records, err := recordstore.Drain(ctx, s.store.ListRecords(ctx, recordstore.Query{Email: email}))
	if err != nil {
		return false, err
	}
	_, found := findByEmail(records, email)
	return found, nil
}

// List returns every stored record, newest first.
func (s *intakeService) List(ctx context.Context) ([]model.Record, error) {
	records, err := recordstore.Drain(ctx, s.store.ListRecords(ctx, recordstore.Query{}))
	if err != nil {
		s.logger.Errorf("Failed to list records: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	slices.SortStableFunc(records, func(a, b model.Record) int {
		return b.CreatedOn.Compare(a.CreatedOn)
	})
	return records, nil
}

func (s *intakeService) GetByEmail(ctx context.Context, email string) (model.Record, error) {
	if err := s.validate.Var(email, "required"); err != nil {
		return model.Record{}, &ValidationError{Message: msgEmailRequired}
	}

	records, err := recordstore.Drain(ctx, s.store.ListRecords(ctx, recordstore.Query{Email: email}))
	if err != nil {
		s.logger.Errorf("Failed to look up %s: %v", email, err)
		return model.Record{}, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	record, found := findByEmail(records, email)
	if !found {
		return model.Record{}, ErrEmailNotFound
	}
	return record, nil
}

// Update replaces all four fields of the record; omitted values are stored empty.
func (s *intakeService) Update(ctx context.Context, id string, fields model.Fields) error {
	if err := s.validate.Var(id, "required"); err != nil {
		return &ValidationError{Message: msgRecordIDMissing}
	}

	err := s.store.UpdateRecord(ctx, id, fields)
	switch {
	case err == nil:
		s.logger.Logf("Updated record %s", id)
		return nil
	case errors.Is(err, recordstore.ErrNotFound):
		return ErrRecordNotFound
	case errors.Is(err, recordstore.ErrDuplicateEmail):
		return ErrEmailExists
	default:
		s.logger.Errorf("Failed to update record %s: %v", id, err)
		return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}
}

func findByEmail(records []model.Record, email string) (model.Record, bool) {
	want := strings.ToLower(email)
	for _, r := range records {
		if strings.ToLower(r.Fields.Email) == want {
			return r, true
		}
	}
	return model.Record{}, false
}
