// Package calibration is the compliance engine: the instrument registry, the
// complete-cycle workflow that archives into the ledger, and the aggregate
// reports built on top of both.
package calibration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"calibration-backend/internal/compliance"
	"calibration-backend/internal/model"
	"calibration-backend/internal/observability"
	"calibration-backend/internal/parse"
	"calibration-backend/internal/store"
)

const defaultLockTimeout = 2 * time.Second

// Service exposes the engine operations. It is safe for concurrent use.
type Service struct {
	store       store.Store
	log         *zap.Logger
	metrics     *observability.Metrics
	locks       *keyedLocker
	lockTimeout time.Duration
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock used for ledger timestamps and the
// default "now" of reports.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics records engine activity to m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLockTimeout bounds how long a writer waits for another writer on the
// same instrument before failing with Conflict.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// NewService creates the engine over st.
func NewService(st store.Store, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:       st,
		log:         log,
		locks:       newKeyedLocker(),
		lockTimeout: defaultLockTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current UTC calendar day according to the service clock.
func (s *Service) Today() time.Time {
	return parse.Day(s.now().UTC())
}

// lock serialises writers on one registry id.
func (s *Service) lock(ctx context.Context, id int64) (func(), error) {
	return s.locks.Lock(ctx, id, s.lockTimeout)
}

// fail logs and counts a failed operation and returns err unchanged.
func (s *Service) fail(op string, err error, fields ...zap.Field) error {
	kind := KindOf(err)
	s.metrics.OperationFailed(op, string(kind))

	fields = append(fields, zap.String("operation", op), zap.Error(err))
	if kind == KindInternal {
		s.log.Error("calibration operation failed", fields...)
	} else {
		s.log.Warn("calibration operation rejected", fields...)
	}
	return err
}

// translate converts store sentinels into engine errors.
func translate(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newError(KindNotFound, "instrument not found")
	case errors.Is(err, store.ErrDuplicate):
		return newError(KindDuplicate, "instrument number already registered")
	}
	return err
}

// translateInterval converts interval calculator errors into engine errors.
func translateInterval(err error) error {
	switch {
	case errors.Is(err, compliance.ErrInvalidFrequency):
		return &Error{Kind: KindInvalidFrequency, Message: err.Error(), Fields: []string{"frequency"}}
	case errors.Is(err, compliance.ErrInvalidDate):
		return &Error{Kind: KindInvalidDate, Message: err.Error(), Fields: []string{"calibration_date"}}
	}
	return err
}

// schedule parses a calibration date and computes the due date it opens.
// Parse and interval failures keep their message and carry the offending field.
func schedule(rawDate string, f model.Frequency) (calibrated, due time.Time, err error) {
	calibrated, err = parse.Date(rawDate)
	if err != nil {
		return time.Time{}, time.Time{}, translateInterval(fmt.Errorf("%w: %v", compliance.ErrInvalidDate, err))
	}
	due, err = compliance.NextDueDate(calibrated, f)
	if err != nil {
		return time.Time{}, time.Time{}, translateInterval(err)
	}
	return calibrated, due, nil
}

// Classify bands inst at now. A cycle explicitly closed as Completed has no
// open due date and classifies as Terminal.
func Classify(inst *model.Instrument, now time.Time) compliance.Classification {
	if inst.CycleStatus == model.CycleStatusCompleted {
		return compliance.Classify(nil, inst.Frequency, now)
	}
	due := model.TimeOf(inst.NextDueDate)
	return compliance.Classify(&due, inst.Frequency, now)
}
