package appointments

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/zealsham/appointment-ai-agent/internal/schedule"
	"github.com/zealsham/appointment-ai-agent/pkg/logging"
)

// Notifier delivers appointment-change notifications. Implementations must
// tolerate a nil receiver; notification failure never fails the transaction.
type Notifier interface {
	AppointmentChanged(ctx context.Context, name, action, date, tm, reason, email string) error
}

// Request carries the reconciled session fields into a transaction attempt.
type Request struct {
	Intent    string
	FirstName string
	LastName  string
	CustID    string
	PatientID string
	Name      string
	Email     string
	Date      string
	Time      string
	Reason    string
	OldDate   string
	OldTime   string
}

// Manager runs the book/cancel/update/fetch state machine against the store.
type Manager struct {
	repo      *Repository
	notifier  Notifier
	validator schedule.Validator
	tracer    trace.Tracer
	log       *logging.Logger
}

func NewManager(repo *Repository, notifier Notifier, validator schedule.Validator, log *logging.Logger) *Manager {
	if repo == nil {
		panic("appointments: repository required")
	}
	if log == nil {
		log = logging.Default()
	}
	return &Manager{
		repo:      repo,
		notifier:  notifier,
		validator: validator,
		tracer:    otel.Tracer("agent.internal.appointments"),
		log:       log,
	}
}

// Process executes one transaction attempt. It validates and normalizes the
// request, dispatches on intent, and maps every failure mode to an Outcome;
// only the outcome reaches the caller, never a raw store error.
func (m *Manager) Process(ctx context.Context, req Request) Outcome {
	ctx, span := m.tracer.Start(ctx, "appointments.process")
	defer span.End()

	if d, ok := schedule.Normalize(req.Date); ok {
		req.Date = d
	} else if req.Date != "" {
		return Outcome{Code: CodeInvalidDateTime}
	}
	if d, ok := schedule.Normalize(req.OldDate); ok {
		req.OldDate = d
	} else if req.OldDate != "" {
		return Outcome{Code: CodeInvalidDateTime}
	}

	if req.FirstName == "" || req.LastName == "" || req.CustID == "" || req.PatientID == "" {
		m.log.Warn("transaction missing identity fields", "intent", req.Intent)
		return Outcome{Code: CodeMissingInfo}
	}

	switch req.Intent {
	case "book":
		return m.book(ctx, req)
	case "cancel":
		return m.cancel(ctx, req)
	case "update":
		return m.update(ctx, req)
	default:
		m.log.Warn("invalid transaction intent", "intent", req.Intent)
		return Outcome{Code: CodeInvalidIntent}
	}
}

func (m *Manager) book(ctx context.Context, req Request) Outcome {
	if req.Date == "" || req.Time == "" {
		return Outcome{Code: CodeMissingInfo}
	}
	if !m.validator.ValidateDateTime(req.Date, req.Time, req.Intent) {
		return Outcome{Code: CodeInvalidDateTime}
	}

	reserved, err := m.repo.ReserveSlot(ctx, &Appointment{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CustID:    req.CustID,
		PatientID: req.PatientID,
		Date:      req.Date,
		Time:      req.Time,
		Reason:    req.Reason,
	})
	if err != nil {
		m.log.Error("book failed", "error", err)
		return Outcome{Code: CodeDBError, Detail: err.Error()}
	}
	if !reserved {
		return Outcome{Code: CodeSlotTaken, Date: req.Date, Time: req.Time}
	}

	m.log.Info("appointment booked", "date", req.Date, "time", req.Time)
	m.notify(ctx, req.Name, "booked", req.Date, req.Time, req.Reason, req.Email)
	return Outcome{Code: CodeConfirmed, Date: req.Date, Time: req.Time}
}

func (m *Manager) cancel(ctx context.Context, req Request) Outcome {
	if req.Date == "" || req.Time == "" {
		return Outcome{Code: CodeMissingInfo}
	}
	if !schedule.ValidateTime(req.Time) {
		return Outcome{Code: CodeInvalidDateTime}
	}

	id, err := m.repo.FindForCancel(ctx, req.FirstName, req.LastName, req.PatientID, req.Date, req.Time)
	if errors.Is(err, ErrNoAppointment) {
		return Outcome{Code: CodeNotFound, Date: req.Date, Time: req.Time}
	}
	if err != nil {
		m.log.Error("cancel lookup failed", "error", err)
		return Outcome{Code: CodeDBError, Detail: err.Error()}
	}
	if err := m.repo.Delete(ctx, id); err != nil {
		m.log.Error("cancel delete failed", "error", err)
		return Outcome{Code: CodeDBError, Detail: err.Error()}
	}

	m.log.Info("appointment canceled", "date", req.Date, "time", req.Time)
	m.notify(ctx, req.Name, "canceled", req.Date, req.Time, req.Reason, req.Email)
	return Outcome{Code: CodeCanceled, Date: req.Date, Time: req.Time}
}

// update runs in two phases. With only the old slot known it fetches the
// existing record so the conversation can echo it back (idempotent). Once the
// new slot is known it validates, checks the target for conflicts, and moves
// the record.
func (m *Manager) update(ctx context.Context, req Request) Outcome {
	if req.OldDate == "" || req.OldTime == "" {
		return Outcome{Code: CodeMissingInfo}
	}

	appt, err := m.repo.FindByPatientSlot(ctx, req.PatientID, req.OldDate, req.OldTime)
	if errors.Is(err, ErrNoAppointment) {
		return Outcome{Code: CodeNotFound, Date: req.OldDate, Time: req.OldTime}
	}
	if err != nil {
		m.log.Error("update lookup failed", "error", err)
		return Outcome{Code: CodeDBError, Detail: err.Error()}
	}

	if req.Date == "" || req.Time == "" {
		return Outcome{Code: CodeFetched, Date: req.OldDate, Time: req.OldTime, Reason: appt.Reason}
	}

	if !m.validator.ValidateDateTime(req.Date, req.Time, req.Intent) {
		return Outcome{Code: CodeInvalidDateTime}
	}

	reason := req.Reason
	if reason == "" {
		reason = appt.Reason
	}
	moved, err := m.repo.MoveSlot(ctx, appt.ID, req.Date, req.Time, reason)
	if err != nil {
		m.log.Error("update failed", "error", err)
		return Outcome{Code: CodeDBError, Detail: err.Error()}
	}
	if !moved {
		return Outcome{Code: CodeSlotTaken, Date: req.Date, Time: req.Time}
	}

	m.log.Info("appointment updated", "date", req.Date, "time", req.Time)
	m.notify(ctx, req.Name, "updated", req.Date, req.Time, reason, req.Email)
	return Outcome{Code: CodeUpdated, Date: req.Date, Time: req.Time}
}

func (m *Manager) notify(ctx context.Context, name, action, date, tm, reason, email string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.AppointmentChanged(ctx, name, action, date, tm, reason, email); err != nil {
		m.log.Warn("notification failed", "action", action, "error", err)
	}
}
