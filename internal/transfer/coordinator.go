// Package transfer moves blood units between hospitals as blood requests
// change status. All reads and writes for one call happen inside a single
// Store.InTx, so a failed call leaves no trace.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/bloodbank/internal/model"
)

const tracerName = "github.com/erazemk/bloodbank/internal/transfer"

// Coordinator drives the blood request state machine against a Store. It
// keeps no state between calls.
type Coordinator struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithTracer sets the tracer. The default comes from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

// New returns a Coordinator over store.
func New(store Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitRequest validates and stores a new pending request.
func (c *Coordinator) SubmitRequest(ctx context.Context, in model.NewRequest) (*model.BloodRequest, error) {
	ctx, span := c.tracer.Start(ctx, "transfer.SubmitRequest", trace.WithAttributes(
		attribute.Int64("hospital.id", in.RequestingHospitalID),
		attribute.String("blood.type", string(in.BloodType)),
		attribute.Int("units", in.UnitsRequested),
	))
	defer span.End()

	now := c.now()
	req, err := in.Build(now)
	if err != nil {
		return nil, c.fail(span, err)
	}

	var created *model.BloodRequest
	err = c.store.InTx(ctx, func(tx Tx) error {
		if err := requireHospital(ctx, tx, req.RequestingHospitalID); err != nil {
			return err
		}

		id, err := tx.CreateRequest(ctx, req)
		if err != nil {
			return err
		}

		if err := tx.AppendTransaction(ctx, &model.Transaction{
			Type:       model.TransactionRequest,
			BloodType:  req.BloodType,
			Units:      req.UnitsRequested,
			HospitalID: req.RequestingHospitalID,
			RequestID:  &id,
			Status:     model.TransactionPending,
			Priority:   req.Priority,
			Notes:      req.Notes,
			CreatedAt:  now,
			UpdatedAt:  now,
		}); err != nil {
			return err
		}

		created, err = tx.GetRequest(ctx, id)
		return err
	})
	if err != nil {
		return nil, c.fail(span, err)
	}

	span.SetAttributes(attribute.Int64("request.id", created.ID))
	c.logger.Info("blood request submitted",
		"request_id", created.ID,
		"hospital_id", created.RequestingHospitalID,
		"blood_type", created.BloodType,
		"units", created.UnitsRequested,
		"priority", created.Priority,
	)
	return created, nil
}

// ChangeStatus moves a request to status. Approval requires
// approvingHospitalID and transfers the units from that hospital to the
// requester. Rejecting an approved request reverses the transfer.
func (c *Coordinator) ChangeStatus(ctx context.Context, requestID int64, status string, approvingHospitalID *int64) (*model.BloodRequest, error) {
	ctx, span := c.tracer.Start(ctx, "transfer.ChangeStatus", trace.WithAttributes(
		attribute.Int64("request.id", requestID),
		attribute.String("status", status),
	))
	defer span.End()

	var (
		updated *model.BloodRequest
		from    model.RequestStatus
	)
	err := c.store.InTx(ctx, func(tx Tx) error {
		req, err := tx.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		from = req.Status

		to, err := model.ParseRequestStatus(status)
		if err != nil {
			return err
		}

		now := c.now()
		switch {
		case from == model.StatusPending && to == model.StatusApproved:
			err = c.approve(ctx, tx, req, approvingHospitalID, now)
		case from == model.StatusApproved && to == model.StatusRejected:
			err = c.reverse(ctx, tx, req, now)
		case from == model.StatusPending && (to == model.StatusRejected || to == model.StatusCancelled):
			err = tx.SetRequestStatus(ctx, req.ID, from, to, nil, now)
		default:
			err = fmt.Errorf("%w: blood request %d cannot go from %s to %s", model.ErrInvalidTransition, req.ID, from, to)
		}
		if err != nil {
			return err
		}

		updated, err = tx.GetRequest(ctx, req.ID)
		return err
	})
	if err != nil {
		return nil, c.fail(span, err)
	}

	c.logger.Info("blood request status changed",
		"request_id", updated.ID,
		"from", from,
		"to", updated.Status,
		"blood_type", updated.BloodType,
		"units", updated.UnitsRequested,
	)
	return updated, nil
}

// approve debits the approver, credits the requester and records the source.
func (c *Coordinator) approve(ctx context.Context, tx Tx, req *model.BloodRequest, approverID *int64, now time.Time) error {
	if approverID == nil {
		return model.ErrMissingApprover
	}
	source := *approverID
	if source == req.RequestingHospitalID {
		return fmt.Errorf("%w: hospital %d cannot approve its own request", model.ErrValidation, source)
	}
	if err := requireHospital(ctx, tx, source); err != nil {
		return err
	}

	if err := tx.Debit(ctx, source, req.BloodType, req.UnitsRequested, now); err != nil {
		return err
	}
	if err := tx.Credit(ctx, req.RequestingHospitalID, req.BloodType, req.UnitsRequested, now); err != nil {
		return err
	}
	if err := tx.SetRequestStatus(ctx, req.ID, model.StatusPending, model.StatusApproved, &source, now); err != nil {
		return err
	}

	target := req.RequestingHospitalID
	return tx.AppendTransaction(ctx, &model.Transaction{
		Type:             model.TransactionTransfer,
		BloodType:        req.BloodType,
		Units:            req.UnitsRequested,
		HospitalID:       source,
		TargetHospitalID: &target,
		RequestID:        &req.ID,
		Status:           model.TransactionCompleted,
		Priority:         req.Priority,
		Notes:            fmt.Sprintf("approved request %d", req.ID),
		CreatedAt:        now,
		UpdatedAt:        now,
	})
}

// reverse returns the units of an approved request to its source. The
// requester must still hold them; otherwise nothing changes and the request
// stays approved.
func (c *Coordinator) reverse(ctx context.Context, tx Tx, req *model.BloodRequest, now time.Time) error {
	if req.SourceHospitalID == nil {
		return fmt.Errorf("%w: approved blood request %d has no source hospital", model.ErrInvalidTransition, req.ID)
	}
	source := *req.SourceHospitalID

	if err := tx.Debit(ctx, req.RequestingHospitalID, req.BloodType, req.UnitsRequested, now); err != nil {
		if errors.Is(err, model.ErrInsufficientStock) {
			return fmt.Errorf("reversing blood request %d: requester no longer holds the units: %w", req.ID, err)
		}
		return err
	}
	if err := tx.Credit(ctx, source, req.BloodType, req.UnitsRequested, now); err != nil {
		return err
	}
	if err := tx.SetRequestStatus(ctx, req.ID, model.StatusApproved, model.StatusRejected, nil, now); err != nil {
		return err
	}

	target := source
	return tx.AppendTransaction(ctx, &model.Transaction{
		Type:             model.TransactionTransfer,
		BloodType:        req.BloodType,
		Units:            req.UnitsRequested,
		HospitalID:       req.RequestingHospitalID,
		TargetHospitalID: &target,
		RequestID:        &req.ID,
		Status:           model.TransactionCancelled,
		Priority:         req.Priority,
		Notes:            fmt.Sprintf("reversal of request %d", req.ID),
		CreatedAt:        now,
		UpdatedAt:        now,
	})
}

// RecordDonation stores a donation and credits the receiving hospital.
func (c *Coordinator) RecordDonation(ctx context.Context, in model.NewDonation) (*model.Donation, error) {
	ctx, span := c.tracer.Start(ctx, "transfer.RecordDonation", trace.WithAttributes(
		attribute.Int64("hospital.id", in.HospitalID),
		attribute.String("blood.type", string(in.BloodType)),
		attribute.Int("units", in.Units),
	))
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, c.fail(span, err)
	}

	now := c.now()
	d := &model.Donation{
		DonorName:  in.DonorName,
		BloodType:  in.BloodType,
		Units:      in.Units,
		HospitalID: in.HospitalID,
		DonatedAt:  now,
	}
	err := c.store.InTx(ctx, func(tx Tx) error {
		if err := requireHospital(ctx, tx, d.HospitalID); err != nil {
			return err
		}

		id, err := tx.CreateDonation(ctx, d)
		if err != nil {
			return err
		}
		d.ID = id

		if err := tx.Credit(ctx, d.HospitalID, d.BloodType, d.Units, now); err != nil {
			return err
		}

		return tx.AppendTransaction(ctx, &model.Transaction{
			Type:       model.TransactionDonation,
			BloodType:  d.BloodType,
			Units:      d.Units,
			HospitalID: d.HospitalID,
			Status:     model.TransactionCompleted,
			Notes:      "donation from " + d.DonorName,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	})
	if err != nil {
		return nil, c.fail(span, err)
	}

	c.logger.Info("donation recorded",
		"donation_id", d.ID,
		"hospital_id", d.HospitalID,
		"blood_type", d.BloodType,
		"units", d.Units,
	)
	return d, nil
}

// GetInventory returns a hospital's inventory.
func (c *Coordinator) GetInventory(ctx context.Context, hospitalID int64) ([]model.InventoryEntry, error) {
	ctx, span := c.tracer.Start(ctx, "transfer.GetInventory", trace.WithAttributes(
		attribute.Int64("hospital.id", hospitalID),
	))
	defer span.End()

	entries, err := c.store.ListInventory(ctx, hospitalID)
	if err != nil {
		return nil, c.fail(span, err)
	}
	return entries, nil
}

func requireHospital(ctx context.Context, tx Tx, id int64) error {
	ok, err := tx.HospitalExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: hospital %d", model.ErrNotFound, id)
	}
	return nil
}

// fail records err on span and returns it unchanged.
func (c *Coordinator) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
