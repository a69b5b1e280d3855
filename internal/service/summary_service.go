package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/kndrckm/splitbill/internal/calculator"
	"github.com/kndrckm/splitbill/internal/export"
	"github.com/kndrckm/splitbill/internal/models"
)

// Export formats accepted by ExportSummary.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// AddPayment records money a person put toward the session.
func (s *SessionService) AddPayment(ctx context.Context, req *connect.Request[AddPaymentRequest]) (*connect.Response[AddPaymentResponse], error) {
	amount := req.Msg.Amount
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("amount must be positive"))
	}

	payment := models.Payment{
		ID:        uuid.New().String(),
		PersonID:  req.Msg.PersonID,
		Amount:    amount,
		Note:      req.Msg.Note,
		CreatedAt: s.now().Unix(),
	}
	_, err := s.mutate(ctx, req.Msg.SessionID, func(session *models.Session) error {
		if session.FindPerson(payment.PersonID) < 0 {
			return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("person %q not found", payment.PersonID))
		}
		session.Payments = append(session.Payments, payment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&AddPaymentResponse{Payment: payment}), nil
}

// DeletePayment removes a recorded payment.
func (s *SessionService) DeletePayment(ctx context.Context, req *connect.Request[DeletePaymentRequest]) (*connect.Response[DeletePaymentResponse], error) {
	_, err := s.mutate(ctx, req.Msg.SessionID, func(session *models.Session) error {
		idx := session.FindPayment(req.Msg.PaymentID)
		if idx < 0 {
			return connect.NewError(connect.CodeNotFound, fmt.Errorf("payment %q not found", req.Msg.PaymentID))
		}
		session.Payments = append(session.Payments[:idx], session.Payments[idx+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&DeletePaymentResponse{}), nil
}

// summarize runs allocation and settlement and records the run.
func (s *SessionService) summarize(session *models.Session) models.Summary {
	summary := calculator.Summarize(session)

	s.metrics.Summaries.Inc()
	s.metrics.UnassignedItems.Observe(float64(summary.UnassignedItems))
	s.metrics.SettlementsPerCall.Observe(float64(len(summary.Settlements)))

	slog.Debug("Summary computed",
		"session_id", session.ID,
		"people", len(summary.Totals),
		"settlements", len(summary.Settlements),
		"unassigned_items", summary.UnassignedItems,
	)
	return summary
}

// GetSummary returns per-person totals and the suggested transfers.
func (s *SessionService) GetSummary(ctx context.Context, req *connect.Request[GetSummaryRequest]) (*connect.Response[GetSummaryResponse], error) {
	session, err := s.load(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&GetSummaryResponse{Summary: s.summarize(session)}), nil
}

// ExportSummary renders the summary as shareable text or JSON.
func (s *SessionService) ExportSummary(ctx context.Context, req *connect.Request[ExportSummaryRequest]) (*connect.Response[ExportSummaryResponse], error) {
	format := req.Msg.Format
	if format == "" {
		format = FormatText
	}
	if format != FormatText && format != FormatJSON {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown export format %q", format))
	}

	session, err := s.load(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	report := export.Build(session, s.summarize(session), s.now())

	var buf bytes.Buffer
	if format == FormatJSON {
		err = export.RenderJSON(&buf, report)
	} else {
		err = export.RenderText(&buf, report)
	}
	if err != nil {
		slog.Error("ExportSummary failed", "session_id", session.ID, "format", format, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&ExportSummaryResponse{Format: format, Content: buf.String()}), nil
}
