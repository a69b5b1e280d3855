package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/kndrckm/splitbill/internal/calculator"
	"github.com/kndrckm/splitbill/internal/extraction"
	"github.com/kndrckm/splitbill/internal/metrics"
	"github.com/kndrckm/splitbill/internal/models"
)

// validAmount reports whether v is a finite, non-negative amount.
func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// validateBill checks the amounts on a bill before it touches the snapshot.
func validateBill(bill models.Bill, taxRate, serviceRate *float64) error {
	for name, v := range map[string]float64{
		"subtotal":       bill.Subtotal,
		"tax":            bill.Tax,
		"service_charge": bill.ServiceCharge,
	} {
		if !validAmount(v) {
			return fmt.Errorf("%s must be a non-negative number", name)
		}
	}
	if taxRate != nil && !validAmount(*taxRate) {
		return fmt.Errorf("tax_rate must be a non-negative number")
	}
	if serviceRate != nil && !validAmount(*serviceRate) {
		return fmt.Errorf("service_rate must be a non-negative number")
	}

	seen := make(map[string]bool, len(bill.Items))
	for i, item := range bill.Items {
		if !validAmount(item.Price) {
			return fmt.Errorf("item %d: price must be a non-negative number", i+1)
		}
		if item.ID != "" {
			if seen[item.ID] {
				return fmt.Errorf("item %d: duplicate id %q", i+1, item.ID)
			}
			seen[item.ID] = true
		}
	}
	return nil
}

// resolveSharedBy deduplicates ids and checks each one names a person in the session.
func resolveSharedBy(session *models.Session, ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if session.FindPerson(id) < 0 {
			return nil, fmt.Errorf("person %q not found", id)
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// SaveBill creates a bill or replaces an existing one, then recomputes its total.
func (s *SessionService) SaveBill(ctx context.Context, req *connect.Request[SaveBillRequest]) (*connect.Response[SaveBillResponse], error) {
	bill := req.Msg.Bill
	if err := validateBill(bill, req.Msg.TaxRate, req.Msg.ServiceRate); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	_, err := s.mutate(ctx, req.Msg.SessionID, func(session *models.Session) error {
		items := make([]models.Item, len(bill.Items))
		for i, item := range bill.Items {
			sharedBy, err := resolveSharedBy(session, item.SharedBy)
			if err != nil {
				return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("item %d: %w", i+1, err))
			}
			item.SharedBy = sharedBy
			if item.ID == "" {
				item.ID = uuid.New().String()
			}
			if item.Quantity <= 0 {
				item.Quantity = 1
			}
			items[i] = item
		}
		bill.Items = items

		if bill.Subtotal == 0 {
			bill.Subtotal = bill.ItemsSum()
		}
		if req.Msg.TaxRate != nil {
			bill.Tax, _ = calculator.ChargesFromRates(bill.Subtotal, *req.Msg.TaxRate, 0)
		}
		if req.Msg.ServiceRate != nil {
			_, bill.ServiceCharge = calculator.ChargesFromRates(bill.Subtotal, 0, *req.Msg.ServiceRate)
		}
		bill.ComputeTotal()

		bill.Name = strings.TrimSpace(bill.Name)
		if bill.ID == "" {
			bill.ID = uuid.New().String()
			if bill.Name == "" {
				bill.Name = fmt.Sprintf("Bill %d", len(session.Bills)+1)
			}
			session.Bills = append(session.Bills, bill)
			return nil
		}

		idx := session.FindBill(bill.ID)
		if idx < 0 {
			return connect.NewError(connect.CodeNotFound, fmt.Errorf("bill %q not found", bill.ID))
		}
		if bill.Name == "" {
			bill.Name = session.Bills[idx].Name
		}
		session.Bills[idx] = bill
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Bill saved",
		"session_id", req.Msg.SessionID,
		"bill_id", bill.ID,
		"items", len(bill.Items),
		"total", bill.Total,
	)
	return connect.NewResponse(&SaveBillResponse{Bill: bill}), nil
}

// DeleteBill removes a bill and its items.
func (s *SessionService) DeleteBill(ctx context.Context, req *connect.Request[DeleteBillRequest]) (*connect.Response[DeleteBillResponse], error) {
	_, err := s.mutate(ctx, req.Msg.SessionID, func(session *models.Session) error {
		idx := session.FindBill(req.Msg.BillID)
		if idx < 0 {
			return connect.NewError(connect.CodeNotFound, fmt.Errorf("bill %q not found", req.Msg.BillID))
		}
		session.Bills = append(session.Bills[:idx], session.Bills[idx+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&DeleteBillResponse{}), nil
}

// AssignItem replaces the set of people sharing one item.
func (s *SessionService) AssignItem(ctx context.Context, req *connect.Request[AssignItemRequest]) (*connect.Response[AssignItemResponse], error) {
	var item models.Item
	_, err := s.mutate(ctx, req.Msg.SessionID, func(session *models.Session) error {
		b := session.FindBill(req.Msg.BillID)
		if b < 0 {
			return connect.NewError(connect.CodeNotFound, fmt.Errorf("bill %q not found", req.Msg.BillID))
		}
		i := session.Bills[b].FindItem(req.Msg.ItemID)
		if i < 0 {
			return connect.NewError(connect.CodeNotFound, fmt.Errorf("item %q not found", req.Msg.ItemID))
		}

		sharedBy, err := resolveSharedBy(session, req.Msg.PersonIDs)
		if err != nil {
			return connect.NewError(connect.CodeInvalidArgument, err)
		}
		session.Bills[b].Items[i].SharedBy = sharedBy
		item = session.Bills[b].Items[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&AssignItemResponse{Item: item}), nil
}

// ExtractReceipt sends a receipt image to the extraction service and appends
// the result to the session as a new, unassigned bill.
func (s *SessionService) ExtractReceipt(ctx context.Context, req *connect.Request[ExtractReceiptRequest]) (*connect.Response[ExtractReceiptResponse], error) {
	if len(req.Msg.Image) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, extraction.ErrEmptyImage)
	}

	// The session must exist before paying for an extraction call.
	if _, err := s.load(ctx, req.Msg.SessionID); err != nil {
		return nil, err
	}

	receipt, err := s.extractor.Extract(ctx, req.Msg.Image, req.Msg.MimeType)
	s.metrics.Extractions.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		slog.Error("ExtractReceipt failed", "session_id", req.Msg.SessionID, "error", err)
		switch {
		case errors.Is(err, extraction.ErrEmptyImage):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		case errors.Is(err, extraction.ErrNotConfigured):
			return nil, connect.NewError(connect.CodeUnimplemented, err)
		default:
			return nil, connect.NewError(connect.CodeUnavailable, err)
		}
	}

	bill := receipt.ToBill()
	if err := validateBill(bill, nil, nil); err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, fmt.Errorf("extraction returned an invalid receipt: %w", err))
	}

	_, err = s.mutate(ctx, req.Msg.SessionID, func(session *models.Session) error {
		session.Bills = append(session.Bills, bill)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Receipt extracted",
		"session_id", req.Msg.SessionID,
		"bill_id", bill.ID,
		"items", len(bill.Items),
		"total", bill.Total,
	)
	return connect.NewResponse(&ExtractReceiptResponse{Bill: bill}), nil
}
