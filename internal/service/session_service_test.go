package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kndrckm/splitbill/internal/auth"
	"github.com/kndrckm/splitbill/internal/extraction"
	"github.com/kndrckm/splitbill/internal/metrics"
	"github.com/kndrckm/splitbill/internal/middleware"
	"github.com/kndrckm/splitbill/internal/models"
	"github.com/kndrckm/splitbill/internal/storage/sqlite"
)

// fakeExtractor returns a canned receipt or error.
type fakeExtractor struct {
	mu      sync.Mutex
	receipt *extraction.Receipt
	err     error
	calls   int
}

func (f *fakeExtractor) Extract(ctx context.Context, image []byte, mimeType string) (*extraction.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.receipt, f.err
}

func (f *fakeExtractor) set(receipt *extraction.Receipt, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipt, f.err = receipt, err
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type testEnv struct {
	client     *SessionServiceClient
	jwtManager *auth.JWTManager
	extractor  *fakeExtractor
	metrics    *metrics.Metrics
}

// setupTestServer creates a test server backed by a temporary SQLite database
// with the production interceptor chain.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	jwtManager := auth.NewJWTManager("test-secret-key-0123456789", time.Hour)
	extractor := &fakeExtractor{}
	m := metrics.New()

	svc := NewSessionService(store, jwtManager,
		WithExtractor(extractor),
		WithMetrics(m),
	)
	interceptors := connect.WithInterceptors(
		middleware.LoggingInterceptor(m),
		middleware.RequireSessionToken(jwtManager, PublicProcedures...),
	)
	path, handler := NewSessionServiceHandler(svc, interceptors)

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{
		client:     NewSessionServiceClient(http.DefaultClient, server.URL),
		jwtManager: jwtManager,
		extractor:  extractor,
		metrics:    m,
	}
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}

// createSession returns a fresh session ID and its token.
func (e *testEnv) createSession(t *testing.T) (string, string) {
	t.Helper()
	resp, err := e.client.CreateSession(context.Background(), connect.NewRequest(&CreateSessionRequest{Name: "Dinner"}))
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return resp.Msg.Session.ID, resp.Msg.Token
}

func (e *testEnv) addPerson(t *testing.T, sessionID, token, name string) string {
	t.Helper()
	resp, err := e.client.AddPerson(context.Background(), withToken(&AddPersonRequest{SessionID: sessionID, Name: name}, token))
	if err != nil {
		t.Fatalf("AddPerson(%s) failed: %v", name, err)
	}
	return resp.Msg.Person.ID
}

func (e *testEnv) summary(t *testing.T, sessionID, token string) models.Summary {
	t.Helper()
	resp, err := e.client.GetSummary(context.Background(), withToken(&GetSummaryRequest{SessionID: sessionID}, token))
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	return resp.Msg.Summary
}

func TestCreateSession(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	resp, err := env.client.CreateSession(ctx, connect.NewRequest(&CreateSessionRequest{}))
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	session := resp.Msg.Session
	if session.ID == "" {
		t.Error("expected session ID to be generated")
	}
	if !strings.HasPrefix(session.Name, "Session - ") {
		t.Errorf("expected default name, got %q", session.Name)
	}
	if session.Version != 1 {
		t.Errorf("expected version 1, got %d", session.Version)
	}

	claims, err := env.jwtManager.Validate(resp.Msg.Token)
	if err != nil {
		t.Fatalf("token does not validate: %v", err)
	}
	if claims.SessionID != session.ID {
		t.Errorf("token session = %q, want %q", claims.SessionID, session.ID)
	}
}

func TestCreateSession_WeakPasscode(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.client.CreateSession(context.Background(), connect.NewRequest(&CreateSessionRequest{Passcode: "12"}))
	expectCode(t, err, connect.CodeInvalidArgument)
}

func TestOpenSession_Passcode(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	created, err := env.client.CreateSession(ctx, connect.NewRequest(&CreateSessionRequest{Name: "Trip", Passcode: "hunter2"}))
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	sessionID := created.Msg.Session.ID

	_, err = env.client.OpenSession(ctx, connect.NewRequest(&OpenSessionRequest{SessionID: sessionID, Passcode: "wrong"}))
	expectCode(t, err, connect.CodeUnauthenticated)

	opened, err := env.client.OpenSession(ctx, connect.NewRequest(&OpenSessionRequest{SessionID: sessionID, Passcode: "hunter2"}))
	if err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}

	got, err := env.client.GetSession(ctx, withToken(&GetSessionRequest{SessionID: sessionID}, opened.Msg.Token))
	if err != nil {
		t.Fatalf("GetSession with opened token failed: %v", err)
	}
	if got.Msg.Session.Name != "Trip" {
		t.Errorf("expected name Trip, got %q", got.Msg.Session.Name)
	}
}

func TestOpenSession_NotFound(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.client.OpenSession(context.Background(), connect.NewRequest(&OpenSessionRequest{SessionID: "missing"}))
	expectCode(t, err, connect.CodeNotFound)
}

func TestAuthInterceptor(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	sessionID, _ := env.createSession(t)
	_, otherToken := env.createSession(t)

	t.Run("missing token", func(t *testing.T) {
		_, err := env.client.GetSession(ctx, connect.NewRequest(&GetSessionRequest{SessionID: sessionID}))
		expectCode(t, err, connect.CodeUnauthenticated)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := env.client.GetSession(ctx, withToken(&GetSessionRequest{SessionID: sessionID}, "not-a-jwt"))
		expectCode(t, err, connect.CodeUnauthenticated)
	})

	t.Run("token for another session", func(t *testing.T) {
		_, err := env.client.GetSession(ctx, withToken(&GetSessionRequest{SessionID: sessionID}, otherToken))
		expectCode(t, err, connect.CodePermissionDenied)
	})
}

func TestGetSession_NotFound(t *testing.T) {
	env := setupTestServer(t)

	token, err := env.jwtManager.Generate("missing")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	_, err = env.client.GetSession(context.Background(), withToken(&GetSessionRequest{SessionID: "missing"}, token))
	expectCode(t, err, connect.CodeNotFound)
}

// Two people share a 200 item with tax 20 and service 10; A pays everything.
func TestSessionFlow_SinglePayer(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	sessionID, token := env.createSession(t)
	alice := env.addPerson(t, sessionID, token, "A")
	bob := env.addPerson(t, sessionID, token, "B")

	billResp, err := env.client.SaveBill(ctx, withToken(&SaveBillRequest{
		SessionID: sessionID,
		Bill: models.Bill{
			Name:          "Dinner",
			Items:         []models.Item{{Name: "Platter", Price: 200, SharedBy: []string{alice, bob}}},
			Tax:           20,
			ServiceCharge: 10,
		},
	}, token))
	if err != nil {
		t.Fatalf("SaveBill failed: %v", err)
	}
	bill := billResp.Msg.Bill
	if bill.ID == "" || bill.Items[0].ID == "" {
		t.Errorf("expected bill and item IDs to be generated: %+v", bill)
	}
	if bill.Subtotal != 200 || bill.Total != 230 {
		t.Errorf("expected subtotal 200 and total 230, got %v and %v", bill.Subtotal, bill.Total)
	}
	if bill.Items[0].Quantity != 1 {
		t.Errorf("expected quantity to default to 1, got %d", bill.Items[0].Quantity)
	}

	if _, err := env.client.AddPayment(ctx, withToken(&AddPaymentRequest{SessionID: sessionID, PersonID: alice, Amount: 230}, token)); err != nil {
		t.Fatalf("AddPayment failed: %v", err)
	}

	summary := env.summary(t, sessionID, token)
	if len(summary.Totals) != 2 {
		t.Fatalf("expected 2 totals, got %d", len(summary.Totals))
	}
	a, b := summary.Totals[0], summary.Totals[1]
	if !approx(a.ItemTotal, 100) || !approx(a.TaxShare, 10) || !approx(a.ServiceShare, 5) || !approx(a.FinalTotal, 115) {
		t.Errorf("unexpected totals for A: %+v", a)
	}
	if !approx(a.AmountPaid, 230) || !approx(a.Balance, 115) {
		t.Errorf("unexpected balance for A: %+v", a)
	}
	if !approx(b.FinalTotal, 115) || !approx(b.Balance, -115) {
		t.Errorf("unexpected totals for B: %+v", b)
	}

	if len(summary.Settlements) != 1 {
		t.Fatalf("expected 1 settlement, got %+v", summary.Settlements)
	}
	s := summary.Settlements[0]
	if s.FromID != bob || s.ToID != alice || !approx(s.Amount, 115) {
		t.Errorf("expected B pays A 115, got %+v", s)
	}

	got, err := env.client.GetSession(ctx, withToken(&GetSessionRequest{SessionID: sessionID}, token))
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	// create, two people, one bill, one payment
	if got.Msg.Session.Version != 5 {
		t.Errorf("expected version 5, got %d", got.Msg.Session.Version)
	}
}

func TestGetSummary_NobodyPaid(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	sessionID, token := env.createSession(t)
	alice := env.addPerson(t, sessionID, token, "A")
	bob := env.addPerson(t, sessionID, token, "B")

	_, err := env.client.SaveBill(ctx, withToken(&SaveBillRequest{
		SessionID: sessionID,
		Bill:      models.Bill{Items: []models.Item{{Name: "Pizza", Price: 100, SharedBy: []string{alice, bob}}}},
	}, token))
	if err != nil {
		t.Fatalf("SaveBill failed: %v", err)
	}

	summary := env.summary(t, sessionID, token)
	for _, pt := range summary.Totals {
		if !approx(pt.FinalTotal, 50) || !approx(pt.Balance, -50) {
			t.Errorf("unexpected totals for %s: %+v", pt.Name, pt)
		}
	}
	if len(summary.Settlements) != 0 {
		t.Errorf("expected no settlements without a creditor, got %+v", summary.Settlements)
	}
}

func TestSaveBill_Rates(t *testing.T) {
	env := setupTestServer(t)
	sessionID, token := env.createSession(t)
	taxRate, serviceRate := 10.0, 5.0

	resp, err := env.client.SaveBill(context.Background(), withToken(&SaveBillRequest{
		SessionID:   sessionID,
		Bill:        models.Bill{Items: []models.Item{{Name: "Soup", Price: 40}, {Name: "Rice", Price: 60}}, Tax: 99},
		TaxRate:     &taxRate,
		ServiceRate: &serviceRate,
	}, token))
	if err != nil {
		t.Fatalf("SaveBill failed: %v", err)
	}

	bill := resp.Msg.Bill
	if !approx(bill.Tax, 10) || !approx(bill.ServiceCharge, 5) || !approx(bill.Total, 115) {
		t.Errorf("expected tax 10, service 5, total 115, got %+v", bill)
	}
	if bill.Name != "Bill 1" {
		t.Errorf("expected default name Bill 1, got %q", bill.Name)
	}
}

func TestSaveBill_Update(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	sessionID, token := env.createSession(t)

	created, err := env.client.SaveBill(ctx, withToken(&SaveBillRequest{
		SessionID: sessionID,
		Bill:      models.Bill{Name: "Lunch", Items: []models.Item{{Name: "Tea", Price: 5}}},
	}, token))
	if err != nil {
		t.Fatalf("SaveBill failed: %v", err)
	}

	bill := created.Msg.Bill
	bill.Name = ""
	bill.Subtotal = 0
	bill.Items = append(bill.Items, models.Item{Name: "Cake", Price: 7})
	updated, err := env.client.SaveBill(ctx, withToken(&SaveBillRequest{SessionID: sessionID, Bill: bill}, token))
	if err != nil {
		t.Fatalf("SaveBill update failed: %v", err)
	}
	if updated.Msg.Bill.Name != "Lunch" {
		t.Errorf("expected name to be kept, got %q", updated.Msg.Bill.Name)
	}
	if !approx(updated.Msg.Bill.Total, 12) {
		t.Errorf("expected total 12, got %v", updated.Msg.Bill.Total)
	}

	got, err := env.client.GetSession(ctx, withToken(&GetSessionRequest{SessionID: sessionID}, token))
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if len(got.Msg.Session.Bills) != 1 || len(got.Msg.Session.Bills[0].Items) != 2 {
		t.Errorf("expected one bill with two items, got %+v", got.Msg.Session.Bills)
	}
}

func TestSaveBill_Invalid(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	sessionID, token := env.createSession(t)
	negative := -1.0

	tests := []struct {
		name string
		req  *SaveBillRequest
		want connect.Code
	}{
		{
			name: "negative price",
			req:  &SaveBillRequest{Bill: models.Bill{Items: []models.Item{{Name: "X", Price: -3}}}},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "negative tax rate",
			req:  &SaveBillRequest{Bill: models.Bill{}, TaxRate: &negative},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unknown person",
			req:  &SaveBillRequest{Bill: models.Bill{Items: []models.Item{{Name: "X", Price: 3, SharedBy: []string{"ghost"}}}}},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "duplicate item id",
			req:  &SaveBillRequest{Bill: models.Bill{Items: []models.Item{{ID: "i", Price: 1}, {ID: "i", Price: 2}}}},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unknown bill id",
			req:  &SaveBillRequest{Bill: models.Bill{ID: "nope"}},
			want: connect.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.SessionID = sessionID
			_, err := env.client.SaveBill(ctx, withToken(tt.req, token))
			expectCode(t, err, tt.want)
		})
	}
}

func TestAssignItem(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	sessionID, token := env.createSession(t)
	alice := env.addPerson(t, sessionID, token, "A")
	bob := env.addPerson(t, sessionID, token, "B")

	resp, err := env.client.SaveBill(ctx, withToken(&SaveBillRequest{
		SessionID: sessionID,
		Bill: models.Bill{
			Items: []models.Item{
				{Name: "Steak", Price: 60, SharedBy: []string{alice}},
				{Name: "Wine", Price: 90},
			},
			Tax: 6,
		},
	}, token))
	if err != nil {
		t.Fatalf("SaveBill failed: %v", err)
	}
	bill := resp.Msg.Bill

	summary := env.summary(t, sessionID, token)
	if summary.UnassignedItems != 1 {
		t.Errorf("expected 1 unassigned item, got %d", summary.UnassignedItems)
	}
	// The unassigned wine is out of the tax base, so A carries all the tax.
	if !approx(summary.Totals[0].ItemTotal, 60) || !approx(summary.Totals[0].TaxShare, 6) {
		t.Errorf("unexpected totals for A: %+v", summary.Totals[0])
	}

	assigned, err := env.client.AssignItem(ctx, withToken(&AssignItemRequest{
		SessionID: sessionID,
		BillID:    bill.ID,
		ItemID:    bill.Items[1].ID,
		PersonIDs: []string{alice, bob, bob},
	}, token))
	if err != nil {
		t.Fatalf("AssignItem failed: %v", err)
	}
	if len(assigned.Msg.Item.SharedBy) != 2 {
		t.Errorf("expected duplicate IDs to collapse, got %v", assigned.Msg.Item.SharedBy)
	}

	summary = env.summary(t, sessionID, token)
	if summary.UnassignedItems != 0 {
		t.Errorf("expected no unassigned items, got %d", summary.UnassignedItems)
	}
	if !approx(summary.Totals[1].ItemTotal, 45) {
		t.Errorf("expected B item total 45, got %v", summary.Totals[1].ItemTotal)
	}

	_, err = env.client.AssignItem(ctx, withToken(&AssignItemRequest{SessionID: sessionID, BillID: bill.ID, ItemID: "nope"}, token))
	expectCode(t, err, connect.CodeNotFound)
}

func TestRemovePerson(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	sessionID, token := env.createSession(t)
	alice := env.addPerson(t, sessionID, token, "A")
	bob := env.addPerson(t, sessionID, token, "B")

	_, err := env.client.SaveBill(ctx, withToken(&SaveBillRequest{
		SessionID: sessionID,
		Bill:      models.Bill{Items: []models.Item{{Name: "Cake", Price: 20, SharedBy: []string{alice, bob}}}},
	}, token))
	if err != nil {
		t.Fatalf("SaveBill failed: %v", err)
	}
	if _, err := env.client.AddPayment(ctx, withToken(&AddPaymentRequest{SessionID: sessionID, PersonID: bob, Amount: 20}, token)); err != nil {
		t.Fatalf("AddPayment failed: %v", err)
	}

	if _, err := env.client.RemovePerson(ctx, withToken(&RemovePersonRequest{SessionID: sessionID, PersonID: bob}, token)); err != nil {
		t.Fatalf("RemovePerson failed: %v", err)
	}

	got, err := env.client.GetSession(ctx, withToken(&GetSessionRequest{SessionID: sessionID}, token))
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	session := got.Msg.Session
	if len(session.People) != 1 || session.People[0].ID != alice {
		t.Errorf("expected only A to remain, got %+v", session.People)
	}
	if shared := session.Bills[0].Items[0].SharedBy; len(shared) != 1 || shared[0] != alice {
		t.Errorf("expected B removed from item, got %v", shared)
	}
	if len(session.Payments) != 0 {
		t.Errorf("expected B's payments to be dropped, got %+v", session.Payments)
	}

	_, err = env.client.RemovePerson(ctx, withToken(&RemovePersonRequest{SessionID: sessionID, PersonID: bob}, token))
	expectCode(t, err, connect.CodeNotFound)
}

func TestPayments(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	sessionID, token := env.createSession(t)
	alice := env.addPerson(t, sessionID, token, "A")

	_, err := env.client.AddPayment(ctx, withToken(&AddPaymentRequest{SessionID: sessionID, PersonID: alice, Amount: 0}, token))
	expectCode(t, err, connect.CodeInvalidArgument)

	_, err = env.client.AddPayment(ctx, withToken(&AddPaymentRequest{SessionID: sessionID, PersonID: "ghost", Amount: 5}, token))
	expectCode(t, err, connect.CodeInvalidArgument)

	resp, err := env.client.AddPayment(ctx, withToken(&AddPaymentRequest{SessionID: sessionID, PersonID: alice, Amount: 12.5, Note: "cash"}, token))
	if err != nil {
		t.Fatalf("AddPayment failed: %v", err)
	}
	if !approx(env.summary(t, sessionID, token).Totals[0].AmountPaid, 12.5) {
		t.Error("expected payment to count toward amount paid")
	}

	if _, err := env.client.DeletePayment(ctx, withToken(&DeletePaymentRequest{SessionID: sessionID, PaymentID: resp.Msg.Payment.ID}, token)); err != nil {
		t.Fatalf("DeletePayment failed: %v", err)
	}
	if paid := env.summary(t, sessionID, token).Totals[0].AmountPaid; paid != 0 {
		t.Errorf("expected amount paid 0 after delete, got %v", paid)
	}

	_, err = env.client.DeletePayment(ctx, withToken(&DeletePaymentRequest{SessionID: sessionID, PaymentID: resp.Msg.Payment.ID}, token))
	expectCode(t, err, connect.CodeNotFound)
}

func TestDeleteBill(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	sessionID, token := env.createSession(t)

	resp, err := env.client.SaveBill(ctx, withToken(&SaveBillRequest{SessionID: sessionID, Bill: models.Bill{Subtotal: 10}}, token))
	if err != nil {
		t.Fatalf("SaveBill failed: %v", err)
	}
	if _, err := env.client.DeleteBill(ctx, withToken(&DeleteBillRequest{SessionID: sessionID, BillID: resp.Msg.Bill.ID}, token)); err != nil {
		t.Fatalf("DeleteBill failed: %v", err)
	}

	_, err = env.client.DeleteBill(ctx, withToken(&DeleteBillRequest{SessionID: sessionID, BillID: resp.Msg.Bill.ID}, token))
	expectCode(t, err, connect.CodeNotFound)
}

func TestSetStep(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	sessionID, token := env.createSession(t)

	if _, err := env.client.SetStep(ctx, withToken(&SetStepRequest{SessionID: sessionID, Step: 3}, token)); err != nil {
		t.Fatalf("SetStep failed: %v", err)
	}
	got, err := env.client.GetSession(ctx, withToken(&GetSessionRequest{SessionID: sessionID}, token))
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Msg.Session.Step != 3 {
		t.Errorf("expected step 3, got %d", got.Msg.Session.Step)
	}

	_, err = env.client.SetStep(ctx, withToken(&SetStepRequest{SessionID: sessionID, Step: -1}, token))
	expectCode(t, err, connect.CodeInvalidArgument)
}

func TestExtractReceipt(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	sessionID, token := env.createSession(t)

	t.Run("empty image", func(t *testing.T) {
		_, err := env.client.ExtractReceipt(ctx, withToken(&ExtractReceiptRequest{SessionID: sessionID}, token))
		expectCode(t, err, connect.CodeInvalidArgument)
		if calls := env.extractor.callCount(); calls != 0 {
			t.Errorf("expected extractor not to be called, got %d calls", calls)
		}
	})

	t.Run("service failure", func(t *testing.T) {
		env.extractor.set(nil, errors.New("upstream timeout"))
		defer env.extractor.set(nil, nil)

		_, err := env.client.ExtractReceipt(ctx, withToken(&ExtractReceiptRequest{SessionID: sessionID, Image: []byte{0xff}}, token))
		expectCode(t, err, connect.CodeUnavailable)
	})

	t.Run("appends unassigned bill", func(t *testing.T) {
		env.extractor.set(&extraction.Receipt{
			Name:  "Warung",
			Items: []extraction.ReceiptItem{{Name: "Satay", Price: 30}, {Name: "Tea", Price: 10, Quantity: 2}},
			Tax:   4,
		}, nil)

		resp, err := env.client.ExtractReceipt(ctx, withToken(&ExtractReceiptRequest{
			SessionID: sessionID,
			Image:     []byte("fake-jpeg"),
			MimeType:  "image/jpeg",
		}, token))
		if err != nil {
			t.Fatalf("ExtractReceipt failed: %v", err)
		}
		if !approx(resp.Msg.Bill.Total, 44) {
			t.Errorf("expected total 44, got %v", resp.Msg.Bill.Total)
		}

		summary := env.summary(t, sessionID, token)
		if summary.UnassignedItems != 2 {
			t.Errorf("expected 2 unassigned items, got %d", summary.UnassignedItems)
		}

		if got := testutil.ToFloat64(env.metrics.Extractions.WithLabelValues("ok")); got != 1 {
			t.Errorf("expected 1 successful extraction recorded, got %v", got)
		}
		if got := testutil.ToFloat64(env.metrics.Extractions.WithLabelValues("error")); got != 1 {
			t.Errorf("expected 1 failed extraction recorded, got %v", got)
		}
	})
}

func TestExportSummary(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	sessionID, token := env.createSession(t)
	alice := env.addPerson(t, sessionID, token, "Alice")
	bob := env.addPerson(t, sessionID, token, "Bob")

	_, err := env.client.SaveBill(ctx, withToken(&SaveBillRequest{
		SessionID: sessionID,
		Bill:      models.Bill{Name: "Brunch", Items: []models.Item{{Name: "Eggs", Price: 30, SharedBy: []string{alice, bob}}}},
	}, token))
	if err != nil {
		t.Fatalf("SaveBill failed: %v", err)
	}
	if _, err := env.client.AddPayment(ctx, withToken(&AddPaymentRequest{SessionID: sessionID, PersonID: alice, Amount: 30}, token)); err != nil {
		t.Fatalf("AddPayment failed: %v", err)
	}

	t.Run("text", func(t *testing.T) {
		resp, err := env.client.ExportSummary(ctx, withToken(&ExportSummaryRequest{SessionID: sessionID}, token))
		if err != nil {
			t.Fatalf("ExportSummary failed: %v", err)
		}
		if resp.Msg.Format != FormatText {
			t.Errorf("expected default format text, got %q", resp.Msg.Format)
		}
		if !strings.Contains(resp.Msg.Content, "Bob pays Alice") || !strings.Contains(resp.Msg.Content, "15.00") {
			t.Errorf("unexpected text export:\n%s", resp.Msg.Content)
		}
	})

	t.Run("json", func(t *testing.T) {
		resp, err := env.client.ExportSummary(ctx, withToken(&ExportSummaryRequest{SessionID: sessionID, Format: FormatJSON}, token))
		if err != nil {
			t.Fatalf("ExportSummary failed: %v", err)
		}
		var report struct {
			SessionName string              `json:"session_name"`
			Settlements []models.Settlement `json:"settlements"`
		}
		if err := json.Unmarshal([]byte(resp.Msg.Content), &report); err != nil {
			t.Fatalf("export is not JSON: %v", err)
		}
		if report.SessionName != "Dinner" || len(report.Settlements) != 1 {
			t.Errorf("unexpected json export: %+v", report)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := env.client.ExportSummary(ctx, withToken(&ExportSummaryRequest{SessionID: sessionID, Format: "pdf"}, token))
		expectCode(t, err, connect.CodeInvalidArgument)
	})
}

func TestDeleteSession(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	sessionID, token := env.createSession(t)

	if _, err := env.client.DeleteSession(ctx, withToken(&DeleteSessionRequest{SessionID: sessionID}, token)); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	_, err := env.client.GetSession(ctx, withToken(&GetSessionRequest{SessionID: sessionID}, token))
	expectCode(t, err, connect.CodeNotFound)
}
