package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// SessionServiceName is the fully-qualified name of the session service.
const SessionServiceName = "splitbill.v1.SessionService"

// Procedure paths served under SessionServiceName.
const (
	CreateSessionProcedure  = "/splitbill.v1.SessionService/CreateSession"
	OpenSessionProcedure    = "/splitbill.v1.SessionService/OpenSession"
	GetSessionProcedure     = "/splitbill.v1.SessionService/GetSession"
	DeleteSessionProcedure  = "/splitbill.v1.SessionService/DeleteSession"
	AddPersonProcedure      = "/splitbill.v1.SessionService/AddPerson"
	RemovePersonProcedure   = "/splitbill.v1.SessionService/RemovePerson"
	SaveBillProcedure       = "/splitbill.v1.SessionService/SaveBill"
	DeleteBillProcedure     = "/splitbill.v1.SessionService/DeleteBill"
	AssignItemProcedure     = "/splitbill.v1.SessionService/AssignItem"
	AddPaymentProcedure     = "/splitbill.v1.SessionService/AddPayment"
	DeletePaymentProcedure  = "/splitbill.v1.SessionService/DeletePayment"
	SetStepProcedure        = "/splitbill.v1.SessionService/SetStep"
	ExtractReceiptProcedure = "/splitbill.v1.SessionService/ExtractReceipt"
	GetSummaryProcedure     = "/splitbill.v1.SessionService/GetSummary"
	ExportSummaryProcedure  = "/splitbill.v1.SessionService/ExportSummary"
)

// PublicProcedures do not require a session token.
var PublicProcedures = []string{CreateSessionProcedure, OpenSessionProcedure}

// NewSessionServiceHandler builds an HTTP handler serving every session
// procedure. It returns the path prefix to mount the handler on.
func NewSessionServiceHandler(svc *SessionService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateSessionProcedure, connect.NewUnaryHandler(CreateSessionProcedure, svc.CreateSession, opts...))
	mux.Handle(OpenSessionProcedure, connect.NewUnaryHandler(OpenSessionProcedure, svc.OpenSession, opts...))
	mux.Handle(GetSessionProcedure, connect.NewUnaryHandler(GetSessionProcedure, svc.GetSession, opts...))
	mux.Handle(DeleteSessionProcedure, connect.NewUnaryHandler(DeleteSessionProcedure, svc.DeleteSession, opts...))
	mux.Handle(AddPersonProcedure, connect.NewUnaryHandler(AddPersonProcedure, svc.AddPerson, opts...))
	mux.Handle(RemovePersonProcedure, connect.NewUnaryHandler(RemovePersonProcedure, svc.RemovePerson, opts...))
	mux.Handle(SaveBillProcedure, connect.NewUnaryHandler(SaveBillProcedure, svc.SaveBill, opts...))
	mux.Handle(DeleteBillProcedure, connect.NewUnaryHandler(DeleteBillProcedure, svc.DeleteBill, opts...))
	mux.Handle(AssignItemProcedure, connect.NewUnaryHandler(AssignItemProcedure, svc.AssignItem, opts...))
	mux.Handle(AddPaymentProcedure, connect.NewUnaryHandler(AddPaymentProcedure, svc.AddPayment, opts...))
	mux.Handle(DeletePaymentProcedure, connect.NewUnaryHandler(DeletePaymentProcedure, svc.DeletePayment, opts...))
	mux.Handle(SetStepProcedure, connect.NewUnaryHandler(SetStepProcedure, svc.SetStep, opts...))
	mux.Handle(ExtractReceiptProcedure, connect.NewUnaryHandler(ExtractReceiptProcedure, svc.ExtractReceipt, opts...))
	mux.Handle(GetSummaryProcedure, connect.NewUnaryHandler(GetSummaryProcedure, svc.GetSummary, opts...))
	mux.Handle(ExportSummaryProcedure, connect.NewUnaryHandler(ExportSummaryProcedure, svc.ExportSummary, opts...))

	return "/" + SessionServiceName + "/", mux
}

// SessionServiceClient is a typed client for the session service.
type SessionServiceClient struct {
	createSession  *connect.Client[CreateSessionRequest, CreateSessionResponse]
	openSession    *connect.Client[OpenSessionRequest, OpenSessionResponse]
	getSession     *connect.Client[GetSessionRequest, GetSessionResponse]
	deleteSession  *connect.Client[DeleteSessionRequest, DeleteSessionResponse]
	addPerson      *connect.Client[AddPersonRequest, AddPersonResponse]
	removePerson   *connect.Client[RemovePersonRequest, RemovePersonResponse]
	saveBill       *connect.Client[SaveBillRequest, SaveBillResponse]
	deleteBill     *connect.Client[DeleteBillRequest, DeleteBillResponse]
	assignItem     *connect.Client[AssignItemRequest, AssignItemResponse]
	addPayment     *connect.Client[AddPaymentRequest, AddPaymentResponse]
	deletePayment  *connect.Client[DeletePaymentRequest, DeletePaymentResponse]
	setStep        *connect.Client[SetStepRequest, SetStepResponse]
	extractReceipt *connect.Client[ExtractReceiptRequest, ExtractReceiptResponse]
	getSummary     *connect.Client[GetSummaryRequest, GetSummaryResponse]
	exportSummary  *connect.Client[ExportSummaryRequest, ExportSummaryResponse]
}

// NewSessionServiceClient constructs a client for the service at baseURL.
func NewSessionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SessionServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return &SessionServiceClient{
		createSession:  connect.NewClient[CreateSessionRequest, CreateSessionResponse](httpClient, baseURL+CreateSessionProcedure, opts...),
		openSession:    connect.NewClient[OpenSessionRequest, OpenSessionResponse](httpClient, baseURL+OpenSessionProcedure, opts...),
		getSession:     connect.NewClient[GetSessionRequest, GetSessionResponse](httpClient, baseURL+GetSessionProcedure, opts...),
		deleteSession:  connect.NewClient[DeleteSessionRequest, DeleteSessionResponse](httpClient, baseURL+DeleteSessionProcedure, opts...),
		addPerson:      connect.NewClient[AddPersonRequest, AddPersonResponse](httpClient, baseURL+AddPersonProcedure, opts...),
		removePerson:   connect.NewClient[RemovePersonRequest, RemovePersonResponse](httpClient, baseURL+RemovePersonProcedure, opts...),
		saveBill:       connect.NewClient[SaveBillRequest, SaveBillResponse](httpClient, baseURL+SaveBillProcedure, opts...),
		deleteBill:     connect.NewClient[DeleteBillRequest, DeleteBillResponse](httpClient, baseURL+DeleteBillProcedure, opts...),
		assignItem:     connect.NewClient[AssignItemRequest, AssignItemResponse](httpClient, baseURL+AssignItemProcedure, opts...),
		addPayment:     connect.NewClient[AddPaymentRequest, AddPaymentResponse](httpClient, baseURL+AddPaymentProcedure, opts...),
		deletePayment:  connect.NewClient[DeletePaymentRequest, DeletePaymentResponse](httpClient, baseURL+DeletePaymentProcedure, opts...),
		setStep:        connect.NewClient[SetStepRequest, SetStepResponse](httpClient, baseURL+SetStepProcedure, opts...),
		extractReceipt: connect.NewClient[ExtractReceiptRequest, ExtractReceiptResponse](httpClient, baseURL+ExtractReceiptProcedure, opts...),
		getSummary:     connect.NewClient[GetSummaryRequest, GetSummaryResponse](httpClient, baseURL+GetSummaryProcedure, opts...),
		exportSummary:  connect.NewClient[ExportSummaryRequest, ExportSummaryResponse](httpClient, baseURL+ExportSummaryProcedure, opts...),
	}
}

func (c *SessionServiceClient) CreateSession(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*connect.Response[CreateSessionResponse], error) {
	return c.createSession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) OpenSession(ctx context.Context, req *connect.Request[OpenSessionRequest]) (*connect.Response[OpenSessionResponse], error) {
	return c.openSession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) GetSession(ctx context.Context, req *connect.Request[GetSessionRequest]) (*connect.Response[GetSessionResponse], error) {
	return c.getSession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) DeleteSession(ctx context.Context, req *connect.Request[DeleteSessionRequest]) (*connect.Response[DeleteSessionResponse], error) {
	return c.deleteSession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) AddPerson(ctx context.Context, req *connect.Request[AddPersonRequest]) (*connect.Response[AddPersonResponse], error) {
	return c.addPerson.CallUnary(ctx, req)
}

func (c *SessionServiceClient) RemovePerson(ctx context.Context, req *connect.Request[RemovePersonRequest]) (*connect.Response[RemovePersonResponse], error) {
	return c.removePerson.CallUnary(ctx, req)
}

func (c *SessionServiceClient) SaveBill(ctx context.Context, req *connect.Request[SaveBillRequest]) (*connect.Response[SaveBillResponse], error) {
	return c.saveBill.CallUnary(ctx, req)
}

func (c *SessionServiceClient) DeleteBill(ctx context.Context, req *connect.Request[DeleteBillRequest]) (*connect.Response[DeleteBillResponse], error) {
	return c.deleteBill.CallUnary(ctx, req)
}

func (c *SessionServiceClient) AssignItem(ctx context.Context, req *connect.Request[AssignItemRequest]) (*connect.Response[AssignItemResponse], error) {
	return c.assignItem.CallUnary(ctx, req)
}

func (c *SessionServiceClient) AddPayment(ctx context.Context, req *connect.Request[AddPaymentRequest]) (*connect.Response[AddPaymentResponse], error) {
	return c.addPayment.CallUnary(ctx, req)
}

func (c *SessionServiceClient) DeletePayment(ctx context.Context, req *connect.Request[DeletePaymentRequest]) (*connect.Response[DeletePaymentResponse], error) {
	return c.deletePayment.CallUnary(ctx, req)
}

func (c *SessionServiceClient) SetStep(ctx context.Context, req *connect.Request[SetStepRequest]) (*connect.Response[SetStepResponse], error) {
	return c.setStep.CallUnary(ctx, req)
}

func (c *SessionServiceClient) ExtractReceipt(ctx context.Context, req *connect.Request[ExtractReceiptRequest]) (*connect.Response[ExtractReceiptResponse], error) {
	return c.extractReceipt.CallUnary(ctx, req)
}

func (c *SessionServiceClient) GetSummary(ctx context.Context, req *connect.Request[GetSummaryRequest]) (*connect.Response[GetSummaryResponse], error) {
	return c.getSummary.CallUnary(ctx, req)
}

func (c *SessionServiceClient) ExportSummary(ctx context.Context, req *connect.Request[ExportSummaryRequest]) (*connect.Response[ExportSummaryResponse], error) {
	return c.exportSummary.CallUnary(ctx, req)
}
