package service

import "github.com/kndrckm/splitbill/internal/models"

type CreateSessionRequest struct {
	Name     string `json:"name"`
	Passcode string `json:"passcode,omitempty"`
}

type CreateSessionResponse struct {
	Session *models.Session `json:"session"`
	Token   string          `json:"token"`
}

type OpenSessionRequest struct {
	SessionID string `json:"session_id"`
	Passcode  string `json:"passcode,omitempty"`
}

type OpenSessionResponse struct {
	Token string `json:"token"`
}

type GetSessionRequest struct {
	SessionID string `json:"session_id"`
}

type GetSessionResponse struct {
	Session *models.Session `json:"session"`
}

type DeleteSessionRequest struct {
	SessionID string `json:"session_id"`
}

type DeleteSessionResponse struct{}

type AddPersonRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
}

type AddPersonResponse struct {
	Person models.Person `json:"person"`
}

type RemovePersonRequest struct {
	SessionID string `json:"session_id"`
	PersonID  string `json:"person_id"`
}

type RemovePersonResponse struct{}

// SaveBillRequest creates a bill (empty Bill.ID) or replaces an existing one.
// TaxRate and ServiceRate, when set, are percentages of the subtotal and
// override Bill.Tax and Bill.ServiceCharge.
type SaveBillRequest struct {
	SessionID   string      `json:"session_id"`
	Bill        models.Bill `json:"bill"`
	TaxRate     *float64    `json:"tax_rate,omitempty"`
	ServiceRate *float64    `json:"service_rate,omitempty"`
}

type SaveBillResponse struct {
	Bill models.Bill `json:"bill"`
}

type DeleteBillRequest struct {
	SessionID string `json:"session_id"`
	BillID    string `json:"bill_id"`
}

type DeleteBillResponse struct{}

// AssignItemRequest replaces an item's SharedBy set. An empty PersonIDs
// unassigns the item.
type AssignItemRequest struct {
	SessionID string   `json:"session_id"`
	BillID    string   `json:"bill_id"`
	ItemID    string   `json:"item_id"`
	PersonIDs []string `json:"person_ids"`
}

type AssignItemResponse struct {
	Item models.Item `json:"item"`
}

type AddPaymentRequest struct {
	SessionID string  `json:"session_id"`
	PersonID  string  `json:"person_id"`
	Amount    float64 `json:"amount"`
	Note      string  `json:"note,omitempty"`
}

type AddPaymentResponse struct {
	Payment models.Payment `json:"payment"`
}

type DeletePaymentRequest struct {
	SessionID string `json:"session_id"`
	PaymentID string `json:"payment_id"`
}

type DeletePaymentResponse struct{}

type SetStepRequest struct {
	SessionID string `json:"session_id"`
	Step      int    `json:"step"`
}

type SetStepResponse struct {
	Step int `json:"step"`
}

// ExtractReceiptRequest carries the raw image; JSON transports it as base64.
type ExtractReceiptRequest struct {
	SessionID string `json:"session_id"`
	Image     []byte `json:"image"`
	MimeType  string `json:"mime_type,omitempty"`
}

type ExtractReceiptResponse struct {
	Bill models.Bill `json:"bill"`
}

type GetSummaryRequest struct {
	SessionID string `json:"session_id"`
}

type GetSummaryResponse struct {
	Summary models.Summary `json:"summary"`
}

// ExportSummaryRequest.Format is "text" (default) or "json".
type ExportSummaryRequest struct {
	SessionID string `json:"session_id"`
	Format    string `json:"format,omitempty"`
}

type ExportSummaryResponse struct {
	Format  string `json:"format"`
	Content string `json:"content"`
}

func (r *OpenSessionRequest) GetSessionID() string    { return r.SessionID }
func (r *GetSessionRequest) GetSessionID() string     { return r.SessionID }
func (r *DeleteSessionRequest) GetSessionID() string  { return r.SessionID }
func (r *AddPersonRequest) GetSessionID() string      { return r.SessionID }
func (r *RemovePersonRequest) GetSessionID() string   { return r.SessionID }
func (r *SaveBillRequest) GetSessionID() string       { return r.SessionID }
func (r *DeleteBillRequest) GetSessionID() string     { return r.SessionID }
func (r *AssignItemRequest) GetSessionID() string     { return r.SessionID }
func (r *AddPaymentRequest) GetSessionID() string     { return r.SessionID }
func (r *DeletePaymentRequest) GetSessionID() string  { return r.SessionID }
func (r *SetStepRequest) GetSessionID() string        { return r.SessionID }
func (r *ExtractReceiptRequest) GetSessionID() string { return r.SessionID }
func (r *GetSummaryRequest) GetSessionID() string     { return r.SessionID }
func (r *ExportSummaryRequest) GetSessionID() string  { return r.SessionID }
