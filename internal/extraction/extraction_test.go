package extraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceipt_ToBill(t *testing.T) {
	r := &Receipt{
		Items: []ReceiptItem{
			{Name: "Nasi Goreng", Price: 45000, Quantity: 2},
			{Name: "Es Teh", Price: 8000},
		},
		Tax:           5300,
		ServiceCharge: 2650,
		Total:         1, // ignored
	}

	bill := r.ToBill()

	assert.NotEmpty(t, bill.ID)
	assert.Equal(t, "Receipt", bill.Name)
	require.Len(t, bill.Items, 2)
	assert.Equal(t, 2, bill.Items[0].Quantity)
	assert.Equal(t, 1, bill.Items[1].Quantity)
	assert.NotEqual(t, bill.Items[0].ID, bill.Items[1].ID)
	assert.True(t, bill.Items[0].Unassigned())
	assert.InDelta(t, 53000, bill.Subtotal, 1e-9)
	assert.InDelta(t, 53000+5300+2650, bill.Total, 1e-9)
}

func TestReceipt_ToBillKeepsStoredSubtotal(t *testing.T) {
	r := &Receipt{Name: "Warung", Subtotal: 100, Items: []ReceiptItem{{Name: "A", Price: 60}}}
	bill := r.ToBill()
	assert.Equal(t, "Warung", bill.Name)
	assert.InDelta(t, 100, bill.Subtotal, 1e-9)
}

func TestHTTPExtractor_Extract(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff, 0xe0, 'J', 'F', 'I', 'F'}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req extractRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		decoded, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		require.NoError(t, err)
		assert.Equal(t, image, decoded)
		assert.Equal(t, "image/jpeg", req.MimeType)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Receipt{
			Name:     "Cafe",
			Items:    []ReceiptItem{{Name: "Latte", Price: 4.5, Quantity: 1}},
			Subtotal: 4.5,
			Tax:      0.45,
		})
	}))
	defer server.Close()

	extractor := NewHTTPExtractor(server.URL, "secret", 5*time.Second)
	receipt, err := extractor.Extract(context.Background(), image, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "Cafe", receipt.Name)
	require.Len(t, receipt.Items, 1)
	assert.InDelta(t, 0.45, receipt.Tax, 1e-9)
}

func TestHTTPExtractor_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	extractor := NewHTTPExtractor(server.URL, "", time.Second)

	_, err := extractor.Extract(context.Background(), nil, "")
	assert.True(t, errors.Is(err, ErrEmptyImage))

	_, err = extractor.Extract(context.Background(), []byte("png?"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Extract(context.Background(), []byte("x"), "image/png")
	assert.True(t, errors.Is(err, ErrNotConfigured))
}
