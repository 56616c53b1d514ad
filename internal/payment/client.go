// Package payment talks to the hosted payment gateway. Only the gateway's
// server-to-server answers are trusted; nothing here reads client-supplied
// status values.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrGateway covers transport failures and non-success envelopes from the
	// gateway. Callers never retry; the user re-attempts manually.
	ErrGateway = errors.New("payment gateway error")
)

// StatusSuccessful is the only transaction status that confirms money moved.
const StatusSuccessful = "successful"

type Customer struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phonenumber"`
	Name        string `json:"name"`
}

type Meta struct {
	OrderID string `json:"order_id"`
}

type Customizations struct {
	Title string `json:"title,omitempty"`
	Logo  string `json:"logo,omitempty"`
}

// CheckoutRequest is the hosted-checkout payload. Meta carries the order id so
// the verify step can map the callback back without a lookup table.
type CheckoutRequest struct {
	TxRef          string          `json:"tx_ref"`
	Amount         string          `json:"amount"`
	Currency       string          `json:"currency"`
	RedirectURL    string          `json:"redirect_url"`
	Customer       Customer        `json:"customer"`
	Meta           Meta            `json:"meta"`
	Customizations *Customizations `json:"customizations,omitempty"`
}

// Verification is the gateway's authoritative view of one transaction.
type Verification struct {
	TransactionID string
	TxRef         string
	Status        string
	Amount        json.Number
	Currency      string
	Meta          Meta
}

type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
	VerifyByID(ctx context.Context, transactionID string) (*Verification, error)
	VerifyByReference(ctx context.Context, txRef string) (*Verification, error)
}

type Client struct {
	HTTP      *http.Client
	BaseURL   string
	SecretKey string
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: 10 * time.Second},
		BaseURL:   strings.TrimRight(baseURL, "/"),
		SecretKey: secretKey,
	}
}

// envelope is the gateway's standard {status, message, data} wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var rdr *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrGateway, err)
	}
	if res.StatusCode != http.StatusOK || env.Status != "success" {
		msg := env.Message
		if msg == "" {
			msg = res.Status
		}
		return nil, fmt.Errorf("%w: %s", ErrGateway, msg)
	}
	return env.Data, nil
}

// CreateCheckout registers the payment and returns the hosted checkout link
// the browser is redirected to.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	data, err := c.do(ctx, http.MethodPost, "/payments", req)
	if err != nil {
		return "", err
	}
	var out struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("%w: decode link: %v", ErrGateway, err)
	}
	if out.Link == "" {
		return "", fmt.Errorf("%w: no checkout link in response", ErrGateway)
	}
	return out.Link, nil
}

type verificationData struct {
	ID       json.Number `json:"id"`
	TxRef    string      `json:"tx_ref"`
	Status   string      `json:"status"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
	Meta     Meta        `json:"meta"`
}

func parseVerification(data json.RawMessage) (*Verification, error) {
	var d verificationData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: decode verification: %v", ErrGateway, err)
	}
	if d.Status == "" || d.TxRef == "" {
		// unknown/missing fields are errors at this boundary, never a silent pass
		return nil, fmt.Errorf("%w: verification missing status or tx_ref", ErrGateway)
	}
	return &Verification{
		TransactionID: d.ID.String(),
		TxRef:         d.TxRef,
		Status:        d.Status,
		Amount:        d.Amount,
		Currency:      d.Currency,
		Meta:          d.Meta,
	}, nil
}

func (c *Client) VerifyByID(ctx context.Context, transactionID string) (*Verification, error) {
	data, err := c.do(ctx, http.MethodGet, "/transactions/"+url.PathEscape(transactionID)+"/verify", nil)
	if err != nil {
		return nil, err
	}
	return parseVerification(data)
}

func (c *Client) VerifyByReference(ctx context.Context, txRef string) (*Verification, error) {
	data, err := c.do(ctx, http.MethodGet, "/transactions/verify_by_reference?tx_ref="+url.QueryEscape(txRef), nil)
	if err != nil {
		return nil, err
	}
	return parseVerification(data)
}
