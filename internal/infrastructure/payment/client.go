package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client talks to the real FastPay REST API. It is constructed once at
// boot and shared for the process lifetime.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type createSessionRequest struct {
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	SuccessURL  string            `json:"success_url"`
	CancelURL   string            `json:"cancel_url"`
	Metadata    map[string]string `json:"metadata"`
}

type sessionResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	payload := createSessionRequest{
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Description: req.CourseTitle,
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
		Metadata: map[string]string{
			"purchaseId": req.PurchaseID.String(),
			"userId":     req.UserID,
			"courseId":   req.CourseID.String(),
		},
	}

	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", payload, &resp); err != nil {
		return nil, err
	}
	return &Session{ID: resp.ID, URL: resp.URL}, nil
}

func (c *Client) SessionStatus(ctx context.Context, purchaseID uuid.UUID) (SessionStatus, error) {
	var resp sessionResponse
	path := fmt.Sprintf("/v1/checkout/sessions/by-purchase/%s", purchaseID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return SessionUnknown, err
	}

	switch resp.Status {
	case "paid":
		return SessionPaid, nil
	case "expired":
		return SessionExpired, nil
	case "pending":
		return SessionPending, nil
	default:
		return SessionUnknown, nil
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fastpay request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fastpay %s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("fastpay response: %w", err)
		}
	}
	return nil
}
