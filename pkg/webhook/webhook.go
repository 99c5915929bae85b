// Package webhook forwards completed schedules to a configured
// endpoint. Deduplication of deliveries is tracked in an explicitly
// passed, lifecycle-scoped set rather than process-wide state, so two
// servers (or two test runs) never share it by accident.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/arnavshah/staff-scheduler-go/pkg/models"
)

// Payload is the schedule forward body.
type Payload struct {
	WeekID           string                  `json:"weekId"`
	StartDate        string                  `json:"startDate"`
	EndDate          string                  `json:"endDate"`
	Assignments      []models.Assignment     `json:"assignments"`
	TotalsByEmployee []models.EmployeeTotals `json:"totalsByEmployee"`
	Issues           []models.Issue          `json:"issues"`
}

// DeliverySet tracks which week ids have already been posted within
// one server lifecycle.
type DeliverySet struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewDeliverySet returns an empty delivery set.
func NewDeliverySet() *DeliverySet {
	return &DeliverySet{seen: make(map[string]bool)}
}

// MarkIfNew marks the id and reports whether it was new.
func (d *DeliverySet) MarkIfNew(id string) bool {
	if id == "" {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[id] {
		return false
	}
	d.seen[id] = true
	return true
}

// Sender posts schedule payloads with retries.
type Sender struct {
	URL         string
	Secret      string
	MaxAttempts int
	Backoff     time.Duration
	client      *http.Client
	log         *logrus.Logger
}

// NewSender builds a sender for the given endpoint.
func NewSender(url, secret string, log *logrus.Logger) *Sender {
	if log == nil {
		log = logrus.New()
	}
	return &Sender{
		URL:         url,
		Secret:      secret,
		MaxAttempts: 3,
		Backoff:     time.Second,
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log,
	}
}

// Deliver posts the payload, retrying on transport errors and 5xx
// responses with exponential backoff. A week id already present in the
// delivery set is skipped. Returns the delivery id, the attempt count,
// and the final error if every attempt failed.
func (s *Sender) Deliver(ctx context.Context, payload Payload, delivered *DeliverySet) (string, int, error) {
	if delivered != nil && !delivered.MarkIfNew(payload.WeekID) {
		s.log.WithField("week_id", payload.WeekID).Info("webhook delivery skipped, already posted")
		return "", 0, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", 0, fmt.Errorf("marshal webhook payload: %w", err)
	}

	deliveryID := uuid.NewString()
	var lastErr error
	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		lastErr = s.post(ctx, deliveryID, body)
		if lastErr == nil {
			s.log.WithFields(logrus.Fields{
				"week_id":     payload.WeekID,
				"delivery_id": deliveryID,
				"attempt":     attempt,
			}).Info("webhook delivered")
			return deliveryID, attempt, nil
		}

		s.log.WithFields(logrus.Fields{
			"week_id": payload.WeekID,
			"attempt": attempt,
		}).WithError(lastErr).Warn("webhook delivery failed")

		if attempt < s.MaxAttempts {
			select {
			case <-time.After(s.Backoff << (attempt - 1)):
			case <-ctx.Done():
				return deliveryID, attempt, ctx.Err()
			}
		}
	}
	return deliveryID, s.MaxAttempts, lastErr
}

func (s *Sender) post(ctx context.Context, deliveryID string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-ID", deliveryID)
	if s.Secret != "" {
		req.Header.Set("X-Webhook-Secret", s.Secret)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
