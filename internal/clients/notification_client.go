package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/requestctx"
)

const (
	NotificationOrderPlaced   = "order_placed"
	NotificationAccountClosed = "account_closed"
)

// Notification is the payload accepted by the notification service.
type Notification struct {
	UserID  int64                  `json:"user_id"`
	Type    string                 `json:"type"`
	Channel string                 `json:"channel"`
	Data    map[string]interface{} `json:"data"`
	SentAt  time.Time              `json:"sent_at"`
}

// Notifier sends customer-facing notifications.
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, order *models.Order) error
	NotifyAccountClosed(ctx context.Context, userID int64, result models.CascadeResult) error
}

// HTTPNotificationClient implements Notifier using HTTP.
type HTTPNotificationClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	logger     *logging.Logger
}

// NewHTTPNotificationClient creates a new HTTP-based notification client.
func NewHTTPNotificationClient(cfg config.ServiceConfig) *HTTPNotificationClient {
	return &HTTPNotificationClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
		logger: logging.New("notification-client"),
	}
}

func (c *HTTPNotificationClient) NotifyOrderPlaced(ctx context.Context, order *models.Order) error {
	return c.send(ctx, &Notification{
		UserID:  order.CustomerID,
		Type:    NotificationOrderPlaced,
		Channel: "email",
		Data: map[string]interface{}{
			"order_id":     order.ID,
			"order_status": order.Status,
			"total_amount": order.TotalAmount.String(),
		},
		SentAt: time.Now().UTC(),
	})
}

func (c *HTTPNotificationClient) NotifyAccountClosed(ctx context.Context, userID int64, result models.CascadeResult) error {
	return c.send(ctx, &Notification{
		UserID:  userID,
		Type:    NotificationAccountClosed,
		Channel: "email",
		Data: map[string]interface{}{
			"orders_deleted": result.OrdersDeleted,
			"lines_deleted":  result.LinesDeleted,
		},
		SentAt: time.Now().UTC(),
	})
}

// send posts a notification to the service.
func (c *HTTPNotificationClient) send(ctx context.Context, notification *Notification) error {
	c.logger.Debug("Sending notification", logging.Fields{
		"user_id": notification.UserID,
		"type":    notification.Type,
		"channel": notification.Channel,
	})

	body, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v2/notifications", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	c.setHeaders(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to send notification", logging.Fields{
			"user_id": notification.UserID,
			"error":   err.Error(),
		})
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}

	c.logger.Info("Notification sent", logging.Fields{
		"user_id": notification.UserID,
		"type":    notification.Type,
	})
	return nil
}

func (c *HTTPNotificationClient) setHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	if requestID := requestctx.RequestID(ctx); requestID != "" {
		req.Header.Set(requestctx.HeaderRequestID, requestID)
	}
}

// NopNotifier is used when notifications are disabled.
type NopNotifier struct{}

func (NopNotifier) NotifyOrderPlaced(context.Context, *models.Order) error { return nil }

func (NopNotifier) NotifyAccountClosed(context.Context, int64, models.CascadeResult) error {
	return nil
}
