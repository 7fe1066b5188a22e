package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/asante-farms/chickorder-api/config"
	"github.com/asante-farms/chickorder-api/models"
	"gorm.io/gorm"
)

// MessageSender delivers one customer message over an outbound channel.
type MessageSender interface {
	Send(phone, message string) error
	Channel() string // notification_type recorded on the row: sms, whatsapp
}

// TwilioSender sends SMS through the Twilio REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
}

// NewTwilioSender creates a Twilio-backed SMS sender
func NewTwilioSender(cfg *config.Config) *TwilioSender {
	return &TwilioSender{
		accountSID: cfg.TwilioAccountSID,
		authToken:  cfg.TwilioAuthToken,
		fromNumber: cfg.TwilioPhoneNumber,
		baseURL:    cfg.TwilioBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send posts the message to Twilio's Messages endpoint
func (s *TwilioSender) Send(phone, message string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)

	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", s.fromNumber)
	form.Set("Body", message)

	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("SMS endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Channel reports the delivery channel tag
func (s *TwilioSender) Channel() string { return "sms" }

// WhatsAppSender sends messages through the WhatsApp Cloud API.
type WhatsAppSender struct {
	businessID  string
	accessToken string
	httpClient  *http.Client
}

// NewWhatsAppSender creates a WhatsApp Cloud API sender
func NewWhatsAppSender(businessID, accessToken string) *WhatsAppSender {
	return &WhatsAppSender{
		businessID:  businessID,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send posts the message to the WhatsApp Cloud API
func (s *WhatsAppSender) Send(phone, message string) error {
	endpoint := fmt.Sprintf("https://graph.facebook.com/v18.0/%s/messages", s.businessID)

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                phone,
		"type":              "text",
		"text":              map[string]string{"body": message},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode WhatsApp message: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create WhatsApp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send WhatsApp message: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("WhatsApp endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Channel reports the delivery channel tag
func (s *WhatsAppSender) Channel() string { return "whatsapp" }

// LogSender writes messages to the log instead of a gateway. Used in
// development when no messaging credentials are configured.
type LogSender struct{}

// Send logs the message that would have been delivered
func (LogSender) Send(phone, message string) error {
	log.Printf("[SMS] Would send to %s: %s", phone, message)
	return nil
}

// Channel reports the delivery channel tag
func (LogSender) Channel() string { return "sms" }

// NewSenderFromConfig picks the delivery channel for the configured
// credentials, preferring SMS, then WhatsApp, then the development logger.
func NewSenderFromConfig(cfg *config.Config) MessageSender {
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		return NewTwilioSender(cfg)
	}
	if cfg.WhatsAppBusinessID != "" && cfg.WhatsAppAccessToken != "" {
		return NewWhatsAppSender(cfg.WhatsAppBusinessID, cfg.WhatsAppAccessToken)
	}
	return LogSender{}
}

// notificationJob is one queued delivery attempt.
type notificationJob struct {
	notificationID uint
	phone          string
	message        string
}

// NotificationService records outbound customer messages and delivers
// them from a background worker, so a slow or failing gateway never
// extends the latency of the order operation that triggered the message.
type NotificationService struct {
	db     *gorm.DB
	sender MessageSender
	queue  chan notificationJob
	wg     sync.WaitGroup
}

var notificationServiceInstance *NotificationService

// InitNotificationService initializes the global dispatcher instance
func InitNotificationService(db *gorm.DB, sender MessageSender) *NotificationService {
	notificationServiceInstance = NewNotificationService(db, sender)
	return notificationServiceInstance
}

// GetNotificationService returns the initialized dispatcher instance
func GetNotificationService() *NotificationService {
	return notificationServiceInstance
}

// SetNotificationService sets the dispatcher instance (primarily for testing)
func SetNotificationService(n *NotificationService) {
	notificationServiceInstance = n
}

// NewNotificationService creates the dispatcher and starts its worker
func NewNotificationService(db *gorm.DB, sender MessageSender) *NotificationService {
	n := &NotificationService{
		db:     db,
		sender: sender,
		queue:  make(chan notificationJob, 64),
	}
	n.wg.Add(1)
	go n.worker()
	return n
}

// Close stops accepting new notifications and waits for queued
// deliveries to finish.
func (n *NotificationService) Close() {
	close(n.queue)
	n.wg.Wait()
}

// NotifyOrderCreated enqueues the order confirmation message. Failures
// are logged and never surface to the order-creation request.
func (n *NotificationService) NotifyOrderCreated(order *models.Order) {
	message := fmt.Sprintf(
		"Order Confirmed! 🐔\n\n"+
			"Order #: %s\n"+
			"Total: GHS %.2f\n"+
			"We are preparing your live chickens. We'll notify you when they are killed, dressed, and ready for pickup.\n\n"+
			"Thank you for your order!",
		order.OrderNumber, order.TotalAmount)
	n.enqueue(order, message)
}

// statusUpdateText maps each reachable fulfillment status to its
// customer-facing message. Pending is never a transition target.
func statusUpdateText(order *models.Order) string {
	switch order.Status {
	case models.OrderStatusConfirmed:
		return "Your order has been confirmed. We're preparing to kill and dress your chickens."
	case models.OrderStatusPreparing:
		return "Your chickens are being killed and dressed. Almost ready!"
	case models.OrderStatusReady:
		return fmt.Sprintf("🎉 Your chickens are ready! Order #%s has been killed, dressed, and is ready for pickup!", order.OrderNumber)
	case models.OrderStatusCompleted:
		return "Thank you! Your order has been completed."
	case models.OrderStatusCancelled:
		return fmt.Sprintf("Your order #%s has been cancelled.", order.OrderNumber)
	}
	return "Your order status has been updated."
}

// NotifyStatusUpdate enqueues the status-change message for the order's
// current fulfillment status.
func (n *NotificationService) NotifyStatusUpdate(order *models.Order) {
	message := fmt.Sprintf(
		"Order Update 🐔\n\n"+
			"Order #: %s\n"+
			"%s\n",
		order.OrderNumber, statusUpdateText(order))
	n.enqueue(order, message)
}

// enqueue persists the notification record and hands delivery to the
// worker. The caller is never blocked: a full queue marks the row failed
// instead of waiting.
func (n *NotificationService) enqueue(order *models.Order, message string) {
	notification := models.Notification{
		OrderID:          order.ID,
		RecipientPhone:   order.CustomerPhone,
		Message:          message,
		NotificationType: n.sender.Channel(),
		Status:           models.NotificationStatusPending,
	}
	if err := n.db.Create(&notification).Error; err != nil {
		log.Printf("Failed to record notification for order %s: %v", order.OrderNumber, err)
		return
	}

	job := notificationJob{
		notificationID: notification.ID,
		phone:          notification.RecipientPhone,
		message:        notification.Message,
	}
	select {
	case n.queue <- job:
	default:
		log.Printf("Notification queue full, dropping delivery for order %s", order.OrderNumber)
		n.markResult(notification.ID, models.NotificationStatusFailed)
	}
}

// worker drains the queue, attempting delivery and recording the outcome.
func (n *NotificationService) worker() {
	defer n.wg.Done()
	for job := range n.queue {
		status := models.NotificationStatusSent
		if err := n.sender.Send(job.phone, job.message); err != nil {
			log.Printf("Failed to send notification %d: %v", job.notificationID, err)
			status = models.NotificationStatusFailed
		}
		n.markResult(job.notificationID, status)
	}
}

// markResult updates the row after the dispatch attempt.
func (n *NotificationService) markResult(notificationID uint, status models.NotificationStatus) {
	now := time.Now()
	updates := map[string]interface{}{"status": status}
	if status == models.NotificationStatusSent {
		updates["sent_at"] = now
	}
	if err := n.db.Model(&models.Notification{}).Where("id = ?", notificationID).Updates(updates).Error; err != nil {
		log.Printf("Failed to update notification %d: %v", notificationID, err)
	}
}
