package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"hostel-ops-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionStore is the part of the store the workers need.
type SubscriptionStore interface {
	ListPushSubscriptions(ctx context.Context, userID string) ([]model.PushSubscription, error)
	DeletePushSubscription(ctx context.Context, userID, endpoint string) error
}

// Job describes a reviewed meal-off request whose owner should be told.
type Job struct {
	RequestID string
	UserID    string
	Date      model.Day
	Status    model.RequestStatus
}

// Message is the JSON payload delivered to the browser.
type Message struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Job
	subs    SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool with a queue of queueSize jobs.
func NewWorkerPool(size, queueSize int, subs SubscriptionStore, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, queueSize),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	slog.Debug("Notification worker started", "worker", id)
	for {
		select {
		case job := <-wp.jobs:
			wp.sendNotificationsForJob(ctx, job)
		case <-ctx.Done():
			slog.Debug("Notification worker shutting down", "worker", id)
			return
		}
	}
}

// Dispatch queues a job without blocking. It reports false when the queue is
// full and the job was dropped.
func (wp *WorkerPool) Dispatch(job Job) bool {
	select {
	case wp.jobs <- job:
		return true
	default:
		slog.Warn("Notification queue full, dropping job", "request_id", job.RequestID, "user_id", job.UserID)
		return false
	}
}

// MealOffReviewed queues a notification for the owner of a reviewed request.
func (wp *WorkerPool) MealOffReviewed(req model.MealOffRequest) {
	wp.Dispatch(Job{RequestID: req.ID, UserID: req.UserID, Date: req.Date, Status: req.Status})
}

// MessageFor renders the notification text of job.
func MessageFor(job Job) Message {
	return Message{
		Title:     fmt.Sprintf("Meal-off request %s", job.Status),
		Body:      fmt.Sprintf("Your meal-off request for %s was %s.", job.Date, job.Status),
		RequestID: job.RequestID,
		Status:    string(job.Status),
	}
}

func (wp *WorkerPool) sendNotificationsForJob(ctx context.Context, job Job) {
	subscriptions, err := wp.subs.ListPushSubscriptions(ctx, job.UserID)
	if err != nil {
		slog.Error("Fetching subscriptions failed", "user_id", job.UserID, "error", err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(MessageFor(job))
	if err != nil {
		slog.Error("Encoding notification failed", "request_id", job.RequestID, "error", err)
		return
	}

	slog.Info("Sending notifications", "count", len(subscriptions), "user_id", job.UserID, "request_id", job.RequestID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		slog.Warn("Sending notification failed", "endpoint", sub.Endpoint, "error", err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		slog.Info("Subscription expired, deleting", "endpoint", sub.Endpoint)
		if err := wp.subs.DeletePushSubscription(ctx, sub.UserID, sub.Endpoint); err != nil {
			slog.Error("Deleting expired subscription failed", "endpoint", sub.Endpoint, "error", err)
		}
	}
}
