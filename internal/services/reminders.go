package services

import (
	"fmt"
	"log"
	"time"

	"transport-ops-backend/internal/models"
)

// BookingDirectory is the booking lookup the reminder job consumes.
type BookingDirectory interface {
	FindRecurringDueWithin(window time.Duration) ([]*models.Booking, error)
}

// SubscriptionDirectory finds users whose subscription is about to lapse.
type SubscriptionDirectory interface {
	FindSubscriptionsExpiringBefore(cutoff time.Time) ([]*models.User, error)
}

// ReminderService carries the two notification jobs that run alongside the
// scan jobs: recurring-booking reminders and subscription-expiry mails.
// Both are plain email fan-outs over collaborator data; failures are logged
// per recipient and never propagate.
type ReminderService struct {
	bookings      BookingDirectory
	subscriptions SubscriptionDirectory
	dispatcher    Dispatcher
}

func NewReminderService(bookings BookingDirectory, subscriptions SubscriptionDirectory, dispatcher Dispatcher) *ReminderService {
	return &ReminderService{
		bookings:      bookings,
		subscriptions: subscriptions,
		dispatcher:    dispatcher,
	}
}

// SendBookingReminders mails customers whose recurring booking picks up
// within the next 24 hours.
func (s *ReminderService) SendBookingReminders() error {
	bookings, err := s.bookings.FindRecurringDueWithin(24 * time.Hour)
	if err != nil {
		return fmt.Errorf("load recurring bookings: %w", err)
	}

	for _, booking := range bookings {
		if booking.CustomerEmail == "" {
			continue
		}
		subject := "Upcoming booking reminder"
		body := fmt.Sprintf("<p>Hi %s,</p><p>Your recurring booking is scheduled for pickup on %s.</p>",
			booking.CustomerName, booking.PickupAt.Format("Mon, 2 Jan 2006 15:04"))
		if err := s.dispatcher.SendEmail(booking.CustomerEmail, subject, body); err != nil {
			log.Printf("reminders: booking reminder to %s failed: %v", booking.CustomerEmail, err)
		}
	}

	return nil
}

// SendSubscriptionNotices mails users whose subscription lapses within the
// next 7 days.
func (s *ReminderService) SendSubscriptionNotices() error {
	users, err := s.subscriptions.FindSubscriptionsExpiringBefore(time.Now().Add(7 * 24 * time.Hour))
	if err != nil {
		return fmt.Errorf("load expiring subscriptions: %w", err)
	}

	for _, user := range users {
		if user.Email == "" || user.SubscriptionExpiresAt == nil {
			continue
		}
		subject := "Your subscription is expiring soon"
		body := fmt.Sprintf("<p>Hi %s,</p><p>Your subscription expires on %s. Renew to keep your fleet monitored.</p>",
			user.Name, user.SubscriptionExpiresAt.Format("2006-01-02"))
		if err := s.dispatcher.SendEmail(user.Email, subject, body); err != nil {
			log.Printf("reminders: subscription notice to %s failed: %v", user.Email, err)
		}
	}

	return nil
}
