package services

import (
	"fmt"
	"html/template"
	"log"
	"strings"

	"transport-ops-backend/internal/models"
)

// notifyPolicy decides channels and recipient roles for one severity tier.
type notifyPolicy struct {
	Email bool
	SMS   bool
	Push  bool
	Roles []string
}

// severityPolicies is the immutable severity -> policy table. Low-severity
// alerts are persisted but notify nobody.
var severityPolicies = map[string]notifyPolicy{
	models.SeverityCritical: {
		Email: true, SMS: true, Push: true,
		Roles: []string{models.RoleAdmin, models.RoleFleetManager, models.RoleDispatcher},
	},
	models.SeverityHigh: {
		Email: true, SMS: false, Push: true,
		Roles: []string{models.RoleFleetManager, models.RoleDispatcher},
	},
	models.SeverityMedium: {
		Email: true, SMS: false, Push: false,
		Roles: []string{models.RoleDispatcher},
	},
	models.SeverityLow: {},
}

// NotificationRouter resolves recipients for an alert's severity and pushes
// a rendered message through each enabled channel. Delivery is best-effort
// per recipient; failures are logged and swallowed.
type NotificationRouter struct {
	users      UserDirectory
	dispatcher Dispatcher
}

func NewNotificationRouter(users UserDirectory, dispatcher Dispatcher) *NotificationRouter {
	return &NotificationRouter{
		users:      users,
		dispatcher: dispatcher,
	}
}

func (n *NotificationRouter) Route(alert *models.Alert) {
	policy, ok := severityPolicies[alert.Severity]
	if !ok || len(policy.Roles) == 0 {
		return
	}

	recipients, err := n.users.FindByRoles(policy.Roles)
	if err != nil {
		log.Printf("notify: failed to resolve recipients for alert %s: %v", alert.ID.Hex(), err)
		return
	}

	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(alert.Severity), alert.Title)
	body := renderAlertText(alert)

	for _, user := range recipients {
		if policy.Email && user.Email != "" {
			if err := n.dispatcher.SendEmail(user.Email, subject, renderAlertHTML(alert)); err != nil {
				log.Printf("notify: email to %s for alert %s failed: %v", user.Email, alert.ID.Hex(), err)
			}
		}
		if policy.SMS && user.Phone != "" {
			if err := n.dispatcher.SendSMS(user.Phone, subject+" — "+body); err != nil {
				log.Printf("notify: sms to %s for alert %s failed: %v", user.Phone, alert.ID.Hex(), err)
			}
		}
		if policy.Push && user.PushToken != "" {
			if err := n.dispatcher.SendPush(user.PushToken, subject, body); err != nil {
				log.Printf("notify: push to user %s for alert %s failed: %v", user.ID.Hex(), alert.ID.Hex(), err)
			}
		}
	}
}

func renderAlertText(alert *models.Alert) string {
	var b strings.Builder
	b.WriteString(alert.Description)
	if alert.EntityType != "" && alert.EntityID != "" {
		fmt.Fprintf(&b, " (%s %s)", alert.EntityType, alert.EntityID)
	}
	return b.String()
}

// renderAlertHTML produces the email body. Alert text can come from API
// callers, so every field is escaped before it lands in markup. Metadata is
// rendered as context rows; nothing here feeds back into engine control flow.
func renderAlertHTML(alert *models.Alert) string {
	esc := template.HTMLEscapeString

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>", esc(alert.Title))
	fmt.Fprintf(&b, "<p>%s</p>", esc(alert.Description))
	fmt.Fprintf(&b, "<p><strong>Severity:</strong> %s<br><strong>Type:</strong> %s</p>", esc(alert.Severity), esc(alert.Type))
	if alert.EntityType != "" {
		fmt.Fprintf(&b, "<p><strong>Subject:</strong> %s %s</p>", esc(alert.EntityType), esc(alert.EntityID))
	}
	if len(alert.Metadata) > 0 {
		b.WriteString("<ul>")
		for key, value := range alert.Metadata {
			fmt.Fprintf(&b, "<li>%s: %s</li>", esc(key), esc(fmt.Sprintf("%v", value)))
		}
		b.WriteString("</ul>")
	}
	return b.String()
}
