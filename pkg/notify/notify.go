package notify

import "fmt"

// Service is the notification dispatcher: one rendered message, one
// channel, one recipient per call. Channels fail independently.
type Service struct {
	email   *EmailSender
	gateway *GatewaySender
}

func NewService(email *EmailSender, gateway *GatewaySender) *Service {
	return &Service{
		email:   email,
		gateway: gateway,
	}
}

func (s *Service) SendEmail(to, subject, html string) error {
	if s.email == nil {
		return fmt.Errorf("email sender not configured")
	}
	return s.email.Send(to, subject, html)
}

func (s *Service) SendSMS(to, message string) error {
	if s.gateway == nil {
		return fmt.Errorf("sms gateway not configured")
	}
	return s.gateway.SendSMS(to, message)
}

func (s *Service) SendPush(token, title, body string) error {
	if s.gateway == nil {
		return fmt.Errorf("push gateway not configured")
	}
	return s.gateway.SendPush(token, title, body)
}
