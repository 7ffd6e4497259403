// Package notify sends courtesy emails for workflow milestones. Delivery is
// fire-and-forget: business logic enqueues and moves on, a background worker
// drains the queue, and a full queue or SMTP outage drops mail rather than
// slowing a request.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	accmodels "sgea/internal/account/models"
	id "sgea/pkg/domain"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// AccountStore resolves recipient addresses.
type AccountStore interface {
	FindByID(ctx context.Context, accountID id.AccountID) (*accmodels.Account, error)
}

// Service composes workflow emails and hands them to the worker queue.
type Service struct {
	accounts AccountStore
	outbox   chan<- Message
	logger   *slog.Logger
}

func NewService(accounts AccountStore, outbox chan<- Message, logger *slog.Logger) *Service {
	return &Service{accounts: accounts, outbox: outbox, logger: logger}
}

// RegistrationConfirmed mails the participant their registration receipt.
func (s *Service) RegistrationConfirmed(ctx context.Context, accountID id.AccountID, eventName string) {
	s.enqueue(ctx, accountID,
		fmt.Sprintf("Registration confirmed: %s", eventName),
		fmt.Sprintf("Your registration for %q is confirmed. You can cancel it from your dashboard at any time before the event ends.", eventName),
	)
}

// RegistrationCancelled confirms a cancellation.
func (s *Service) RegistrationCancelled(ctx context.Context, accountID id.AccountID, eventName string) {
	subject := "Registration cancelled"
	body := "Your registration has been cancelled."
	if eventName != "" {
		subject = fmt.Sprintf("Registration cancelled: %s", eventName)
		body = fmt.Sprintf("Your registration for %q has been cancelled.", eventName)
	}
	s.enqueue(ctx, accountID, subject, body)
}

// CertificateIssued tells the participant their certificate is ready.
func (s *Service) CertificateIssued(ctx context.Context, accountID id.AccountID, eventName, validationCode string) {
	s.enqueue(ctx, accountID,
		fmt.Sprintf("Certificate issued: %s", eventName),
		fmt.Sprintf("Your participation certificate for %q is ready. Validation code: %s", eventName, validationCode),
	)
}

func (s *Service) enqueue(ctx context.Context, accountID id.AccountID, subject, body string) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		s.logger.WarnContext(ctx, "notify: recipient lookup failed",
			"account_id", accountID.String(),
			"error", err.Error(),
		)
		return
	}

	msg := Message{To: account.Email, Subject: subject, Body: body}
	select {
	case s.outbox <- msg:
	default:
		s.logger.WarnContext(ctx, "notify: outbox full, dropping message",
			"to", account.Email,
			"subject", subject,
		)
	}
}
