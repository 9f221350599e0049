// Package sender отправляет письма по событиям из брокера.
package sender

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/minigestor/internal/lib/sl"
	"github.com/magabrotheeeer/minigestor/internal/lib/smtp"
	"github.com/magabrotheeeer/minigestor/internal/models"
)

// ErrNoRecipient у сообщения нет адреса получателя.
var ErrNoRecipient = errors.New("no recipient")

// Service сервис отправки писем.
type Service struct {
	transport    smtp.Dialer
	supportEmail string
	log          *slog.Logger
}

// NewService создает новый экземпляр Service. Оповещения о сверке
// отправляются на supportEmail.
func NewService(transport smtp.Dialer, supportEmail string, log *slog.Logger) *Service {
	return &Service{
		transport:    transport,
		supportEmail: supportEmail,
		log:          log,
	}
}

// SendTrialExpiring отправляет напоминание об окончании пробного периода.
func (s *Service) SendTrialExpiring(body []byte) error {
	const op = "sender.SendTrialExpiring"
	var message models.TrialReminder
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}
	if message.Email == "" {
		return fmt.Errorf("%s: %w", op, ErrNoRecipient)
	}

	name := message.Name
	if name == "" {
		name = message.Email
	}
	days := "dias"
	if message.DaysRemaining == 1 {
		days = "dia"
	}

	subject := "O seu período gratuito do MiniGestor está a terminar"
	bodyText := fmt.Sprintf("Olá, %s!\n\n"+
		"Faltam %d %s para terminar o seu período gratuito (%s).\n"+
		"Ative o Plano Pro para continuar a registar as suas finanças.\n",
		name, message.DaysRemaining, days, message.TrialEnd.Format("02/01/2006"))

	if err := s.sendEmail([]string{message.Email}, subject, bodyText); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SendReconciliationAlert сообщает поддержке о платеже, после которого не
// удалось выдать доступ.
func (s *Service) SendReconciliationAlert(body []byte) error {
	const op = "sender.SendReconciliationAlert"
	var rec models.Reconciliation
	if err := json.Unmarshal(body, &rec); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}
	if s.supportEmail == "" {
		return fmt.Errorf("%s: %w", op, ErrNoRecipient)
	}

	subject := "Reconciliação necessária: " + rec.Reference
	bodyText := fmt.Sprintf("Pagamento recebido sem ativação do plano.\n\n"+
		"Utilizador: %s\n"+
		"Email: %s\n"+
		"Referência: %s\n"+
		"Valor: %s\n"+
		"Método: %s\n"+
		"Plano: %s\n"+
		"Data: %s\n"+
		"Motivo: %s\n",
		rec.UserID, rec.Email, rec.Reference, rec.Amount.StringFixed(2),
		rec.Method, rec.PlanType, rec.CreatedAt.UTC().Format(time.RFC3339), rec.Reason)

	if err := s.sendEmail([]string{s.supportEmail}, subject, bodyText); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.From(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.From()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.From(), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
