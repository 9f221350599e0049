package sender

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/minigestor/internal/lib/smtp"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) From() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type recordingWriter struct {
	strings.Builder
	closeErr error
}

func (w *recordingWriter) Close() error { return w.closeErr }

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

// expectDelivery настраивает успешную SMTP-сессию до адреса rcpt.
func expectDelivery(tr *MockTransport, rcpt string) *recordingWriter {
	client := new(MockSMTPClient)
	writer := &recordingWriter{}

	tr.On("From").Return("noreply@minigestor.co.mz")
	tr.On("Connect").Return(client, nil).Once()
	client.On("Mail", "noreply@minigestor.co.mz").Return(nil).Once()
	client.On("Rcpt", rcpt).Return(nil).Once()
	client.On("Data").Return(writer, nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()
	return writer
}

const trialBody = `{"user_uid":"u-1","email":"ana@example.com","name":"Ana","trial_end":"2025-03-13T08:00:00Z","days_remaining":3}`

func TestService_SendTrialExpiring(t *testing.T) {
	tests := []struct {
		name          string
		body          []byte
		setupMocks    func(*MockTransport) *recordingWriter
		expectedError bool
		errorMessage  string
		wantContains  []string
	}{
		{
			name: "success",
			body: []byte(trialBody),
			setupMocks: func(tr *MockTransport) *recordingWriter {
				return expectDelivery(tr, "ana@example.com")
			},
			wantContains: []string{"To: ana@example.com", "Olá, Ana!", "Faltam 3 dias", "13/03/2025"},
		},
		{
			name: "singular day",
			body: []byte(`{"email":"ana@example.com","name":"Ana","trial_end":"2025-03-11T08:00:00Z","days_remaining":1}`),
			setupMocks: func(tr *MockTransport) *recordingWriter {
				return expectDelivery(tr, "ana@example.com")
			},
			wantContains: []string{"Faltam 1 dia para"},
		},
		{
			name:          "invalid JSON",
			body:          []byte(`invalid json`),
			setupMocks:    func(*MockTransport) *recordingWriter { return nil },
			expectedError: true,
			errorMessage:  "error unmarshalling message",
		},
		{
			name:          "missing email",
			body:          []byte(`{"user_uid":"u-1","days_remaining":3}`),
			setupMocks:    func(*MockTransport) *recordingWriter { return nil },
			expectedError: true,
			errorMessage:  ErrNoRecipient.Error(),
		},
		{
			name: "SMTP connection error",
			body: []byte(trialBody),
			setupMocks: func(tr *MockTransport) *recordingWriter {
				tr.On("From").Return("noreply@minigestor.co.mz")
				tr.On("Connect").Return(nil, errors.New("connection error")).Once()
				return nil
			},
			expectedError: true,
			errorMessage:  "connection error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			service := NewService(transport, "suporte@minigestor.co.mz", newNoopLogger())
			writer := tt.setupMocks(transport)

			err := service.SendTrialExpiring(tt.body)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				assert.NoError(t, err)
				for _, want := range tt.wantContains {
					assert.Contains(t, writer.String(), want)
				}
			}
			transport.AssertExpectations(t)
		})
	}
}

func TestService_SendReconciliationAlert(t *testing.T) {
	body := []byte(`{"user_id":"u-1","email":"ana@example.com","reference":"mg-u1-abc123","amount":"299",` +
		`"method":"mpesa","plan_type":"lifetime","reason":"db down","created_at":"2025-03-10T12:00:00Z"}`)

	t.Run("goes to support with payment details", func(t *testing.T) {
		transport := new(MockTransport)
		writer := expectDelivery(transport, "suporte@minigestor.co.mz")
		service := NewService(transport, "suporte@minigestor.co.mz", newNoopLogger())

		err := service.SendReconciliationAlert(body)

		assert.NoError(t, err)
		msg := writer.String()
		for _, want := range []string{
			"Subject: Reconciliação necessária: mg-u1-abc123",
			"Utilizador: u-1",
			"Valor: 299.00",
			"Método: mpesa",
			"Plano: lifetime",
			"Data: 2025-03-10T12:00:00Z",
		} {
			assert.Contains(t, msg, want)
		}
		transport.AssertExpectations(t)
	})

	t.Run("no support address", func(t *testing.T) {
		transport := new(MockTransport)
		service := NewService(transport, "", newNoopLogger())

		err := service.SendReconciliationAlert(body)

		assert.ErrorIs(t, err, ErrNoRecipient)
		transport.AssertExpectations(t)
	})

	t.Run("rcpt rejected", func(t *testing.T) {
		transport := new(MockTransport)
		client := new(MockSMTPClient)
		transport.On("From").Return("noreply@minigestor.co.mz")
		transport.On("Connect").Return(client, nil).Once()
		client.On("Mail", "noreply@minigestor.co.mz").Return(nil).Once()
		client.On("Rcpt", "suporte@minigestor.co.mz").Return(errors.New("550 mailbox unavailable")).Once()
		client.On("Close").Return(nil).Once()
		service := NewService(transport, "suporte@minigestor.co.mz", newNoopLogger())

		err := service.SendReconciliationAlert(body)

		assert.ErrorContains(t, err, "550 mailbox unavailable")
		client.AssertExpectations(t)
	})
}
