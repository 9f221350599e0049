// Package checkout проводит одну попытку оплаты тарифа: проверку намерения,
// списание через шлюз и выдачу доступа.
//
// Списание и изменение профиля не атомарны. Если деньги списаны, а профиль
// обновить не удалось, попытка считается успешной для пользователя, а платёж
// сохраняется и публикуется для ручной сверки.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/minigestor/internal/entitlement"
	"github.com/magabrotheeeer/minigestor/internal/gate"
	"github.com/magabrotheeeer/minigestor/internal/lib/msisdn"
	"github.com/magabrotheeeer/minigestor/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/minigestor/internal/lib/sl"
	"github.com/magabrotheeeer/minigestor/internal/metrics"
	"github.com/magabrotheeeer/minigestor/internal/models"
	"github.com/magabrotheeeer/minigestor/internal/paymentprovider"
)

var (
	// ErrMissingField не заполнено обязательное поле.
	ErrMissingField = errors.New("required field is missing")
	// ErrInvalidPhone номер не подходит выбранному способу оплаты.
	ErrInvalidPhone = errors.New("phone number is invalid for payment method")
	// ErrUnsupportedMethod неизвестный способ оплаты.
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	// ErrUnsupportedPlan тариф нельзя купить.
	ErrUnsupportedPlan = errors.New("unsupported plan type")
	// ErrAmountMismatch сумма не совпадает с ценой тарифа.
	ErrAmountMismatch = errors.New("amount does not match plan price")
	// ErrCheckoutInProgress у пользователя уже есть незавершённая попытка.
	ErrCheckoutInProgress = errors.New("checkout already in progress")
)

// ValidationError ошибка проверки поля намерения оплаты.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Outcome итог попытки оплаты.
type Outcome string

const (
	OutcomeInvalid                Outcome = "invalid"
	OutcomeConfirmed              Outcome = "confirmed"
	OutcomeReconciliationRequired Outcome = "reconciliation_required"
	OutcomeDeclined               Outcome = "declined"
	OutcomeFailed                 Outcome = "failed"
)

// Result итог попытки, который видит пользователь.
type Result struct {
	AttemptID      string  `json:"attempt_id"`
	Reference      string  `json:"reference,omitempty"`
	Outcome        Outcome `json:"outcome"`
	State          State   `json:"state"`
	PaymentSuccess bool    `json:"payment_success"`
	ProfileUpdated bool    `json:"profile_updated"`
	Message        string  `json:"message,omitempty"`
	History        []State `json:"-"`
}

// Gateway платёжный шлюз.
type Gateway interface {
	Charge(ctx context.Context, req paymentprovider.ChargeRequest) (*paymentprovider.ChargeResult, error)
}

// ProfileMutator выдаёт доступ после оплаты.
type ProfileMutator interface {
	ApplyPurchase(ctx context.Context, userUID string, planType models.PlanType, now time.Time) error
}

// ReconciliationStore хранилище платежей, требующих сверки.
type ReconciliationStore interface {
	SaveReconciliation(ctx context.Context, r models.Reconciliation) error
}

// EventPublisher публикует события в брокер.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Locker распределённая блокировка попыток одного пользователя.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// ProfileAccess загружает профиль перед оплатой и сбрасывает его кэш после изменения.
type ProfileAccess interface {
	Snapshot(ctx context.Context, userUID string) (entitlement.Snapshot, error)
	Invalidate(ctx context.Context, userUID string)
}

// Prices цены тарифов.
type Prices struct {
	Monthly  decimal.Decimal
	Lifetime decimal.Decimal
}

// For цена тарифа planType. false для тарифа, который нельзя купить.
func (p Prices) For(planType models.PlanType) (decimal.Decimal, bool) {
	switch planType {
	case models.PlanTypeMonthly:
		return p.Monthly, true
	case models.PlanTypeLifetime:
		return p.Lifetime, true
	default:
		return decimal.Zero, false
	}
}

// Options параметры сервиса.
type Options struct {
	Prices          Prices
	ReferencePrefix string
	LockTTL         time.Duration
}

// Deps внешние зависимости сервиса. Events и Locker могут быть nil.
type Deps struct {
	Gateway         Gateway
	Profiles        ProfileMutator
	Reconciliations ReconciliationStore
	Events          EventPublisher
	Locker          Locker
	Access          ProfileAccess
}

// Service проводит попытки оплаты.
type Service struct {
	log      *slog.Logger
	opts     Options
	deps     Deps
	now      func() time.Time
	inFlight sync.Map
}

// NewService создаёт Service.
func NewService(log *slog.Logger, opts Options, deps Deps) *Service {
	return &Service{
		log:  log,
		opts: opts,
		deps: deps,
		now:  time.Now,
	}
}

func lockKey(userUID string) string {
	return "checkout:lock:" + userUID
}

// Checkout проводит попытку оплаты intent для пользователя userUID.
//
// Ошибки проверки возвращаются как *ValidationError без обращения к шлюзу.
// Отказ шлюза и успешная оплата возвращаются без ошибки. Для OutcomeFailed
// возвращается и Result, и ошибка с причиной.
func (s *Service) Checkout(ctx context.Context, userUID string, intent models.PaymentIntent) (*Result, error) {
	const op = "checkout.Checkout"
	log := s.log.With(
		slog.String("op", op),
		slog.String("user_uid", userUID),
		slog.String("method", string(intent.Method)),
		slog.String("plan_type", string(intent.PlanType)),
	)

	attempt := newAttempt()
	attempt.mustTransition(StateValidating)

	phone, err := s.validate(intent)
	if err != nil {
		attempt.mustTransition(StateIdle)
		s.record(OutcomeInvalid, intent)
		log.Info("payment intent rejected", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Платить можно только за загруженный профиль: иначе выдать доступ после
	// списания будет некому.
	snap, err := s.deps.Access.Snapshot(ctx, userUID)
	if err != nil {
		attempt.mustTransition(StateIdle)
		log.Warn("profile unavailable, checkout postponed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w: %w", op, gate.ErrNotReady, err)
	}
	if snap.State != entitlement.Loaded {
		attempt.mustTransition(StateIdle)
		log.Warn("profile not loaded, checkout postponed", slog.String("state", snap.State.String()))
		return nil, fmt.Errorf("%s: %w", op, gate.ErrNotReady)
	}

	if _, busy := s.inFlight.LoadOrStore(userUID, attempt.ID); busy {
		return nil, fmt.Errorf("%s: %w", op, ErrCheckoutInProgress)
	}
	defer s.inFlight.Delete(userUID)

	if s.deps.Locker != nil {
		token, ok, err := s.deps.Locker.AcquireLock(ctx, lockKey(userUID), s.opts.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("%s: acquire lock: %w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w", op, ErrCheckoutInProgress)
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := s.deps.Locker.ReleaseLock(releaseCtx, lockKey(userUID), token); err != nil {
				log.Warn("failed to release checkout lock", sl.Err(err))
			}
		}()
	}

	attempt.mustTransition(StateSubmitting)
	attempt.Reference = paymentprovider.Reference(s.opts.ReferencePrefix, userUID, attempt.ID)
	log = log.With(slog.String("reference", attempt.Reference))

	// Уход клиента не прерывает списание и выдачу доступа.
	bg := context.WithoutCancel(ctx)

	charge, err := s.deps.Gateway.Charge(bg, paymentprovider.ChargeRequest{
		Method:    intent.Method,
		Amount:    intent.Amount,
		Phone:     phone,
		Reference: attempt.Reference,
	})
	if err != nil {
		attempt.mustTransition(StateFailed)
		s.record(OutcomeFailed, intent)
		log.Error("payment failed", sl.Err(err))
		return s.result(attempt, OutcomeFailed, false, false, ""), fmt.Errorf("%s: %w", op, err)
	}
	if !charge.Success {
		attempt.mustTransition(StateDeclined)
		s.record(OutcomeDeclined, intent)
		log.Info("payment declined", slog.String("gateway_message", charge.Message))
		return s.result(attempt, OutcomeDeclined, false, false, charge.Message), nil
	}

	attempt.mustTransition(StateConfirmed)
	chargedAt := s.now()
	if err := s.deps.Profiles.ApplyPurchase(bg, userUID, intent.PlanType, chargedAt); err != nil {
		s.reconcile(bg, log, userUID, attempt, intent, chargedAt, err)
		s.invalidate(bg, userUID)
		s.record(OutcomeReconciliationRequired, intent)
		return s.result(attempt, OutcomeReconciliationRequired, true, false, charge.Message), nil
	}

	s.invalidate(bg, userUID)
	s.record(OutcomeConfirmed, intent)
	log.Info("payment confirmed, plan activated")
	return s.result(attempt, OutcomeConfirmed, true, true, charge.Message), nil
}

func (s *Service) validate(intent models.PaymentIntent) (string, error) {
	required := []struct {
		field string
		value string
	}{
		{"name", intent.Name},
		{"email", intent.Email},
		{"phone", intent.Phone},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return "", &ValidationError{Field: r.field, Err: ErrMissingField}
		}
	}

	if !intent.Method.Valid() {
		return "", &ValidationError{Field: "method", Err: ErrUnsupportedMethod}
	}
	phone, err := msisdn.Validate(intent.Method, intent.Phone)
	if err != nil {
		return "", &ValidationError{Field: "phone", Err: fmt.Errorf("%w: %w", ErrInvalidPhone, err)}
	}

	price, ok := s.opts.Prices.For(intent.PlanType)
	if !ok {
		return "", &ValidationError{Field: "plan_type", Err: ErrUnsupportedPlan}
	}
	if !intent.Amount.Equal(price) {
		return "", &ValidationError{Field: "amount", Err: ErrAmountMismatch}
	}
	return phone, nil
}

// reconcile сохраняет и публикует платёж, после которого доступ не выдан.
// Ошибки сохранения и публикации только логируются: ответ пользователю уже определён.
func (s *Service) reconcile(ctx context.Context, log *slog.Logger, userUID string, attempt *Attempt,
	intent models.PaymentIntent, chargedAt time.Time, cause error) {
	metrics.Reconciliations.Inc()
	rec := models.Reconciliation{
		UserID:    userUID,
		Email:     intent.Email,
		Reference: attempt.Reference,
		Amount:    intent.Amount,
		Method:    intent.Method,
		PlanType:  intent.PlanType,
		Reason:    cause.Error(),
		CreatedAt: chargedAt,
	}
	log.Error("payment taken but profile update failed, reconciliation required",
		slog.String("amount", intent.Amount.String()),
		slog.Time("charged_at", chargedAt),
		sl.Err(cause),
	)

	if s.deps.Reconciliations != nil {
		if err := s.deps.Reconciliations.SaveReconciliation(ctx, rec); err != nil {
			log.Error("failed to save reconciliation record", sl.Err(err))
		}
	}
	if s.deps.Events != nil {
		if err := s.deps.Events.Publish(ctx, rabbitmq.ReconciliationRoutingKey, rec); err != nil {
			log.Error("failed to publish reconciliation event", sl.Err(err))
		}
	}
}

func (s *Service) invalidate(ctx context.Context, userUID string) {
	s.deps.Access.Invalidate(ctx, userUID)
}

func (s *Service) record(outcome Outcome, intent models.PaymentIntent) {
	metrics.CheckoutOutcomes.WithLabelValues(string(outcome), string(intent.Method), string(intent.PlanType)).Inc()
}

func (s *Service) result(a *Attempt, outcome Outcome, paid, updated bool, message string) *Result {
	return &Result{
		AttemptID:      a.ID.String(),
		Reference:      a.Reference,
		Outcome:        outcome,
		State:          a.State(),
		PaymentSuccess: paid,
		ProfileUpdated: updated,
		Message:        message,
		History:        a.History(),
	}
}
