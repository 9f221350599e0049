// Package scheduler периодически ищет пользователей, у которых скоро
// заканчивается пробный период, и публикует напоминания в брокер.
// Заодно он сообщает в лог о платежах, всё ещё ожидающих ручной сверки.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/minigestor/internal/config"
	"github.com/magabrotheeeer/minigestor/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/minigestor/internal/lib/sl"
	"github.com/magabrotheeeer/minigestor/internal/models"
)

// Repository источник пробных периодов и записей о сверке.
type Repository interface {
	FindTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]models.TrialReminder, error)
	ListOpenReconciliations(ctx context.Context) ([]models.Reconciliation, error)
}

// Publisher публикует события в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Service планировщик напоминаний.
type Service struct {
	repo         Repository
	publisher    Publisher
	log          *slog.Logger
	reminderDays int
	interval     time.Duration
	now          func() time.Time
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, publisher Publisher, log *slog.Logger, cfg config.Trial) *Service {
	interval := cfg.ReminderInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Service{
		repo:         repo,
		publisher:    publisher,
		log:          log,
		reminderDays: cfg.ReminderDays,
		interval:     interval,
		now:          time.Now,
	}
}

// Run выполняет проверку сразу и затем с интервалом до отмены ctx.
//
// Окно поиска совпадает с интервалом запуска, поэтому пользователь получает
// одно напоминание, если интервал не меньше суток.
func (s *Service) Run(ctx context.Context) {
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		}
	}
}

// RemindExpiringTrials публикует напоминание для каждого пробного периода,
// который попадает в окно за reminderDays дней до окончания. Возвращает
// число опубликованных сообщений.
func (s *Service) RemindExpiringTrials(ctx context.Context) int {
	now := s.now()
	to := now.AddDate(0, 0, s.reminderDays)
	from := to.Add(-s.interval)
	if from.Before(now) {
		from = now
	}

	s.log.Info("looking for expiring trials", slog.Time("from", from), slog.Time("to", to))
	reminders, err := s.repo.FindTrialsEndingBetween(ctx, from, to)
	if err != nil {
		s.log.Error("failed to find expiring trials", sl.Err(err))
		return 0
	}
	if len(reminders) == 0 {
		s.log.Info("no expiring trials found")
		return 0
	}
	s.log.Info("found expiring trials", "count", len(reminders))

	published := 0
	for _, r := range reminders {
		if err := s.publisher.Publish(ctx, rabbitmq.TrialExpiringRoutingKey, r); err != nil {
			s.log.Error("failed to publish trial reminder", slog.String("user_uid", r.UserUID), sl.Err(err))
			continue
		}
		published++
	}
	return published
}

func (s *Service) tick(ctx context.Context) {
	s.RemindExpiringTrials(ctx)
	s.ReportOpenReconciliations(ctx)
}

// ReportOpenReconciliations пишет в лог число нерешённых сверок и самую
// старую из них. Возвращает число открытых записей.
func (s *Service) ReportOpenReconciliations(ctx context.Context) int {
	open, err := s.repo.ListOpenReconciliations(ctx)
	if err != nil {
		s.log.Error("failed to list open reconciliations", sl.Err(err))
		return 0
	}
	if len(open) == 0 {
		return 0
	}
	oldest := open[0]
	s.log.Warn("payments awaiting reconciliation",
		slog.Int("count", len(open)),
		slog.String("oldest_reference", oldest.Reference),
		slog.Duration("oldest_age", s.now().Sub(oldest.CreatedAt).Round(time.Minute)),
	)
	return len(open)
}
