package entitlement

import (
	"time"

	"github.com/magabrotheeeer/minigestor/internal/models"
)

// LoadState состояние загрузки профиля.
type LoadState int

const (
	// Loading профиль ещё запрашивается.
	Loading LoadState = iota
	// Loaded профиль получен.
	Loaded
	// Missing запрос завершён, но профиля нет.
	Missing
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Missing:
		return "missing"
	default:
		return "unknown"
	}
}

// Snapshot профиль вместе с состоянием его загрузки.
type Snapshot struct {
	State         LoadState
	Profile       *models.Profile
	DaysRemaining int
}

// Resolve вычисляет статус по снимку. Без загруженного профиля статус предварительный.
func (s Snapshot) Resolve(now time.Time) Status {
	if s.State != Loaded || s.Profile == nil {
		return Provisional()
	}
	return Resolve(s.Profile, now, s.DaysRemaining)
}
