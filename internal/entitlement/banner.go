package entitlement

import (
	"fmt"

	"github.com/magabrotheeeer/minigestor/internal/models"
)

// UrgentDays порог, начиная с которого баннер пробного периода становится срочным.
const UrgentDays = 3

// BannerKind вид баннера тарифа.
type BannerKind string

const (
	BannerPro         BannerKind = "pro"
	BannerTrial       BannerKind = "trial"
	BannerTrialUrgent BannerKind = "trial_urgent"
	BannerExpired     BannerKind = "expired"
)

// BannerView содержимое баннера тарифа на главной странице.
type BannerView struct {
	Kind          BannerKind `json:"kind"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	DaysRemaining int        `json:"days_remaining"`
	CTA           string     `json:"cta,omitempty"`
	CTATarget     string     `json:"cta_target,omitempty"`
}

// CheckoutPath адрес страницы оплаты, куда ведут призывы к покупке.
const CheckoutPath = "/checkout"

// Banner строит баннер по вычисленному статусу.
func Banner(s Status) BannerView {
	switch s.Status {
	case models.StatusPro:
		return BannerView{
			Kind:    BannerPro,
			Title:   "Plano Pro Ativo",
			Message: "Todos os recursos estão liberados.",
		}
	case models.StatusExpired:
		return BannerView{
			Kind:      BannerExpired,
			Title:     "Período Gratuito Expirado",
			Message:   "Para continuar usando o MiniGestor e manter seus dados, ative o Plano Pro.",
			CTA:       "Ativar Plano Pro",
			CTATarget: CheckoutPath,
		}
	}

	v := BannerView{
		Kind:          BannerTrial,
		Title:         "Teste Gratuito",
		DaysRemaining: s.DaysRemaining,
		CTA:           "Ver Planos",
		CTATarget:     CheckoutPath,
	}
	if s.DaysRemaining <= UrgentDays {
		v.Kind = BannerTrialUrgent
		v.Title = "Seu trial está acabando!"
	}
	if s.DaysRemaining == 1 {
		v.Message = "Resta 1 dia para aproveitar todos os recursos do MiniGestor."
	} else {
		v.Message = fmt.Sprintf("Restam %d dias para aproveitar todos os recursos do MiniGestor.", s.DaysRemaining)
	}
	return v
}
