package model

import "mealplan-subscription/internal/domain"

// Plan is a purchasable subscription plan from the catalog.
type Plan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PriceCents  int64  `json:"price_cents"` // 0 = free tier
	Description string `json:"description"`
	Popular     bool   `json:"popular"`
}

func (p *Plan) IsFree() bool { return p.PriceCents == 0 }

func (p *Plan) Validate() error {
	if p.ID == "" || p.Name == "" || p.PriceCents < 0 {
		return domain.ErrInvalidArgument
	}
	return nil
}
