package handlers

import "cheffnex/internal/money"

type promoUpdateInput struct {
	SellPrice  *float64
	PromoPrice *float64
	ClearPromo bool
}

type promoUpdateResult struct {
	SellPrice    float64
	PromoPrice   *float64
	SetSellPrice bool
	SetPromo     bool
	UnsetPromo   bool
}

// resolvePromoUpdate merges a partial price update into the stored prices and
// validates the result as a whole, so lowering the sell price below an
// existing promo price is rejected too.
func resolvePromoUpdate(existingSell float64, existingPromo *float64, input promoUpdateInput) (promoUpdateResult, error) {
	result := promoUpdateResult{
		SellPrice:  existingSell,
		PromoPrice: existingPromo,
	}

	if input.SellPrice != nil {
		result.SellPrice = *input.SellPrice
		result.SetSellPrice = true
	}
	if input.ClearPromo {
		result.PromoPrice = nil
		result.UnsetPromo = existingPromo != nil
	} else if input.PromoPrice != nil {
		promo := *input.PromoPrice
		result.PromoPrice = &promo
		result.SetPromo = true
	}

	if err := money.ValidatePromo(result.SellPrice, result.PromoPrice); err != nil {
		return promoUpdateResult{}, err
	}
	return result, nil
}
