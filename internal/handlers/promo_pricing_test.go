package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestResolvePromoUpdateSetsPromo(t *testing.T) {
	res, err := resolvePromoUpdate(30, nil, promoUpdateInput{PromoPrice: ptr(25)})
	require.NoError(t, err)
	assert.True(t, res.SetPromo)
	assert.Equal(t, 25.0, *res.PromoPrice)
	assert.False(t, res.SetSellPrice)
}

func TestResolvePromoUpdateRejectsPromoNotBelowSell(t *testing.T) {
	for _, promo := range []float64{30, 35, 0, -1} {
		_, err := resolvePromoUpdate(30, nil, promoUpdateInput{PromoPrice: ptr(promo)})
		assert.Error(t, err, "promo %v", promo)
	}
}

func TestResolvePromoUpdateChecksExistingPromoAgainstNewSellPrice(t *testing.T) {
	_, err := resolvePromoUpdate(30, ptr(25), promoUpdateInput{SellPrice: ptr(20)})
	assert.Error(t, err)

	res, err := resolvePromoUpdate(30, ptr(25), promoUpdateInput{SellPrice: ptr(20), ClearPromo: true})
	require.NoError(t, err)
	assert.True(t, res.UnsetPromo)
	assert.Nil(t, res.PromoPrice)
	assert.Equal(t, 20.0, res.SellPrice)
}

func TestResolvePromoUpdateClearWithoutPromoIsNoop(t *testing.T) {
	res, err := resolvePromoUpdate(30, nil, promoUpdateInput{ClearPromo: true})
	require.NoError(t, err)
	assert.False(t, res.UnsetPromo)
}
