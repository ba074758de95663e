package document

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"billing/internal/totals"
	"billing/pkg/models"
	"billing/pkg/services"
)

var validate = validator.New()

// itemCheck carries the rules a submitted line must pass to be kept.
type itemCheck struct {
	Description string  `validate:"required"`
	Qty         float64 `validate:"gt=0"`
	Rate        float64 `validate:"gte=0"`
}

// ParseItems keeps the lines with a description, a positive quantity and
// a non-negative rate; anything else, including unparsable numbers, is
// dropped. Lines without a SAC get sac.
func ParseItems(in []services.ItemInput, sac string) []models.Item {
	items := make([]models.Item, 0, len(in))
	for _, raw := range in {
		item, ok := parseItem(raw)
		if !ok {
			continue
		}
		if item.SAC == "" {
			item.SAC = sac
		}
		items = append(items, item)
	}
	return items
}

func parseItem(raw services.ItemInput) (models.Item, bool) {
	qty, err := decimal.NewFromString(strings.TrimSpace(raw.Qty))
	if err != nil {
		return models.Item{}, false
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(raw.Rate))
	if err != nil {
		return models.Item{}, false
	}
	desc := strings.TrimSpace(raw.Description)

	check := itemCheck{Description: desc, Qty: qty.InexactFloat64(), Rate: rate.InexactFloat64()}
	if err := validate.Struct(check); err != nil {
		return models.Item{}, false
	}
	return models.Item{
		ChallanNo:   strings.TrimSpace(raw.ChallanNo),
		Description: desc,
		SAC:         strings.TrimSpace(raw.SAC),
		Qty:         qty,
		Rate:        rate,
		Amount:      totals.LineAmount(qty, rate),
	}, true
}

func amounts(items []models.Item) []decimal.Decimal {
	out := make([]decimal.Decimal, len(items))
	for i, it := range items {
		out[i] = it.Amount
	}
	return out
}
