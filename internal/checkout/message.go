package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"cheffnex/internal/cart"
	"cheffnex/internal/money"
)

// FormatMessage renders the order text staff receive on WhatsApp. Labels and
// line order are read by people on the other end and must stay stable.
func FormatMessage(items []cart.LineItem, total decimal.Decimal, form Form) string {
	var b strings.Builder
	b.WriteString("*Novo Pedido*\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- %dx %s", item.Quantity, item.Product.Name)
		if len(item.Removed) > 0 {
			fmt.Fprintf(&b, " (Sem: %s)", strings.Join(item.Removed, ", "))
		}
		if len(item.Extras) > 0 {
			parts := make([]string, 0, len(item.Extras))
			for _, e := range item.Extras {
				parts = append(parts, fmt.Sprintf("%dx %s", e.Qty, e.Name))
			}
			fmt.Fprintf(&b, " (+%s)", strings.Join(parts, ", "))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n*Total: R$ %s*", money.Format(total))
	fmt.Fprintf(&b, "\nTipo: %s", fulfillmentLabel(form))
	if form.Fulfillment == FulfillmentDelivery {
		fmt.Fprintf(&b, "\nEndereco: %s", form.Address.String())
	}
	fmt.Fprintf(&b, "\nCliente: %s - %s", form.Name, form.Phone)
	fmt.Fprintf(&b, "\nPagamento: %s", paymentLabel(form.Payment))
	if change := strings.TrimSpace(form.ChangeFor); form.Payment == PaymentCash && change != "" {
		fmt.Fprintf(&b, " (Troco para R$ %s)", change)
	}
	return b.String()
}

func fulfillmentLabel(form Form) string {
	switch form.Fulfillment {
	case FulfillmentDelivery:
		return "Delivery"
	case FulfillmentLocal:
		return "Local - Mesa " + strings.TrimSpace(form.Table)
	}
	return "Retirada"
}

func paymentLabel(p Payment) string {
	switch p {
	case PaymentPix:
		return "PIX"
	case PaymentCard:
		return "Cartao"
	}
	return "Dinheiro"
}
