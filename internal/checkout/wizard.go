package checkout

import (
	"strings"
)

type Step int

const (
	StepFulfillment Step = iota
	StepPayment
	StepIdentification
)

// StepCount is fixed, whatever the cart holds.
const StepCount = 3

var stepLabels = [StepCount]string{"Entrega", "Pagamento", "Identificação"}

func (s Step) Label() string {
	if s < 0 || int(s) >= StepCount {
		return ""
	}
	return stepLabels[s]
}

type Fulfillment string

const (
	FulfillmentPickup   Fulfillment = "pickup"
	FulfillmentDelivery Fulfillment = "delivery"
	FulfillmentLocal    Fulfillment = "local"
)

func (f Fulfillment) Valid() bool {
	return f == FulfillmentPickup || f == FulfillmentDelivery || f == FulfillmentLocal
}

type Payment string

const (
	PaymentPix  Payment = "pix"
	PaymentCard Payment = "card"
	PaymentCash Payment = "cash"
)

func (p Payment) Valid() bool {
	return p == PaymentPix || p == PaymentCard || p == PaymentCash
}

type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
}

// String renders "street, number - complement, neighborhood - city - CEP cep",
// leaving out blank parts.
func (a Address) String() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(a.Street))
	if v := strings.TrimSpace(a.Number); v != "" {
		b.WriteString(", " + v)
	}
	if v := strings.TrimSpace(a.Complement); v != "" {
		b.WriteString(" - " + v)
	}
	if v := strings.TrimSpace(a.Neighborhood); v != "" {
		b.WriteString(", " + v)
	}
	if v := strings.TrimSpace(a.City); v != "" {
		b.WriteString(" - " + v)
	}
	if v := strings.TrimSpace(a.CEP); v != "" {
		b.WriteString(" - CEP " + v)
	}
	return strings.TrimPrefix(b.String(), ", ")
}

// Form holds every answer of the checkout wizard.
type Form struct {
	Fulfillment Fulfillment `json:"fulfillment"`
	Address     Address     `json:"address"`
	Table       string      `json:"table"`
	Payment     Payment     `json:"payment"`
	ChangeFor   string      `json:"changeFor"`
	Name        string      `json:"name"`
	Phone       string      `json:"phone"`
}

// Wizard walks Fulfillment -> Payment -> Identification. Answers survive
// moving back and forth.
type Wizard struct {
	step Step
	form Form
}

func NewWizard() *Wizard {
	return &Wizard{form: Form{Fulfillment: FulfillmentPickup}}
}

func (w *Wizard) Step() Step { return w.step }

// Form exposes the answers for editing.
func (w *Wizard) Form() *Form { return &w.form }

// CanAdvance reports whether the current step is complete.
func (w *Wizard) CanAdvance() bool {
	switch w.step {
	case StepFulfillment:
		return true
	case StepPayment:
		return w.form.Payment.Valid()
	case StepIdentification:
		return strings.TrimSpace(w.form.Name) != "" && strings.TrimSpace(w.form.Phone) != ""
	}
	return false
}

// Advance moves one step forward. It is a no-op when the guard fails or the
// wizard already sits on its last step.
func (w *Wizard) Advance() bool {
	if !w.CanAdvance() || int(w.step) >= StepCount-1 {
		return false
	}
	w.step++
	return true
}

func (w *Wizard) Back() bool {
	if w.step == StepFulfillment {
		return false
	}
	w.step--
	return true
}

// Ready reports whether the order can be submitted.
func (w *Wizard) Ready() bool {
	return w.step == StepIdentification && w.CanAdvance()
}

// Walk advances as far as the answers allow and returns the step it stopped
// on when that is short of submission.
func (w *Wizard) Walk() error {
	for w.Advance() {
	}
	if !w.Ready() {
		return &StepError{Step: w.step}
	}
	return nil
}
