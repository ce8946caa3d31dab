package selection

import "fmt"

type StepKind int

const (
	StepInfo StepKind = iota
	StepRemovables
	StepExtras
	StepCrossSell
)

func (k StepKind) String() string {
	switch k {
	case StepInfo:
		return "info"
	case StepRemovables:
		return "removables"
	case StepExtras:
		return "extras"
	case StepCrossSell:
		return "crosssell"
	}
	return fmt.Sprintf("StepKind(%d)", int(k))
}

// Step is one page of the product customization wizard. Rule is the index of
// the cross-sell rule and only meaningful for StepCrossSell.
type Step struct {
	Kind StepKind
	Rule int
}

func (s Step) String() string {
	if s.Kind == StepCrossSell {
		return fmt.Sprintf("crosssell-%d", s.Rule)
	}
	return s.Kind.String()
}

// Presence describes which optional pages a product has.
type Presence struct {
	Removables bool
	Extras     bool
	CrossSell  int
}

func StepCount(p Presence) int {
	n := 1
	if p.Removables {
		n++
	}
	if p.Extras {
		n++
	}
	if p.CrossSell > 0 {
		n += p.CrossSell
	}
	return n
}

// StepAt maps a wizard position to its page. Positions outside the wizard
// resolve to the info page.
func StepAt(index int, p Presence) Step {
	pos := 0
	if index == pos {
		return Step{Kind: StepInfo}
	}
	pos++
	if p.Removables {
		if index == pos {
			return Step{Kind: StepRemovables}
		}
		pos++
	}
	if p.Extras {
		if index == pos {
			return Step{Kind: StepExtras}
		}
		pos++
	}
	for i := 0; i < p.CrossSell; i++ {
		if index == pos {
			return Step{Kind: StepCrossSell, Rule: i}
		}
		pos++
	}
	return Step{Kind: StepInfo}
}
