package domain

// These interfaces are the boundaries between the pure core and the shell.
// The repository layer implements them.

// ControlIndex answers whether a control number belongs to a remittance
// record the caller still knows about.
type ControlIndex interface {
	Contains(controlNumber string) bool
}

// BankCatalogue resolves configured company accounts by bank code.
type BankCatalogue interface {
	Bank(code string) (BankConfig, error)
	Banks() []BankConfig
}

// ControlSet is an in-memory ControlIndex.
type ControlSet map[string]struct{}

func NewControlSet(controlNumbers ...string) ControlSet {
	s := make(ControlSet, len(controlNumbers))
	for _, c := range controlNumbers {
		s[c] = struct{}{}
	}
	return s
}

func (s ControlSet) Contains(controlNumber string) bool {
	_, ok := s[controlNumber]
	return ok
}
