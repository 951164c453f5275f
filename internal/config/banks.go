package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/layout"
)

// Catalogue is the set of company accounts the service may pay from, one
// per bank code. It is read once at start-up and never changes.
type Catalogue struct {
	banks map[string]domain.BankConfig
}

type catalogueFile struct {
	Bank []domain.BankConfig `toml:"bank"`
}

// LoadCatalogue reads a TOML file of [[bank]] tables.
func LoadCatalogue(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank catalogue: %w", err)
	}
	return ParseCatalogue(string(data))
}

// ParseCatalogue decodes catalogue TOML. Every bank must name a layout the
// default registry knows; codes must be unique.
func ParseCatalogue(data string) (*Catalogue, error) {
	var f catalogueFile
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, fmt.Errorf("decode bank catalogue: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode bank catalogue: unknown key %s", undecoded[0])
	}
	return NewCatalogue(f.Bank...)
}

// NewCatalogue builds a catalogue from bank configs.
func NewCatalogue(banks ...domain.BankConfig) (*Catalogue, error) {
	c := &Catalogue{banks: make(map[string]domain.BankConfig, len(banks))}
	for i, b := range banks {
		b.BankCode = strings.TrimSpace(b.BankCode)
		if b.BankCode == "" {
			return nil, fmt.Errorf("bank %d: bank_code is required", i+1)
		}
		if _, dup := c.banks[b.BankCode]; dup {
			return nil, fmt.Errorf("bank %s: configured twice", b.BankCode)
		}
		if b.Layout == "" {
			b.Layout = domain.LayoutCNAB240
		}
		if _, err := layout.Default.Layout(b.Layout); err != nil {
			return nil, fmt.Errorf("bank %s: %w", b.BankCode, err)
		}
		for code, status := range b.Occurrences {
			switch status {
			case domain.StatusSettled, domain.StatusRejected, domain.StatusPending:
			default:
				return nil, fmt.Errorf("bank %s: occurrence %s maps to invalid status %q", b.BankCode, code, status)
			}
		}
		c.banks[b.BankCode] = b
	}
	return c, nil
}

// Bank returns the account configured for code.
func (c *Catalogue) Bank(code string) (domain.BankConfig, error) {
	b, ok := c.banks[code]
	if !ok {
		return domain.BankConfig{}, fmt.Errorf("bank %s: %w", code, domain.ErrUnknownBank)
	}
	return b, nil
}

// Banks lists configured accounts ordered by bank code.
func (c *Catalogue) Banks() []domain.BankConfig {
	out := make([]domain.BankConfig, 0, len(c.banks))
	for _, b := range c.banks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BankCode < out[j].BankCode })
	return out
}
