package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/folhapay/remittance/internal/domain"
)

var remitVars = []string{
	"REMIT_PORT", "REMIT_DB_PATH", "REMIT_BANKS_FILE", "REMIT_LOG_LEVEL", "REMIT_LOG_FORMAT",
	"REMIT_READ_TIMEOUT", "REMIT_WRITE_TIMEOUT", "REMIT_SHUTDOWN_TIMEOUT",
	"REMIT_INDEX_CACHE_SIZE", "REMIT_INDEX_CACHE_TTL",
}

// clearEnv blanks every REMIT_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range remitVars {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 || cfg.DBPath != "remittance.db" || cfg.BanksFile != "banks.toml" {
		t.Errorf("server defaults = %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.LogFormat != "json" {
		t.Errorf("log defaults = %v %s", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.ReadTimeout != 30*time.Second || cfg.WriteTimeout != 60*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("timeouts = %v %v %v", cfg.ReadTimeout, cfg.WriteTimeout, cfg.ShutdownTimeout)
	}
	if cfg.IndexCacheSize != 10000 || cfg.IndexCacheTTL != time.Hour {
		t.Errorf("cache = %d %v", cfg.IndexCacheSize, cfg.IndexCacheTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("REMIT_PORT", "9090")
	t.Setenv("REMIT_LOG_LEVEL", "DEBUG")
	t.Setenv("REMIT_LOG_FORMAT", "text")
	t.Setenv("REMIT_READ_TIMEOUT", "5s")
	t.Setenv("REMIT_INDEX_CACHE_SIZE", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 || cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != "text" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ReadTimeout != 5*time.Second || cfg.IndexCacheSize != 42 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"REMIT_PORT", "eighty"},
		{"REMIT_LOG_LEVEL", "loud"},
		{"REMIT_LOG_FORMAT", "xml"},
		{"REMIT_WRITE_TIMEOUT", "10"},
		{"REMIT_INDEX_CACHE_SIZE", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q succeeded", tt.key, tt.value)
			}
		})
	}
}

const sampleCatalogue = `
[[bank]]
bank_code = "001"
bank_name = "BANCO DO BRASIL"
agency = "1234"
agency_digit = "5"
account = "98765"
account_digit = "0"
company_code = "CONV123"
layout = "CNAB240"
company_name = "ACME LTDA"
document = "12.345.678/0001-90"

[bank.address]
street = "AV PAULISTA"
number = "1000"
city = "SAO PAULO"
state = "SP"
zip = "01310-100"

[bank.occurrences]
"03" = "SETTLED"

[[bank]]
bank_code = "237"
bank_name = "BRADESCO"
agency = "0001"
account = "55555"
layout = "CNAB400"
company_name = "ACME LTDA"
document = "12.345.678/0001-90"
`

func TestParseCatalogue(t *testing.T) {
	c, err := ParseCatalogue(sampleCatalogue)
	if err != nil {
		t.Fatalf("ParseCatalogue: %v", err)
	}
	bb, err := c.Bank("001")
	if err != nil {
		t.Fatal(err)
	}
	if bb.Address.City != "SAO PAULO" || bb.Occurrences["03"] != domain.StatusSettled {
		t.Errorf("bank 001 = %+v", bb)
	}
	brad, err := c.Bank("237")
	if err != nil || brad.Layout != domain.LayoutCNAB400 {
		t.Errorf("bank 237 = %+v, %v", brad, err)
	}
	if _, err := c.Bank("341"); !errors.Is(err, domain.ErrUnknownBank) {
		t.Errorf("Bank(341): got %v, want ErrUnknownBank", err)
	}

	banks := c.Banks()
	if len(banks) != 2 || banks[0].BankCode != "001" || banks[1].BankCode != "237" {
		t.Errorf("Banks() = %v", banks)
	}
}

func TestParseCatalogue_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", `[[bank]` + "\n"},
		{"unknown key", "[[bank]]\nbank_code = \"001\"\ncolour = \"blue\"\n"},
		{"missing code", "[[bank]]\nbank_name = \"X\"\n"},
		{"duplicate", "[[bank]]\nbank_code = \"001\"\n[[bank]]\nbank_code = \"001\"\n"},
		{"unknown layout", "[[bank]]\nbank_code = \"001\"\nlayout = \"CNAB999\"\n"},
		{"bad status", "[[bank]]\nbank_code = \"001\"\n[bank.occurrences]\n\"00\" = \"MAYBE\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCatalogue(tt.data); err == nil {
				t.Error("ParseCatalogue succeeded, want error")
			}
		})
	}
}

func TestLoadCatalogue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banks.toml")
	if err := os.WriteFile(path, []byte(sampleCatalogue), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCatalogue(path)
	if err != nil {
		t.Fatalf("LoadCatalogue: %v", err)
	}
	if len(c.Banks()) != 2 {
		t.Errorf("got %d banks", len(c.Banks()))
	}
	if _, err := LoadCatalogue(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestCatalogue_DefaultLayout(t *testing.T) {
	c, err := NewCatalogue(domain.BankConfig{BankCode: " 104 "})
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Bank("104")
	if err != nil || b.Layout != domain.LayoutCNAB240 {
		t.Errorf("Bank(104) = %+v, %v", b, err)
	}
}
