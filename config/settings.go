package config

import (
	"fmt"
	"os"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Settings holds the company identity and billing defaults. It is read from
// a JSON5 file so the accountant can keep comments next to the tax rates.
type Settings struct {
	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	NIU         string `json:"niu"`
	RCCM        string `json:"rccm"`

	Currency      string  `json:"currency"`
	InvoicePrefix string  `json:"invoicePrefix"`
	DefaultTVA    float64 `json:"defaultTva"`
	DefaultTPS    float64 `json:"defaultTps"`

	PaymentTermsDays   int     `json:"paymentTermsDays"`
	AlertWindowDays    int     `json:"alertWindowDays"`
	CashOpeningBalance float64 `json:"cashOpeningBalance"`
}

func DefaultSettings() Settings {
	return Settings{
		CompanyName:      "FleetDesk Transport",
		Currency:         "FCFA",
		InvoicePrefix:    "FAC",
		DefaultTVA:       19.25,
		DefaultTPS:       0,
		PaymentTermsDays: 30,
		AlertWindowDays:  30,
	}
}

// LoadSettings parses the settings file over the defaults. A missing file is
// not an error.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := json5.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	if settings.DefaultTVA < 0 || settings.DefaultTVA > 100 || settings.DefaultTPS < 0 || settings.DefaultTPS > 100 {
		return settings, fmt.Errorf("tax rates must be between 0 and 100")
	}
	if settings.InvoicePrefix == "" {
		settings.InvoicePrefix = "FAC"
	}
	if settings.Currency == "" {
		settings.Currency = "FCFA"
	}
	return settings, nil
}
