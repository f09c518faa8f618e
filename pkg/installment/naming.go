package installment

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/pigeonworks-llc/installment-sync/pkg/actual"
)

// Naming controls the human-readable parts of a composed schedule name.
// The composed name is also the dedup key for an installment series, so
// the same configuration must be used across runs against a budget.
type Naming struct {
	// UnitLabel sits between the parcel total and the amount,
	// e.g. "installments of" or "parcelas de".
	UnitLabel string `yaml:"unit_label"`
	// CurrencyPrefix is prepended to the formatted amount, e.g. "R$".
	CurrencyPrefix string `yaml:"currency_prefix"`
}

// DefaultNaming returns the default naming configuration.
func DefaultNaming() Naming {
	return Naming{
		UnitLabel:      "installments of",
		CurrencyPrefix: "",
	}
}

// LoadNaming loads a naming configuration from a YAML file. Missing keys
// fall back to the defaults.
func LoadNaming(configPath string) (Naming, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return Naming{}, fmt.Errorf("failed to read naming config: %w", err)
	}

	naming := DefaultNaming()
	if err := yaml.Unmarshal(data, &naming); err != nil {
		return Naming{}, fmt.Errorf("failed to parse naming config: %w", err)
	}

	return naming, nil
}

// Compose builds the canonical schedule name for an installment series:
// the transaction's notes with the marker removed and trimmed, the parcel
// total, the unit label, the sign-flipped amount in major units, and the
// begin:end month pair of the series.
//
// With recomputeDates, begin is the month of the series' first parcel
// (the transaction date shifted back by Parcel-1 months) and end the
// month of its last; without it, both are the transaction's own month, so
// each parcel of a series composes a different name.
//
// Two transactions of the same series must compose byte-identical names;
// this is the dedup key against the remote store.
func (n Naming) Compose(tx actual.Transaction, inst Installment, recomputeDates bool) (string, error) {
	notes := ""
	if tx.Notes != nil {
		notes = strings.TrimSpace(strings.Replace(*tx.Notes, inst.Matched, "", 1))
	}

	txDate, err := ParseDate(tx.Date)
	if err != nil {
		return "", err
	}

	begin := FormatMonth(txDate)
	end := begin
	if recomputeDates {
		begin = FormatMonth(AddMonths(txDate, 1-inst.Parcel))
		end = FormatMonth(AddMonths(txDate, inst.ParcelTotal-inst.Parcel))
	}

	// Outflows are stored negative; the name carries the flipped value in
	// major units with two decimal places.
	amount := decimal.New(-tx.Amount, -2).StringFixed(2)

	return fmt.Sprintf("%s: %d %s %s%s (%s:%s)",
		notes, inst.ParcelTotal, n.UnitLabel, n.CurrencyPrefix, amount, begin, end), nil
}
