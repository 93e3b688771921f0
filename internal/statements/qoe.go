package statements

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/wincap/wincap/internal/fec"
	"github.com/wincap/wincap/internal/ledger"
)

// QoERule matches non-recurring items to normalize out of EBITDA. A line
// matches when its account number has the prefix and, if a description
// pattern is set, its description matches the pattern.
type QoERule struct {
	Name               string `yaml:"name" validate:"required"`
	AccountPrefix      string `yaml:"account_prefix" validate:"required"`
	DescriptionPattern string `yaml:"description_pattern"`
	Rationale          string `yaml:"rationale" validate:"required"`

	re *regexp.Regexp
}

// Compile prepares the description matcher. Patterns are case-insensitive
// regular expressions; an empty pattern matches every description.
func (r *QoERule) Compile() error {
	if r.DescriptionPattern == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + r.DescriptionPattern)
	if err != nil {
		return fmt.Errorf("statements: qoe rule %q: %w", r.Name, err)
	}
	r.re = re
	return nil
}

func (r *QoERule) matches(line fec.LedgerEntry) bool {
	if !strings.HasPrefix(line.AccountNum, r.AccountPrefix) {
		return false
	}
	if r.re == nil {
		return true
	}
	return r.re.MatchString(line.Description)
}

// LoadQoERules parses and validates a rule set from YAML.
func LoadQoERules(data []byte) ([]QoERule, error) {
	var doc struct {
		Rules []QoERule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("statements: parse qoe rules: %w", err)
	}
	validate := validator.New()
	for i := range doc.Rules {
		if err := validate.Struct(&doc.Rules[i]); err != nil {
			return nil, fmt.Errorf("statements: qoe rule %d: %w", i+1, err)
		}
		if err := doc.Rules[i].Compile(); err != nil {
			return nil, err
		}
	}
	return doc.Rules, nil
}

// QoEAdjustment is one applied normalization, recorded with its rationale
// and the matched entries so the bridge stays auditable.
type QoEAdjustment struct {
	Rule      string          `json:"rule"`
	Rationale string          `json:"rationale"`
	Amount    decimal.Decimal `json:"amount"`
	Entries   []fec.Ref       `json:"entries"`
}

// QualityOfEarnings is the adjusted-EBITDA bridge for one fiscal year.
type QualityOfEarnings struct {
	Year            int             `json:"year"`
	ReportedEBITDA  decimal.Decimal `json:"reported_ebitda"`
	Adjustments     []QoEAdjustment `json:"adjustments,omitempty"`
	AdjustedEBITDA  decimal.Decimal `json:"adjusted_ebitda"`
	TotalAdjustment decimal.Decimal `json:"total_adjustment"`
}

// operatingCategories are the P&L categories inside EBITDA. Items outside
// them (depreciation, financial, exceptional, tax) never adjust EBITDA.
var operatingCategories = map[ledger.StatementCategory]bool{
	ledger.StmtRevenue:         true,
	ledger.StmtOtherRevenue:    true,
	ledger.StmtPurchases:       true,
	ledger.StmtExternalCharges: true,
	ledger.StmtTaxes:           true,
	ledger.StmtPersonnel:       true,
	ledger.StmtOtherCharges:    true,
}

// BuildQoE applies the rule set to the fiscal year. Normalizing a one-off
// expense raises adjusted EBITDA by the expense; normalizing a one-off
// income lowers it.
func BuildQoE(fy *ledger.FiscalYear, pl ProfitLoss, rules []QoERule) QualityOfEarnings {
	qoe := QualityOfEarnings{
		Year:           fy.Year,
		ReportedEBITDA: pl.EBITDA(),
		AdjustedEBITDA: pl.EBITDA(),
	}

	for i := range rules {
		rule := &rules[i]
		amount := decimal.Zero
		var refs []fec.Ref
		fy.Lines(func(line fec.LedgerEntry, acc ledger.Account) {
			if !operatingCategories[acc.Statement] || !rule.matches(line) {
				return
			}
			if acc.Category == ledger.CategoryRevenue {
				// Removing one-off income from EBITDA.
				amount = amount.Sub(line.Credit.Sub(line.Debit))
			} else {
				// Adding one-off expense back to EBITDA.
				amount = amount.Add(line.Debit.Sub(line.Credit))
			}
			refs = append(refs, fec.RefOf(line))
		})
		if len(refs) == 0 {
			continue
		}
		qoe.Adjustments = append(qoe.Adjustments, QoEAdjustment{
			Rule:      rule.Name,
			Rationale: rule.Rationale,
			Amount:    amount,
			Entries:   refs,
		})
		qoe.TotalAdjustment = qoe.TotalAdjustment.Add(amount)
	}

	qoe.AdjustedEBITDA = qoe.ReportedEBITDA.Add(qoe.TotalAdjustment)
	return qoe
}
