package ledger

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Category is the high-level accounting nature of an account.
type Category string

const (
	CategoryAsset        Category = "ASSET"
	CategoryLiability    Category = "LIABILITY"
	CategoryEquity       Category = "EQUITY"
	CategoryRevenue      Category = "REVENUE"
	CategoryExpense      Category = "EXPENSE"
	CategoryUnclassified Category = "UNCLASSIFIED"
)

// StatementCategory is the financial-statement line an account feeds.
type StatementCategory string

// P&L statement categories (PCG classes 6 and 7).
const (
	StmtRevenue            StatementCategory = "revenue"
	StmtOtherRevenue       StatementCategory = "other_revenue"
	StmtPurchases          StatementCategory = "purchases"
	StmtExternalCharges    StatementCategory = "external_charges"
	StmtTaxes              StatementCategory = "taxes"
	StmtPersonnel          StatementCategory = "personnel"
	StmtOtherCharges       StatementCategory = "other_charges"
	StmtDepreciation       StatementCategory = "depreciation"
	StmtFinancialExpense   StatementCategory = "financial_expense"
	StmtFinancialIncome    StatementCategory = "financial_income"
	StmtExceptionalExpense StatementCategory = "exceptional_expense"
	StmtExceptionalIncome  StatementCategory = "exceptional_income"
	StmtIncomeTax          StatementCategory = "income_tax"
)

// Balance sheet statement categories (PCG classes 1-5).
const (
	StmtFixedAssets      StatementCategory = "fixed_assets"
	StmtInventory        StatementCategory = "inventory"
	StmtReceivables      StatementCategory = "receivables"
	StmtOtherReceivables StatementCategory = "other_receivables"
	StmtCash             StatementCategory = "cash"
	StmtEquity           StatementCategory = "equity"
	StmtProvisions       StatementCategory = "provisions"
	StmtFinancialDebt    StatementCategory = "financial_debt"
	StmtPayables         StatementCategory = "payables"
	StmtOtherPayables    StatementCategory = "other_payables"
	StmtUnclassified     StatementCategory = "unclassified"
)

// Account is the resolved classification of one account number.
type Account struct {
	Number    string
	Label     string
	Class     string
	Category  Category
	Statement StatementCategory
	// Depth is the length of the matched chart prefix; deeper matches are
	// more specific and win during resolution.
	Depth int
}

// Unmapped reports whether the account fell through the chart.
func (a Account) Unmapped() bool {
	return a.Statement == StmtUnclassified
}

// IsDebitPositive reports whether a debit increases the account value.
// Assets and expenses grow on the debit side, liabilities, equity and
// revenue on the credit side.
func (a Account) IsDebitPositive() bool {
	switch a.Category {
	case CategoryAsset, CategoryExpense:
		return true
	case CategoryLiability, CategoryEquity, CategoryRevenue:
		return false
	}
	switch a.Class {
	case "2", "3", "4", "5", "6":
		return true
	}
	return false
}

// ChartRule binds an account-number prefix to its classifications.
type ChartRule struct {
	Prefix    string            `yaml:"prefix"`
	Category  Category          `yaml:"category"`
	Statement StatementCategory `yaml:"statement"`
}

// Chart resolves account numbers by longest-prefix match against a
// declarative rule table. Resolutions are memoized per instance.
type Chart struct {
	rules []ChartRule

	mu   sync.RWMutex
	memo map[string]Account
}

// NewChart builds a chart from explicit rules, sorted most-specific first.
func NewChart(rules []ChartRule) *Chart {
	sorted := make([]ChartRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &Chart{rules: sorted, memo: make(map[string]Account)}
}

// DefaultChart returns the French PCG classification table.
func DefaultChart() *Chart {
	return NewChart(defaultRules)
}

// LoadChartYAML parses a rule table from YAML, the same shape the default
// table is written in. An empty document falls back to the default chart.
func LoadChartYAML(data []byte) (*Chart, error) {
	var doc struct {
		Rules []ChartRule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ledger: parse chart: %w", err)
	}
	if len(doc.Rules) == 0 {
		return DefaultChart(), nil
	}
	for _, r := range doc.Rules {
		if r.Prefix == "" {
			return nil, fmt.Errorf("ledger: chart rule without prefix")
		}
	}
	return NewChart(doc.Rules), nil
}

// Resolve classifies an account number. Numbers that match no rule get the
// synthetic unclassified category so downstream aggregation never fails.
func (c *Chart) Resolve(number, label string) Account {
	number = strings.TrimSpace(number)

	c.mu.RLock()
	if acc, ok := c.memo[number]; ok {
		c.mu.RUnlock()
		if acc.Label == "" && label != "" {
			acc.Label = label
		}
		return acc
	}
	c.mu.RUnlock()

	acc := Account{
		Number:    number,
		Label:     label,
		Category:  CategoryUnclassified,
		Statement: StmtUnclassified,
	}
	if number != "" {
		acc.Class = number[:1]
	}
	for _, rule := range c.rules {
		if strings.HasPrefix(number, rule.Prefix) {
			acc.Category = rule.Category
			acc.Statement = rule.Statement
			acc.Depth = len(rule.Prefix)
			break
		}
	}

	c.mu.Lock()
	c.memo[number] = acc
	c.mu.Unlock()
	return acc
}

// defaultRules is the PCG prefix table. Longer prefixes override shorter
// ones (e.g. 519 bank overdrafts out of the class-5 cash default).
var defaultRules = []ChartRule{
	// Class 1: equity, provisions, financial debt.
	{Prefix: "1", Category: CategoryEquity, Statement: StmtEquity},
	{Prefix: "15", Category: CategoryLiability, Statement: StmtProvisions},
	{Prefix: "16", Category: CategoryLiability, Statement: StmtFinancialDebt},
	{Prefix: "17", Category: CategoryLiability, Statement: StmtFinancialDebt},

	// Class 2: fixed assets. Class 3: inventory.
	{Prefix: "2", Category: CategoryAsset, Statement: StmtFixedAssets},
	{Prefix: "3", Category: CategoryAsset, Statement: StmtInventory},

	// Class 4: third-party accounts.
	{Prefix: "40", Category: CategoryLiability, Statement: StmtPayables},
	{Prefix: "409", Category: CategoryAsset, Statement: StmtOtherReceivables},
	{Prefix: "41", Category: CategoryAsset, Statement: StmtReceivables},
	{Prefix: "419", Category: CategoryLiability, Statement: StmtOtherPayables},
	{Prefix: "42", Category: CategoryLiability, Statement: StmtOtherPayables},
	{Prefix: "43", Category: CategoryLiability, Statement: StmtOtherPayables},
	{Prefix: "44", Category: CategoryLiability, Statement: StmtOtherPayables},
	{Prefix: "4456", Category: CategoryAsset, Statement: StmtOtherReceivables},
	{Prefix: "4458", Category: CategoryAsset, Statement: StmtOtherReceivables},
	{Prefix: "45", Category: CategoryLiability, Statement: StmtOtherPayables},
	{Prefix: "46", Category: CategoryAsset, Statement: StmtOtherReceivables},
	{Prefix: "47", Category: CategoryLiability, Statement: StmtOtherPayables},
	{Prefix: "48", Category: CategoryAsset, Statement: StmtOtherReceivables},
	{Prefix: "487", Category: CategoryLiability, Statement: StmtOtherPayables},
	{Prefix: "49", Category: CategoryAsset, Statement: StmtOtherReceivables},

	// Class 5: cash and equivalents; 519 is short-term bank borrowing.
	{Prefix: "5", Category: CategoryAsset, Statement: StmtCash},
	{Prefix: "519", Category: CategoryLiability, Statement: StmtFinancialDebt},

	// Class 6: expenses.
	{Prefix: "60", Category: CategoryExpense, Statement: StmtPurchases},
	{Prefix: "61", Category: CategoryExpense, Statement: StmtExternalCharges},
	{Prefix: "62", Category: CategoryExpense, Statement: StmtExternalCharges},
	{Prefix: "63", Category: CategoryExpense, Statement: StmtTaxes},
	{Prefix: "64", Category: CategoryExpense, Statement: StmtPersonnel},
	{Prefix: "65", Category: CategoryExpense, Statement: StmtOtherCharges},
	{Prefix: "66", Category: CategoryExpense, Statement: StmtFinancialExpense},
	{Prefix: "67", Category: CategoryExpense, Statement: StmtExceptionalExpense},
	{Prefix: "68", Category: CategoryExpense, Statement: StmtDepreciation},
	{Prefix: "69", Category: CategoryExpense, Statement: StmtIncomeTax},

	// Class 7: income.
	{Prefix: "70", Category: CategoryRevenue, Statement: StmtRevenue},
	{Prefix: "71", Category: CategoryRevenue, Statement: StmtOtherRevenue},
	{Prefix: "72", Category: CategoryRevenue, Statement: StmtOtherRevenue},
	{Prefix: "74", Category: CategoryRevenue, Statement: StmtOtherRevenue},
	{Prefix: "75", Category: CategoryRevenue, Statement: StmtOtherRevenue},
	{Prefix: "76", Category: CategoryRevenue, Statement: StmtFinancialIncome},
	{Prefix: "77", Category: CategoryRevenue, Statement: StmtExceptionalIncome},
	{Prefix: "78", Category: CategoryRevenue, Statement: StmtOtherRevenue},
	{Prefix: "79", Category: CategoryRevenue, Statement: StmtOtherRevenue},
}
