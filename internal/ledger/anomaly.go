package ledger

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wincap/wincap/internal/fec"
)

// AnomalyKind enumerates the hotspot finding types.
type AnomalyKind string

const (
	AnomalyUnbalancedEntry      AnomalyKind = "UNBALANCED_ENTRY"
	AnomalyUnmappedAccount      AnomalyKind = "UNMAPPED_ACCOUNT"
	AnomalyBalanceOutlier       AnomalyKind = "BALANCE_OUTLIER"
	AnomalySpike                AnomalyKind = "SPIKE"
	AnomalyOneOffTransaction    AnomalyKind = "ONE_OFF_TRANSACTION"
	AnomalyBalanceSheetMismatch AnomalyKind = "BALANCE_SHEET_MISMATCH"
)

// Severity levels, ordered from most to least urgent.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

var severityRank = map[Severity]int{
	SeverityCritical: 3,
	SeverityHigh:     2,
	SeverityMedium:   1,
	SeverityLow:      0,
}

// Anomaly is a single hotspot finding. It references the implicated
// entries by identity only; the ledger stays the single owner of the data.
type Anomaly struct {
	ID         uuid.UUID       `json:"id"`
	Kind       AnomalyKind     `json:"kind"`
	Severity   Severity        `json:"severity"`
	FiscalYear int             `json:"fiscal_year"`
	AccountNum string          `json:"account_num,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	// Score is the detector-specific magnitude (z-score, deviation
	// multiple, imbalance amount) used for ranking inside a severity.
	Score   float64   `json:"score"`
	Message string    `json:"message"`
	Entries []fec.Ref `json:"entries,omitempty"`
}

// NewAnomaly assigns an identity to a finding.
func NewAnomaly(kind AnomalyKind, sev Severity, year int) Anomaly {
	return Anomaly{ID: uuid.New(), Kind: kind, Severity: sev, FiscalYear: year}
}

// RankAnomalies orders findings by severity, then score, descending.
// Ties fall back to account number so the order is deterministic.
func RankAnomalies(anomalies []Anomaly) {
	sort.SliceStable(anomalies, func(i, j int) bool {
		ri, rj := severityRank[anomalies[i].Severity], severityRank[anomalies[j].Severity]
		if ri != rj {
			return ri > rj
		}
		if anomalies[i].Score != anomalies[j].Score {
			return anomalies[i].Score > anomalies[j].Score
		}
		return anomalies[i].AccountNum < anomalies[j].AccountNum
	})
}
