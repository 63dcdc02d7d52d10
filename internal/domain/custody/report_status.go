package custody

// ===============================
// Inspection report status
// ===============================

type ReportStatus string

const (
	ReportDamaged          ReportStatus = "damaged"
	ReportNeedsReplacement ReportStatus = "needs-replacement"
)

func (s ReportStatus) Valid() bool {
	return s == ReportDamaged || s == ReportNeedsReplacement
}

func (s ReportStatus) String() string {
	return string(s)
}
