package leadimport

// ExcelType is the file profile chosen from the detected columns.
type ExcelType string

const (
	ExcelSimple ExcelType = "simple" // name + phone only
	ExcelLeads  ExcelType = "leads"  // full lead export with a source column
	ExcelCustom ExcelType = "custom"
)

// simpleMaxTypes is the most distinct column types a simple list can carry.
const simpleMaxTypes = 3

// ParseExcelType validates a profile name.
func ParseExcelType(s string) (ExcelType, bool) {
	switch t := ExcelType(s); t {
	case ExcelSimple, ExcelLeads, ExcelCustom:
		return t, true
	}
	return "", false
}

// Classify picks the profile for a mapping. First match wins:
// a lead source column means leads; name and phone with at most three
// distinct types means simple; anything else is custom.
func Classify(m ColumnMapping) ExcelType {
	if m.Has(ColumnLeadSource) {
		return ExcelLeads
	}
	if m.Has(ColumnName) && m.Has(ColumnPhone) && m.DistinctTypes() <= simpleMaxTypes {
		return ExcelSimple
	}
	return ExcelCustom
}
