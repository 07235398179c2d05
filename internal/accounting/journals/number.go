package journals

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Reference prefixes per document type.
const (
	PrefixGeneral      = "GL"
	PrefixManual       = "JE"
	PrefixDeferral     = "DEF"
	PrefixDepreciation = "DEPR"
)

// MonthKey renders the YYYYMM segment the sequence is scoped by.
func MonthKey(date time.Time) string {
	return date.Format("200601")
}

// FormatReference builds "PREFIX-YYYYMM-NNNN". The sequence resets each
// month.
func FormatReference(prefix string, date time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, MonthKey(date), seq)
}

// OpeningReference is the fixed number of a beginning-balance entry, one
// per fiscal year.
func OpeningReference(year int) string {
	return fmt.Sprintf("BAL-INIT-%04d", year)
}

// ParseReference splits a sequenced reference into prefix, month key and
// numeric suffix.
func ParseReference(ref string) (prefix, monthKey string, seq int64, err error) {
	parts := strings.Split(ref, "-")
	if len(parts) != 3 {
		return "", "", 0, fmt.Errorf("ledger: malformed reference %q", ref)
	}
	if len(parts[1]) != 6 {
		return "", "", 0, fmt.Errorf("ledger: malformed reference month in %q", ref)
	}
	seq, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("ledger: malformed reference suffix in %q", ref)
	}
	return parts[0], parts[1], seq, nil
}
