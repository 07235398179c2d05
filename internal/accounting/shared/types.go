package shared

// Side identifies the debit or credit column of a posting.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool {
	return s == SideDebit || s == SideCredit
}
