package model

import "errors"

// FieldCount is the number of fields of the user schema. Only the first FieldCount fields of a row are considered.
const FieldCount = 10

// Column names of the destination table, in input order.
const (
	ColumnA = "A"
	ColumnB = "B"
	ColumnC = "C"
	ColumnD = "D" // enumerated, see GenderValues
	ColumnE = "E"
	ColumnF = "F"
	ColumnG = "G" // currency amount
	ColumnH = "H" // flag
	ColumnI = "I" // flag
	ColumnJ = "J"
)

// ColumnNames lists the destination columns in positional order.
var ColumnNames = [FieldCount]string{ColumnA, ColumnB, ColumnC, ColumnD, ColumnE, ColumnF, ColumnG, ColumnH, ColumnI, ColumnJ}

// GenderValues is the closed set accepted by column D (besides NULL).
var GenderValues = []string{"Male", "Female"}

// Positions of the typed fields within a CleanRecord.
const (
	CurrencyFieldIndex = 6
	FirstFlagIndex     = 7
	SecondFlagIndex    = 8
)

var (
	// ErrMalformedField is wrapped when a non-empty typed field (currency or flag) cannot be parsed.
	ErrMalformedField = errors.New("malformed typed field")
	// ErrInputNotFound is wrapped when the configured input location does not exist.
	ErrInputNotFound = errors.New("input not found")
)

// RawRecord is one row exactly as it was read from the input.
type RawRecord []string

// Equal reports whether r and other have the same fields in the same order.
func (r RawRecord) Equal(other RawRecord) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// Clean returns the first FieldCount fields of r. ok is false when r is structurally too short.
func (r RawRecord) Clean() (c CleanRecord, ok bool) {
	if len(r) < FieldCount {
		return c, false
	}
	copy(c[:], r[:FieldCount])
	return c, true
}

// CleanRecord holds the first FieldCount fields of a RawRecord.
type CleanRecord [FieldCount]string

// HasEmptyField reports whether any of the fields is the empty string.
func (c CleanRecord) HasEmptyField() bool {
	for _, f := range c {
		if f == "" {
			return true
		}
	}
	return false
}

// TypedRecord is a CleanRecord after per-field conversion. A nil field is absent and is
// left at the destination's default instead of being written.
type TypedRecord struct {
	A *string  `gorm:"column:A"`
	B *string  `gorm:"column:B"`
	C *string  `gorm:"column:C"`
	D *string  `gorm:"column:D"`
	E *string  `gorm:"column:E"`
	F *string  `gorm:"column:F"`
	G *float64 `gorm:"column:G"`
	H *bool    `gorm:"column:H"`
	I *bool    `gorm:"column:I"`
	J *string  `gorm:"column:J"`
}

// Values returns the ten column values in positional order, with nil for absent fields.
func (t TypedRecord) Values() []interface{} {
	vals := make([]interface{}, 0, FieldCount)
	for _, s := range []*string{t.A, t.B, t.C, t.D, t.E, t.F} {
		vals = append(vals, optional(s))
	}
	vals = append(vals, optional(t.G), optional(t.H), optional(t.I), optional(t.J))
	return vals
}

func optional[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// ClassificationKind is the outcome of validating one row.
type ClassificationKind int

const (
	// KindHeaderEcho marks a repeated header row; it is neither counted nor routed.
	KindHeaderEcho ClassificationKind = iota
	// KindValid marks a row to be loaded into the destination.
	KindValid
	// KindInvalid marks a row to be written verbatim to quarantine.
	KindInvalid
)

// String returns a readable name for the kind.
func (k ClassificationKind) String() string {
	switch k {
	case KindHeaderEcho:
		return "HEADER_ECHO"
	case KindValid:
		return "VALID"
	case KindInvalid:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

// Reasons attached to KindInvalid classifications.
const (
	RejectShortRow       = "short_row"
	RejectEmptyField     = "empty_field"
	RejectMalformedField = "malformed_field"
)

// Classification is the result of validating one row.
// Record is set for KindValid; Raw always holds the full original row.
type Classification struct {
	Kind   ClassificationKind
	Record *TypedRecord
	Raw    RawRecord
	// Reason is one of the Reject* constants for KindInvalid, empty otherwise.
	Reason string
}
