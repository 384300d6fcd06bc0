// Package processor classifies input rows before they are routed to the destination or to quarantine.
package processor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	port "github.com/tigerroll/userload/pkg/batch/core/application/port"
	config "github.com/tigerroll/userload/pkg/batch/core/config"
	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
	"github.com/tigerroll/userload/pkg/batch/support/util/exception"
)

const moduleName = "validator"

// RecordValidator implements [port.RecordClassifier] for the ten-field user schema.
type RecordValidator struct {
	policy config.MalformedRecordPolicy
}

// NewRecordValidator creates a validator. policy decides whether a malformed currency
// or flag field fails the run (PolicyFail) or quarantines the row (PolicyQuarantine).
func NewRecordValidator(policy config.MalformedRecordPolicy) *RecordValidator {
	if policy == "" {
		policy = config.PolicyFail
	}
	return &RecordValidator{policy: policy}
}

var _ port.RecordClassifier = (*RecordValidator)(nil)

// Classify implements the row rules:
//   - a row equal to header is a header echo;
//   - a row shorter than model.FieldCount, or with an empty field among the first
//     model.FieldCount, is invalid and carries the whole raw row;
//   - anything else is valid and converted into a TypedRecord.
//
// A malformed typed field returns a fatal BatchError wrapping model.ErrMalformedField.
// Under PolicyQuarantine the error is skippable and the classification is KindInvalid.
func (v *RecordValidator) Classify(header, row model.RawRecord) (model.Classification, error) {
	if row.Equal(header) {
		return model.Classification{Kind: model.KindHeaderEcho, Raw: row}, nil
	}

	clean, ok := row.Clean()
	if !ok {
		return invalid(row, model.RejectShortRow), nil
	}
	if clean.HasEmptyField() {
		return invalid(row, model.RejectEmptyField), nil
	}

	rec, err := toTypedRecord(clean)
	if err != nil {
		if v.policy == config.PolicyQuarantine {
			return invalid(row, model.RejectMalformedField), exception.NewBatchError(moduleName, "malformed row routed to quarantine", err, true, false)
		}
		return model.Classification{}, exception.NewBatchError(moduleName, "malformed row", err, false, false)
	}
	return model.Classification{Kind: model.KindValid, Record: rec, Raw: row}, nil
}

func invalid(row model.RawRecord, reason string) model.Classification {
	return model.Classification{Kind: model.KindInvalid, Raw: row, Reason: reason}
}

// toTypedRecord converts the typed fields. Empty fields stay nil.
func toTypedRecord(c model.CleanRecord) (*model.TypedRecord, error) {
	rec := &model.TypedRecord{
		A: text(c[0]),
		B: text(c[1]),
		C: text(c[2]),
		D: text(c[3]),
		E: text(c[4]),
		F: text(c[5]),
		J: text(c[9]),
	}
	var err error
	if rec.G, err = ParseCurrency(c[model.CurrencyFieldIndex]); err != nil {
		return nil, fieldError(model.ColumnG, c[model.CurrencyFieldIndex], err)
	}
	if rec.H, err = ParseFlag(c[model.FirstFlagIndex]); err != nil {
		return nil, fieldError(model.ColumnH, c[model.FirstFlagIndex], err)
	}
	if rec.I, err = ParseFlag(c[model.SecondFlagIndex]); err != nil {
		return nil, fieldError(model.ColumnI, c[model.SecondFlagIndex], err)
	}
	return rec, nil
}

func fieldError(column, value string, err error) error {
	return fmt.Errorf("%w: column %s value %q: %v", model.ErrMalformedField, column, value, err)
}

func text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ParseCurrency strips one leading currency symbol (Unicode category Sc) and parses the
// rest as a decimal number. An empty value is absent.
func ParseCurrency(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	if r, size := utf8.DecodeRuneInString(s); unicode.Is(unicode.Sc, r) {
		s = s[size:]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%q is not a finite amount", s)
	}
	return &f, nil
}

// ParseFlag parses a boolean case-insensitively (true/false/t/f/1/0). An empty value is absent.
func ParseFlag(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.ToLower(s))
	if err != nil {
		return nil, err
	}
	return &b, nil
}
