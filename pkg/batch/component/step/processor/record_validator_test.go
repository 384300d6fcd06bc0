package processor_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/userload/pkg/batch/component/step/processor"
	config "github.com/tigerroll/userload/pkg/batch/core/config"
	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
	"github.com/tigerroll/userload/pkg/batch/support/util/exception"
)

var header = model.RawRecord{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}

func validRow() model.RawRecord {
	return model.RawRecord{"Ada", "Lovelace", "ada@example.com", "Female", "data:image/png;base64,AA==", "Visa", "$12.50", "TRUE", "false", "London"}
}

func TestClassify_HeaderEcho(t *testing.T) {
	v := processor.NewRecordValidator(config.PolicyFail)
	c, err := v.Classify(header, append(model.RawRecord(nil), header...))
	require.NoError(t, err)
	assert.Equal(t, model.KindHeaderEcho, c.Kind)
	assert.Nil(t, c.Record)
}

func TestClassify_Valid(t *testing.T) {
	v := processor.NewRecordValidator(config.PolicyFail)
	c, err := v.Classify(header, validRow())
	require.NoError(t, err)
	require.Equal(t, model.KindValid, c.Kind)

	rec := c.Record
	require.NotNil(t, rec)
	assert.Equal(t, "Ada", *rec.A)
	assert.Equal(t, "Female", *rec.D)
	assert.InDelta(t, 12.50, *rec.G, 1e-9)
	assert.True(t, *rec.H)
	assert.False(t, *rec.I)
	assert.Equal(t, "London", *rec.J)
	assert.Empty(t, c.Reason)
}

func TestClassify_ExtraFieldsIgnoredForValidation(t *testing.T) {
	v := processor.NewRecordValidator(config.PolicyFail)
	row := append(validRow(), "", "trailing")
	c, err := v.Classify(header, row)
	require.NoError(t, err)
	assert.Equal(t, model.KindValid, c.Kind)
	assert.Equal(t, row, c.Raw)
}

func TestClassify_EmptyFieldIsInvalidWithFullRow(t *testing.T) {
	v := processor.NewRecordValidator(config.PolicyFail)
	row := append(validRow(), "eleventh")
	row[3] = ""

	c, err := v.Classify(header, row)
	require.NoError(t, err)
	assert.Equal(t, model.KindInvalid, c.Kind)
	assert.Equal(t, model.RejectEmptyField, c.Reason)
	assert.Equal(t, row, c.Raw, "the whole raw row is kept, not only the first ten fields")
	assert.Nil(t, c.Record)
}

func TestClassify_ShortRowIsInvalid(t *testing.T) {
	v := processor.NewRecordValidator(config.PolicyFail)
	c, err := v.Classify(header, model.RawRecord{"only", "three", "fields"})
	require.NoError(t, err)
	assert.Equal(t, model.KindInvalid, c.Kind)
	assert.Equal(t, model.RejectShortRow, c.Reason)
}

func TestClassify_MalformedFieldFailsByDefault(t *testing.T) {
	v := processor.NewRecordValidator("")
	row := validRow()
	row[model.CurrencyFieldIndex] = "$twelve"

	_, err := v.Classify(header, row)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMalformedField))
	assert.True(t, exception.IsFatal(err))
}

func TestClassify_MalformedFieldQuarantinePolicy(t *testing.T) {
	v := processor.NewRecordValidator(config.PolicyQuarantine)
	row := validRow()
	row[model.FirstFlagIndex] = "maybe"

	c, err := v.Classify(header, row)
	require.Error(t, err)
	assert.True(t, exception.IsSkippable(err))
	assert.Equal(t, model.KindInvalid, c.Kind)
	assert.Equal(t, model.RejectMalformedField, c.Reason)
	assert.Equal(t, row, c.Raw)
}

func TestParseCurrency(t *testing.T) {
	cases := map[string]struct {
		in      string
		want    float64
		wantErr bool
	}{
		"dollar":         {in: "$12.50", want: 12.50},
		"euro":           {in: "€7", want: 7},
		"no symbol":      {in: "3.25", want: 3.25},
		"negative":       {in: "$-1.10", want: -1.10},
		"only one strip": {in: "$$1", wantErr: true},
		"letters":        {in: "$abc", wantErr: true},
		"not finite":     {in: "$NaN", wantErr: true},
		"infinite":       {in: "Inf", wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := processor.ParseCurrency(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, *got, 1e-9)
		})
	}

	got, err := processor.ParseCurrency("")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseFlag(t *testing.T) {
	for _, in := range []string{"true", "TRUE", "True", "tRuE", "t", "1"} {
		got, err := processor.ParseFlag(in)
		require.NoError(t, err, in)
		assert.True(t, *got, in)
	}
	for _, in := range []string{"false", "FALSE", "f", "0"} {
		got, err := processor.ParseFlag(in)
		require.NoError(t, err, in)
		assert.False(t, *got, in)
	}
	_, err := processor.ParseFlag("yes")
	assert.Error(t, err)

	got, err := processor.ParseFlag("")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
