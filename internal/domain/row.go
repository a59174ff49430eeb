package domain

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/morikuni/failure/v2"
)

// Boolean tokens of the serialized row format
const (
	TrueToken  = "True"
	FalseToken = "False"
)

// Columns is the fixed column order of the serialized row format
var Columns = []string{
	"source",
	"name",
	"description",
	"date_published",
	"employer_name",
	"id_source",
	"salary_range_lower",
	"salary_range_upper",
	"salary_currency",
	"salary_gross_indicator",
	"schedule_type",
	"employment_type",
	"region",
	"cover_letter_required",
	"employer_id_hh",
	"experience_range_hh",
	"test_required_hh",
	"test_included_hh",
}

// EncodeRow string-encodes v in Columns order. Unset values become "".
func EncodeRow(v Vacancy) []string {
	date := ""
	if !v.DatePublished.IsZero() {
		date = v.DatePublished.Format(DateLayout)
	}

	return []string{
		v.Source,
		v.Name,
		v.Description,
		date,
		str(v.EmployerName),
		v.SourceID,
		integer(v.SalaryRangeLower),
		integer(v.SalaryRangeUpper),
		str(v.SalaryCurrency),
		boolean(v.SalaryGrossIndicator),
		str(v.ScheduleType),
		str(v.EmploymentType),
		str(v.Region),
		boolean(v.CoverLetterRequired),
		str(v.EmployerIDHH),
		str(v.ExperienceRangeHH),
		boolean(v.TestRequiredHH),
		boolean(v.TestIncludedHH),
	}
}

// EncodeRowAs encodes v for a file or sheet whose header lists a subset of
// Columns in its own order. Columns outside Columns are left blank.
func EncodeRowAs(v Vacancy, header []string) []string {
	row := EncodeRow(v)

	values := make(map[string]string, len(Columns))
	for i, col := range Columns {
		values[col] = row[i]
	}

	out := make([]string, len(header))
	for i, col := range header {
		out[i] = values[col]
	}
	return out
}

// DecodeRow rebuilds a Vacancy from one serialized row.
// The string-ification is reversed first: blank values become unset and the
// True/False tokens become booleans. Remaining strings are converted to the
// field type. A column unknown to Vacancy, a row whose width differs from the
// header, or an unconvertible value is ErrMalformedInput.
func DecodeRow(header, values []string) (Vacancy, error) {
	if len(values) != len(header) {
		return Vacancy{}, failure.New(ErrMalformedInput,
			failure.Message("Row width does not match header"),
			failure.Context{
				"columns": strconv.Itoa(len(header)),
				"values":  strconv.Itoa(len(values)),
			},
		)
	}

	raw := make(map[string]any, len(header))
	for i, column := range header {
		raw[column] = ReverseStringify(values[i])
	}

	var v Vacancy
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "row",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			rejectBoolCoercionHook,
			boolTokenToStringHook,
			mapstructure.StringToTimeHookFunc(DateLayout),
		),
		Result: &v,
	})
	if err != nil {
		return Vacancy{}, failure.Wrap(err)
	}

	if err := decoder.Decode(raw); err != nil {
		return Vacancy{}, failure.Wrap(err, failure.WithCode(ErrMalformedInput),
			failure.Message("Row does not match vacancy fields"),
		)
	}

	return v, nil
}

// ReverseStringify undoes the lossy string encoding of a single value
func ReverseStringify(value string) any {
	switch {
	case strings.TrimSpace(value) == "":
		return nil
	case value == TrueToken:
		return true
	case value == FalseToken:
		return false
	default:
		return value
	}
}

// rejectBoolCoercionHook stops weak typing from turning a boolean token into
// 1 or 0 in a numeric column
func rejectBoolCoercionHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	if f.Kind() != reflect.Bool {
		return data, nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String, reflect.Interface:
		return data, nil
	}
	return nil, fmt.Errorf("boolean token cannot be stored in a %s field", t)
}

// boolTokenToStringHook keeps a literal "True"/"False" in string columns
func boolTokenToStringHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	if f.Kind() != reflect.Bool || t.Kind() != reflect.String {
		return data, nil
	}
	if data.(bool) {
		return TrueToken, nil
	}
	return FalseToken, nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func integer(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func boolean(p *bool) string {
	if p == nil {
		return ""
	}
	if *p {
		return TrueToken
	}
	return FalseToken
}
