package leads

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// ErrMissingHeader is returned when the input has no Name/Phone columns at all.
var ErrMissingHeader = errors.New("leads: input is missing Name and Phone columns")

const defaultPhoneRegion = "IN"

// ParseCSV reads tabular lead input with Name and Phone columns.
// Rows missing either field are silently skipped; phone numbers are
// normalized to E.164 when parseable and kept as-is otherwise.
// Leads come back in pending state with fresh ids.
func ParseCSV(r io.Reader, now time.Time) ([]Lead, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingHeader
		}
		return nil, err
	}

	nameIdx, phoneIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name":
			nameIdx = i
		case "phone":
			phoneIdx = i
		}
	}
	if nameIdx < 0 || phoneIdx < 0 {
		return nil, ErrMissingHeader
	}

	var out []Lead
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		name := fieldAt(row, nameIdx)
		phone := fieldAt(row, phoneIdx)
		if name == "" || phone == "" {
			continue
		}

		out = append(out, Lead{
			ID:        uuid.NewString(),
			Name:      name,
			Phone:     NormalizePhone(phone),
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out, nil
}

// NormalizePhone formats a phone number to E.164. If parsing fails or the
// number is invalid, it returns the trimmed input unchanged; import must
// never reject a row over formatting.
func NormalizePhone(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultPhoneRegion)
	if err != nil {
		return trimmed
	}
	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

func fieldAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
