package stats

import (
	"bytes"
	"encoding/json"
	"strconv"

	"shelterstats/internal/core"
)

// field is one key/value pair of an ordered JSON object.
type field struct {
	key   string
	value any
}

func marshalObject(fields []field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// categoryFields emits Dog and Cat always, Other only when non-zero.
func categoryFields(c Counts, suffix string) []field {
	out := []field{
		{core.Dog.String() + suffix, c[core.Dog]},
		{core.Cat.String() + suffix, c[core.Cat]},
	}
	if c[core.Other] > 0 {
		out = append(out, field{core.Other.String() + suffix, c[core.Other]})
	}
	return out
}

// MarshalJSON renders {"year":"2024","Dog":1,"Cat":1}.
func (p YearPoint) MarshalJSON() ([]byte, error) {
	fields := []field{{"year", strconv.Itoa(p.Year)}}
	fields = append(fields, categoryFields(p.Counts, "")...)
	return marshalObject(fields)
}

// MarshalJSON renders {"month":"Jan","Dog2024":1,"Cat2024":1,"total2024":2,...}.
func (p MonthlyPoint) MarshalJSON() ([]byte, error) {
	fields := []field{{"month", p.Month.String()[:3]}}
	for _, y := range p.Years {
		suffix := strconv.Itoa(y.Year)
		fields = append(fields, categoryFields(y.Counts, suffix)...)
		fields = append(fields, field{"total" + suffix, y.Counts.Total()})
	}
	return marshalObject(fields)
}

// MarshalJSON renders {"month":"Jan","year":"2025","Dog":48.1,"Cat":51.9,"dogs":130,"cats":140,"total":270}.
func (r ShareRow) MarshalJSON() ([]byte, error) {
	return marshalObject([]field{
		{"month", r.Month.String()[:3]},
		{"year", strconv.Itoa(r.Year)},
		{"Dog", r.Share.Dog},
		{"Cat", r.Share.Cat},
		{"dogs", r.Counts[core.Dog]},
		{"cats", r.Counts[core.Cat]},
		{"total", r.Counts.Total()},
	})
}
