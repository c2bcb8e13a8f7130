package services

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"flight-price-api/models"

	"github.com/xh3b4sd/tracer"
)

// CategoryFields are the categorical columns of a flight query, in training
// column order. Every field must be present in the encoding tables.
var CategoryFields = []string{
	"airline",
	"source_city",
	"departure_time",
	"stops",
	"arrival_time",
	"destination_city",
	"class",
}

// MappingTable is the bidirectional label<->code table exported by the
// training pipeline. Loaded once at startup and immutable afterwards.
type MappingTable struct {
	forward map[string]map[string]int
	inverse map[string]map[int]string
}

// LoadMappingTable reads the forward and inverse mapping files and validates
// them against each other. The process must not come up on an inconsistent or
// incomplete table, so any defect here is a startup failure.
func LoadMappingTable(mappingsFile, inverseFile string) (*MappingTable, error) {
	var forward map[string]map[string]int
	{
		byt, err := os.ReadFile(mappingsFile)
		if err != nil {
			return nil, tracer.Mask(err)
		}
		if err := json.Unmarshal(byt, &forward); err != nil {
			return nil, tracer.Mask(err)
		}
	}

	var rawInverse map[string]map[string]string
	{
		byt, err := os.ReadFile(inverseFile)
		if err != nil {
			return nil, tracer.Mask(err)
		}
		if err := json.Unmarshal(byt, &rawInverse); err != nil {
			return nil, tracer.Mask(err)
		}
	}

	inverse := make(map[string]map[int]string, len(rawInverse))
	for field, codes := range rawInverse {
		inverse[field] = make(map[int]string, len(codes))
		for codeStr, label := range codes {
			code, err := strconv.Atoi(codeStr)
			if err != nil {
				return nil, tracer.Maskf(invalidMappingError, "field %q has non-integer code %q", field, codeStr)
			}
			inverse[field][code] = label
		}
	}

	tab := &MappingTable{forward: forward, inverse: inverse}
	if err := tab.validate(); err != nil {
		return nil, tracer.Mask(err)
	}

	return tab, nil
}

func (t *MappingTable) validate() error {
	for _, field := range CategoryFields {
		labels, ok := t.forward[field]
		if !ok || len(labels) == 0 {
			return tracer.Maskf(invalidMappingError, "field %q missing from encoding mappings", field)
		}
		codes, ok := t.inverse[field]
		if !ok || len(codes) == 0 {
			return tracer.Maskf(invalidMappingError, "field %q missing from inverse mappings", field)
		}
		for label, code := range labels {
			back, ok := codes[code]
			if !ok {
				return tracer.Maskf(invalidMappingError, "field %q code %d has no inverse entry", field, code)
			}
			if back != label {
				return tracer.Maskf(invalidMappingError, "field %q code %d maps back to %q, want %q", field, code, back, label)
			}
		}
	}
	return nil
}

// Encode translates a category label to its integer code. Unknown labels are
// a validation failure, not a silent default: the table is the complete
// enumeration the models were trained on.
func (t *MappingTable) Encode(field, label string) (int, error) {
	labels, ok := t.forward[field]
	if !ok {
		return 0, models.NewAppError("mapping.encode", models.KindValidation,
			fmt.Sprintf("unknown categorical field %q", field), nil)
	}
	code, ok := labels[label]
	if !ok {
		return 0, models.NewAppError("mapping.encode", models.KindValidation,
			fmt.Sprintf("unknown %s category %q", field, label), nil)
	}
	return code, nil
}

// Decode translates an integer code back to its label.
func (t *MappingTable) Decode(field string, code int) (string, error) {
	codes, ok := t.inverse[field]
	if !ok {
		return "", models.NewAppError("mapping.decode", models.KindData,
			fmt.Sprintf("unknown categorical field %q", field), nil)
	}
	label, ok := codes[code]
	if !ok {
		return "", models.NewAppError("mapping.decode", models.KindData,
			fmt.Sprintf("field %s has no category for code %d", field, code), nil)
	}
	return label, nil
}

// Airlines returns every airline label in ascending code order. This is the
// fixed enumeration order of the per-airline batch prediction.
func (t *MappingTable) Airlines() []string {
	codes := make([]int, 0, len(t.inverse["airline"]))
	for code := range t.inverse["airline"] {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	airlines := make([]string, 0, len(codes))
	for _, code := range codes {
		airlines = append(airlines, t.inverse["airline"][code])
	}
	return airlines
}

// InverseMappings returns the full code->label table in the JSON shape the
// dashboard consumes (codes as string keys).
func (t *MappingTable) InverseMappings() map[string]map[string]string {
	out := make(map[string]map[string]string, len(t.inverse))
	for field, codes := range t.inverse {
		out[field] = make(map[string]string, len(codes))
		for code, label := range codes {
			out[field][strconv.Itoa(code)] = label
		}
	}
	return out
}
