package services

import (
	"encoding/csv"
	"fmt"
	"os"

	"flight-price-api/models"
)

// ReadDatasetRecords reads the raw backing dataset CSV as field-keyed
// records, the pass-through shape GET /data serves. Values stay strings; the
// dashboard does its own coercion.
func ReadDatasetRecords(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.NewAppError("dataset.read", models.KindNotFound,
				fmt.Sprintf("dataset file %s not found", path), err)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	raw, err := r.ReadAll()
	if err != nil {
		return nil, models.NewAppError("dataset.read", models.KindData,
			fmt.Sprintf("malformed CSV %s", path), err)
	}
	if len(raw) < 1 {
		return nil, models.NewAppError("dataset.read", models.KindData,
			fmt.Sprintf("%s has no header row", path), nil)
	}

	header := raw[0]
	records := make([]map[string]string, 0, len(raw)-1)
	for _, rec := range raw[1:] {
		fields := make(map[string]string, len(header))
		for i, name := range header {
			fields[name] = rec[i]
		}
		records = append(records, fields)
	}

	return records, nil
}
