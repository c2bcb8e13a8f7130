package models

// Canonical model names, matching the identifiers the training pipeline used
// when exporting artifacts and result CSVs.
const (
	RandomForest = "RandomForestRegressor"
	XGBoost      = "XGBRegressor"
	ExtraTrees   = "ExtraTreesRegressor"
	DecisionTree = "DecisionTreeRegressor"
)

// ModelNames is the fixed enumeration of served models. Order matters: the
// batch aggregator merges result files in this order.
var ModelNames = []string{RandomForest, XGBoost, ExtraTrees, DecisionTree}

// KnownModel reports whether name is part of the served enumeration.
func KnownModel(name string) bool {
	for _, m := range ModelNames {
		if m == name {
			return true
		}
	}
	return false
}
