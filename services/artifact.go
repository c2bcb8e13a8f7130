package services

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"flight-price-api/models"

	"github.com/xh3b4sd/tracer"
)

// Artifact file names, matching the training pipeline's export naming.
var artifactFiles = map[string]string{
	models.RandomForest: "random_forest_regressor_model.json",
	models.XGBoost:      "xgb_regressor_model.json",
	models.ExtraTrees:   "extra_trees_regressor_model.json",
	models.DecisionTree: "decision_tree_regressor_model.json",
}

const (
	combineAverage = "average"
	combineSum     = "sum"
)

// tree is one regression tree in flattened array form. Node i is a leaf iff
// Left[i] < 0, in which case Value[i] is the leaf output; otherwise the walk
// continues left when row[Feature[i]] <= Threshold[i] and right otherwise.
type tree struct {
	Feature   []int     `json:"feature"`
	Threshold []float64 `json:"threshold"`
	Left      []int     `json:"left"`
	Right     []int     `json:"right"`
	Value     []float64 `json:"value"`
}

// Ensemble is one trained model artifact. The struct is opaque to callers
// beyond Predict; training, pruning and export all live in the external
// pipeline.
type Ensemble struct {
	ModelName string  `json:"model_name"`
	Version   string  `json:"version"`
	NFeatures int     `json:"n_features"`
	Combine   string  `json:"combine"`
	BaseScore float64 `json:"base_score"`
	Trees     []tree  `json:"trees"`
}

// LoadEnsemble reads and validates one artifact file.
func LoadEnsemble(path string) (*Ensemble, error) {
	byt, err := os.ReadFile(path)
	if err != nil {
		return nil, tracer.Mask(err)
	}

	var ens Ensemble
	if err := json.Unmarshal(byt, &ens); err != nil {
		return nil, tracer.Mask(err)
	}

	if err := ens.validate(); err != nil {
		return nil, tracer.Maskf(invalidArtifactError, "%s: %s", path, err)
	}

	return &ens, nil
}

func (e *Ensemble) validate() error {
	if e.NFeatures <= 0 {
		return fmt.Errorf("n_features must be positive, got %d", e.NFeatures)
	}
	if e.Combine != combineAverage && e.Combine != combineSum {
		return fmt.Errorf("unknown combine mode %q", e.Combine)
	}
	if len(e.Trees) == 0 {
		return fmt.Errorf("ensemble has no trees")
	}
	for i, t := range e.Trees {
		n := len(t.Feature)
		if len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n || len(t.Value) != n {
			return fmt.Errorf("tree %d has inconsistent node arrays", i)
		}
		if n == 0 {
			return fmt.Errorf("tree %d is empty", i)
		}
		for node := 0; node < n; node++ {
			if t.Left[node] < 0 {
				continue // leaf
			}
			if t.Feature[node] < 0 || t.Feature[node] >= e.NFeatures {
				return fmt.Errorf("tree %d node %d splits on feature %d of %d", i, node, t.Feature[node], e.NFeatures)
			}
			if t.Left[node] >= n || t.Right[node] < 0 || t.Right[node] >= n {
				return fmt.Errorf("tree %d node %d has out-of-range children", i, node)
			}
		}
	}
	return nil
}

// Predict evaluates the ensemble on one feature row. The result is guaranteed
// finite; a non-finite combination is reported as an inference failure rather
// than leaking NaN to callers.
func (e *Ensemble) Predict(row []float64) (float64, error) {
	if len(row) != e.NFeatures {
		return 0, models.NewAppError("artifact.predict", models.KindInference,
			fmt.Sprintf("model %s expects %d features, got %d", e.ModelName, e.NFeatures, len(row)), nil)
	}

	sum := e.BaseScore
	for i := range e.Trees {
		sum += e.Trees[i].evaluate(row)
	}

	price := sum
	if e.Combine == combineAverage {
		price = sum / float64(len(e.Trees))
	}

	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, models.NewAppError("artifact.predict", models.KindInference,
			fmt.Sprintf("model %s produced a non-finite prediction", e.ModelName), nil)
	}

	return price, nil
}

func (t *tree) evaluate(row []float64) float64 {
	node := 0
	for t.Left[node] >= 0 {
		if row[t.Feature[node]] <= t.Threshold[node] {
			node = t.Left[node]
		} else {
			node = t.Right[node]
		}
	}
	return t.Value[node]
}

// ModelRegistry holds every served ensemble, keyed by canonical model name.
// All artifacts load at startup; a missing or corrupt file keeps the process
// from coming up.
type ModelRegistry struct {
	ensembles    map[string]*Ensemble
	defaultModel string
}

func LoadRegistry(modelsDir, defaultModel string) (*ModelRegistry, error) {
	if !models.KnownModel(defaultModel) {
		return nil, tracer.Maskf(invalidArtifactError, "default model %q is not a served model", defaultModel)
	}

	ensembles := make(map[string]*Ensemble, len(models.ModelNames))
	for _, name := range models.ModelNames {
		ens, err := LoadEnsemble(filepath.Join(modelsDir, artifactFiles[name]))
		if err != nil {
			return nil, tracer.Mask(err)
		}
		ensembles[name] = ens
	}

	return &ModelRegistry{ensembles: ensembles, defaultModel: defaultModel}, nil
}

// Resolve maps a requested model name to its ensemble. An empty name selects
// the configured default; a non-empty unknown name is rejected outright
// instead of being silently substituted.
func (r *ModelRegistry) Resolve(name string) (*Ensemble, error) {
	if name == "" {
		name = r.defaultModel
	}
	ens, ok := r.ensembles[name]
	if !ok {
		return nil, models.NewAppError("registry.resolve", models.KindInvalidModel,
			fmt.Sprintf("unknown model_name %q", name), nil)
	}
	return ens, nil
}

// DefaultModel returns the name of the model used when a request does not
// name one.
func (r *ModelRegistry) DefaultModel() string {
	return r.defaultModel
}
