package predict_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mkern/printmond/internal/clock"
	"codeberg.org/mkern/printmond/internal/predict"
)

func writeModelFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "quality.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const zeroWeightModel = `
version: 1
weights: [0, 0, 0, 0, 0, 0, 0, 0, 0, 0]
bias: 2.0
input_scale: 0.05
input_zero_point: -128
output_scale: 0.01
`

func TestLoadModelAndInfer(t *testing.T) {
	path := writeModelFile(t, zeroWeightModel)

	m, err := predict.LoadModel(path)
	require.NoError(t, err)

	// Zero weights leave only the bias: sigmoid(2.0).
	prob, conf, err := m.Infer(healthyVector())
	require.NoError(t, err)
	assert.InDelta(t, 0.8808, prob, 0.001)
	assert.InDelta(t, 0.95, conf, 1e-6, "saturated logit reads as max confidence")
}

func TestLoadModelRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "wrong weight count",
			content: `
version: 1
weights: [1, 2, 3]
bias: 0.0
input_scale: 0.05
input_zero_point: -128
output_scale: 0.01
`,
		},
		{
			name: "non-positive scale",
			content: `
version: 1
weights: [0, 0, 0, 0, 0, 0, 0, 0, 0, 0]
bias: 0.0
input_scale: 0.0
input_zero_point: -128
output_scale: 0.01
`,
		},
		{
			name:    "not yaml",
			content: "{{{",
		},
		{
			name: "feature order mismatch",
			content: `
version: 1
weights: [0, 0, 0, 0, 0, 0, 0, 0, 0, 0]
features: [bed_norm, hotend_norm, flow_norm, thermal_uniformity, flow_stability, motor_current_stability, thermal_gradient, layer_progress, completion, print_speed]
bias: 0.0
input_scale: 0.05
input_zero_point: -128
output_scale: 0.01
`,
		},
		{
			name: "truncated feature list",
			content: `
version: 1
weights: [0, 0, 0, 0, 0, 0, 0, 0, 0, 0]
features: [hotend_norm, bed_norm]
bias: 0.0
input_scale: 0.05
input_zero_point: -128
output_scale: 0.01
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := predict.LoadModel(writeModelFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadModelAcceptsMatchingFeatureList(t *testing.T) {
	content := `
version: 1
weights: [0, 0, 0, 0, 0, 0, 0, 0, 0, 0]
features: [hotend_norm, bed_norm, flow_norm, thermal_uniformity, flow_stability, motor_current_stability, thermal_gradient, layer_progress, completion, print_speed]
bias: 2.0
input_scale: 0.05
input_zero_point: -128
output_scale: 0.01
`
	_, err := predict.LoadModel(writeModelFile(t, content))
	assert.NoError(t, err)
}

func TestLoadModelMissingFile(t *testing.T) {
	_, err := predict.LoadModel(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPredictorUsesModel(t *testing.T) {
	m, err := predict.LoadModel(writeModelFile(t, zeroWeightModel))
	require.NoError(t, err)

	p := predict.New(clock.NewFake(), m, 1000, nil)
	pred, ok := p.MaybePredict(healthyVector())
	require.True(t, ok)

	assert.True(t, pred.FromModel)
	assert.InDelta(t, 0.8808, pred.SuccessProbability, 0.001)
}

func TestPredictorFallsBackOnInferenceError(t *testing.T) {
	// A NaN bias poisons the logit, forcing the rule path.
	m, err := predict.LoadModel(writeModelFile(t, `
version: 1
weights: [0, 0, 0, 0, 0, 0, 0, 0, 0, 0]
bias: .nan
input_scale: 0.05
input_zero_point: -128
output_scale: 0.01
`))
	require.NoError(t, err)

	p := predict.New(clock.NewFake(), m, 1000, nil)
	pred, ok := p.MaybePredict(healthyVector())
	require.True(t, ok)

	assert.False(t, pred.FromModel)
	assert.GreaterOrEqual(t, pred.SuccessProbability, 0.8, "rule path serves the healthy vector")
	assert.LessOrEqual(t, pred.Confidence, 0.7)
}
