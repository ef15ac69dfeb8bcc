package predict

import (
	"os"

	"github.com/chewxy/math32"
	"gopkg.in/yaml.v3"

	"codeberg.org/mkern/printmond/internal/errors"
	"codeberg.org/mkern/printmond/internal/feature"
)

// Model is a small int8-quantized linear classifier mapping the feature
// vector to a success probability. The weight file is produced offline;
// inference is a single dot product so it always fits well inside the
// 100 ms budget.
type Model struct {
	weights  [feature.Size]int8
	bias     float32
	inScale  float32
	inZero   int32
	outScale float32
}

type modelFile struct {
	Version  int      `yaml:"version"`
	Weights  []int8   `yaml:"weights"`
	Features []string `yaml:"features"`
	Bias     float32  `yaml:"bias"`
	InScale  float32  `yaml:"input_scale"`
	InZero   int32    `yaml:"input_zero_point"`
	OutScale float32  `yaml:"output_scale"`
}

// LoadModel reads a quantized weight file.
func LoadModel(path string) (*Model, error) {
	errFactory := errors.New()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrModelLoad, err)
	}

	var mf modelFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return nil, errFactory.Wrap(errors.ErrModelLoad, err)
	}

	if len(mf.Weights) != feature.Size {
		return nil, errFactory.WithData(errors.ErrModelLoad, len(mf.Weights))
	}
	if mf.InScale <= 0 || mf.OutScale <= 0 {
		return nil, errFactory.WithMessage(errors.ErrModelLoad, "non-positive quantization scale")
	}

	// Weight files exported with a feature list must match the order
	// this build extracts in, or every weight lands on the wrong input.
	if len(mf.Features) > 0 {
		names := feature.Names()
		if len(mf.Features) != len(names) {
			return nil, errFactory.WithData(errors.ErrModelLoad, mf.Features)
		}
		for i, want := range names {
			if mf.Features[i] != want {
				return nil, errFactory.WithMessage(errors.ErrModelLoad, "feature order mismatch: "+mf.Features[i])
			}
		}
	}

	m := &Model{
		bias:     mf.Bias,
		inScale:  mf.InScale,
		inZero:   mf.InZero,
		outScale: mf.OutScale,
	}
	copy(m.weights[:], mf.Weights)

	return m, nil
}

// Infer maps a feature vector to (success probability, confidence).
func (m *Model) Infer(v feature.Vector) (float64, float64, error) {
	errFactory := errors.New()

	var acc int32
	for i, w := range m.weights {
		q := quantize(v[i], m.inScale, m.inZero)
		acc += int32(w) * (q - m.inZero)
	}

	logit := float32(acc)*m.inScale*m.outScale + m.bias
	if math32.IsNaN(logit) || math32.IsInf(logit, 0) {
		return 0, 0, errFactory.WithData(errors.ErrInference, logit)
	}

	prob := float64(sigmoid32(logit))

	// Distance from the decision boundary doubles as a confidence
	// proxy; saturated logits read as highly confident.
	conf := float64(clampConf(0.5 + math32.Abs(logit)/4.0))

	return prob, conf, nil
}

func quantize(x, scale float32, zero int32) int32 {
	q := int32(math32.Round(x/scale)) + zero
	if q < -128 {
		return -128
	}
	if q > 127 {
		return 127
	}
	return q
}

func sigmoid32(x float32) float32 {
	return 1.0 / (1.0 + math32.Exp(-x))
}

func clampConf(c float32) float32 {
	if c < 0 {
		return 0
	}
	if c > 0.95 {
		return 0.95
	}
	return c
}
