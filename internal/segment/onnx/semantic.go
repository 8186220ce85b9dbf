package onnx

import (
	"fmt"
	"image"
	"math"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/renderease/surface-tools/internal/geometry"
	"github.com/renderease/surface-tools/internal/segment"
)

// semanticInputSize is the model's fixed square input resolution.
const semanticInputSize = 512

// ADE20K class indices for the surfaces this pipeline retextures.
var surfaceClass = map[segment.Surface]int{
	segment.SurfaceWall:    0,
	segment.SurfaceFloor:   3,
	segment.SurfaceCeiling: 5,
}

// SemanticModel runs an ADE20K-trained scene parsing model and extracts
// the class plane for the requested surface.
type SemanticModel struct {
	session *ort.DynamicAdvancedSession
}

// NewSemanticModel opens the model at modelPath. libraryPath optionally
// points at the ONNX Runtime shared library.
func NewSemanticModel(modelPath, libraryPath string) (*SemanticModel, error) {
	if err := initRuntime(libraryPath); err != nil {
		return nil, fmt.Errorf("initializing onnx runtime: %w", err)
	}
	session, err := openSession(modelPath, []string{"image"}, []string{"logits"})
	if err != nil {
		return nil, err
	}
	return &SemanticModel{session: session}, nil
}

// Predict classifies every pixel and masks those whose argmax class matches
// the requested surface. The point prompt is ignored; semantic models are
// not promptable. An image with no pixels of the surface class yields an
// empty mask and zero confidence, not an error.
func (m *SemanticModel) Predict(img image.Image, surface segment.Surface, _ *geometry.Point) (*segment.Prediction, error) {
	class, ok := surfaceClass[surface]
	if !ok {
		return nil, fmt.Errorf("no class mapping for surface %q", surface)
	}

	inputData := toCHW(img, semanticInputSize)
	inputShape := ort.NewShape(1, 3, semanticInputSize, semanticInputSize)
	input, err := ort.NewTensor(inputShape, inputData)
	if err != nil {
		return nil, fmt.Errorf("creating input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := m.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("running semantic model: %w", err)
	}
	logitsTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}
	defer logitsTensor.Destroy()

	shape := logitsTensor.GetShape()
	if len(shape) != 4 {
		return nil, fmt.Errorf("unexpected logits shape %v", shape)
	}
	numClasses := int(shape[1])
	gridH := int(shape[2])
	gridW := int(shape[3])
	if class >= numClasses {
		return nil, fmt.Errorf("surface class %d outside model's %d classes", class, numClasses)
	}
	logits := logitsTensor.GetData()
	plane := gridH * gridW

	// Per-pixel argmax; score +1 where the surface class wins, -1
	// elsewhere, so maskFromScores can threshold at 0.
	scores := make([]float32, plane)
	probSum := 0.0
	probCount := 0
	for i := 0; i < plane; i++ {
		best := 0
		for c := 1; c < numClasses; c++ {
			if logits[c*plane+i] > logits[best*plane+i] {
				best = c
			}
		}
		if best == class {
			scores[i] = 1
			probSum += softmaxAt(logits, plane, i, numClasses, class)
			probCount++
		} else {
			scores[i] = -1
		}
	}

	bounds := img.Bounds()
	mask := maskFromScores(scores, gridW, gridH, bounds.Dx(), bounds.Dy())

	confidence := 0.0
	if probCount > 0 {
		confidence = probSum / float64(probCount)
	}
	return &segment.Prediction{Mask: mask, Confidence: confidence}, nil
}

// Close releases the session.
func (m *SemanticModel) Close() error {
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
	return nil
}

// softmaxAt computes the softmax probability of one class at one spatial
// position of a CHW logit block.
func softmaxAt(logits []float32, plane, i, numClasses, class int) float64 {
	maxLogit := logits[i]
	for c := 1; c < numClasses; c++ {
		if v := logits[c*plane+i]; v > maxLogit {
			maxLogit = v
		}
	}
	sum := 0.0
	for c := 0; c < numClasses; c++ {
		sum += math.Exp(float64(logits[c*plane+i] - maxLogit))
	}
	return math.Exp(float64(logits[class*plane+i]-maxLogit)) / sum
}
