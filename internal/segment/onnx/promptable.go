package onnx

import (
	"fmt"
	"image"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/renderease/surface-tools/internal/geometry"
	"github.com/renderease/surface-tools/internal/segment"
)

// Promptable model geometry: the encoder consumes a fixed square input and
// the decoder emits candidate masks on a fixed low-resolution grid.
const (
	promptInputSize = 1024
	promptMaskSize  = 256
)

// PromptableModel is an encoder/decoder pair for point-driven
// segmentation. The encoder embeds the image once; the decoder turns a
// point prompt into candidate masks with quality scores, of which the best
// is kept.
type PromptableModel struct {
	encoder *ort.DynamicAdvancedSession
	decoder *ort.DynamicAdvancedSession
}

// NewPromptableModel opens the encoder and decoder models. libraryPath
// optionally points at the ONNX Runtime shared library.
func NewPromptableModel(encoderPath, decoderPath, libraryPath string) (*PromptableModel, error) {
	if err := initRuntime(libraryPath); err != nil {
		return nil, fmt.Errorf("initializing onnx runtime: %w", err)
	}

	encoder, err := openSession(encoderPath,
		[]string{"image"},
		[]string{"image_embed", "high_res_feats_0", "high_res_feats_1"})
	if err != nil {
		return nil, err
	}
	decoder, err := openSession(decoderPath,
		[]string{"image_embed", "high_res_feats_0", "high_res_feats_1",
			"point_coords", "point_labels", "mask_input", "has_mask_input"},
		[]string{"masks", "iou_predictions"})
	if err != nil {
		encoder.Destroy()
		return nil, err
	}
	return &PromptableModel{encoder: encoder, decoder: decoder}, nil
}

// Predict segments the object under the prompt point. A nil prompt
// defaults to the image center. The decoder's candidate with the highest
// predicted quality wins; its score becomes the prediction confidence.
func (m *PromptableModel) Predict(img image.Image, _ segment.Surface, prompt *geometry.Point) (*segment.Prediction, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	px, py := width/2, height/2
	if prompt != nil {
		px, py = prompt.X, prompt.Y
	}
	// Prompt coordinates live in the encoder's input space.
	scaledX := float32(px) * promptInputSize / float32(width)
	scaledY := float32(py) * promptInputSize / float32(height)

	embed, feats0, feats1, err := m.encode(img)
	if err != nil {
		return nil, err
	}
	defer embed.Destroy()
	defer feats0.Destroy()
	defer feats1.Destroy()

	coords, err := ort.NewTensor(ort.NewShape(1, 1, 2), []float32{scaledX, scaledY})
	if err != nil {
		return nil, fmt.Errorf("creating prompt tensor: %w", err)
	}
	defer coords.Destroy()
	labels, err := ort.NewTensor(ort.NewShape(1, 1), []float32{1})
	if err != nil {
		return nil, fmt.Errorf("creating label tensor: %w", err)
	}
	defer labels.Destroy()
	maskInput, err := ort.NewTensor(ort.NewShape(1, 1, promptMaskSize, promptMaskSize),
		make([]float32, promptMaskSize*promptMaskSize))
	if err != nil {
		return nil, fmt.Errorf("creating mask input tensor: %w", err)
	}
	defer maskInput.Destroy()
	hasMask, err := ort.NewTensor(ort.NewShape(1), []float32{0})
	if err != nil {
		return nil, fmt.Errorf("creating has-mask tensor: %w", err)
	}
	defer hasMask.Destroy()

	outputs := []ort.Value{nil, nil}
	err = m.decoder.Run(
		[]ort.Value{embed, feats0, feats1, coords, labels, maskInput, hasMask},
		outputs)
	if err != nil {
		return nil, fmt.Errorf("running decoder: %w", err)
	}
	masksTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected masks output type %T", outputs[0])
	}
	defer masksTensor.Destroy()
	scoresTensor, ok := outputs[1].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected scores output type %T", outputs[1])
	}
	defer scoresTensor.Destroy()

	scores := scoresTensor.GetData()
	if len(scores) == 0 {
		return nil, fmt.Errorf("decoder returned no candidates")
	}
	best := 0
	for i := range scores {
		if scores[i] > scores[best] {
			best = i
		}
	}

	maskShape := masksTensor.GetShape()
	if len(maskShape) != 4 {
		return nil, fmt.Errorf("unexpected masks shape %v", maskShape)
	}
	gridH := int(maskShape[2])
	gridW := int(maskShape[3])
	plane := gridH * gridW
	logits := masksTensor.GetData()[best*plane : (best+1)*plane]

	mask := maskFromScores(logits, gridW, gridH, width, height)
	confidence := float64(scores[best])
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return &segment.Prediction{Mask: mask, Confidence: confidence}, nil
}

// encode runs the image encoder.
func (m *PromptableModel) encode(img image.Image) (embed, feats0, feats1 ort.Value, err error) {
	inputData := toCHW(img, promptInputSize)
	input, err := ort.NewTensor(ort.NewShape(1, 3, promptInputSize, promptInputSize), inputData)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating encoder input: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil, nil, nil}
	if err := m.encoder.Run([]ort.Value{input}, outputs); err != nil {
		return nil, nil, nil, fmt.Errorf("running encoder: %w", err)
	}
	return outputs[0], outputs[1], outputs[2], nil
}

// Close releases both sessions.
func (m *PromptableModel) Close() error {
	if m.encoder != nil {
		m.encoder.Destroy()
		m.encoder = nil
	}
	if m.decoder != nil {
		m.decoder.Destroy()
		m.decoder = nil
	}
	return nil
}
