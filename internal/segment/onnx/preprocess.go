package onnx

import (
	"image"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// ImageNet normalization constants, matching the training recipe of both
// bundled models.
var (
	chwMean = [3]float32{0.485, 0.456, 0.406}
	chwStd  = [3]float32{0.229, 0.224, 0.225}
)

// toCHW resizes an image to size x size and lays it out as a normalized
// 1x3xSxS tensor in channel-major order.
func toCHW(img image.Image, size int) []float32 {
	resized := imaging.Resize(img, size, size, imaging.Linear)

	data := make([]float32, 3*size*size)
	plane := size * size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			off := resized.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := float32(resized.Pix[off+c]) / 255
				data[c*plane+y*size+x] = (v - chwMean[c]) / chwStd[c]
			}
		}
	}
	return data
}

// maskFromScores thresholds a score plane at 0 and rescales the resulting
// binary mask to the requested output dimensions with nearest-neighbor
// sampling, keeping it strictly binary.
func maskFromScores(scores []float32, scoreW, scoreH, outW, outH int) *image.Gray {
	small := image.NewGray(image.Rect(0, 0, scoreW, scoreH))
	for y := 0; y < scoreH; y++ {
		for x := 0; x < scoreW; x++ {
			if scores[y*scoreW+x] > 0 {
				small.Pix[small.PixOffset(x, y)] = 255
			}
		}
	}
	if scoreW == outW && scoreH == outH {
		return small
	}

	out := image.NewGray(image.Rect(0, 0, outW, outH))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), small, small.Bounds(), xdraw.Src, nil)
	// Rescaling through Gray stays 0/255, but guard against codec-style
	// rounding from the scaler.
	for i, v := range out.Pix {
		if v > 127 {
			out.Pix[i] = 255
		} else {
			out.Pix[i] = 0
		}
	}
	return out
}
