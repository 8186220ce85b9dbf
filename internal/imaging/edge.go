package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

// ErrInvalidParameter indicates a malformed argument such as a reversed
// threshold pair or an empty image. It is surfaced immediately and never
// retried.
var ErrInvalidParameter = errors.New("invalid parameter")

// DetectEdges performs Canny edge detection and returns a binary edge map.
//
// The returned map is a grayscale image anchored at (0,0) with the same
// dimensions as the input, where edge pixels are 255 and non-edges are 0.
// A fresh buffer is allocated on every call; the input is never modified.
//
// Parameters:
//   - img: Source image (color or grayscale).
//   - lowThreshold: Weak-edge threshold (0-255). Gradient responses below
//     this are discarded outright.
//   - highThreshold: Strong-edge threshold (0-255). Responses above this are
//     always kept.
//
// Returns ErrInvalidParameter when lowThreshold > highThreshold, when either
// threshold is negative, or when the image has zero area.
//
// # Algorithm
//
//  1. Grayscale conversion using ITU-R BT.601 luma weights
//  2. 5x5 Gaussian blur (sigma ~1.4) to suppress noise
//  3. Sobel gradients, magnitude and direction
//  4. Non-maximum suppression along the gradient direction
//  5. Hysteresis: strong responses seed a flood that keeps any weak response
//     reachable through 8-connected weak neighbors
//
// The two-threshold hysteresis step keeps faint but continuous boundaries
// intact while rejecting isolated noise; a single threshold fragments the
// lines the downstream Hough stage depends on.
//
// Typical thresholds: 50/150 for interior photographs, 100/200 for very
// noisy input.
func DetectEdges(img image.Image, lowThreshold, highThreshold int) (*image.Gray, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidParameter)
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: image has zero area", ErrInvalidParameter)
	}
	if lowThreshold < 0 || highThreshold < 0 {
		return nil, fmt.Errorf("%w: thresholds must be non-negative (got %d/%d)",
			ErrInvalidParameter, lowThreshold, highThreshold)
	}
	if lowThreshold > highThreshold {
		return nil, fmt.Errorf("%w: low threshold %d exceeds high threshold %d",
			ErrInvalidParameter, lowThreshold, highThreshold)
	}

	gray := lumaPlane(img)
	blurred := gaussianBlur(gray, width, height)
	magnitude, direction := sobelGradients(blurred, width, height)
	suppressed := suppressNonMaxima(magnitude, direction, width, height)

	low := float64(lowThreshold) / 255.0
	high := float64(highThreshold) / 255.0

	// Hysteresis: seed from strong pixels, then flood through 8-connected
	// weak pixels so faint but attached edge runs survive.
	result := image.NewGray(image.Rect(0, 0, width, height))
	visited := make([]bool, width*height)
	stack := make([]int, 0, 256)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if suppressed[y][x] >= high && !visited[y*width+x] {
				stack = append(stack, y*width+x)
				visited[y*width+x] = true
			}
		}
	}

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := idx%width, idx/width
		result.SetGray(x, y, color.Gray{Y: 255})

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				nidx := ny*width + nx
				if !visited[nidx] && suppressed[ny][nx] >= low {
					visited[nidx] = true
					stack = append(stack, nidx)
				}
			}
		}
	}

	return result, nil
}

// GradientMagnitude returns the raw Sobel gradient magnitude of an image,
// linearly normalized to the 0-255 range.
//
// Unlike DetectEdges this applies no blurring, suppression, or thresholding;
// callers that need a continuous measure of edge strength rather than a
// binary decision use this variant. A uniform image yields an all-zero map.
//
// Returns ErrInvalidParameter for a nil or zero-area image.
func GradientMagnitude(img image.Image) (*image.Gray, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidParameter)
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: image has zero area", ErrInvalidParameter)
	}

	gray := lumaPlane(img)
	magnitude, _ := sobelGradients(gray, width, height)

	maxMag := 0.0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if magnitude[y][x] > maxMag {
				maxMag = magnitude[y][x]
			}
		}
	}

	result := image.NewGray(image.Rect(0, 0, width, height))
	if maxMag == 0 {
		return result, nil
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			result.SetGray(x, y, color.Gray{Y: uint8(magnitude[y][x] / maxMag * 255)})
		}
	}
	return result, nil
}

// lumaPlane converts an image to a normalized [0,1] luminance plane using
// BT.601 weights.
func lumaPlane(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := make([][]float64, height)
	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			rf := float64(r>>8) / 255.0
			gf := float64(g>>8) / 255.0
			bf := float64(b>>8) / 255.0
			gray[y][x] = 0.299*rf + 0.587*gf + 0.114*bf
		}
	}
	return gray
}

// sobelGradients computes per-pixel gradient magnitude and direction with
// 3x3 Sobel kernels. Border pixels use clamped (replicated) neighbors.
func sobelGradients(plane [][]float64, width, height int) (magnitude, direction [][]float64) {
	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	magnitude = make([][]float64, height)
	direction = make([][]float64, height)
	for y := 0; y < height; y++ {
		magnitude[y] = make([]float64, width)
		direction[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					gx += plane[py][px] * sobelX[ky+1][kx+1]
					gy += plane[py][px] * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}
	return magnitude, direction
}

// suppressNonMaxima thins edge responses to single-pixel width by keeping
// only local maxima along the gradient direction.
func suppressNonMaxima(magnitude, direction [][]float64, width, height int) [][]float64 {
	suppressed := make([][]float64, height)
	for y := 0; y < height; y++ {
		suppressed[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			if y == 0 || y == height-1 || x == 0 || x == width-1 {
				continue
			}

			angle := direction[y][x]
			mag := magnitude[y][x]

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1 = magnitude[y][x-1]
				n2 = magnitude[y][x+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1 = magnitude[y-1][x+1]
				n2 = magnitude[y+1][x-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1 = magnitude[y-1][x]
				n2 = magnitude[y+1][x]
			default:
				n1 = magnitude[y-1][x-1]
				n2 = magnitude[y+1][x+1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[y][x] = mag
			}
		}
	}
	return suppressed
}

// gaussianBlur applies a 5x5 Gaussian blur (sigma ~1.4) to a luminance plane:
//
//	1  4  7  4  1
//	4 16 26 16  4
//	7 26 41 26  7
//	4 16 26 16  4
//	1  4  7  4  1
//
// Kernel sum 273 is used for normalization; borders replicate edge values.
func gaussianBlur(plane [][]float64, width, height int) [][]float64 {
	kernel := [5][5]float64{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
	const kernelSum = 273.0

	result := make([][]float64, height)
	for y := 0; y < height; y++ {
		result[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					sum += plane[py][px] * kernel[ky+2][kx+2]
				}
			}
			result[y][x] = sum / kernelSum
		}
	}
	return result
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
