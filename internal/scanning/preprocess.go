package scanning

import (
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/disintegration/imaging"
)

// Fixed conditioning applied to every scanned page before OCR
const (
	ContrastFactor = 2.0
	MedianSize     = 3
	UpscaleFactor  = 2
)

// Preprocess converts a scanned page to grayscale, doubles its contrast,
// removes speckle with a median filter and upscales it with Lanczos resampling.
func Preprocess(src image.Image) *image.NRGBA {
	img := imaging.Grayscale(src)
	img = enhanceContrast(img, ContrastFactor)
	gray := medianFilter(toGray(img), MedianSize)

	b := gray.Bounds()
	return imaging.Resize(gray, b.Dx()*UpscaleFactor, b.Dy()*UpscaleFactor, imaging.Lanczos)
}

// enhanceContrast scales every pixel's distance from the mean gray level by factor
func enhanceContrast(img *image.NRGBA, factor float64) *image.NRGBA {
	mean := math.Floor(meanLevel(img) + 0.5)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		v := clamp(mean + factor*(float64(c.R)-mean))
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})
}

// meanLevel is the average of the red channel, which equals the gray level after Grayscale
func meanLevel(img *image.NRGBA) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum uint64
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			sum += uint64(row[x])
		}
	}
	return float64(sum) / float64(n)
}

func toGray(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = img.Pix[y*img.Stride+x*4]
		}
	}
	return out
}

// medianFilter replaces each pixel with the median of its size×size
// neighbourhood. Pixels beyond the border repeat the nearest edge pixel.
func medianFilter(src *image.Gray, size int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	r := size / 2
	window := make([]uint8, 0, size*size)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -r; dy <= r; dy++ {
				yy := min(max(y+dy, 0), h-1)
				for dx := -r; dx <= r; dx++ {
					xx := min(max(x+dx, 0), w-1)
					window = append(window, src.GrayAt(b.Min.X+xx, b.Min.Y+yy).Y)
				}
			}
			slices.Sort(window)
			out.Pix[y*out.Stride+x] = window[len(window)/2]
		}
	}
	return out
}

func clamp(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
