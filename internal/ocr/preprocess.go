package ocr

import (
	"image"

	"github.com/anthonynsimon/bild/channel"
	"github.com/anthonynsimon/bild/effect"
)

// Grayscale flattens img to 8-bit luma.
func Grayscale(img image.Image) *image.Gray {
	return channel.Extract(effect.Grayscale(img), channel.Red)
}

// MedianFilter replaces each pixel with the median of its size×size
// neighbourhood, extending edges. size must be odd; 1 or less is a no-op.
func MedianFilter(src *image.Gray, size int) *image.Gray {
	if size <= 1 {
		return src
	}
	return channel.Extract(effect.Grayscale(effect.Median(src, float64(size/2))), channel.Red)
}
