package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"os"
)

// GenerateImageHash hashes the RGBA values of every pixel, so two renders of
// the same sheet compare equal regardless of PNG encoding.
func GenerateImageHash(img image.Image) (string, error) {
	hasher := sha256.New()
	bounds := img.Bounds()
	fmt.Fprintf(hasher, "%dx%d;", bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			fmt.Fprintf(hasher, "%d,%d,%d,%d;", r, g, b, a)
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
