package utils

import (
	"image/color"
	"strconv"
	"strings"
)

// HexToRGBA converts a color expressed in hexadecimal notation (#rgb or #rrggbb) to color.RGBA.
// Malformed values fall back to opaque black.
func HexToRGBA(hex string) color.RGBA {
	col := color.RGBA{A: 0xff}
	hex = strings.TrimPrefix(hex, "#")

	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return col
	}
	values, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return col
	}
	col.R = uint8(values >> 16)
	col.G = uint8((values >> 8) & 0xff)
	col.B = uint8(values & 0xff)

	return col
}

// Contains returns true if the value is found in the collection.
func Contains[T comparable](collection []T, value T) bool {
	for _, v := range collection {
		if v == value {
			return true
		}
	}
	return false
}
