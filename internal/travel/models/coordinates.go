package models

import "math"

// CoordinateScale is the fixed-point factor used on chain: 7 decimal places,
// roughly one centimetre at the equator.
const CoordinateScale = 1e7

// EncodeCoordinate converts decimal degrees to the on-chain integer form,
// rounding half away from zero.
func EncodeCoordinate(v float64) int64 {
	return int64(math.Round(v * CoordinateScale))
}

// DecodeCoordinate reverses EncodeCoordinate.
func DecodeCoordinate(v int64) float64 {
	return float64(v) / CoordinateScale
}

// EncodeCoordinates encodes a latitude/longitude pair.
func EncodeCoordinates(lat, lng float64) (int64, int64) {
	return EncodeCoordinate(lat), EncodeCoordinate(lng)
}
