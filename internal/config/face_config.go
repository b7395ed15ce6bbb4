package config

import "strconv"

type FaceConfig interface {
	GetFaceMatchThreshold() float64
}

type Face struct{}

var _ FaceConfig = Face{}

// GetFaceMatchThreshold returns the maximum Euclidean distance at which a
// probe embedding is still considered a match for an enrolled face.
func (Face) GetFaceMatchThreshold() float64 {
	v := GetEnv("FACE_MATCH_THRESHOLD", "")
	if v == "" {
		return 0.5
	}
	threshold, err := strconv.ParseFloat(v, 64)
	if err != nil || threshold <= 0 {
		return 0.5
	}
	return threshold
}
