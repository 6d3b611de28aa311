package schedule

import (
	"fmt"
	"unicode/utf16"
)

// UnknownDoctorName replaces a missing doctor name before it is hashed.
const UnknownDoctorName = "Unknown Doctor"

// HashCode is the polynomial string hash h = c + (h<<5) - h over UTF-16 code
// units with 32-bit wraparound, matching what the dashboard uses for avatars.
func HashCode(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = int32(c) + (h << 5) - h
	}
	return h
}

// Color folds a hash into a 24-bit RGB value.
func Color(hash int32) string {
	return fmt.Sprintf("#%06X", uint32(hash)&0xFFFFFF)
}

// AvatarColor is the deterministic color for a doctor's name.
func AvatarColor(name string) string {
	if name == "" {
		name = UnknownDoctorName
	}
	return Color(HashCode(name))
}
