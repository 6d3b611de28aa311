package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashCode(t *testing.T) {
	cases := []struct {
		in   string
		hash int32
	}{
		{in: "", hash: 0},
		{in: "a", hash: 97},
		{in: "Dr. A", hash: 66240865},
		{in: "Unknown Doctor", hash: 1039826421},
		{in: "Dr. Zoë Müller", hash: -382400762},
	}

	for _, c := range cases {
		assert.Equal(t, c.hash, HashCode(c.in), c.in)
	}
}

func TestAvatarColor(t *testing.T) {
	assert.Equal(t, "#F2C161", AvatarColor("Dr. A"))
	assert.Equal(t, "#F2C162", AvatarColor("Dr. B"))
	assert.Equal(t, "#350706", AvatarColor("Dr. Zoë Müller"))
	assert.Equal(t, AvatarColor(UnknownDoctorName), AvatarColor(""))
}
