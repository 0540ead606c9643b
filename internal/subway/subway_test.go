package subway

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileValid(t *testing.T) {
	t.Run("known profiles are valid", func(t *testing.T) {
		assert.True(t, ProfilePHY.Valid())
		assert.True(t, ProfileVIS.Valid())
		assert.True(t, ProfileAUD.Valid())
		assert.True(t, ProfileELD.Valid())
	})

	t.Run("unknown profile is invalid", func(t *testing.T) {
		assert.False(t, Profile("XYZ").Valid())
	})
}

func TestParseDirection(t *testing.T) {
	t.Run("known tags round trip", func(t *testing.T) {
		assert.Equal(t, Up, ParseDirection("up"))
		assert.Equal(t, Down, ParseDirection("down"))
		assert.Equal(t, In, ParseDirection("in"))
		assert.Equal(t, Out, ParseDirection("out"))
	})

	t.Run("unknown tag maps to Unknown", func(t *testing.T) {
		assert.Equal(t, Unknown, ParseDirection("sideways"))
	})
}

func TestErrorKinds(t *testing.T) {
	t.Run("UnknownStation wraps the sentinel", func(t *testing.T) {
		err := UnknownStation("222")
		assert.True(t, errors.Is(err, ErrUnknownStation))
		assert.Contains(t, err.Error(), "222")
	})

	t.Run("InvalidProfile wraps the sentinel", func(t *testing.T) {
		err := InvalidProfile("XYZ")
		assert.True(t, errors.Is(err, ErrInvalidProfile))
	})

	t.Run("Inconsistent wraps the sentinel", func(t *testing.T) {
		err := Inconsistent("missing order for line 2")
		assert.True(t, errors.Is(err, ErrInconsistentNetwork))
	})
}
