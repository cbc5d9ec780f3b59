package rentstamp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawRoundTrip(t *testing.T) {
	assert.Equal(t, Unset, FromRaw(NoRentTimestamp))
	assert.Equal(t, NoRentTimestamp, Unset.Raw())
	assert.Equal(t, int64(0), Paid(0).Raw())
	assert.Equal(t, Paid(1_650_000_000), FromRaw(1_650_000_000))
}

func TestOrdering(t *testing.T) {
	tests := []struct {
		name string
		a, b Timestamp
		want Timestamp
	}{
		{"unset vs paid", Unset, Paid(0), Paid(0)},
		{"paid vs unset", Paid(10), Unset, Paid(10)},
		{"both unset", Unset, Unset, Unset},
		{"later wins", Paid(10), Paid(20), Paid(20)},
		{"equal", Paid(7), Paid(7), Paid(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Max(tt.a, tt.b))
			assert.Equal(t, tt.want, Max(tt.b, tt.a))
		})
	}

	assert.False(t, Unset.Before(Unset))
	assert.True(t, Unset.Before(Paid(-5)))
	assert.False(t, Paid(3).Before(Paid(3)))
}

func TestSeconds(t *testing.T) {
	s, ok := Unset.Seconds()
	assert.False(t, ok)
	assert.Zero(t, s)

	s, ok = Paid(42).Seconds()
	assert.True(t, ok)
	assert.Equal(t, int64(42), s)
	assert.Equal(t, "42", Paid(42).String())
	assert.Equal(t, "unset", Unset.String())
}
