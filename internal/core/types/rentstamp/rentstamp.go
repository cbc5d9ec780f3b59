// Package rentstamp defines the rent timestamp carried by every trie node.
//
// A node whose rent was never charged holds the Unset value; every other
// node holds the block timestamp (in seconds) up to which its rent is paid.
// Keeping the two states apart in the type means an unset timestamp can
// never be mistaken for a point in time by the rent arithmetic.
package rentstamp

import (
	"fmt"
	"strconv"
)

// NoRentTimestamp is the raw encoding of Unset used on disk and on the CLI.
const NoRentTimestamp int64 = -1

// Timestamp is either Unset or Paid(seconds).
type Timestamp struct {
	seconds int64
	paid    bool
}

// Unset is the timestamp of a node that has never paid rent.
var Unset = Timestamp{}

// Paid returns the timestamp for rent paid up to the given second.
func Paid(seconds int64) Timestamp {
	return Timestamp{seconds: seconds, paid: true}
}

// FromRaw decodes the raw encoding; NoRentTimestamp maps to Unset.
func FromRaw(raw int64) Timestamp {
	if raw == NoRentTimestamp {
		return Unset
	}
	return Paid(raw)
}

// Raw returns the raw encoding, NoRentTimestamp for Unset.
func (t Timestamp) Raw() int64 {
	if !t.paid {
		return NoRentTimestamp
	}
	return t.seconds
}

// IsSet reports whether rent was ever paid.
func (t Timestamp) IsSet() bool {
	return t.paid
}

// Seconds returns the paid-up time and whether the timestamp is set.
func (t Timestamp) Seconds() (int64, bool) {
	return t.seconds, t.paid
}

// Before orders timestamps with Unset below every paid timestamp.
func (t Timestamp) Before(o Timestamp) bool {
	if !t.paid {
		return o.paid
	}
	return o.paid && t.seconds < o.seconds
}

// Max returns the later of the two timestamps.
func Max(a, b Timestamp) Timestamp {
	if a.Before(b) {
		return b
	}
	return a
}

func (t Timestamp) String() string {
	if !t.paid {
		return "unset"
	}
	return strconv.FormatInt(t.seconds, 10)
}

// GoString makes test failures readable.
func (t Timestamp) GoString() string {
	if !t.paid {
		return "rentstamp.Unset"
	}
	return fmt.Sprintf("rentstamp.Paid(%d)", t.seconds)
}
