package uuid

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// A UUID is a BLE UUID, stored in little-endian (over the air) byte order.
type UUID []byte

// base is the Bluetooth Base UUID 00000000-0000-1000-8000-00805F9B34FB in
// big-endian order. 16 and 32-bit UUIDs are aliases into it.
var base = [16]byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0x80, 0x5f, 0x9b, 0x34, 0xfb,
}

// UUID16 converts a uint16 (such as 0x180F) to a UUID.
func UUID16(i uint16) UUID {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, i)
	return UUID(b)
}

// UUID32 converts a uint32 to a UUID.
func UUID32(i uint32) UUID {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, i)
	return UUID(b)
}

// Parse parses a standard-format UUID string, such
// as "180F", "0x180F" or "34DA3AD1-7110-41A1-B1EF-4430F509CDE7".
func Parse(s string) (UUID, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.Replace(s, "-", "", -1)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if err := lenErr(len(b)); err != nil {
		return nil, err
	}
	return UUID(Reverse(b)), nil
}

// MustParse parses a standard-format UUID string,
// like Parse, but panics in case of error.
func MustParse(s string) UUID {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Normalize parses s and returns its canonical 128-bit string form.
// "180f", "0x180F" and "0000180f-0000-1000-8000-00805f9b34fb" all
// normalize to the latter.
func Normalize(s string) (string, error) {
	u, err := Parse(s)
	if err != nil {
		return "", err
	}
	return u.Canonical(), nil
}

// lenErr returns an error if n is an invalid UUID length.
func lenErr(n int) error {
	switch n {
	case 2, 4, 16:
		return nil
	}
	return fmt.Errorf("UUIDs must have length 2, 4 or 16, got %d", n)
}

// Len returns the length of the UUID, in bytes.
func (u UUID) Len() int { return len(u) }

// String hex-encodes a UUID in its short form.
func (u UUID) String() string { return fmt.Sprintf("%X", Reverse(u)) }

// Full returns the 128-bit form of u.
func (u UUID) Full() UUID {
	switch len(u) {
	case 16:
		return UUID(append([]byte(nil), u...))
	case 2, 4:
		b := base
		v := Reverse(u)
		copy(b[4-len(v):4], v)
		return UUID(Reverse(b[:]))
	}
	return nil
}

// Canonical returns the lower-case, dashed 128-bit representation of u.
func (u UUID) Canonical() string {
	f := u.Full()
	if f == nil {
		return ""
	}
	b := Reverse(f)
	var buf [36]byte
	hex.Encode(buf[0:8], b[0:4])
	buf[8] = '-'
	hex.Encode(buf[9:13], b[4:6])
	buf[13] = '-'
	hex.Encode(buf[14:18], b[6:8])
	buf[18] = '-'
	hex.Encode(buf[19:23], b[8:10])
	buf[23] = '-'
	hex.Encode(buf[24:], b[10:])
	return string(buf[:])
}

// Equal returns a boolean reporting whether v represent the same UUID as u.
// Short UUIDs compare equal to their 128-bit aliases.
func (u UUID) Equal(v UUID) bool {
	if len(u) == len(v) {
		return bytes.Equal(u, v)
	}
	return bytes.Equal(u.Full(), v.Full())
}

// Contains returns a boolean reporting whether u is in the slice s.
// A nil slice contains every UUID.
func Contains(s []UUID, u UUID) bool {
	if s == nil {
		return true
	}

	for _, a := range s {
		if a.Equal(u) {
			return true
		}
	}

	return false
}

// Reverse returns a reversed copy of u.
func Reverse(u []byte) []byte {
	// Special-case 16 bit UUIDS for speed.
	l := len(u)
	if l == 2 {
		return []byte{u[1], u[0]}
	}
	b := make([]byte, l)
	for i := 0; i < l; i++ {
		b[i] = u[l-i-1]
	}
	return b
}
