package economics

// Username layout: exactly 15 fixed character slots, left-justified, padded
// with a contiguous suffix of NUL bytes. Legal characters are [a-z0-9_].
const (
	UsernameSlots    = 15
	usernameMinChars = 4
)

func usernameByteLegal(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '_':
		return true
	}
	return false
}

// ValidateUsername reports whether the supplied name fits the fixed 15-slot
// layout. Names shorter than 15 characters are treated as NUL-padded on the
// right; an explicit NUL inside the name starts the pad, so any non-NUL byte
// after it is an embedded gap and rejected.
func ValidateUsername(name string) error {
	if len(name) == 0 || len(name) > UsernameSlots {
		return ErrInvalidUsername
	}
	var buf [UsernameSlots]byte
	copy(buf[:], name)

	padded := false
	chars := 0
	for _, b := range buf {
		if b == 0 {
			padded = true
			continue
		}
		if padded {
			return ErrInvalidUsername
		}
		if !usernameByteLegal(b) {
			return ErrInvalidUsername
		}
		chars++
	}
	if chars < usernameMinChars {
		return ErrInvalidUsername
	}
	return nil
}

// CanonicalUsername strips the NUL pad so registry keys compare by the
// visible characters only. Callers must validate first.
func CanonicalUsername(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == 0 {
			return name[:i]
		}
	}
	return name
}
