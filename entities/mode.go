package entities

// AppMode selects which store serves a request.
type AppMode string

const (
	// ModeGuest keeps everything in the on-device (local) store.
	ModeGuest AppMode = "guest"
	// ModeAuthenticated keeps everything in the cloud (remote) store.
	ModeAuthenticated AppMode = "authenticated"
)

// ParseAppMode accepts only the two known modes; anything else is guest.
func ParseAppMode(s string) AppMode {
	if AppMode(s) == ModeAuthenticated {
		return ModeAuthenticated
	}
	return ModeGuest
}

func (m AppMode) String() string { return string(m) }
