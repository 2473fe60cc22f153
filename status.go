package padlock

import "fmt"

// LoginStatus is the outcome of Authenticate and Login.
type LoginStatus int

const (
	// LoginSuccess is returned when the user was authenticated
	LoginSuccess LoginStatus = 1
	// LoginBanned is returned for banned users
	LoginBanned LoginStatus = 100
	// LoginActivating is returned for users that need to activate their account
	LoginActivating LoginStatus = 101
	// LoginIncorrect is returned when the credentials do not match
	LoginIncorrect LoginStatus = 102
)

// OK reports whether the status represents a successful login.
func (s LoginStatus) OK() bool {
	return s == LoginSuccess
}

func (s LoginStatus) String() string {
	switch s {
	case LoginSuccess:
		return "success"
	case LoginBanned:
		return "banned"
	case LoginActivating:
		return "activating"
	case LoginIncorrect:
		return "incorrect"
	default:
		return fmt.Sprintf("LoginStatus(%d)", int(s))
	}
}
