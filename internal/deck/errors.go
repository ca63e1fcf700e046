package deck

// UserActionError is a non-fatal warning: the requested action cannot run in the
// current deck state and was not performed.
type UserActionError struct {
	Msg string
}

func (e UserActionError) Error() string { return e.Msg }

var (
	ErrNoSlides    = UserActionError{Msg: "no slides"}
	ErrNoSelection = UserActionError{Msg: "no slide selected"}
)
