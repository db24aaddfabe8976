package model

// Session identifies the signed-in user for a unit of work. It is passed
// explicitly into every plan, food, tracker, and dashboard call instead of
// being read from local storage inside business logic.
type Session struct {
	UserID ID
}

// Valid reports whether the session carries a user id.
func (s Session) Valid() bool { return !s.UserID.IsZero() }
