package core

// Session is the authenticated caller of an operation.
// It is built from the request's credentials and passed explicitly down to the services.
type Session struct {
	UserID    string
	SchoolID  string
	Username  string
	Email     string
	Roles     []string
	IsAdmin   bool
	IsTeacher bool
}

func (s Session) Person() Person {
	return Person{ID: s.UserID, Username: s.Username, Email: s.Email}
}
