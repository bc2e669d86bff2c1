package core

type (
	// Logger is any service that can log messages.
	// args may hold errors, map[string]interface{} extras and at most one Principal.
	Logger interface {
		Debug(msg string, args ...interface{})
		Info(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
		Error(msg string, args ...interface{})
		Fatal(msg string, args ...interface{})
	}

	PrincipalKind string

	// Principal identifies the authenticated account behind a request.
	Principal struct {
		ID    string
		Kind  PrincipalKind
		Name  string
		Email string
	}
)

const (
	PrincipalStaff   PrincipalKind = "staff"
	PrincipalTeacher PrincipalKind = "teacher"
)

func (p Principal) IsStaff() bool   { return p.Kind == PrincipalStaff }
func (p Principal) IsTeacher() bool { return p.Kind == PrincipalTeacher }
