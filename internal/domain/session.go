package domain

// Role is the platform role of a signed-in user.
type Role string

const (
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
)

// User is the profile returned by /auth/me and embedded in login responses.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      Role   `json:"role"`
}

// Session is the result of a successful login.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         User
}
