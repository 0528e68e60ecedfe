package models

import "time"

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

type User struct {
	ID             string    `json:"id" db:"id" bson:"_id"`
	Email          string    `json:"email" db:"email" bson:"email"`
	Name           string    `json:"name" db:"name" bson:"name"`
	Role           Role      `json:"role" db:"role" bson:"role"`
	Specialization string    `json:"specialization,omitempty" db:"specialization" bson:"specialization,omitempty"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at" bson:"createdAt"`
}

func (u *User) DoctorPublic() DoctorPublic {
	return DoctorPublic{ID: u.ID, Name: u.Name, Email: u.Email, Specialization: u.Specialization}
}

func (u *User) PatientPublic() PatientPublic {
	return PatientPublic{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Actor is the authenticated user a request is made on behalf of.
type Actor struct {
	UserID string
	Role   Role
	Email  string
}

func (a Actor) IsPatient() bool { return a.Role == RolePatient }
func (a Actor) IsDoctor() bool  { return a.Role == RoleDoctor }
