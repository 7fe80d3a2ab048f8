package models

import (
	"time"
)

// Role enum
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// User is the directory row for every actor. Role-specific columns are only
// meaningful for the matching role; read them through Profile.
type User struct {
	BaseModel
	Email     string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName string `gorm:"size:100" json:"firstName"`
	LastName  string `gorm:"size:100" json:"lastName"`
	Role      Role   `gorm:"size:20;index;not null" json:"role"`
	IsActive  bool   `gorm:"default:true" json:"isActive"`

	// doctor
	Specialization string `gorm:"size:100" json:"-"`
	LicenseNumber  string `gorm:"size:50" json:"-"`

	// patient
	DateOfBirth *time.Time `json:"-"`
	BloodType   string     `gorm:"size:5" json:"-"`

	// admin
	Department string `gorm:"size:100" json:"-"`
}

// Profile is the closed set of role payloads. Only this package can add variants.
type Profile interface {
	Role() Role
	isProfile()
}

type DoctorProfile struct {
	Specialization string `json:"specialization"`
	LicenseNumber  string `json:"licenseNumber"`
}

type PatientProfile struct {
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	BloodType   string     `json:"bloodType,omitempty"`
}

type AdminProfile struct {
	Department string `json:"department,omitempty"`
}

func (DoctorProfile) Role() Role  { return RoleDoctor }
func (PatientProfile) Role() Role { return RolePatient }
func (AdminProfile) Role() Role   { return RoleAdmin }

func (DoctorProfile) isProfile()  {}
func (PatientProfile) isProfile() {}
func (AdminProfile) isProfile()   {}

// Profile returns the role payload, or nil for an unknown role.
func (u *User) Profile() Profile {
	switch u.Role {
	case RoleDoctor:
		return DoctorProfile{Specialization: u.Specialization, LicenseNumber: u.LicenseNumber}
	case RolePatient:
		return PatientProfile{DateOfBirth: u.DateOfBirth, BloodType: u.BloodType}
	case RoleAdmin:
		return AdminProfile{Department: u.Department}
	}
	return nil
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID        string  `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Role      Role    `json:"role"`
	Profile   Profile `json:"profile,omitempty"`
}

// Sanitize creates a UserSanitized struct from a User model, excluding contact data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Profile:   u.Profile(),
	}
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role Role
}
