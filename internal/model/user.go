package model

import "time"

type BabyGender string

const (
	BabyGenderUnisex BabyGender = "unisex"
	BabyGenderMale   BabyGender = "male"
	BabyGenderFemale BabyGender = "female"
)

func (g BabyGender) Valid() bool {
	switch g {
	case BabyGenderUnisex, BabyGenderMale, BabyGenderFemale:
		return true
	}
	return false
}

type ContactKind string

const (
	ContactEmail ContactKind = "email"
	ContactPhone ContactKind = "phone"
)

// ContactState is either Verified or PendingVerification.
type ContactState interface {
	contactState()
}

// Verified means the user's email and phone are authoritative with nothing staged.
type Verified struct{}

// PendingVerification is a contact change waiting for its OTP.
type PendingVerification struct {
	Kind      ContactKind
	Candidate string
	OTPID     int64
}

func (Verified) contactState()            {}
func (PendingVerification) contactState() {}

type User struct {
	ID                int64
	Username          string
	Email             string
	Phone             string
	Contact           ContactState
	FirstName         string
	LastName          string
	AboutMe           string
	ProfilePictureURL string
	BabyGender        BabyGender
	BabyAge           int
	IsActive          bool
	IsStaff           bool
	LastLogin         *time.Time
	DateJoined        time.Time
}

// Pending returns the staged contact change, if any.
func (u *User) Pending() (PendingVerification, bool) {
	p, ok := u.Contact.(PendingVerification)
	return p, ok
}

type OTP struct {
	ID        int64
	UserID    int64
	CodeHash  string
	CreatedAt time.Time
	ExpiredAt time.Time
}

func (o *OTP) Active(now time.Time) bool {
	return now.Before(o.ExpiredAt)
}
