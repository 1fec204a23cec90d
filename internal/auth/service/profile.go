package service

import (
	"context"
	"errors"
	"strings"

	"github.com/abisalde/marketplace-service/internal/database"
	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/abisalde/marketplace-service/internal/utils/validator"
)

// ProfileUpdate carries the fields present in a profile update request.
// A nil field is left untouched.
type ProfileUpdate struct {
	FirstName         *string `json:"profile_first_name"`
	LastName          *string `json:"profile_last_name"`
	ProfilePictureURL *string `json:"profile_picture_url"`
	AboutMe           *string `json:"about_me"`
	BabyGender        *string `json:"baby_gender"`
	BabyAge           *int    `json:"baby_age"`
	Email             *string `json:"email"`
	Phone             *string `json:"phone"`
}

type ProfileResult struct {
	User *model.User
	// Staged is the contact change waiting for its OTP, when one was requested.
	Staged *model.PendingVerification
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, customErrors.UserNotFound
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	return user, nil
}

// UpdateProfile applies the profile fields and, when the email or phone
// changes, stages the new value and sends an OTP to it. Nothing is written
// unless every check passes.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, in ProfileUpdate) (*ProfileResult, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.BabyGender != nil && !model.BabyGender(*in.BabyGender).Valid() {
		return nil, customErrors.Validation("Invalid baby_gender")
	}
	if in.BabyAge != nil && *in.BabyAge < 0 {
		return nil, customErrors.Validation("Invalid baby_age")
	}

	change, err := s.contactChange(ctx, user, in)
	if err != nil {
		return nil, err
	}

	applyProfile(user, in)

	var code string
	err = s.store.InTx(ctx, func(ctx context.Context) error {
		if err := s.users.UpdateProfile(ctx, user); err != nil {
			return err
		}
		if change == nil {
			return nil
		}

		var otp *model.OTP
		var err error
		code, otp, err = s.issueOTP(ctx, user.ID)
		if err != nil {
			return err
		}
		change.OTPID = otp.ID
		return s.users.SetPending(ctx, user.ID, *change)
	})
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}

	if change != nil {
		user.Contact = *change
		s.dispatchOTP(ctx, change.Kind, change.Candidate, code)
	}
	return &ProfileResult{User: user, Staged: change}, nil
}

func applyProfile(user *model.User, in ProfileUpdate) {
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.ProfilePictureURL != nil {
		user.ProfilePictureURL = *in.ProfilePictureURL
	}
	if in.AboutMe != nil {
		user.AboutMe = *in.AboutMe
	}
	if in.BabyGender != nil {
		user.BabyGender = model.BabyGender(*in.BabyGender)
	}
	if in.BabyAge != nil {
		user.BabyAge = *in.BabyAge
	}
}

// contactChange validates a requested email or phone change and returns the
// state to stage, or nil when neither differs from the current value.
func (s *AuthService) contactChange(ctx context.Context, user *model.User, in ProfileUpdate) (*model.PendingVerification, error) {
	var email, phone string
	emailChanged, phoneChanged := false, false
	if in.Email != nil {
		email = validator.NormalizeEmail(*in.Email)
		emailChanged = email != user.Email
	}
	if in.Phone != nil {
		phone = strings.TrimSpace(*in.Phone)
		phoneChanged = phone != user.Phone
	}

	if emailChanged && phoneChanged {
		return nil, customErrors.Validation("You cannot change both email and phone at the same time")
	}

	switch {
	case emailChanged:
		if !validator.IsValidEmail(email) {
			return nil, customErrors.Validation("Invalid email format")
		}
		taken, err := s.users.EmailTaken(ctx, email, user.ID)
		if err != nil {
			return nil, customErrors.InternalServerError(err, "Internal server error")
		}
		if taken {
			return nil, customErrors.EmailInUse
		}
	case phoneChanged:
		if !validator.IsValidPhone(phone) {
			return nil, customErrors.Validation("Invalid phone number")
		}
		taken, err := s.users.PhoneTaken(ctx, phone, user.ID)
		if err != nil {
			return nil, customErrors.InternalServerError(err, "Internal server error")
		}
		if taken {
			return nil, customErrors.PhoneInUse
		}
	default:
		return nil, nil
	}

	active, err := s.otps.ActiveForUser(ctx, user.ID, s.now())
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	if len(active) > 0 {
		return nil, customErrors.ActiveOTPExists
	}

	if emailChanged {
		return &model.PendingVerification{Kind: model.ContactEmail, Candidate: email}, nil
	}
	return &model.PendingVerification{Kind: model.ContactPhone, Candidate: phone}, nil
}
