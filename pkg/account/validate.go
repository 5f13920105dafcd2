package account

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/harrisonrobin/steady/pkg/api"
	"github.com/harrisonrobin/steady/pkg/model"
)

// Genders are the accepted gender values.
var Genders = []string{"Male", "Female", "Prefer not to say"}

const (
	minAge    = 10
	dobLayout = "2006-01-02"
)

var (
	ErrMissingFields    = errors.New("email, password and confirm password required")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrInvalidName      = errors.New("name must contain only letters, spaces or hyphens")
	ErrWeakPassword     = errors.New("password must be at least 8 characters with upper and lower case letters, a digit and one of @$!%*?&")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrInvalidDOB       = errors.New("invalid date of birth (min age 10 years, not future)")
	ErrInvalidGender    = errors.New("invalid gender")
)

var (
	nameRe         = regexp.MustCompile(`^[A-Za-z\s\-]{2,50}$`)
	passwordCharRe = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]{8,}$`)
	passwordNeeds  = []*regexp.Regexp{
		regexp.MustCompile(`[a-z]`),
		regexp.MustCompile(`[A-Z]`),
		regexp.MustCompile(`\d`),
		regexp.MustCompile(`[@$!%*?&]`),
	}
)

func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}

func ValidatePassword(password string) error {
	if !passwordCharRe.MatchString(password) {
		return ErrWeakPassword
	}
	for _, re := range passwordNeeds {
		if !re.MatchString(password) {
			return ErrWeakPassword
		}
	}
	return nil
}

// ValidateNewPassword checks strength and the confirmation.
func ValidateNewPassword(password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	return ValidatePassword(password)
}

// ValidateDOB accepts YYYY-MM-DD dates at least minAge years before today.
func ValidateDOB(dob string, today time.Time) error {
	d, err := time.Parse(dobLayout, dob)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDOB, err)
	}
	y, m, day := today.Date()
	today = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	if d.After(today) || age(d, today) < minAge {
		return ErrInvalidDOB
	}
	return nil
}

func age(dob, today time.Time) int {
	years := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		years--
	}
	return years
}

func ValidateGender(gender string) error {
	if !slices.Contains(Genders, gender) {
		return ErrInvalidGender
	}
	return nil
}

// ValidateProfile checks the fields Google sign-in asks for on first use.
func ValidateProfile(p model.ProfileInfo, today time.Time) error {
	return errors.Join(
		ValidateName(p.Name),
		ValidateGender(p.Gender),
		ValidateDOB(p.DOB, today),
	)
}

func ValidateSignup(req api.SignupRequest, today time.Time) error {
	if req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		return ErrMissingFields
	}
	return errors.Join(
		ValidateEmail(req.Email),
		ValidateNewPassword(req.Password, req.ConfirmPassword),
		ValidateName(req.Name),
		ValidateGender(req.Gender),
		ValidateDOB(req.DOB, today),
	)
}
