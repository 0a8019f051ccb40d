package validator

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field validators for the onboarding forms. Each returns "" when the input
// is acceptable and a fixed, human-readable message otherwise. Optional
// fields accept empty input.

var emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// DocumentTypes lists the identity-proof classifications the backend accepts.
var DocumentTypes = []string{
	"Aadhar Card",
	"PAN Card",
	"Driving License",
	"Passport",
	"Voter ID",
	"Business License",
	"GST Certificate",
	"Other",
}

// Genders lists the admin-user gender options.
var Genders = []string{"Male", "Female", "Other", "Prefer not to say"}

// IsValidEmail reports whether email looks like local@domain.tld.
func IsValidEmail(email string) bool {
	return emailRegexp.MatchString(email)
}

// UsernameError validates the login username (email or plain username).
func UsernameError(username string) string {
	if strings.TrimSpace(username) == "" {
		return "Username or email is required"
	}
	return ""
}

// PasswordError validates the login password.
func PasswordError(password string) string {
	if password == "" {
		return "Password is required"
	}
	if utf8.RuneCountInString(password) < 6 {
		return "Password must be at least 6 characters"
	}
	return ""
}

// AdminPasswordError validates the password chosen for a company's initial
// admin user. It is stricter than the login rule.
func AdminPasswordError(password string) string {
	trimmed := strings.TrimSpace(password)
	n := utf8.RuneCountInString(trimmed)
	switch {
	case n == 0:
		return "Password is required"
	case n < 8:
		return "Password must be at least 8 characters"
	case n > 128:
		return "Password must be less than 128 characters"
	}
	return ""
}

// EmailError validates a required email field.
func EmailError(email string) string {
	if strings.TrimSpace(email) == "" {
		return "Email is required"
	}
	if !IsValidEmail(email) {
		return "Invalid email format"
	}
	return ""
}

// NameError validates a required person or company name.
func NameError(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "Name is required"
	}
	if utf8.RuneCountInString(trimmed) < 2 {
		return "Name must be at least 2 characters"
	}
	return ""
}

// PhoneError validates an optional phone number by its digit count.
// Separators such as spaces, dashes, parentheses and a leading + are ignored.
func PhoneError(phone string) string {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return ""
	}
	digits := 0
	for _, r := range trimmed {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '+' || r == '.':
		default:
			return "Invalid phone number"
		}
	}
	if digits < 7 || digits > 15 {
		return "Phone number must be between 7 and 15 digits"
	}
	return ""
}

// AgeError validates an optional age entered as text.
func AgeError(input string) string {
	return intRangeError(input, 18, 120, "Age must be a whole number", "Age must be between 18 and 120")
}

// TeamSizeError validates the optional team size entered as text.
func TeamSizeError(input string) string {
	return intRangeError(input, 1, 10000, "Team size must be a whole number", "Team size must be between 1 and 10000")
}

// YearsOfExperienceError validates the optional years of experience entered as text.
func YearsOfExperienceError(input string) string {
	return intRangeError(input, 0, 100, "Years of experience must be a whole number", "Years of experience must be between 0 and 100")
}

// DocumentTypeError validates an optional document classification.
func DocumentTypeError(documentType string) string {
	if documentType == "" || slices.Contains(DocumentTypes, documentType) {
		return ""
	}
	return "Invalid document type"
}

// GenderError validates an optional gender selection.
func GenderError(gender string) string {
	if gender == "" || slices.Contains(Genders, gender) {
		return ""
	}
	return "Invalid gender"
}

func intRangeError(input string, lo, hi int, notNumber, outOfRange string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return notNumber
	}
	if n < lo || n > hi {
		return outOfRange
	}
	return ""
}
