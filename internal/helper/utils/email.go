package utils

import (
	"errors"
	"strings"
)

func ExtractEmailDomain(email string) (string, error) {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", errors.New("invalid email format")
	}
	return parts[1], nil
}

// NormalizeEmail trims and lowercases email and rejects anything without a
// single local@domain split.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := ExtractEmailDomain(email); err != nil {
		return "", err
	}
	return email, nil
}
