package user

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.@-]+$`)

// bcrypt ignores everything past 72 bytes, so longer passwords are refused
// rather than silently truncated.
const maxPasswordBytes = 72

func (in *CreateInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
}

func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.Length(1, 32), validation.Match(usernamePattern)),
		validation.Field(&in.Password, validation.Required, validation.Length(1, maxPasswordBytes)),
	)
}

func (in UpdateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Password, validation.NilOrNotEmpty, validation.Length(1, maxPasswordBytes)),
	)
}
