package schema

import "errors"

// Sentinel errors shared across packages.
var (
	ErrNoData             = errors.New("no data available")
	ErrMatriculeNotFound  = errors.New("matricule not found")
	ErrFormNotFound       = errors.New("form not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrMissingMatricule   = errors.New("response has no matricule")
	ErrMissingInstructor  = errors.New("no instructor response")
	ErrEmailNotFound      = errors.New("email not found in roster")
	ErrCancelled          = errors.New("cancelled by operator")
	ErrCredentialsMissing = errors.New("no cached credentials")
)
