package service

import "ibanmanager/internal/iban/validation"

func validationFailure(msg string) validation.Result {
	return validation.Result{FormatValid: true, LengthValid: true, Errors: []string{msg}}
}
