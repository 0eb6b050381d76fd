package handler

import (
	"ibanmanager/internal/iban/service"
	s "ibanmanager/pkg/string"
	"ibanmanager/pkg/validation"
)

// AllocateRequest is the body of POST /ibans.
type AllocateRequest struct {
	DaesAccountID         string `json:"daes_account_id" validate:"required,notblank,max=64"`
	CountryCode           string `json:"country_code" validate:"required,len=2,alpha"`
	Currency              string `json:"currency" validate:"required,len=3,alpha"`
	BankCode              string `json:"bank_code" validate:"required,alphanum,max=12"`
	BranchCode            string `json:"branch_code" validate:"omitempty,numeric,max=8"`
	InternalAccountNumber string `json:"internal_account_number" validate:"required,alphanum,max=30"`
}

func (r *AllocateRequest) Normalize() {
	s.TrimStrings(&r.DaesAccountID, &r.BranchCode, &r.InternalAccountNumber)
	s.UpperStrings(&r.CountryCode, &r.Currency, &r.BankCode)
}

func (r *AllocateRequest) Validate() error {
	return validation.Validate(r)
}

func (r *AllocateRequest) Command() service.AllocateCommand {
	return service.AllocateCommand{
		DaesAccountID:         r.DaesAccountID,
		CountryCode:           r.CountryCode,
		Currency:              r.Currency,
		BankCode:              r.BankCode,
		BranchCode:            r.BranchCode,
		InternalAccountNumber: r.InternalAccountNumber,
	}
}

// StatusChangeRequest is the optional body of the lifecycle endpoints.
type StatusChangeRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

func (r *StatusChangeRequest) Normalize() {
	s.TrimStrings(&r.Reason)
}

func (r *StatusChangeRequest) Validate() error {
	return validation.Validate(r)
}

// ValidateRequest is the body of POST /ibans/validate.
type ValidateRequest struct {
	IBAN        string `json:"iban" validate:"required,notblank,max=64"`
	CountryCode string `json:"country_code" validate:"omitempty,len=2,alpha"`
}

func (r *ValidateRequest) Normalize() {
	s.UpperStrings(&r.CountryCode)
}

func (r *ValidateRequest) Validate() error {
	return validation.Validate(r)
}
