package services

import "errors"

var (
	ErrNoDoctorAvailable      = errors.New("no doctor available")
	ErrUnauthorizedApproval   = errors.New("only the patient can approve this doctor")
	ErrAlreadyApproved        = errors.New("doctor already approved")
	ErrInsufficientReportText = errors.New("report text not available")
)
