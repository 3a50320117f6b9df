package validation

import (
	"fmt"

	dErrors "leadgate/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize caps JSON bodies (lead submissions) at 64 KB.
	MaxBodySize = 64 * 1024

	// MaxUploadSize caps multipart uploads at 10 MB.
	MaxUploadSize = 10 * 1024 * 1024
)

// Slice element count limits
const (
	// MaxCoverageOptions is the maximum number of coverage selections per lead.
	MaxCoverageOptions = 10
)

// String element length limits
const (
	MaxNameLength      = 100
	MaxEmailLength     = 255
	MaxPhoneLength     = 20
	MaxFreeTextLength  = 1000
	MaxSearchLength    = 100
	MaxSlugLength      = 100
	MaxCategoryLength  = 50
	MaxFilenameLength  = 100
	MaxMediaPathLength = 512
)

// CheckSliceCount validates that a slice does not exceed the maximum count.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("Trop de valeurs pour %s : %d maximum.", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len([]rune(value)) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("Le champ %s dépasse %d caractères.", fieldName, max))
	}
	return nil
}

// CheckEachStringLength validates that each string in a slice does not exceed the maximum length.
func CheckEachStringLength(fieldName string, values []string, max int) error {
	for _, v := range values {
		if err := CheckStringLength(fieldName, v, max); err != nil {
			return err
		}
	}
	return nil
}
