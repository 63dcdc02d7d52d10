package httperr

import "errors"

// BusinessError carries a stable machine-readable code through the usecase
// and repository layers. Handlers map codes to HTTP status and a human
// message; the code itself is the API contract.
type BusinessError struct {
	Code string
}

func (e BusinessError) Error() string {
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

// BusinessCode extracts the code from err, or "" when err is not a
// business error (driver errors, context cancellation and the like).
func BusinessCode(err error) string {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func IsBusiness(err error, code string) bool {
	return code != "" && BusinessCode(err) == code
}
