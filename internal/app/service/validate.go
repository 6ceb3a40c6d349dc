package service

import (
	"crowdsolve/internal/common"

	"github.com/go-playground/validator/v10"
)

const defaultPage = 1
const defaultPageSize = 10

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs the request's validate tags and folds any failure into
// the validation sentinel so the HTTP layer maps it to a 400.
func validateStruct(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return common.Errorf("%s: %w", err.Error(), common.ErrValidation)
	}
	return nil
}
