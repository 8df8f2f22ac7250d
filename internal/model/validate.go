package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// check runs the struct's validate tags. A failure on one of the declared
// reference fields is reported as ErrMissingReference so callers can tell an
// unresolved relationship from a malformed document.
func check(doc any, refs []Ref) error {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			for _, ref := range refs {
				if fe.StructField() == ref.Field {
					return fmt.Errorf("%w: %s %q", ErrMissingReference, ref.Kind, fe.Value())
				}
			}
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
}
