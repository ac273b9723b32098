package validation

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// messages maps field -> failing tag -> client-facing message. The "*" entry
// is used for any tag not listed explicitly.
type messages map[string]map[string]string

var createMessages = messages{
	"date": {
		"required":  "date is required",
		"isodate":   "invalid date format",
		"notfuture": "date cannot be later than the current date",
	},
	"weight": {
		"required": "weight is required",
		"*":        "weight must be a positive integer no greater than 10000 grams",
	},
	"animal": {
		"required": "animal type is required",
		"*":        "invalid animal type",
	},
}

var updateMessages = messages{
	"date":   createMessages["date"],
	"weight": {"required": "weight is required", "*": "weight must be a positive integer"},
	"animal": createMessages["animal"],
}

func (m messages) lookup(field, tag string) string {
	byTag := m[field]
	if msg, ok := byTag[tag]; ok {
		return msg
	}
	if msg, ok := byTag["*"]; ok {
		return msg
	}
	return field + " is invalid"
}

// translate converts validator output into Errors. Anything that is not a
// validator.ValidationErrors (e.g. InvalidValidationError) is returned as-is.
func translate(err error, m messages) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := make(Errors, 0, len(ves))
	for _, fe := range ves {
		out = append(out, FieldError{Field: fe.Field(), Message: m.lookup(fe.Field(), fe.Tag())})
	}
	return out
}
