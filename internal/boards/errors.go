package boards

import (
	"errors"
	"fmt"
)

// RejectionError is a provider-reported refusal carrying the provider's
// machine code (e.g. "RATELIMIT", "BAD_FLAIR_TEMPLATE_ID") and human
// message. Rejections are recoverable per-row: the submission stays pending.
type RejectionError struct {
	Destination string
	Code        string
	Message     string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s rejected post: %s: %s", e.Destination, e.Code, e.Message)
}

// IsRejection reports whether err is a provider rejection, as opposed to a
// transport failure whose remote outcome is unknown.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}
