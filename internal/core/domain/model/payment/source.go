package payment

import (
	"fmt"
	"strings"

	"pharmacy/internal/pkg/errs"
)

// Source tags who caused a payment status change.
type Source string

const (
	SourceUser    Source = "user"
	SourceWebhook Source = "webhook"
	SourceAdmin   Source = "admin"
)

func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	if err := src.Validate(); err != nil {
		return "", err
	}
	return src, nil
}

func (s Source) Validate() error {
	switch s {
	case SourceUser, SourceWebhook, SourceAdmin:
		return nil
	}
	return errs.NewValueIsInvalidErrorWithCause("payment source", fmt.Errorf("%q is not a payment source", string(s)))
}

func (s Source) String() string {
	return string(s)
}
