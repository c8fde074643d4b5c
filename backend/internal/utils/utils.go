package utils

import (
	"strings"
	"unicode/utf8"

	"github.com/itchan-dev/threads/shared/errors"
)

type TextValidator struct {
	MaxLength int
}

func NewTextValidator(maxLength int) *TextValidator {
	return &TextValidator{MaxLength: maxLength}
}

func (v *TextValidator) Text(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.BadRequest("Text is too short")
	}
	if v.MaxLength > 0 && utf8.RuneCountInString(text) > v.MaxLength {
		return errors.BadRequest("Text is too long")
	}
	return nil
}
