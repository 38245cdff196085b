package api

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// Validate checks a book submitted for creation.
func (b Book) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&b.Author, validation.Required, validation.Length(1, 200)),
		validation.Field(&b.ISBN, validation.Length(0, 32)),
		validation.Field(&b.Pages, validation.Min(0)),
		validation.Field(&b.Genre, validation.Length(0, 64)),
	)
}

// Validate checks a partial book update.
func (p BookPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&p.Author, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&p.ISBN, validation.Length(0, 32)),
		validation.Field(&p.Pages, validation.Min(0)),
		validation.Field(&p.Genre, validation.Length(0, 64)),
	)
}

// Validate checks a record submitted for creation.
func (r Record) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Artist, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Year, validation.Min(0), validation.Max(9999)),
		validation.Field(&r.Genre, validation.Length(0, 64)),
	)
}

// Validate checks a partial record update.
func (p RecordPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&p.Artist, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&p.Year, validation.Min(0), validation.Max(9999)),
		validation.Field(&p.Genre, validation.Length(0, 64)),
	)
}

// Validate checks a login request.
func (l LoginRequest) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Username, validation.Required),
		validation.Field(&l.Password, validation.Required),
	)
}

// ValidationFailed converts a validation failure into a classified error.
// Other errors pass through unchanged.
func ValidationFailed(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(validation.Errors); ok {
		return NewValidationError(err.Error(), err)
	}
	return err
}
