package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/catalog-client/pkg/graphql"
	"github.com/Sternrassler/catalog-client/pkg/notify"
	"github.com/Sternrassler/catalog-client/pkg/pagination"
)

// Validation errors for NewBook.
var (
	ErrNameRequired   = errors.New("name is required")
	ErrAuthorRequired = errors.New("author id is required")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// requiredErrors maps NewBook fields to their sentinel.
var requiredErrors = map[string]error{
	"Name":     ErrNameRequired,
	"AuthorID": ErrAuthorRequired,
}

// NewBook is the input of the add-book form.
type NewBook struct {
	Name     string `json:"name" validate:"required"`
	AuthorID string `json:"authorId" validate:"required"`
}

// Normalize trims surrounding whitespace from all fields.
func (b NewBook) Normalize() NewBook {
	return NewBook{
		Name:     strings.TrimSpace(b.Name),
		AuthorID: strings.TrimSpace(b.AuthorID),
	}
}

// Validate reports every missing required field.
func (b NewBook) Validate() error {
	err := validate.Struct(b.Normalize())
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if sentinel, ok := requiredErrors[fe.StructField()]; ok && fe.Tag() == "required" {
			errs = append(errs, sentinel)
			continue
		}
		errs = append(errs, fmt.Errorf("%s is invalid: %s", fe.Field(), fe.Tag()))
	}
	return errors.Join(errs...)
}

// BookCreator runs the add-book mutation and signals a Notifier on success.
// It never inspects or touches the list the notifier refreshes.
type BookCreator struct {
	requester pagination.Requester
	notifier  notify.Notifier
	logger    zerolog.Logger
}

// NewBookCreator creates a BookCreator. A nil notifier is replaced by notify.Nop.
func NewBookCreator(requester pagination.Requester, notifier notify.Notifier) (*BookCreator, error) {
	if requester == nil {
		return nil, fmt.Errorf("requester is required")
	}
	if notifier == nil {
		notifier = notify.Nop
	}
	return &BookCreator{
		requester: requester,
		notifier:  notifier,
		logger:    log.With().Str("component", "book-creator").Logger(),
	}, nil
}

// Create validates b, inserts it and, once the insert is confirmed, calls
// NotifyChanged. Invalid input returns the validation error without a request.
func (c *BookCreator) Create(ctx context.Context, b NewBook) (Book, error) {
	if err := b.Validate(); err != nil {
		return Book{}, err
	}
	b = b.Normalize()

	data, err := c.requester.Do(ctx, AddBookMutation, map[string]any{
		"object": map[string]any{
			"name":     b.Name,
			"authorId": b.AuthorID,
		},
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("error_class", string(graphql.ClassOf(err))).Msg("Add book failed")
		return Book{}, fmt.Errorf("add book: %w", err)
	}

	var decoded struct {
		Inserted *Book `json:"insert_book_book_one"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return Book{}, fmt.Errorf("add book: %w", graphql.ParseError("decode insert_book_book_one", err))
	}
	if decoded.Inserted == nil {
		return Book{}, fmt.Errorf("add book: %w", graphql.ParseError("insert_book_book_one is null", nil))
	}

	c.logger.Info().
		Str("id", string(decoded.Inserted.ID)).
		Str("name", decoded.Inserted.Name).
		Msg("Book added")

	c.notifier.NotifyChanged()
	return *decoded.Inserted, nil
}
