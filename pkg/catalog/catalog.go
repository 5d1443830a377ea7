// Package catalog defines the books and authors collections of the catalog
// API and wires them to list controllers.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Sternrassler/catalog-client/pkg/pagination"
)

// Collection names as exposed by the GraphQL API.
const (
	BooksCollection   = "book_book"
	AuthorsCollection = "author_author"
)

// BooksQuery lists books newest first.
const BooksQuery = `query GetAllBooks($limit: Int, $offset: Int) {
  book_book(limit: $limit, offset: $offset, order_by: {created_at: desc}) {
    id
    name
    authorId
    author {
      name
    }
  }
}`

// AuthorsQuery lists authors by name.
const AuthorsQuery = `query GetAllAuthors($limit: Int, $offset: Int) {
  author_author(limit: $limit, offset: $offset, order_by: {name: asc}) {
    id
    name
  }
}`

// AddBookMutation inserts one book.
const AddBookMutation = `mutation AddBook($object: book_book_insert_input!) {
  insert_book_book_one(object: $object) {
    id
    name
    authorId
  }
}`

// ID is a record id that the API may encode as a JSON string or integer.
type ID string

// UnmarshalJSON accepts "12", 12 and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("id must be a string or integer (got %s)", data)
	}
	*id = ID(strconv.FormatInt(n, 10))
	return nil
}

// Author is an author record.
type Author struct {
	ID   ID     `json:"id,omitempty"`
	Name string `json:"name"`
}

// Book is a book record.
type Book struct {
	ID       ID      `json:"id"`
	Name     string  `json:"name"`
	AuthorID ID      `json:"authorId"`
	Author   *Author `json:"author,omitempty"`
}

// AuthorName returns the nested author name, or "" when not loaded.
func (b Book) AuthorName() string {
	if b.Author == nil {
		return ""
	}
	return b.Author.Name
}

// NewBooksController creates a list controller over the books collection.
func NewBooksController(requester pagination.Requester, pageSize int) (*pagination.Controller, error) {
	return newController(requester, BooksQuery, BooksCollection, pageSize)
}

// NewAuthorsController creates a list controller over the authors collection.
func NewAuthorsController(requester pagination.Requester, pageSize int) (*pagination.Controller, error) {
	return newController(requester, AuthorsQuery, AuthorsCollection, pageSize)
}

func newController(requester pagination.Requester, query, collection string, pageSize int) (*pagination.Controller, error) {
	fetcher, err := pagination.NewGraphQLFetcher(requester, query, collection)
	if err != nil {
		return nil, fmt.Errorf("create %s fetcher: %w", collection, err)
	}
	ctrl, err := pagination.New(fetcher, pagination.Config{PageSize: pageSize, Name: collection})
	if err != nil {
		return nil, fmt.Errorf("create %s controller: %w", collection, err)
	}
	return ctrl, nil
}

// Books decodes the items of a books list snapshot.
func Books(state pagination.ListState) ([]Book, error) {
	return decodeAll[Book](state.Items)
}

// Authors decodes the items of an authors list snapshot.
func Authors(state pagination.ListState) ([]Author, error) {
	return decodeAll[Author](state.Items)
}

func decodeAll[T any](items []pagination.Item) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := item.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode item %s: %w", item.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}
