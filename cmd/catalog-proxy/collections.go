package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Sternrassler/catalog-client/pkg/catalog"
	"github.com/Sternrassler/catalog-client/pkg/pagination"
)

// collectionView binds a catalog collection to its controller constructor,
// HTTP route and output renderers.
type collectionView struct {
	name          string
	alias         string
	newController func(requester pagination.Requester, pageSize int) (*pagination.Controller, error)
	decode        func(state pagination.ListState) (any, error)
	print         func(w io.Writer, state pagination.ListState) error
}

// path is the HTTP route prefix of the collection.
func (v collectionView) path() string {
	return "/" + v.alias
}

var collectionViews = []collectionView{
	{
		name:          catalog.BooksCollection,
		alias:         "books",
		newController: catalog.NewBooksController,
		decode: func(state pagination.ListState) (any, error) {
			return catalog.Books(state)
		},
		print: printBooks,
	},
	{
		name:          catalog.AuthorsCollection,
		alias:         "authors",
		newController: catalog.NewAuthorsController,
		decode: func(state pagination.ListState) (any, error) {
			return catalog.Authors(state)
		},
		print: printAuthors,
	},
}

// lookupCollection accepts a GraphQL collection name or its short alias.
func lookupCollection(name string) (collectionView, error) {
	for _, v := range collectionViews {
		if name == v.name || name == v.alias {
			return v, nil
		}
	}
	known := make([]string, 0, len(collectionViews))
	for _, v := range collectionViews {
		known = append(known, v.alias)
	}
	return collectionView{}, fmt.Errorf("unknown collection %q (want %s)", name, strings.Join(known, " or "))
}

func printBooks(w io.Writer, state pagination.ListState) error {
	books, err := catalog.Books(state)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAUTHOR")
	for _, b := range books {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, b.Name, b.AuthorName())
	}
	return tw.Flush()
}

func printAuthors(w io.Writer, state pagination.ListState) error {
	authors, err := catalog.Authors(state)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, a := range authors {
		fmt.Fprintf(tw, "%s\t%s\n", a.ID, a.Name)
	}
	return tw.Flush()
}
