package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/catalog-client/pkg/config"
	"github.com/Sternrassler/catalog-client/pkg/pagination"
)

type listOptions struct {
	collection string
	pages      int
}

func newListCmd(load func() (config.Config, error)) *cobra.Command {
	opts := listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print catalog pages to stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if opts.collection == "" {
				opts.collection = cfg.List.Collection
			}
			gqlClient, err := newGraphQLClient(cfg)
			if err != nil {
				return fmt.Errorf("create graphql client: %w", err)
			}
			return runList(cmd.Context(), gqlClient, cfg.List.PageSize, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.collection, "collection", "", "collection to list: books or authors (default: list.collection)")
	cmd.Flags().IntVar(&opts.pages, "pages", 1, "number of pages to load, 0 for all")
	return cmd
}

func runList(ctx context.Context, requester pagination.Requester, pageSize int, opts listOptions, out io.Writer) error {
	view, err := lookupCollection(opts.collection)
	if err != nil {
		return err
	}
	ctrl, err := view.newController(requester, pageSize)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	ctrl.LoadInitial()
	state, err := ctrl.WaitIdle(ctx)
	if err != nil {
		return err
	}
	for loaded := 1; state.Error == nil && state.HasMore && (opts.pages == 0 || loaded < opts.pages); loaded++ {
		if !ctrl.LoadMore() {
			break
		}
		if state, err = ctrl.WaitIdle(ctx); err != nil {
			return err
		}
	}

	if state.Error != nil {
		return fmt.Errorf("%s failed (%s): %s", state.Error.Op, state.Error.Class, state.Error.Message)
	}

	if err := view.print(out, state); err != nil {
		return err
	}
	if state.HasMore {
		fmt.Fprintf(out, "(%d shown, more available)\n", len(state.Items))
	} else {
		fmt.Fprintf(out, "(%d shown, end of list)\n", len(state.Items))
	}
	return nil
}
