package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"librarydesk/internal/book"
	"librarydesk/internal/member"
)

func booksCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{Use: "books", Short: "List and delete books"}

	var state string
	list := &cobra.Command{
		Use:   "list",
		Short: "List books by title",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, a *app, _ []string) error {
			s, err := book.ParseState(state)
			if err != nil {
				return err
			}
			books, err := book.NewService(a.st.Books, a.logger).List(ctx, book.Filter{State: s})
			if err != nil {
				return err
			}
			return a.render(books, table.Row{"ID", "Title", "Author", "Language", "State"}, func(t table.Writer) {
				for _, b := range books {
					t.AppendRow(table.Row{b.ID, b.Title, b.Author, b.Language, b.State})
				}
			})
		}),
	}
	list.Flags().StringVar(&state, "state", "", "filter by state (available, on-loan, under-repair)")

	del := &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Delete a book that is in the library and has no loan history",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := book.NewService(a.st.Books, a.logger).Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "book %d deleted\n", id)
			return nil
		}),
	}

	cmd.AddCommand(list, del)
	return cmd
}

func membersCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{Use: "members", Short: "List members"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List members by name",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, a *app, _ []string) error {
			members, err := member.NewService(a.st.Members).List(ctx)
			if err != nil {
				return err
			}
			return a.render(members, table.Row{"ID", "Name", "Email", "Phone"}, func(t table.Writer) {
				for _, m := range members {
					t.AppendRow(table.Row{m.ID, m.FullName, m.Email, m.Phone})
				}
			})
		}),
	})
	return cmd
}
