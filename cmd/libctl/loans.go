package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"librarydesk/internal/loan"
)

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id must be a positive integer, got %q", raw)
	}
	return id, nil
}

func loansCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{Use: "loans", Short: "List, show, create, return and delete loans"}

	var status string
	var memberID int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List loans, newest first",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, a *app, _ []string) error {
			st, err := loan.ParseStatus(status)
			if err != nil {
				return err
			}
			loans, err := loan.NewService(a.st.Loans, a.logger).List(ctx, loan.Filter{Status: st, MemberID: memberID})
			if err != nil {
				return err
			}
			return a.render(loans, table.Row{"ID", "Member", "Loan date", "Return date", "Status", "Books"}, func(t table.Writer) {
				for _, l := range loans {
					t.AppendRow(table.Row{l.ID, l.MemberName, l.LoanDate, deref(l.ReturnDate), l.Status, strings.Join(l.Books, ", ")})
				}
				t.AppendFooter(table.Row{"", "", "", "", "Total", len(loans)})
			})
		}),
	}
	list.Flags().StringVar(&status, "status", "", "filter by status (active, returned, partial)")
	list.Flags().Int64Var(&memberID, "member", 0, "filter by member id")

	show := &cobra.Command{
		Use:   "show <loan-id>",
		Short: "Show a loan with its member and books",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, err := loan.NewService(a.st.Loans, a.logger).Get(ctx, id)
			if err != nil {
				return err
			}
			if a.format == formatTable {
				fmt.Fprintf(a.out, "Loan %d for %s (member %d)\nLoaned %s, returned %s, status %s\n",
					d.ID, d.Member.FullName, d.MemberID, d.LoanDate, deref(d.ReturnDate), d.Status)
			}
			return a.render(d, table.Row{"Book ID", "Title", "Author", "State"}, func(t table.Writer) {
				for _, line := range d.Lines {
					t.AppendRow(table.Row{line.Book.ID, line.Book.Title, line.Book.Author, line.Book.State})
				}
			})
		}),
	}

	var createMember int64
	var bookIDs []int64
	create := &cobra.Command{
		Use:   "create",
		Short: "Check books out to a member",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, a *app, _ []string) error {
			id, err := loan.NewService(a.st.Loans, a.logger).CreateLoan(ctx, createMember, bookIDs)
			if err != nil {
				return err
			}
			return a.render(map[string]int64{"id": id}, table.Row{"Loan ID"}, func(t table.Writer) {
				t.AppendRow(table.Row{id})
			})
		}),
	}
	create.Flags().Int64Var(&createMember, "member", 0, "borrowing member id")
	create.Flags().Int64SliceVar(&bookIDs, "books", nil, "book ids, comma separated")
	_ = create.MarkFlagRequired("member")

	ret := &cobra.Command{
		Use:   "return <loan-id>",
		Short: "Mark a loan returned and put its books back",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := loan.NewService(a.st.Loans, a.logger).ReturnLoan(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "loan %d returned\n", id)
			return nil
		}),
	}

	del := &cobra.Command{
		Use:   "delete <loan-id>",
		Short: "Delete a loan that is no longer active",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := loan.NewService(a.st.Loans, a.logger).DeleteLoan(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "loan %d deleted\n", id)
			return nil
		}),
	}

	cmd.AddCommand(list, show, create, ret, del)
	return cmd
}
