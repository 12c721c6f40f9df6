package main

import (
	"context"

	"github.com/spf13/cobra"

	"library-admin/render"
)

func (a *app) lendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lend",
		Short: "Lend and return books",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show every book with its lend state",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return a.lendStatus(cmd.Context()) },
	}

	var userID int64
	book := &cobra.Command{
		Use:   "book BOOK_ID",
		Short: "Lend a book to yourself or, as ADMIN, to --user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.lendBook(cmd.Context(), bookID, userID)
		},
	}
	book.Flags().Int64Var(&userID, "user", 0, "borrower user id (default yourself)")

	ret := &cobra.Command{
		Use:   "return LENDING_ID",
		Short: "Return a lent book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lendingID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.returnBook(cmd.Context(), lendingID)
		},
	}

	cmd.AddCommand(status, book, ret)
	return cmd
}

func (a *app) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show library totals and lend activity",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return a.dashboard(cmd.Context()) },
	}
}

func (a *app) lendStatus(ctx context.Context) error {
	l := a.console.Lending()
	l.Open(ctx)
	if err := a.report(l); err != nil {
		return err
	}
	return emit(a, l.Entries(), render.Lending)
}

func (a *app) lendBook(ctx context.Context, bookID, userID int64) error {
	l := a.console.Lending()
	l.Open(ctx)
	if err := a.report(l); err != nil {
		return err
	}
	l.Lend(ctx, bookID, userID)
	return a.report(l)
}

func (a *app) returnBook(ctx context.Context, lendingID int64) error {
	l := a.console.Lending()
	l.Open(ctx)
	if err := a.report(l); err != nil {
		return err
	}
	l.Return(ctx, lendingID)
	return a.report(l)
}

func (a *app) dashboard(ctx context.Context) error {
	d := a.console.Dashboard()
	d.Open(ctx)
	if err := a.report(d); err != nil {
		return err
	}
	return emit(a, d.Stats(), render.Dashboard)
}
