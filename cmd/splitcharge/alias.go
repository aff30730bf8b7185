package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitcharge/internal/render"
	"github.com/mmynk/splitcharge/internal/service"
)

func newAliasCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage the alias book used as default receipt aliases",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set NAME HANDLE",
			Short: `Map NAME to a payment handle, "me" or "everyone"`,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withAliases(func(svc *service.AliasService) error {
					alias, err := svc.SetAlias(cmd.Context(), args[0], args[1])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", alias.Name, alias.Handle)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored aliases",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withAliases(func(svc *service.AliasService) error {
					aliases, err := svc.ListAliases(cmd.Context())
					if err != nil {
						return err
					}
					render.Aliases(cmd.OutOrStdout(), aliases)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:     "rm NAME",
			Aliases: []string{"remove"},
			Short:   "Remove a stored alias",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withAliases(func(svc *service.AliasService) error {
					return svc.RemoveAlias(cmd.Context(), args[0])
				})
			},
		},
	)

	return cmd
}

func (a *app) withAliases(fn func(*service.AliasService) error) error {
	store, err := a.openAliasBook(true)
	if err != nil {
		return fmt.Errorf("failed to open alias book: %w", err)
	}
	if store == nil {
		return fmt.Errorf("no alias book configured")
	}
	defer store.Close()

	return fn(service.NewAliasService(store))
}
