package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/docmap/pkg/invitation"
)

func newSaveCmd(flags *rootFlags) *cobra.Command {
	var (
		name string
		id   string
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save an invitation and print what the store returned",
		Long: `Save maps an invitation to its document, stores it, and maps the stored
document back. A new random ID is generated unless --id is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv := invitation.New(name)
			if id != "" {
				parsed, err := uuid.Parse(id)
				if err != nil {
					return fmt.Errorf("invalid --id %q: %w", id, err)
				}
				inv.ID = parsed
			}

			store, err := openStore(cmd, flags)
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Saving: %s\n", inv)
			saved, err := store.Invitations.Save(cmd.Context(), inv)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s\n", saved)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "bobo", "Invitation name")
	cmd.Flags().StringVar(&id, "id", "", "Invitation ID (UUID); random when empty")
	return cmd
}
