// Package cli implements the ideactl command tree over a single user's store.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"ideapardaz/application/commands"
	"ideapardaz/application/queries"
	"ideapardaz/application/services"
	"ideapardaz/domain/core/entities"
	"ideapardaz/infrastructure/snapshot"

	"github.com/spf13/cobra"
)

// Env supplies the command tree with its collaborators
type Env struct {
	// Store opens the store of userID
	Store func(ctx context.Context, userID string) (*services.IdeaStore, error)
	// Sign issues an API token; nil when no signing secret is configured
	Sign func(userID, email string, ttl time.Duration) (string, error)
	// DefaultUser is acted on unless --user is given
	DefaultUser string
	Now         func() time.Time
}

// session binds the environment to the user chosen on the command line
type session struct {
	Env
	userID string
}

func (s *session) open(ctx context.Context) (*services.IdeaStore, error) {
	return s.Store(ctx, s.userID)
}

// NewRootCommand builds the ideactl command tree
func NewRootCommand(env Env) *cobra.Command {
	if env.Now == nil {
		env.Now = time.Now
	}
	s := &session{Env: env}
	root := &cobra.Command{
		Use:           "ideactl",
		Short:         "Capture, link and back up ideas",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&s.userID, "user", "u", env.DefaultUser, "User whose ideas to act on")

	root.AddCommand(
		addCmd(s),
		listCmd(s),
		showCmd(s),
		flagCmd(s, "archive", "Archive an idea", (*services.IdeaStore).ArchiveIdea),
		flagCmd(s, "unarchive", "Return an idea to the active list", (*services.IdeaStore).UnarchiveIdea),
		flagCmd(s, "pin", "Toggle the pin on an idea", (*services.IdeaStore).TogglePinIdea),
		flagCmd(s, "delete", "Delete an idea and its links", (*services.IdeaStore).DeleteIdea),
		linkCmd(s, "link", "Link two ideas", (*services.IdeaStore).LinkIdeas),
		linkCmd(s, "unlink", "Remove the link between two ideas", (*services.IdeaStore).UnlinkIdeas),
		vibesCmd(s),
		exportCmd(s),
		importCmd(s),
		tokenCmd(s),
	)
	return root
}

func addCmd(env *session) *cobra.Command {
	var cmdArgs commands.AddIdeaCommand
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Capture a new idea",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := env.open(cmd.Context())
			if err != nil {
				return err
			}
			idea, err := store.AddIdea(cmd.Context(), cmdArgs)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), idea.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cmdArgs.Title, "title", "t", "", "Idea title")
	cmd.Flags().StringVarP(&cmdArgs.Content, "content", "c", "", "Idea content")
	cmd.Flags().StringVarP(&cmdArgs.VibeID, "vibe", "v", entities.BuiltinVibes[0].ID, "Vibe id")
	cmd.Flags().StringSliceVarP(&cmdArgs.LinkedIdeaIDs, "link", "l", nil, "Ids of ideas to link")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func listCmd(env *session) *cobra.Command {
	var archived, all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ideas, pinned first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := env.open(cmd.Context())
			if err != nil {
				return err
			}
			view := queries.ViewActive
			switch {
			case all:
				view = queries.ViewAll
			case archived:
				view = queries.ViewArchived
			}
			return printIdeas(cmd.OutOrStdout(), store.Ideas(view), store.VibesByID())
		},
	}
	cmd.Flags().BoolVarP(&archived, "archived", "a", false, "List archived ideas")
	cmd.Flags().BoolVar(&all, "all", false, "List every idea")
	cmd.MarkFlagsMutuallyExclusive("archived", "all")
	return cmd
}

func printIdeas(out io.Writer, ideas []entities.Idea, vibes map[string]entities.Vibe) error {
	if len(ideas) == 0 {
		_, err := fmt.Fprintln(out, "No ideas")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPIN\tVIBE\tTITLE\tLINKS")
	for _, idea := range ideas {
		pin := ""
		if idea.IsPinned {
			pin = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", idea.ID, pin, vibeName(vibes, idea.VibeID), idea.Title, len(idea.LinkedIdeaIDs))
	}
	return w.Flush()
}

func vibeName(vibes map[string]entities.Vibe, id string) string {
	if v, ok := vibes[id]; ok {
		return v.Name
	}
	return "?"
}

func showCmd(env *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one idea with its links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := env.open(cmd.Context())
			if err != nil {
				return err
			}
			idea, err := store.Idea(args[0])
			if err != nil {
				return err
			}
			ideas := store.IdeasByID()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n%s\n\n", idea.Title, strings.Repeat("=", len(idea.Title)))
			fmt.Fprintln(out, idea.Content)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Vibe:     %s\n", vibeName(store.VibesByID(), idea.VibeID))
			fmt.Fprintf(out, "Created:  %s\n", time.UnixMilli(idea.Timestamp).Format(time.RFC3339))
			fmt.Fprintf(out, "Pinned:   %t\n", idea.IsPinned)
			fmt.Fprintf(out, "Archived: %t\n", idea.IsArchived)
			if len(idea.LinkedIdeaIDs) > 0 {
				fmt.Fprintln(out, "Links:")
				for _, id := range idea.LinkedIdeaIDs {
					fmt.Fprintf(out, "  %s  %s\n", id, ideas[id].Title)
				}
			}
			return nil
		},
	}
}

func flagCmd(env *session, use, short string, action func(*services.IdeaStore, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := env.open(cmd.Context())
			if err != nil {
				return err
			}
			return action(store, cmd.Context(), args[0])
		},
	}
}

func linkCmd(env *session, use, short string, action func(*services.IdeaStore, context.Context, string, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id> <other-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := env.open(cmd.Context())
			if err != nil {
				return err
			}
			return action(store, cmd.Context(), args[0], args[1])
		},
	}
}

func vibesCmd(env *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vibes",
		Short: "Manage vibes",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List vibes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := env.open(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tBUILT-IN")
				for _, v := range store.Vibes() {
					fmt.Fprintf(w, "%s\t%s\t%t\n", v.ID, v.Name, entities.IsBuiltinVibe(v.ID))
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Create a vibe",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := env.open(cmd.Context())
				if err != nil {
					return err
				}
				vibe, err := store.AddVibe(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), vibe.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a custom vibe",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := env.open(cmd.Context())
				if err != nil {
					return err
				}
				return store.DeleteVibe(cmd.Context(), args[0])
			},
		},
	)
	return cmd
}

func exportCmd(env *session) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write a backup of every vibe and idea",
		Long: `Write a JSON backup. Without a file argument the backup is named
after the current time in the working directory; "-" writes to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := env.open(cmd.Context())
			if err != nil {
				return err
			}
			state := store.ExportSnapshot()

			path := snapshot.FileName(env.Now())
			if len(args) == 1 {
				path = args[0]
			}
			if path == "-" {
				return snapshot.Write(cmd.OutOrStdout(), state)
			}

			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := snapshot.Write(f, state); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d ideas and %d vibes to %s\n", len(state.Ideas), len(state.Vibes), path)
			return nil
		},
	}
}

func importCmd(env *session) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace every vibe and idea with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("import replaces all existing data; pass --yes to confirm")
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			state, err := snapshot.Read(f)
			if err != nil {
				return err
			}
			store, err := env.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.ImportSnapshot(cmd.Context(), state); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d ideas and %d vibes\n", len(state.Ideas), len(state.Vibes))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm replacing existing data")
	return cmd
}

func tokenCmd(env *session) *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if env.Sign == nil {
				return errors.New("no signing secret configured; set IDEAS_JWT_SECRET")
			}
			token, err := env.Sign(env.userID, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
