package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aegiswhistle/aegis/internal/identity"
	"github.com/aegiswhistle/aegis/internal/intake"
	"github.com/aegiswhistle/aegis/pkg/models"
	"github.com/spf13/cobra"
)

// ActorEnv names the default acting user for lifecycle commands.
const ActorEnv = "AEGIS_ACTOR"

func newReportCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:     "report",
		Aliases: []string{"reports"},
		Short:   "List, inspect and work whistleblower reports",
	}
	cmd.PersistentFlags().StringVar(&actor, "as", "", "Act as this user id (env: "+ActorEnv+")")
	cmd.AddCommand(newReportListCmd())
	cmd.AddCommand(newReportShowCmd())
	cmd.AddCommand(newReportCountsCmd())
	cmd.AddCommand(newReportRecentCmd())
	cmd.AddCommand(newReportAssignCmd(&actor))
	cmd.AddCommand(newReportStatusCmd(&actor))
	cmd.AddCommand(newReportNoteCmd(&actor))
	cmd.AddCommand(newReportSubmitCmd())
	return cmd
}

func actorSession(dirUsers *identity.Directory, flag string) identity.Session {
	id := flag
	if id == "" {
		id = os.Getenv(ActorEnv)
	}
	return dirUsers.SessionFor(strings.TrimSpace(id))
}

func printReportLine(w io.Writer, r models.Report) {
	assignee := "unassigned"
	if r.AssignedTo != nil && *r.AssignedTo != "" {
		assignee = *r.AssignedTo
	}
	_, _ = fmt.Fprintf(w, "- %s [%s] %s (%s, %s)\n", r.ID, r.Status, r.Title, r.Date, assignee)
}

func printReportDetail(w io.Writer, r models.Report) {
	_, _ = fmt.Fprintf(w, "%s  %s\n", r.ID, r.Title)
	_, _ = fmt.Fprintf(w, "Status:      %s\n", r.Status.Label())
	_, _ = fmt.Fprintf(w, "Priority:    %s\n", r.EffectivePriority())
	_, _ = fmt.Fprintf(w, "Date:        %s", r.Date)
	if r.Time != nil {
		_, _ = fmt.Fprintf(w, " %s", *r.Time)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Reported by: %s\n", r.Reporter())
	if r.AssignedTo != nil {
		_, _ = fmt.Fprintf(w, "Assigned to: %s\n", *r.AssignedTo)
	}
	if len(r.Categories) > 0 {
		_, _ = fmt.Fprintf(w, "Categories:  %s\n", strings.Join(r.Categories, ", "))
	}
	if len(r.Tags) > 0 {
		_, _ = fmt.Fprintf(w, "Tags:        %s\n", strings.Join(r.Tags, ", "))
	}
	_, _ = fmt.Fprintf(w, "\n%s\n", r.Summary)
	if len(r.Actions) > 0 {
		_, _ = fmt.Fprintln(w, "\nActivity:")
		for _, a := range r.Actions {
			_, _ = fmt.Fprintf(w, "  %s  %s (%s)\n", a.Timestamp, a.Action, a.User)
			if a.Note != nil {
				_, _ = fmt.Fprintf(w, "      %s\n", *a.Note)
			}
		}
	}
}

func writeJSONOut(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func newReportListCmd() *cobra.Command {
	var (
		search string
		status string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reports (filter with --search and --status)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != models.StatusAll && !models.Status(status).Valid() {
				return fmt.Errorf("invalid --status %q (want all, new, under_review, escalated or resolved)", status)
			}
			d, closeFn, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			reports := d.Filter(cmd.Context(), search, status)
			if asJSON {
				return writeJSONOut(cmd.OutOrStdout(), reports)
			}
			if len(reports) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No reports found.")
				return nil
			}
			for _, r := range reports {
				printReportLine(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive match on title, summary or id")
	cmd.Flags().StringVar(&status, "status", models.StatusAll, "Status filter: all, new, under_review, escalated, resolved")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newReportShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one report with its activity log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			r, err := d.Report(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSONOut(cmd.OutOrStdout(), r)
			}
			printReportDetail(cmd.OutOrStdout(), r)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newReportCountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Count reports per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			counts := d.Counts(cmd.Context())
			total := 0
			for _, s := range models.Statuses {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-13s %d\n", s.Label(), counts[s])
				total += counts[s]
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-13s %d\n", "Total", total)
			return nil
		},
	}
	return cmd
}

func newReportRecentCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			d, closeFn, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			for _, r := range d.Recent(cmd.Context(), limit) {
				printReportLine(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", models.DefaultRecentLimit, "Number of reports")
	return cmd
}

func newReportAssignCmd(actor *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign <id> <investigator>",
		Short: "Assign a report to an investigator (user id or name)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			r, err := d.Assign(cmd.Context(), actorSession(d.Directory, *actor), args[0], args[1])
			if err != nil {
				return err
			}
			printReportLine(cmd.OutOrStdout(), r)
			return nil
		},
	}
	return cmd
}

func newReportStatusCmd(actor *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change a report's status (new, under_review, escalated, resolved)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			r, err := d.ChangeStatus(cmd.Context(), actorSession(d.Directory, *actor), args[0], args[1])
			if err != nil {
				return err
			}
			printReportLine(cmd.OutOrStdout(), r)
			return nil
		},
	}
	return cmd
}

func newReportNoteCmd(actor *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note <id> <text...>",
		Short: "Add a note to a report's activity log",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			r, err := d.AddNote(cmd.Context(), actorSession(d.Directory, *actor), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Note added to %s (%d entries)\n", r.ID, len(r.Actions))
			return nil
		},
	}
	return cmd
}

func newReportSubmitCmd() *cobra.Command {
	var (
		file string
		p    intake.Payload
		kind string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "File a new report (flags, or a JSON payload with --file, - for stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				var (
					b   []byte
					err error
				)
				if file == "-" {
					b, err = io.ReadAll(cmd.InOrStdin())
				} else {
					b, err = os.ReadFile(file)
				}
				if err != nil {
					return err
				}
				p = intake.Payload{}
				if err := json.Unmarshal(b, &p); err != nil {
					return fmt.Errorf("parse payload: %w", err)
				}
			} else {
				p.Type = intake.Kind(kind)
			}
			d, closeFn, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			r, err := d.Submit(cmd.Context(), p)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Submitted %s\n", r.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Read the intake payload from a JSON file")
	cmd.Flags().StringVar(&kind, "type", string(intake.KindManual), "Payload type: manual, transcript, end-of-call-report")
	cmd.Flags().StringVar(&p.Title, "title", "", "Report title")
	cmd.Flags().StringVar(&p.Summary, "summary", "", "Report summary")
	cmd.Flags().StringVar(&p.Transcript, "transcript", "", "Full transcript")
	cmd.Flags().StringVar(&p.AudioURL, "audio-url", "", "Recording URL")
	cmd.Flags().StringSliceVar(&p.Categories, "category", nil, "Category (repeatable)")
	cmd.Flags().StringSliceVar(&p.Tags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().StringVar(&p.Priority, "priority", "", "Priority: low, medium, high")
	cmd.Flags().StringVar(&p.ReportedBy, "reported-by", "", "Reporter (default Anonymous)")
	return cmd
}
