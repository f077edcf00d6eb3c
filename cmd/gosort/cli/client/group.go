package client

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mwantia/gosort/internal/groupstore"
	"github.com/mwantia/gosort/internal/processor"
	"github.com/mwantia/gosort/pkg/event"
	"github.com/mwantia/gosort/pkg/extract"
	"github.com/mwantia/gosort/pkg/group"
	"github.com/mwantia/gosort/pkg/rule"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func NewGroupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage sorting groups",
		Long:  "Manage the groups stored in the group document and list, create, remove or test them.",
	}

	cmd.AddCommand(NewGroupListCommand())
	cmd.AddCommand(NewGroupAddCommand())
	cmd.AddCommand(NewGroupRemoveCommand())
	cmd.AddCommand(NewGroupTestCommand())
	cmd.AddCommand(NewGroupValidateCommand())

	return cmd
}

func NewGroupListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List groups",
		Long:    "List every group of the group document together with its activation status.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			doc, err := s.store.Read()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if doc.Len() == 0 {
				fmt.Fprintf(out, "No groups defined in %s\n", s.store.Path())
				return nil
			}

			registry := group.NewRegistry()

			rows := make([][]string, 0, doc.Len())
			for i := range doc.Len() {
				g, err := doc.Entry(i)
				if err != nil {
					rows = append(rows, []string{strconv.Itoa(i + 1), "", "", "", "invalid: " + err.Error()})
					continue
				}

				status := "active"
				if err := registry.Add(g); err != nil {
					status = "rejected: " + err.Error()
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					strings.Join(g.WatchDirectories(), "\n"),
					g.TargetDirectory(),
					describeRules(g.Rules()),
					status,
				})
			}

			fmt.Fprint(out, renderTable(
				[]string{"#", "Watch Directories", "Target", "Rules", "Status"},
				rows,
				[]columnAlignment{alignRight},
			))
			return nil
		},
	}

	return cmd
}

// groupOptions collects the flags of 'group add'.
type groupOptions struct {
	watch         []string
	target        string
	extensions    []string
	category      string
	name          string
	content       string
	caseSensitive bool
	regex         bool
	olderThan     int64
	accessedAfter string
}

func (o groupOptions) build() (*group.Group, error) {
	if len(o.watch) == 0 {
		return nil, errors.New("at least one --watch directory is required")
	}

	watch := make([]string, 0, len(o.watch))
	for _, dir := range o.watch {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		watch = append(watch, abs)
	}

	target := o.target
	if target != "" {
		abs, err := filepath.Abs(target)
		if err != nil {
			return nil, err
		}
		target = abs
	}

	g := group.New(watch, target)

	if len(o.extensions) > 0 {
		r, err := rule.NewExtensionRule(o.extensions...)
		if err != nil {
			return nil, err
		}
		g.AddRule(r)
	}
	if o.category != "" {
		r, err := rule.NewCategoryRule(o.category)
		if err != nil {
			return nil, err
		}
		g.AddRule(r)
	}
	if o.name != "" {
		r, err := rule.NewNameContainsRule(o.name, o.caseSensitive, o.regex)
		if err != nil {
			return nil, err
		}
		g.AddRule(r)
	}
	if o.content != "" {
		r, err := rule.NewContentContainsRule(o.content, o.caseSensitive, o.regex)
		if err != nil {
			return nil, err
		}
		g.AddRule(r)
	}
	if o.olderThan >= 0 {
		r, err := rule.NewLastAccessedRule(o.olderThan)
		if err != nil {
			return nil, err
		}
		g.AddRule(r)
	}
	if o.accessedAfter != "" {
		t, err := time.ParseInLocation(time.DateOnly, o.accessedAfter, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid --accessed-after date: %w", err)
		}
		g.AddRule(rule.NewAccessedAfterRule(t))
	}

	return g, nil
}

func NewGroupAddCommand() *cobra.Command {
	opts := groupOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a group",
		Long: `Add a group to the group document.

Every rule flag adds one rule, a file has to match all of them. The group
is validated against the existing groups before it is saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.build()
			if err != nil {
				return err
			}

			s, err := newSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			doc, err := s.store.Read()
			if err != nil {
				return err
			}

			registry, _ := activate(doc.Groups())
			if err := registry.Add(g); err != nil {
				return fmt.Errorf("group cannot be added: %w", err)
			}

			doc.Append(g)
			if err := s.store.Write(doc); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added group #%d %s\n", doc.Len(), g)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&opts.watch, "watch", "w", nil, "directory to watch (repeatable)")
	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "target directory for matching files")
	cmd.Flags().StringSliceVar(&opts.extensions, "ext", nil, "file extensions to match")
	cmd.Flags().StringVar(&opts.category, "category", "", "file category to match (Image, Document, Audio, Video)")
	cmd.Flags().StringVar(&opts.name, "name", "", "text the file name has to contain")
	cmd.Flags().StringVar(&opts.content, "content", "", "text the file content has to contain")
	cmd.Flags().BoolVar(&opts.caseSensitive, "case-sensitive", false, "match --name and --content case sensitive")
	cmd.Flags().BoolVar(&opts.regex, "regex", false, "treat --name and --content as regular expressions")
	cmd.Flags().Int64Var(&opts.olderThan, "older-than", -1, "match files not accessed within this many days")
	cmd.Flags().StringVar(&opts.accessedAfter, "accessed-after", "", "match files accessed after this date (YYYY-MM-DD)")

	cmd.MarkFlagRequired("target")

	return cmd
}

func NewGroupRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <index>",
		Aliases: []string{"remove"},
		Short:   "Remove a group",
		Long:    "Removes the entry at the index shown by 'group ls', including entries that cannot be decoded.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index '%s': %w", args[0], err)
			}

			s, err := newSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			doc, err := s.store.Read()
			if err != nil {
				return err
			}

			if index < 1 || index > doc.Len() {
				return fmt.Errorf("index %d out of range (1-%d)", index, doc.Len())
			}

			description := "invalid entry"
			if removed, err := doc.Entry(index - 1); err == nil {
				description = removed.String()
			}

			if err := doc.Remove(index - 1); err != nil {
				return err
			}
			if err := s.store.Write(doc); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed group #%d %s\n", index, description)
			return nil
		},
	}

	return cmd
}

func NewGroupTestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <path>",
		Short: "Test which group a file belongs to",
		Long:  "Evaluates all active groups against a file and shows where it would be moved, without moving it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			s, err := newSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			groups, err := s.store.Load()
			if err != nil {
				return err
			}

			registry, _ := activate(groups)

			fs := afero.NewOsFs()
			env := rule.NewEnv(extract.NewDefault(fs))
			env.MaxContentSize = s.cfg.Content.MaxFileSize

			decision := processor.NewProcessor(fs, registry, env, event.Discard, s.log).Resolve(path)

			out := cmd.OutOrStdout()
			if decision.Matched() {
				rows := make([][]string, 0, len(decision.Groups))
				for _, g := range decision.Groups {
					rows = append(rows, []string{g.TargetDirectory(), describeRules(g.Rules())})
				}
				fmt.Fprint(out, renderTable([]string{"Target", "Rules"}, rows, nil))
			}

			switch {
			case !decision.Matched():
				fmt.Fprintf(out, "No group matches '%s'\n", path)
			case decision.Conflict():
				fmt.Fprintf(out, "Conflict: %v\n", decision.Err())
			case filepath.Join(decision.Target(), filepath.Base(path)) == path:
				fmt.Fprintf(out, "'%s' is already in its target directory\n", path)
			default:
				fmt.Fprintf(out, "'%s' would be moved to '%s'\n", path, decision.Target())
			}
			return nil
		},
	}

	return cmd
}

func NewGroupValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the group document",
		Long:  "Checks that every group of the group document can be decoded and activated.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			data, err := afero.ReadFile(afero.NewOsFs(), s.store.Path())
			if err != nil {
				return fmt.Errorf("failed to read '%s': %w", s.store.Path(), err)
			}

			out := cmd.OutOrStdout()
			groups, decodeErrs := groupstore.Decode(data)
			for _, err := range decodeErrs {
				fmt.Fprintf(out, "invalid: %v\n", err)
			}

			_, rejected := activate(groups)
			for i, g := range groups {
				if err := rejected[i]; err != nil {
					fmt.Fprintf(out, "rejected: %s: %v\n", g, err)
				}
			}

			problems := len(decodeErrs) + len(rejected)
			if problems > 0 {
				return fmt.Errorf("%d problems found in '%s'", problems, s.store.Path())
			}

			fmt.Fprintf(out, "%d groups are valid\n", len(groups))
			return nil
		},
	}

	return cmd
}

func describeRules(rules []rule.Rule) string {
	lines := make([]string, 0, len(rules))
	for _, r := range rules {
		lines = append(lines, r.String())
	}
	return strings.Join(lines, "\n")
}
