package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/teamscribe/teamscribe/config"
	"github.com/teamscribe/teamscribe/identify"
	"github.com/teamscribe/teamscribe/orchestrator"
	"github.com/teamscribe/teamscribe/team"
)

type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "teamscribe",
		Short: "Put names on anonymous meeting speakers",
		Long: `teamscribe matches the "Спикер N" labels of a meeting transcript against a
configured team roster, merges that with hints from the meeting summary, and
writes the renamed transcript with a participant report.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "settings file (default: CONFIG_ENV search paths)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(newIdentifyCommand(g), newValidateCommand(g), newRosterCommand(g))
	return root
}

// setup loads settings, applying flags that were set explicitly, and
// configures logging.
func setup(cmd *cobra.Command, g *globalFlags, flagKeys map[string]string) (*config.Root, error) {
	overrides := map[string]any{}
	if g.logLevel != "" {
		overrides["pipeline.log_level"] = g.logLevel
	}
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}

	root, err := config.Load(g.configPath, overrides)
	if err != nil {
		return nil, err
	}
	if err := setupLogging(cmd.ErrOrStderr(), root.Pipeline.LogLvl); err != nil {
		return nil, err
	}
	return root, nil
}

func setupLogging(w io.Writer, level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(w)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// loadTeam reads the team configuration and logs its warnings. A missing
// file yields nil values: identification then reports itself disabled.
func loadTeam(path string) (*config.TeamConfig, *team.Roster, error) {
	tc, rep, err := config.LoadTeamConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		logrus.WithField("path", path).Warn("team config not found, speaker identification disabled")
		return nil, nil, nil
	}
	if rep != nil {
		for _, w := range rep.Warnings {
			logrus.WithField("path", path).Warn(w)
		}
	}
	if err != nil {
		return nil, nil, err
	}
	roster, err := team.NewRoster(tc.Teams)
	if err != nil {
		return nil, nil, err
	}
	return tc, roster, nil
}

func newIdentifyCommand(g *globalFlags) *cobra.Command {
	var in orchestrator.Input
	cmd := &cobra.Command{
		Use:   "identify",
		Short: "Identify speakers in a transcript and write the renamed outputs",
		Example: `  teamscribe identify --transcript standup.txt --summary standup_summary.md --template standup
  teamscribe identify --transcript review.txt --team-config team.yaml --outputs ./out
  teamscribe identify --audio standup.wav --template standup`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.TranscriptPath == "" && in.AudioPath == "" {
				return errors.New("one of --transcript or --audio is required")
			}
			root, err := setup(cmd, g, map[string]string{
				"team-config": "paths.team_config",
				"outputs":     "paths.outputs",
				"template":    "identification.template_type",
			})
			if err != nil {
				return err
			}
			tc, roster, err := loadTeam(root.Paths.TeamConfig)
			if err != nil {
				return err
			}
			in.TemplateType = root.Identification.TemplateType

			r, err := orchestrator.NewPipeline(root, tc, roster).Run(cmd.Context(), in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			s := r.MappingSummary
			fmt.Fprintf(out, "run %s: %d speakers identified (%d team, %d external)\n",
				r.RunID, s.TotalReplacements, s.TeamMembersFound, s.ExternalSpeakers)
			for _, e := range r.Mapping.Entries {
				fmt.Fprintf(out, "  %s → %s [%s, %.0f%%]\n", e.Label, e.Replacement, e.Source, e.Confidence*100)
			}
			fmt.Fprintf(out, "outputs: %s\n", r.Artifacts.Dir)
			if r.PublishedURL != "" {
				fmt.Fprintf(out, "published: %s\n", r.PublishedURL)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in.TranscriptPath, "transcript", "", "transcript file")
	cmd.Flags().StringVar(&in.AudioPath, "audio", "", "audio file to transcribe through services.asr.url when --transcript is absent")
	cmd.Flags().StringVar(&in.SummaryPath, "summary", "", "meeting summary file; without it the summary service is asked")
	cmd.Flags().String("template", "", "meeting template type, e.g. standup")
	cmd.Flags().String("team-config", "", "team configuration file (JSON or YAML)")
	cmd.Flags().String("outputs", "", "directory for session outputs")
	cmd.MarkFlagsMutuallyExclusive("transcript", "audio")
	return cmd
}

func newValidateCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a team configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := setup(cmd, g, map[string]string{"team-config": "paths.team_config"})
			if err != nil {
				return err
			}
			path := root.Paths.TeamConfig
			tc, rep, err := config.LoadTeamConfig(path)
			out := cmd.OutOrStdout()
			if rep != nil {
				for _, e := range rep.Errors {
					fmt.Fprintf(out, "error: %s\n", e)
				}
				for _, w := range rep.Warnings {
					fmt.Fprintf(out, "warning: %s\n", w)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: ok, %d members in %d teams\n", path, tc.MemberCount(), len(tc.Teams))
			return nil
		},
	}
	cmd.Flags().String("team-config", "", "team configuration file (JSON or YAML)")
	return cmd
}

func newRosterCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "List the configured team members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := setup(cmd, g, map[string]string{"team-config": "paths.team_config"})
			if err != nil {
				return err
			}
			tc, roster, err := loadTeam(root.Paths.TeamConfig)
			if err != nil {
				return err
			}
			if roster == nil {
				return fmt.Errorf("team config %s not found", root.Paths.TeamConfig)
			}

			out := cmd.OutOrStdout()
			stats := roster.Stats()
			format := identify.NewFormatter(tc.Output)
			fmt.Fprintf(out, "%d members in %d teams\n", stats.TotalMembers, len(stats.Teams))
			for _, t := range stats.Teams {
				fmt.Fprintf(out, "\n%s (%d):\n", format.TeamName(t), stats.TeamSizes[t])
				for _, id := range stats.TeamBreakdown[t] {
					p, _ := roster.Get(id)
					fmt.Fprintf(out, "  %-12s %s - %s\n", id, p.FullName, p.Role)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("team-config", "", "team configuration file (JSON or YAML)")
	return cmd
}
