package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-matcher/internal/cache"
	"github.com/spigell/hh-matcher/internal/engine"
	"github.com/spigell/hh-matcher/internal/logger"
	"github.com/spigell/hh-matcher/internal/match"
	"github.com/spigell/hh-matcher/internal/profile"
	"github.com/spigell/hh-matcher/internal/report"
)

const (
	PromptBreakdown = "Show breakdown"
	PromptInsights  = "Show insights"
	PromptRanking   = "Show ranking"
	PromptToFile    = "Dump result to file"
	PromptBack      = "back"
	PromptExit      = "Exit"
)

var errExit = errors.New("exit requested")

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score a candidate against a job, or rank several jobs",
	Run: func(cmd *cobra.Command, _ []string) {
		runMatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
	addMatchFlags(matchCmd)
}

func addMatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("request", "r", "", "JSON request with the candidate, the job or jobs and options")
	cmd.Flags().StringP("output", "o", "json", "result format: json or table")
	cmd.Flags().BoolP("interactive", "i", false, "explore the result from a menu instead of printing it")

	cmd.MarkFlagRequired("request")
}

// runMatch is the main command for the cli. Failures surface here, after the
// cache has flushed its pending writes.
func runMatch(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	if err := executeMatch(ctx, cmd, logger); err != nil {
		stop()
		logger.Fatal("match failed", zap.Error(err))
	}
}

func executeMatch(ctx context.Context, cmd *cobra.Command, logger *zap.Logger) error {
	config, err := getConfig()
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}
	if err := config.Engine.Validate(); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}

	logger.Info("starting the hh-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	format, err := report.ParseFormat(cmd.Flag("output").Value.String())
	if err != nil {
		return err
	}

	path := cmd.Flag("request").Value.String()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading the request: %w", err)
	}

	req, err := profile.DecodeRequest(data)
	if err != nil {
		return fmt.Errorf("decoding the request %s: %w", path, err)
	}

	opts, err := engine.DecodeOptions(req.Options)
	if err != nil {
		return fmt.Errorf("decoding request options: %w", err)
	}

	deps, err := newDeps(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("preparing providers: %w", err)
	}
	defer closeCache(deps.Cache, logger)

	e := engine.New(deps, config.Engine, nil, logger)
	for _, st := range e.Describe() {
		logger.Debug("criterion engine",
			zap.String("name", st.Name),
			zap.Bool("enabled", st.Enabled),
			zap.String("reason", st.Reason),
			zap.Any("details", st.Details),
		)
	}

	interactive := cmd.Flag("interactive").Value.String() == "true"

	if req.Job != nil && len(req.Jobs) == 0 {
		s, err := e.ComputeMatch(ctx, req.Candidate, req.Job, req.Company, opts)
		if err != nil {
			return fmt.Errorf("computing the match: %w", err)
		}
		if !interactive {
			return report.Match(os.Stdout, format, s)
		}
		return loop(logger, []string{PromptBreakdown, PromptInsights, PromptToFile, PromptExit}, func(action string) error {
			return handleMatchAction(action, logger, s)
		})
	}

	ranking, err := e.RankJobs(ctx, req.Candidate, req.AllJobs(), req.Company, opts)
	if err != nil {
		return fmt.Errorf("ranking jobs: %w", err)
	}
	logger.Info("ranked jobs", zap.Int("count", len(ranking.Results)), zap.Int("skipped", len(ranking.Skipped)))

	if !interactive {
		return report.Ranking(os.Stdout, format, ranking)
	}
	return loop(logger, []string{PromptRanking, PromptBreakdown, PromptToFile, PromptExit}, func(action string) error {
		return handleRankingAction(action, logger, ranking)
	})
}

func loop(logger *zap.Logger, items []string, handle func(action string) error) error {
	prompt := promptui.Select{
		Label: "Next?",
		Items: items,
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			return fmt.Errorf("prompt: %w", err)
		}

		if err := handle(action); err != nil {
			if errors.Is(err, errExit) {
				logger.Debug("leaving the prompt loop")
				return nil
			}
			return err
		}
	}
}

func handleMatchAction(action string, logger *zap.Logger, s *match.CompositeScore) error {
	switch action {
	case PromptBreakdown:
		return report.Match(os.Stdout, report.FormatTable, s)
	case PromptInsights:
		report.Insights(os.Stdout, s.Insights)
		return nil
	case PromptToFile:
		return dump(logger, s)
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func handleRankingAction(action string, logger *zap.Logger, r *engine.Ranking) error {
	switch action {
	case PromptRanking:
		return report.Ranking(os.Stdout, report.FormatTable, r)
	case PromptBreakdown:
		return chooseResult(logger, r)
	case PromptToFile:
		return dump(logger, r)
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// chooseResult lets the user pick a ranked job and shows its breakdown and insights.
func chooseResult(logger *zap.Logger, r *engine.Ranking) error {
	for {
		items := make([]string, 0, len(r.Results)+1)
		for i, s := range r.Results {
			items = append(items, fmt.Sprintf("%d. %s %.3f %s", i+1, s.JobID, s.FinalScore, s.QualityLevel))
		}

		jobPrompt := promptui.Select{
			Label: "Choose a job and press ENTER",
			Items: append(items, PromptBack),
		}

		idx, selected, err := jobPrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		s := r.Results[idx]
		if err := report.Match(os.Stdout, report.FormatTable, s); err != nil {
			return err
		}
		report.Insights(os.Stdout, s.Insights)
		logger.Debug("shown job breakdown", zap.String("job", s.JobID))
	}
}

func dump(logger *zap.Logger, v any) error {
	filename, err := report.DumpToTmpFile(v)
	if err != nil {
		return fmt.Errorf("dump results to file: %w", err)
	}
	logger.Info("dumping result to file", zap.String("filename", filename))
	return nil
}

func closeCache(mgr *cache.Manager, logger *zap.Logger) {
	if mgr == nil {
		return
	}
	stats := mgr.Stats()
	logger.Debug("cache stats",
		zap.Any("hits", stats.Hits),
		zap.Any("misses", stats.Misses),
		zap.Int64("writes", stats.Writes),
		zap.Int64("errors", stats.Errors),
	)
	if err := mgr.Close(); err != nil {
		logger.Warn("closing the cache", zap.Error(err))
	}
}
