package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spigell/candidate-evaluator/internal/ai"
	"github.com/spigell/candidate-evaluator/internal/evaluation"
	"github.com/spigell/candidate-evaluator/internal/headhunter"
	"github.com/spigell/candidate-evaluator/internal/history"
	"github.com/spigell/candidate-evaluator/internal/jobs"
	"github.com/spigell/candidate-evaluator/internal/logger"
	"github.com/spigell/candidate-evaluator/internal/profile"
	"github.com/spigell/candidate-evaluator/internal/render"
	"github.com/spigell/candidate-evaluator/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"
)

const (
	PromptPrint      = "Print report"
	PromptSaveToFile = "Save report to file"
	PromptDumpToTmp  = "Dump report to temporary file"
	PromptExit       = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptPrint, PromptSaveToFile, PromptDumpToTmp, PromptExit},
}

// newHeadhunter is replaced in tests to point at a local server.
var newHeadhunter = func(token string, cfg *HeadhunterConfig, log *zap.Logger) *headhunter.Client {
	hh := headhunter.New(token, log)
	if cfg.UserAgent != "" {
		hh.UserAgent = cfg.UserAgent
	}
	return hh
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a candidate against a job",
	Run: func(cmd *cobra.Command, _ []string) {
		evaluate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().String("job", "", "job definition file with traits")
	evaluateCmd.Flags().String("candidate", "", "candidate file with profile and sources")
	evaluateCmd.Flags().String("hh-resume", "", "hh.ru resume id to read the candidate from")
	evaluateCmd.Flags().String("hh-vacancy", "", "hh.ru vacancy id to read the job description from")
	evaluateCmd.Flags().String("instructions", "", "additional instructions for the model")
	evaluateCmd.Flags().StringP("output", "o", "", "write the report to a .json or .yaml file")
	evaluateCmd.Flags().BoolP("yes", "y", false, "print the report and exit without asking")

	viper.BindPFlag("job-file", evaluateCmd.Flags().Lookup("job"))
	viper.BindPFlag("candidate-file", evaluateCmd.Flags().Lookup("candidate"))
	viper.BindPFlag("instructions", evaluateCmd.Flags().Lookup("instructions"))
	viper.BindPFlag("output", evaluateCmd.Flags().Lookup("output"))
}

func evaluate(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, err := logger.New(logger.Options{JSON: viper.GetBool("json"), Debug: viper.GetBool("debug")})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the candidate-evaluator", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	resumeID, _ := cmd.Flags().GetString("hh-resume")
	vacancyID, _ := cmd.Flags().GetString("hh-vacancy")

	input, title, err := prepareInput(ctx, config, resumeID, vacancyID, logger)
	if err != nil {
		logger.Fatal("preparing evaluation input", zap.Error(err))
	}

	logger.Info("evaluating candidate",
		zap.String("candidate", input.Candidate.FullName),
		zap.String("job", input.Job.Title),
		zap.Int("traits", len(input.Traits)),
	)

	engine, err := newEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing evaluation engine", zap.Error(err))
	}

	report, err := engine.Run(ctx, *input)
	if err != nil {
		logger.Fatal("evaluation failed", zap.Error(err))
	}

	if config.History.Enabled {
		if id, err := saveHistory(ctx, config.History.Path, input, report); err != nil {
			logger.Warn("saving evaluation to history", zap.Error(err))
		} else {
			logger.Info("saved evaluation to history", zap.String("id", id))
		}
	}

	if config.Output != "" {
		if err := writeReport(config.Output, report); err != nil {
			logger.Fatal("writing report", zap.Error(err), zap.String("filename", config.Output))
		}
		logger.Info("report written", zap.String("filename", config.Output))
	}

	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		fmt.Fprintln(cmd.OutOrStdout(), render.Report(title, report))
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(cmd, action, title, report, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(cmd *cobra.Command, action, title string, report *evaluation.Report, logger *zap.Logger) error {
	switch action {
	case PromptPrint:
		fmt.Fprintln(cmd.OutOrStdout(), render.Report(title, report))
		return nil
	case PromptSaveToFile:
		pathPrompt := promptui.Prompt{
			Label:    "File name (.json or .yaml)",
			Validate: validateReportPath,
		}
		filename, err := pathPrompt.Run()
		if err != nil {
			return err
		}
		if err := writeReport(filename, report); err != nil {
			return err
		}
		logger.Info("report written", zap.String("filename", filename))
		return nil
	case PromptDumpToTmp:
		filename, err := dumpToTmpFile(report)
		if err != nil {
			return fmt.Errorf("dump report to file: %w", err)
		}
		logger.Info("dumping report to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// prepareInput reads the job and the candidate from files or hh.ru and
// returns the run input with a title for the rendered report.
func prepareInput(ctx context.Context, config *Config, resumeID, vacancyID string, logger *zap.Logger) (*evaluation.Input, string, error) {
	resumeID = strings.TrimSpace(resumeID)
	vacancyID = strings.TrimSpace(vacancyID)

	if config.JobFile == "" {
		return nil, "", errors.New("job file is required (--job or job-file)")
	}
	if resumeID != "" && config.CandidateFile != "" {
		return nil, "", errors.New("use either a candidate file or an hh.ru resume, not both")
	}
	if resumeID == "" && config.CandidateFile == "" {
		return nil, "", errors.New("candidate is required (--candidate or --hh-resume)")
	}

	def, err := jobs.Load(config.JobFile)
	if err != nil {
		return nil, "", err
	}

	var hh *headhunter.Client
	if resumeID != "" || vacancyID != "" {
		token := ""
		if resumeID != "" {
			token, err = secrets.Load(secrets.Source{
				Name: "headhunter token",
				File: config.Headhunter.TokenFile,
				Env:  "HH_TOKEN",
			})
			if err != nil {
				return nil, "", fmt.Errorf("%w (set HH_TOKEN_FILE or headhunter.token-file)", err)
			}
		}
		hh = newHeadhunter(token, config.Headhunter, logger)
	}

	if vacancyID != "" {
		vacancy, err := hh.GetVacancy(ctx, vacancyID)
		if err != nil {
			return nil, "", err
		}
		def.Override(vacancy.Name, vacancy.JobDescription())
		logger.Info("using hh.ru vacancy", zap.String("vacancy_id", vacancyID), zap.String("vacancy_name", vacancy.Name))
	}

	if err := def.Validate(); err != nil {
		return nil, "", err
	}

	var (
		p       *profile.Profile
		sources []profile.Source
	)
	if resumeID != "" {
		raw, err := hh.GetResumeRaw(ctx, resumeID)
		if err != nil {
			return nil, "", err
		}
		var source profile.Source
		p, source, err = profile.FromHeadHunterResume(raw)
		if err != nil {
			return nil, "", err
		}
		sources = []profile.Source{source}
	} else {
		candidate, err := profile.LoadFile(config.CandidateFile)
		if err != nil {
			return nil, "", err
		}
		p, sources = candidate.Profile, candidate.Sources
	}

	input := &evaluation.Input{
		Traits:       def.Traits,
		Candidate:    p.Candidate(),
		Sources:      profile.SourcesText(sources),
		Job:          def.Job(),
		Instructions: config.Instructions,
		Citations:    profile.Citations(sources),
	}

	title := p.FullName
	if def.Title != "" {
		title = fmt.Sprintf("%s / %s", p.FullName, def.Title)
	}

	return input, title, nil
}

// assistantFactory is replaced in tests.
var assistantFactory = ai.NewAssistant

func newEngine(ctx context.Context, config *Config, logger *zap.Logger) (*evaluation.Engine, error) {
	assistant, err := assistantFactory(ctx, config.AI, logger)
	if err != nil {
		return nil, fmt.Errorf("building ai assistant: %w", err)
	}

	opts := evaluation.Options{
		MaxConcurrency: config.Evaluation.MaxConcurrency,
		TraitTimeout:   config.Evaluation.TraitTimeout,
		Logger:         logger,
	}
	if config.Evaluation.Summary {
		opts.Summarizer = assistant
	}

	return evaluation.New(assistant, assistant, opts)
}

func saveHistory(ctx context.Context, path string, input *evaluation.Input, report *evaluation.Report) (string, error) {
	store, err := history.Open(path)
	if err != nil {
		return "", err
	}
	defer store.Close()

	record := history.NewRecord(input.Candidate.FullName, input.Job.Title, report)
	if err := store.Save(ctx, record); err != nil {
		return "", err
	}
	return record.ID, nil
}

func validateReportPath(path string) error {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(path))) {
	case ".json", ".yaml", ".yml":
		return nil
	default:
		return fmt.Errorf("unsupported report format %q, use .json or .yaml", filepath.Ext(path))
	}
}

func encodeReport(path string, report *evaluation.Report) ([]byte, error) {
	if err := validateReportPath(path); err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.MarshalIndent(report, "", "  ")
	}
	return yaml.Marshal(report)
}

func writeReport(path string, report *evaluation.Report) error {
	path = strings.TrimSpace(path)
	data, err := encodeReport(path, report)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func dumpToTmpFile(report *evaluation.Report) (string, error) {
	file, err := os.CreateTemp("", app+"-*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	if _, err := file.Write(data); err != nil {
		return "", err
	}
	return file.Name(), nil
}
