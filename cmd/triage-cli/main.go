package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mikey/email-triage/internal/adapters/filter"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/di"
	"github.com/mikey/email-triage/internal/mailbox"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flags = di.CLIFlags{Output: os.Stdout}

func main() {
	rootCmd := &cobra.Command{
		Use:   "triage-cli",
		Short: "Classify emails and suggest replies from the command line",
		Long: `triage-cli reads an email from a file or stdin, classifies it as
Productive or Unproductive and suggests a reply in the chosen style.

Raw RFC 822 messages and plain text are both accepted. Without an
inference provider the keyword classifier and reply templates are used.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "config file (default searches /etc/email-triage, $HOME/.email-triage and ./configs)")
	rootCmd.PersistentFlags().StringVar(&flags.Provider, "provider", "", "inference provider (none, openai, gemini, bedrock)")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&flags.JSONLog, "json-log", false, "output logs in JSON format")
	rootCmd.PersistentFlags().Uint64Var(&flags.Seed, "seed", 0, "seed for template selection (0 picks a random seed)")

	// Add commands
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(insightsCmd())
	rootCmd.AddCommand(inboxCmd())
	rootCmd.AddCommand(stylesCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func analyzeCmd() *cobra.Command {
	var (
		senderName string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Classify an email and suggest a reply",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := readEmail(cmd, args)
			if err != nil {
				return err
			}
			if senderName != "" {
				email.FromName = senderName
			}
			flags.Output = cmd.OutOrStdout()

			return invoke(func(service *core.TriageService, cli *filter.CliFilter) error {
				if !jsonOut {
					_, err := cli.ProcessEmail(cmd.Context(), email)
					return err
				}
				result, err := service.AnalyzeEmail(cmd.Context(), email, core.ParseStyle(flags.Style))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), newReport(result))
			})
		},
	}

	cmd.Flags().StringVarP(&flags.Style, "style", "s", "standard", "reply style (standard, formal, informal, detailed, objective)")
	cmd.Flags().StringVar(&senderName, "sender-name", "", "name used in the reply greeting (defaults to the From display name)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the analysis as JSON")

	return cmd
}

func insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights [file]",
		Short: "Print category, urgency, tone and keywords of an email as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := readEmail(cmd, args)
			if err != nil {
				return err
			}
			if strings.TrimSpace(email.Text()) == "" {
				return core.ErrEmptyText
			}

			return invoke(func(service *core.TriageService) error {
				return printJSON(cmd.OutOrStdout(), service.GetInsights(cmd.Context(), email.Text()))
			})
		},
	}
}

func inboxCmd() *cobra.Command {
	var (
		address     string
		server      string
		passwordEnv string
		maxEmails   int
	)

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Triage unread messages of an IMAP mailbox without marking them as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv(passwordEnv)
			if address == "" || password == "" {
				return fmt.Errorf("--address and the %s environment variable are required", passwordEnv)
			}
			flags.Output = cmd.OutOrStdout()

			return invoke(func(logger *zap.Logger, reader *mailbox.IMAPReader, cli *filter.CliFilter) error {
				emails, err := reader.FetchUnread(cmd.Context(), mailbox.IMAPCredentials{
					Address:  address,
					Password: password,
					Server:   server,
				}, maxEmails)
				if err != nil {
					return fmt.Errorf("failed to read emails: %w", err)
				}
				if len(emails) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No unread emails.")
					return nil
				}

				for i, email := range emails {
					fmt.Fprintf(cmd.OutOrStdout(), "\n##### Email %d of %d #####\n", i+1, len(emails))
					if _, err := cli.ProcessEmail(cmd.Context(), email); err != nil {
						logger.Warn("Skipping email", zap.String("id", email.ID), zap.Error(err))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "mailbox address used to log in")
	cmd.Flags().StringVar(&server, "server", "", "IMAP server, optionally with port (defaults to imap.server)")
	cmd.Flags().StringVar(&passwordEnv, "password-env", "EMAIL_TRIAGE_IMAP_PASSWORD", "environment variable holding the mailbox password")
	cmd.Flags().IntVar(&maxEmails, "max", 5, "maximum number of emails to triage")
	cmd.Flags().StringVarP(&flags.Style, "style", "s", "standard", "reply style (standard, formal, informal, detailed, objective)")

	return cmd
}

func stylesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List categories and reply styles",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Categories:")
			for _, category := range core.Categories {
				fmt.Fprintf(out, "  %-14s %s\n", category, category.Description())
			}
			fmt.Fprintln(out, "Styles:")
			for _, style := range core.Styles {
				fmt.Fprintf(out, "  %s\n", strings.ToLower(string(style)))
			}
		},
	}
}

// invoke builds the CLI container and runs fn with its dependencies. The
// inference backend is closed afterwards.
func invoke(fn interface{}) error {
	container, err := di.BuildCLIContainer(&flags)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}
	runErr := container.Invoke(fn)
	closeErr := container.Invoke(func(logger *zap.Logger, backend *core.InferenceBackend) {
		if err := backend.Close(); err != nil {
			logger.Error("Failed to close inference backend", zap.Error(err))
		}
		_ = logger.Sync()
	})
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// readEmail reads the file named by args, or stdin, as a raw message or plain text
func readEmail(cmd *cobra.Command, args []string) (*core.Email, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		file, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		r = file
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	if mailbox.LooksLikeMessage(data) {
		return mailbox.ParseMessage(bytes.NewReader(data))
	}
	return &core.Email{Body: strings.TrimSpace(string(data))}, nil
}

type report struct {
	Category              core.Category      `json:"category"`
	Confidence            string             `json:"confidence"`
	Source                string             `json:"source"`
	ModelUsed             string             `json:"model_used,omitempty"`
	SuggestedResponse     string             `json:"suggested_response"`
	Style                 core.Style         `json:"style"`
	ReplySource           string             `json:"reply_source"`
	Insights              core.InsightRecord `json:"insights"`
	TextLength            int                `json:"text_length"`
	ProcessingTimeSeconds float64            `json:"processing_time_seconds"`
}

func newReport(result *core.AnalysisResult) report {
	return report{
		Category:              result.Classification.Category,
		Confidence:            result.Classification.Confidence,
		Source:                result.Classification.Source,
		ModelUsed:             result.Classification.ModelUsed,
		SuggestedResponse:     result.Reply.Text,
		Style:                 result.Reply.Style,
		ReplySource:           result.Reply.Source,
		Insights:              result.Insights,
		TextLength:            result.TextLength,
		ProcessingTimeSeconds: result.Duration.Seconds(),
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
