package args

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cli/go-gh/v2/pkg/term"
	"github.com/markis/smart-summary/internal/config"
	"github.com/spf13/cobra"
)

// Command selects what the CLI does.
type Command string

const (
	CommandSummarize Command = "summarize"
	CommandHealth    Command = "health"
)

// ErrHelp is returned when help was printed instead of running a command.
var ErrHelp = errors.New("help requested")

// Arguments represents the command-line arguments structure.
type Arguments struct {
	Command      Command
	Text         string
	MaxLength    int
	BaseURL      string
	UsePlainText bool
	Wrap         int
	LogLevel     string
}

// Input carries what the command line reads from the process.
type Input struct {
	Args []string
	// Stdin is nil unless input is piped.
	Stdin io.Reader
	// Out receives help and usage output. Defaults to stdout.
	Out io.Writer
}

// ParseArgs parses command-line arguments and piped stdin, returning an Arguments struct.
// Flags default to the values from cfg. Text given as an argument and text read from
// stdin are joined with a blank line.
func ParseArgs(ctx context.Context, cfg config.Config, in Input) (Arguments, error) {
	args := Arguments{Command: CommandSummarize}
	ran := false

	rootCmd := &cobra.Command{
		Use:   "smart-summary [flags] [text]",
		Short: "Stream an AI generated summary of a text",
		Long: "Sends text to the Smart Summary service and prints the summary as it streams in.\n" +
			"Text is taken from the argument, from piped stdin, or both.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			ran = true
			if len(cmdArgs) > 0 {
				args.Text = cmdArgs[0]
			}
			return nil
		},
		SilenceErrors: true, // We'll handle error reporting
		SilenceUsage:  true, // We'll handle usage display
	}

	rootCmd.PersistentFlags().StringVar(&args.BaseURL, "base-url", cfg.BaseURL, "Summary service URL")
	rootCmd.PersistentFlags().StringVar(&args.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	rootCmd.Flags().IntVarP(&args.MaxLength, "max-length", "l", cfg.MaxLength, "Approximate summary length (50-500)")
	rootCmd.Flags().BoolVar(&args.UsePlainText, "plain", shouldUsePlainText(cfg), "Disable markdown rendering")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Check that the summary service is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			ran = true
			args.Command = CommandHealth
			return nil
		},
	})

	if in.Out != nil {
		rootCmd.SetOut(in.Out)
		rootCmd.SetErr(in.Out)
	}
	// A nil slice would make cobra fall back to os.Args.
	if in.Args == nil {
		in.Args = []string{}
	}
	rootCmd.SetArgs(in.Args)

	// Execute the command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return Arguments{}, err
	}
	if !ran {
		return Arguments{}, ErrHelp
	}

	if args.Command != CommandSummarize {
		return args, nil
	}

	if in.Stdin != nil {
		piped, err := readInput(in.Stdin)
		if err != nil {
			return Arguments{}, err
		}
		args.Text = joinText(args.Text, piped)
	}

	if strings.TrimSpace(args.Text) == "" {
		return Arguments{}, errors.New("no text provided")
	}
	args.Wrap = wrapWidth(cfg)

	return args, nil
}

// readInput reads piped input, trimming surrounding whitespace.
func readInput(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 1MB max buffer
	var buf strings.Builder
	for scanner.Scan() {
		buf.WriteString(scanner.Text())
		buf.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func joinText(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}

// shouldUsePlainText determines if plain text output should be used based on environment and terminal settings.
func shouldUsePlainText(cfg config.Config) bool {
	// Check if the rendering format is set to plain
	if cfg.Render.Format == "plain" {
		return true
	}

	// Check if output is being redirected
	if !term.FromEnv().IsTerminalOutput() {
		return true
	}

	// Check for NO_COLOR environment variable
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}

	// Check for TERM=dumb
	if os.Getenv("TERM") == "dumb" {
		return true
	}

	return false
}

// wrapWidth caps the configured wrap at the terminal width.
func wrapWidth(cfg config.Config) int {
	wrap := cfg.Render.Wrap
	if width, _, err := term.FromEnv().Size(); err == nil && width > 0 && (wrap <= 0 || width < wrap) {
		return width
	}
	return wrap
}
