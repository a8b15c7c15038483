package args

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/markis/smart-summary/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = config.Config{
	BaseURL:   "http://localhost:8000",
	MaxLength: 150,
	LogLevel:  "warn",
	Render:    config.RenderConfig{Format: "plain", Wrap: 100},
}

func TestParseArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      Input
		want    Arguments
		wantErr string
	}{
		{
			name: "positional text",
			in:   Input{Args: []string{"some text"}},
			want: Arguments{Command: CommandSummarize, Text: "some text", MaxLength: 150, BaseURL: "http://localhost:8000", UsePlainText: true, LogLevel: "warn"},
		},
		{
			name: "flags",
			in:   Input{Args: []string{"-l", "300", "--base-url", "https://api.example.com", "--log-level", "debug", "text"}},
			want: Arguments{Command: CommandSummarize, Text: "text", MaxLength: 300, BaseURL: "https://api.example.com", UsePlainText: true, LogLevel: "debug"},
		},
		{
			name: "stdin",
			in:   Input{Stdin: strings.NewReader("  piped\ntext\n\n")},
			want: Arguments{Command: CommandSummarize, Text: "piped\ntext", MaxLength: 150, BaseURL: "http://localhost:8000", UsePlainText: true, LogLevel: "warn"},
		},
		{
			name: "argument and stdin",
			in:   Input{Args: []string{"Focus on dates."}, Stdin: strings.NewReader("body")},
			want: Arguments{Command: CommandSummarize, Text: "Focus on dates.\n\nbody", MaxLength: 150, BaseURL: "http://localhost:8000", UsePlainText: true, LogLevel: "warn"},
		},
		{
			name: "health",
			in:   Input{Args: []string{"health", "--base-url", "http://other"}},
			want: Arguments{Command: CommandHealth, MaxLength: 150, BaseURL: "http://other", UsePlainText: true, LogLevel: "warn"},
		},
		{
			name:    "no text",
			in:      Input{Stdin: strings.NewReader("   \n")},
			wantErr: "no text provided",
		},
		{
			name:    "too many arguments",
			in:      Input{Args: []string{"a", "b"}},
			wantErr: "accepts at most 1 arg(s), received 2",
		},
		{
			name:    "unknown flag",
			in:      Input{Args: []string{"--model", "x"}},
			wantErr: "unknown flag: --model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.in.Out = &bytes.Buffer{}
			got, err := ParseArgs(context.Background(), testConfig, tt.in)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			// Wrap depends on the terminal running the tests.
			got.Wrap = 0
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseArgs_Help(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	_, err := ParseArgs(context.Background(), testConfig, Input{Args: []string{"--help"}, Out: &out})
	require.ErrorIs(t, err, ErrHelp)
	assert.Contains(t, out.String(), "smart-summary [flags] [text]")
	assert.Contains(t, out.String(), "--max-length")
}

func TestJoinText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a\n\nb", joinText("a", "b"))
	assert.Equal(t, "b", joinText("", "b"))
	assert.Equal(t, "a", joinText("a", "  "))
	assert.Equal(t, "", joinText())
}
