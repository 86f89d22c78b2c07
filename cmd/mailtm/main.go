// Command mailtm is a command-line client for the mail.tm disposable email
// service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	mailtm "github.com/mailtm/client-go"
)

const (
	defaultSessionFile = ".mailtm-session.yaml"
	defaultTimeout     = 30 * time.Second
)

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the state shared by all subcommands.
type app struct {
	v      *viper.Viper
	logger zerolog.Logger
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:           "mailtm",
		Short:         "Disposable email addresses from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.mailtm.yaml)")
	flags.String("base-url", "https://api.mail.tm", "mail.tm API base URL")
	flags.String("session", "", "session file (default $HOME/"+defaultSessionFile+")")
	flags.Duration("timeout", defaultTimeout, "per-request timeout")
	flags.BoolP("debug", "d", false, "enable debug logging")

	_ = a.v.BindPFlag("base_url", flags.Lookup("base-url"))
	_ = a.v.BindPFlag("session", flags.Lookup("session"))
	_ = a.v.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = a.v.BindPFlag("debug", flags.Lookup("debug"))

	rootCmd.AddCommand(
		a.newDomainsCmd(),
		a.newRegisterCmd(),
		a.newLoginCmd(),
		a.newMeCmd(),
		a.newMessagesCmd(),
		a.newCountCmd(),
		a.newReadCmd(),
		a.newSeenCmd(),
		a.newRmCmd(),
		a.newSourceCmd(),
		a.newWaitCmd(),
		a.newLogoutCmd(),
		a.newDeleteAccountCmd(),
	)

	return rootCmd
}

// init loads .env, the config file and the environment, then sets up logging.
func (a *app) init(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	a.v.SetEnvPrefix("MAILTM")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		a.v.SetConfigFile(path)
	} else {
		a.v.SetConfigName(".mailtm")
		a.v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home)
		}
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	level := zerolog.InfoLevel
	if a.v.GetBool("debug") {
		level = zerolog.DebugLevel
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        cmd.ErrOrStderr(),
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Logger()

	a.logger.Debug().
		Str("config", a.v.ConfigFileUsed()).
		Str("base_url", a.v.GetString("base_url")).
		Str("session", a.sessionPath()).
		Msg("configuration loaded")
	return nil
}

func (a *app) newClient() (*mailtm.Client, error) {
	timeout := a.v.GetDuration("timeout")
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return mailtm.New(
		mailtm.WithBaseURL(a.v.GetString("base_url")),
		mailtm.WithTimeout(timeout),
		mailtm.WithLogger(a.logger),
	)
}

func (a *app) sessionPath() string {
	if p := a.v.GetString("session"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultSessionFile
	}
	return filepath.Join(home, defaultSessionFile)
}

func (a *app) passphrase() string {
	return a.v.GetString("passphrase")
}

// authedClient returns a client resumed from the saved session. The session
// is rewritten when the token had to be renewed.
func (a *app) authedClient(ctx context.Context) (*mailtm.Client, *mailtm.ExportedAccount, error) {
	data, err := loadSession(a.sessionPath(), a.passphrase())
	if err != nil {
		return nil, nil, err
	}

	client, err := a.newClient()
	if err != nil {
		return nil, nil, err
	}
	if _, err := client.ImportAccount(ctx, data); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("resume session for %s: %w", data.Address, err)
	}

	if client.Token() != data.Token {
		a.logger.Debug().Str("address", data.Address).Msg("token renewed")
		if renewed, err := client.ExportAccount(data.Address, data.Password); err == nil {
			if err := saveSession(a.sessionPath(), a.passphrase(), renewed); err != nil {
				a.logger.Warn().Err(err).Msg("could not update session file")
			}
			data = renewed
		}
	}
	return client, data, nil
}

// startSession logs in and persists the session.
func (a *app) startSession(ctx context.Context, client *mailtm.Client, address, password string) (*mailtm.ExportedAccount, error) {
	if _, err := client.Login(ctx, address, password); err != nil {
		return nil, err
	}
	data, err := client.ExportAccount(address, password)
	if err != nil {
		return nil, err
	}
	if err := saveSession(a.sessionPath(), a.passphrase(), data); err != nil {
		return nil, err
	}
	a.logger.Info().Str("address", address).Str("session", a.sessionPath()).Msg("session saved")
	return data, nil
}

func (a *app) requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout := a.v.GetDuration("timeout")
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(cmd.Context(), timeout)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
