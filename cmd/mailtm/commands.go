package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	mailtm "github.com/mailtm/client-go"
)

// readPassword prompts on stderr. Terminal input is read without echo; any
// other input is read as a single line.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) newDomainsCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "domains",
		Short: "List the domains addresses can be registered on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			domains, err := client.Domains(ctx, mailtm.WithPage(page))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), domains)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "result page (1-based)")
	return cmd
}

func (a *app) newRegisterCmd() *cobra.Command {
	var address, password, domain string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in to it",
		Long: "Create an account and log in to it. Without --address a random " +
			"address is generated on an available domain.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			var account *mailtm.Account
			if address == "" {
				var opts []mailtm.AccountOption
				if password != "" {
					opts = append(opts, mailtm.WithPassword(password))
				}
				if domain != "" {
					opts = append(opts, mailtm.WithDomain(domain))
				}
				account, password, err = client.GenerateRandomAccount(ctx, opts...)
			} else {
				if password == "" {
					if password, err = readPassword(cmd, "Password for "+address+": "); err != nil {
						return err
					}
				}
				account, err = client.CreateAccount(ctx, address, password)
			}
			if err != nil {
				return err
			}

			data, err := a.startSession(ctx, client, account.Address, password)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "address to register (random when empty)")
	cmd.Flags().StringVar(&password, "password", "", "account password (random when empty and no --address)")
	cmd.Flags().StringVar(&domain, "domain", "", "domain for the random address")
	return cmd
}

func (a *app) newLoginCmd() *cobra.Command {
	var address, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to an existing account and save the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readPassword(cmd, "Password for "+address+": "); err != nil {
					return err
				}
			}

			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			if _, err := a.startSession(ctx, client, address, password); err != nil {
				return err
			}
			account, err := client.Me(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "account address")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func (a *app) newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			client, _, err := a.authedClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			account, err := client.Me(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}
}

func (a *app) newMessagesCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:     "messages",
		Aliases: []string{"ls"},
		Short:   "List messages, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			client, _, err := a.authedClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			msgs, err := client.Messages(ctx, mailtm.WithPage(page))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), msgs)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "result page (1-based)")
	return cmd
}

func (a *app) newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			client, _, err := a.authedClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			n, err := client.MessageCount(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]int{"count": n})
		},
	}
}

func (a *app) newReadCmd() *cobra.Command {
	var markSeen bool
	cmd := &cobra.Command{
		Use:   "read <id>",
		Short: "Show a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			client, _, err := a.authedClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			var msg *mailtm.Message
			if markSeen {
				msg, err = client.MarkAsSeen(ctx, args[0])
			} else {
				msg, err = client.Message(ctx, args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), msg)
		},
	}
	cmd.Flags().BoolVar(&markSeen, "seen", false, "mark the message as seen")
	return cmd
}

func (a *app) newSeenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seen <id>",
		Short: "Mark a message as seen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			client, _, err := a.authedClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			msg, err := client.MarkAsSeen(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"id": msg.ID, "seen": msg.Seen})
		},
	}
}

func (a *app) newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete messages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			client, _, err := a.authedClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			deleted := make([]string, 0, len(args))
			for _, id := range args {
				if err := client.DeleteMessage(ctx, id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				deleted = append(deleted, id)
			}
			return printJSON(cmd.OutOrStdout(), map[string][]string{"deleted": deleted})
		},
	}
}

func (a *app) newSourceCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "source <id>",
		Short: "Show the raw source of a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			client, _, err := a.authedClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			src, err := client.MessageSource(ctx, args[0])
			if err != nil {
				return err
			}
			if raw {
				_, err = fmt.Fprint(cmd.OutOrStdout(), src.Data)
				return err
			}
			return printJSON(cmd.OutOrStdout(), src)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print only the RFC 822 data")
	return cmd
}

func (a *app) newWaitCmd() *cobra.Command {
	var (
		subject, subjectRegex, from string
		timeout, interval           time.Duration
		unseen                      bool
	)
	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Wait for a matching message and show it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []mailtm.WaitOption{
				mailtm.WithWaitTimeout(timeout),
				mailtm.WithPollInterval(interval),
			}
			if subject != "" {
				opts = append(opts, mailtm.WithPredicate(func(m *mailtm.MessageSummary) bool {
					return strings.Contains(m.Subject, subject)
				}))
			}
			if subjectRegex != "" {
				re, err := regexp.Compile(subjectRegex)
				if err != nil {
					return fmt.Errorf("invalid --subject-regex: %w", err)
				}
				opts = append(opts, mailtm.WithSubjectRegex(re))
			}
			if from != "" {
				opts = append(opts, mailtm.WithFrom(from))
			}
			if unseen {
				opts = append(opts, mailtm.WithUnseenOnly())
			}

			ctx := cmd.Context()
			client, data, err := a.authedClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			a.logger.Info().Str("address", data.Address).Dur("timeout", timeout).Msg("waiting for message")
			msg, err := client.WaitForMessage(ctx, opts...)
			if err != nil {
				var timeoutErr *mailtm.TimeoutError
				if errors.As(err, &timeoutErr) {
					return fmt.Errorf("no matching message after %v", timeoutErr.Timeout)
				}
				return err
			}
			return printJSON(cmd.OutOrStdout(), msg)
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "subject substring to match")
	cmd.Flags().StringVar(&subjectRegex, "subject-regex", "", "subject regular expression to match")
	cmd.Flags().StringVar(&from, "from", "", "sender address to match")
	cmd.Flags().BoolVar(&unseen, "unseen", false, "only match unseen messages")
	cmd.Flags().DurationVar(&timeout, "max-wait", 60*time.Second, "how long to wait")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "initial poll interval")
	return cmd
}

func (a *app) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := removeSession(a.sessionPath()); err != nil {
				return err
			}
			a.logger.Info().Str("session", a.sessionPath()).Msg("session removed")
			return nil
		},
	}
}

func (a *app) newDeleteAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-account",
		Short: "Delete the logged-in account and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			client, data, err := a.authedClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			id := client.AccountID()
			if id == "" {
				me, err := client.Me(ctx)
				if err != nil {
					return err
				}
				id = me.ID
			}
			if err := client.DeleteAccount(ctx, id); err != nil {
				return err
			}
			if err := removeSession(a.sessionPath()); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": data.Address})
		},
	}
}
