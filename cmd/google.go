package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/coursekit/coursekit/core"
	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/internal/gclient"
	"github.com/coursekit/coursekit/internal/iocache"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"
)

// newAuthenticator builds the OAuth flow backed by the cache store.
func newAuthenticator() (*gclient.Authenticator, error) {
	oauthCfg, err := gclient.LoadOAuthConfig(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	auth := gclient.NewAuthenticator(oauthCfg, gclient.NewTokenStore(iocache.Manager.GetCacheStore()), logger)
	auth.Port = cfg.AuthPort
	auth.Out = os.Stderr
	return auth, nil
}

// newServices authorizes against Google and wires the remote collaborators of core.
func newServices(ctx context.Context) (core.Services, error) {
	auth, err := newAuthenticator()
	if err != nil {
		return core.Services{}, err
	}
	httpClient, err := auth.HTTPClient(ctx)
	if err != nil {
		return core.Services{}, fmt.Errorf("authorization failed: %w", err)
	}
	client, err := gclient.NewClient(ctx, cfg.Sender, option.WithHTTPClient(httpClient))
	if err != nil {
		return core.Services{}, err
	}
	return core.Services{
		Forms:     client,
		Sheets:    client,
		Mailer:    client,
		Expander:  gclient.NewHTTPExpander(gclient.DefaultExpandTimeout),
		Confirmer: core.NewPromptConfirmer(os.Stdin, os.Stderr),
	}, nil
}

// oralCmd averages the oral presentation grades of a forms folder.
var oralCmd = &cobra.Command{
	Use:   "oral",
	Short: "Average oral presentation grades from Google Forms",
	Long: `Fetch every form of a Drive folder and grade each presentation as a weighted
average of the instructor response and the mean of the peer responses.

Answers are classified by shape: the instructor matricule marks the instructor,
a 7-digit answer is the evaluator, other numbers are scores.

Examples:
  coursekit oral --forms-folder-id 1AbC... --instructor-matricule 000000

  # Instructor grade counts for 70%, results as CSV
  coursekit oral --forms-folder-id 1AbC... --instructor-weight 0.7 --output csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		svc, err := newServices(cmd.Context())
		if err != nil {
			contract.LogFatal("Cannot reach Google services", err)
		}
		if err := core.ExecuteOral(cmd.Context(), cfg, iocache.Manager, svc, logger); err != nil {
			contract.LogFatal("Cannot grade presentations", err)
		}
	},
}

// feedbackCmd emails the feedback of one presentation to its presenters.
var feedbackCmd = &cobra.Command{
	Use:   "feedback <matricule>",
	Short: "Email the feedback left on one presentation to its presenters",
	Long: `Find the presentation of a student in the presentation sheet, collect the
feedback answers of its form and email them to the presenters. Each email is
printed and sent only after confirmation.

Examples:
  coursekit feedback 1234567 --spreadsheet-id 1XyZ... --forms-folder-id 1AbC... \
    --feedback-question-title "Commentaires" --roster-csv roster.csv --course-code GBM6904

  # Preview only
  coursekit feedback 1234567 --dry-run`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		svc, err := newServices(cmd.Context())
		if err != nil {
			contract.LogFatal("Cannot reach Google services", err)
		}
		if err := core.ExecuteFeedback(cmd.Context(), cfg, iocache.Manager, svc, logger); err != nil {
			contract.LogFatal("Cannot send feedback", err)
		}
	},
}

// abstractsCmd emails corrected abstracts to the class.
var abstractsCmd = &cobra.Command{
	Use:   "abstracts",
	Short: "Email corrected abstracts to every student of the roster",
	Long: `Attach each student's corrected abstract and email it to them, then send a
summary to the log-to addresses. Students without an abstract are reported.

Examples:
  coursekit abstracts --roster-csv roster.csv --attachment-dir ./corrected \
    --subject "Abstract corrigé" --cc ta@example.com --log-to prof@example.com

  # Show the plan without sending
  coursekit abstracts --roster-csv roster.csv --attachment-dir ./corrected --subject "..." --dry-run`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		svc, err := newServices(cmd.Context())
		if err != nil {
			contract.LogFatal("Cannot reach Google services", err)
		}
		if err := core.ExecuteAbstracts(cmd.Context(), cfg, svc, logger); err != nil {
			contract.LogFatal("Cannot send abstracts", err)
		}
	},
}

// authCmd runs the OAuth consent flow when no usable credential is cached.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize coursekit against Google Workspace",
	Long: `Obtain an OAuth credential for Drive, Forms, Sheets (read-only) and Gmail send.

A cached valid credential is reused and an expired one is refreshed. Otherwise
the consent URL is printed and a loopback server on --auth-port waits for the
redirect.

Examples:
  coursekit auth --credentials-file client_secrets.json
  coursekit auth status`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		auth, err := newAuthenticator()
		if err != nil {
			contract.LogFatal("Cannot load OAuth client", err)
		}
		tok, err := auth.Token(cmd.Context())
		if err != nil {
			contract.LogFatal("Authorization failed", err)
		}
		logger.Infof("Authorized, token valid until %s", tok.Expiry.Format("2006-01-02 15:04:05"))
	},
}

// authStatusCmd shows the cached credential.
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display the cached OAuth credential",
	Long: `Show whether a credential is cached, when it expires and whether it can be
refreshed without a new consent.`,
	Args:    cobra.NoArgs,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := gclient.NewTokenStore(iocache.Manager.GetCacheStore())
		iocache.PrintTokenStatus(os.Stdout, store.Status())
	},
}
