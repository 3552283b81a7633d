package main

import (
	"context"
	"fmt"
	"github.com/hazcod/amlcheck/config"
	"github.com/hazcod/amlcheck/pkg/arm"
	"github.com/hazcod/amlcheck/pkg/checker"
	"github.com/hazcod/amlcheck/pkg/grader"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	if err := newRootCommand(logger).Execute(); err != nil {
		logger.WithError(err).Fatal("command failed")
	}
}

func newRootCommand(logger *logrus.Logger) *cobra.Command {
	var confFile string
	conf := &config.Config{}

	root := &cobra.Command{
		Use:           "amlcheck",
		Short:         "Verify Azure Machine Learning course steps against a learner's subscription",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := conf.Load(logger, confFile); err != nil {
				return fmt.Errorf("failed to load configuration: %v", err)
			}

			if err := conf.Validate(); err != nil {
				return err
			}

			logrusLevel, err := logrus.ParseLevel(conf.Log.Level)
			if err != nil {
				logger.WithError(err).Error("invalid log level provided")
				logrusLevel = logrus.InfoLevel
			}
			logger.SetLevel(logrusLevel)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&confFile, "config", "", "The YAML configuration file.")

	root.AddCommand(
		newCheckCommand(logger, conf),
		newListCommand(),
		newServeCommand(logger, conf),
	)

	return root
}

func newCheckCommand(logger *logrus.Logger, conf *config.Config) *cobra.Command {
	var paramsFile string

	cmd := &cobra.Command{
		Use:   "check <step>",
		Short: "Run the checks of a course step and print the outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, ok := checker.LookupStep(args[0])
			if !ok {
				return fmt.Errorf("unknown step '%s', see 'amlcheck list'", args[0])
			}

			runCheck(cmd.Context(), logger, conf, step, paramsFile, cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&paramsFile, "params", "params.json", "The JSON parameters file with subscription_id and resource_group_name.")

	return cmd
}

// runCheck logs and swallows every error, only the printed lines signal the outcome.
func runCheck(ctx context.Context, logger *logrus.Logger, conf *config.Config, step checker.Step, paramsFile string, out io.Writer) {
	stepLogger := logger.WithField("step", step.ID)

	params, err := resolveParams(conf, paramsFile)
	if err != nil {
		stepLogger.WithError(err).Error("could not load parameters")
		return
	}

	cred, err := arm.NewCredential(arm.Credentials{
		TenantID:     conf.Azure.TenantID,
		ClientID:     conf.Azure.ClientID,
		ClientSecret: conf.Azure.ClientSecret,
	})
	if err != nil {
		stepLogger.WithError(err).Error("could not create Azure credential")
		return
	}

	client, err := arm.New(logger, conf.Azure.ManagementURL, conf.Azure.APIVersion, cred,
		arm.WithHTTPClient(&http.Client{Timeout: conf.Azure.HTTPTimeout}))
	if err != nil {
		stepLogger.WithError(err).Error("could not create resource manager client")
		return
	}

	chk, err := checker.New(logger, client)
	if err != nil {
		stepLogger.WithError(err).Error("could not create checker")
		return
	}

	result, err := chk.RunStep(ctx, params, step)
	if err != nil {
		stepLogger.WithError(err).Error("could not check step")
		return
	}

	if err := result.Print(out); err != nil {
		stepLogger.WithError(err).Error("could not print result")
	}
}

// resolveParams fills what the parameters file leaves out from the configuration.
func resolveParams(conf *config.Config, paramsFile string) (checker.Params, error) {
	params, err := checker.LoadParams(paramsFile)
	if err != nil {
		return params, err
	}

	if params.SubscriptionID == "" {
		params.SubscriptionID = conf.Azure.SubscriptionID
	}

	if params.ResourceGroupName == "" {
		params.ResourceGroupName = conf.Azure.ResourceGroup
	}

	if params.WorkspaceName == "" {
		params.WorkspaceName = conf.Azure.WorkspaceName
	}

	return params, params.Validate()
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the known course steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, step := range checker.Steps() {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", step.ID, step.Description); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newServeCommand(logger *logrus.Logger, conf *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the grading callback over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := grader.New(logger, grader.NewClientFactory(logger, conf.Azure.ManagementURL, conf.Azure.APIVersion,
				arm.WithHTTPClient(&http.Client{Timeout: conf.Azure.HTTPTimeout})))
			if err != nil {
				return fmt.Errorf("could not create grader: %v", err)
			}

			app := grader.NewApp(logger, g)

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigs
				logger.Info("shutting down")
				_ = app.Shutdown()
			}()

			logger.WithField("addr", conf.Server.ListenAddr).Info("serving grading callbacks")

			return app.Listen(conf.Server.ListenAddr)
		},
	}
}
