package grader

import (
	"context"
	"errors"
	"fmt"
	"github.com/hazcod/amlcheck/pkg/arm"
	"github.com/hazcod/amlcheck/pkg/checker"
	"github.com/sirupsen/logrus"
)

var ErrUnknownStep = errors.New("unknown course step")

// ClientFactory builds a resource client for the service principal of an event.
type ClientFactory func(creds arm.Credentials) (checker.ResourceLister, error)

func NewClientFactory(l *logrus.Logger, managementURL, apiVersion string, opts ...arm.Option) ClientFactory {
	return func(creds arm.Credentials) (checker.ResourceLister, error) {
		if !creds.IsServicePrincipal() {
			return nil, errors.New("event does not carry a complete service principal")
		}

		cred, err := arm.NewCredential(creds)
		if err != nil {
			return nil, err
		}

		client, err := arm.New(l, managementURL, apiVersion, cred, opts...)
		if err != nil {
			return nil, err
		}

		return client, nil
	}
}

type Grader struct {
	logger    *logrus.Logger
	newClient ClientFactory
}

func New(l *logrus.Logger, newClient ClientFactory) (*Grader, error) {
	if l == nil {
		return nil, errors.New("no logger provided")
	}

	if newClient == nil {
		return nil, errors.New("no client factory provided")
	}

	return &Grader{logger: l, newClient: newClient}, nil
}

// Handle grades one course step for the environment described by the event.
func (g *Grader) Handle(ctx context.Context, stepID string, event Event) (Outcome, error) {
	step, ok := checker.LookupStep(stepID)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownStep, stepID)
	}

	if err := event.Validate(); err != nil {
		return Outcome{}, err
	}

	logger := g.logger.WithField("module", "grader").WithField("step", stepID).
		WithField("subscription_id", event.EnvironmentParams.SubscriptionID)

	client, err := g.newClient(event.servicePrincipal())
	if err != nil {
		return Outcome{}, fmt.Errorf("could not create resource client: %w", err)
	}

	chk, err := checker.New(g.logger, client)
	if err != nil {
		return Outcome{}, err
	}

	result, err := chk.RunStep(ctx, event.params(), step)
	if err != nil {
		logger.WithError(err).Error("could not grade step")
		return Outcome{}, err
	}

	outcome := WithHint(result.Passed, result.Hint)
	logger.WithField("result", outcome.Result).Info("graded step")

	return outcome, nil
}
