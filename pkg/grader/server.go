package grader

import (
	"errors"
	"github.com/gofiber/fiber/v2"
	"github.com/hazcod/amlcheck/pkg/checker"
	"github.com/sirupsen/logrus"
)

type stepInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// NewApp exposes the grader over HTTP for the grading service.
func NewApp(l *logrus.Logger, g *Grader) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	logger := l.WithField("module", "server")

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	app.Get("/checks", func(c *fiber.Ctx) error {
		all := checker.Steps()
		infos := make([]stepInfo, 0, len(all))
		for _, step := range all {
			infos = append(infos, stepInfo{ID: step.ID, Description: step.Description})
		}
		return c.JSON(infos)
	})

	app.Post("/checks/:step", func(c *fiber.Ctx) error {
		stepID := c.Params("step")

		if _, ok := checker.LookupStep(stepID); !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown step"})
		}

		var event Event
		if err := c.BodyParser(&event); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
		}

		if err := event.Validate(); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		outcome, err := g.Handle(c.UserContext(), stepID, event)
		if err != nil {
			if errors.Is(err, ErrUnknownStep) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown step"})
			}

			logger.WithError(err).WithField("step", stepID).Error("grading failed")
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not query Azure resources"})
		}

		return c.JSON(outcome)
	})

	return app
}
