package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/carbonex/carbonex/controllers/helpers"
	"github.com/carbonex/carbonex/oracle"
)

// PublicController serves the endpoints that need no market context.
type PublicController struct {
	Oracle *oracle.Aggregator
}

func (ctrl *PublicController) GetTimestamp(c *fiber.Ctx) error {
	return c.Status(200).JSON(time.Now())
}

func (ctrl *PublicController) GetReferencePrice(c *fiber.Ctx) error {
	reference, err := ctrl.Oracle.ReferencePrice()
	if err != nil {
		return c.Status(503).JSON(helpers.Errors{
			Errors: []string{err.Error()},
		})
	}

	return c.Status(200).JSON(reference)
}
