package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/carbonex/carbonex/controllers/entities"
	"github.com/carbonex/carbonex/controllers/helpers"
	"github.com/carbonex/carbonex/pricing"
)

// MarketController exposes the tracked market prices.
type MarketController struct {
	Tracker *pricing.Tracker
}

func (ctrl *MarketController) GetMarketPrice(c *fiber.Ctx) error {
	credit_type := c.Params("credit_type")

	mp, err := ctrl.Tracker.Get(credit_type)
	if err != nil {
		return c.Status(404).JSON(helpers.Errors{
			Errors: []string{pricing.ErrPriceNotFound.Error()},
		})
	}

	return c.Status(200).JSON(entities.MarketPriceToEntity(mp))
}
