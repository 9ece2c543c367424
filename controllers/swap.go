package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/carbonex/carbonex/amm"
	"github.com/carbonex/carbonex/controllers/entities"
	"github.com/carbonex/carbonex/controllers/helpers"
)

// SwapController fronts the liquidity pools.
type SwapController struct {
	Swaps *amm.Service
}

func swapErrorStatus(err error) int {
	if errors.Is(err, amm.ErrPoolNotFound) {
		return 404
	}
	return 422
}

func (ctrl *SwapController) GetSwapQuote(c *fiber.Ctx) error {
	errs := new(helpers.Errors)
	payload := new(helpers.SwapPayload)

	if err := c.QueryParser(payload); err != nil {
		return c.Status(500).JSON(helpers.Errors{
			Errors: []string{"server.method.invalid_query"},
		})
	}

	helpers.Validate(payload, errs)
	if errs.Size() > 0 {
		return c.Status(422).JSON(errs)
	}

	quote, err := ctrl.Swaps.QuoteSwap(payload.PoolID, payload.InputAmount, payload.InputAsset == "base")
	if err != nil {
		return c.Status(swapErrorStatus(err)).JSON(helpers.Errors{
			Errors: []string{err.Error()},
		})
	}

	return c.Status(200).JSON(entities.SwapQuoteToEntity(payload.PoolID, payload.InputAmount, quote))
}

func (ctrl *SwapController) ExecuteSwap(c *fiber.Ctx) error {
	errs := new(helpers.Errors)
	payload := new(helpers.SwapPayload)

	if err := c.BodyParser(payload); err != nil {
		return c.Status(500).JSON(helpers.Errors{
			Errors: []string{"server.method.invalid_message_body"},
		})
	}

	helpers.Validate(payload, errs)
	if errs.Size() > 0 {
		return c.Status(422).JSON(errs)
	}

	quote, err := ctrl.Swaps.ExecuteSwap(payload.PoolID, payload.InputAmount, payload.InputAsset == "base")
	if err != nil {
		return c.Status(swapErrorStatus(err)).JSON(helpers.Errors{
			Errors: []string{err.Error()},
		})
	}

	return c.Status(201).JSON(entities.SwapQuoteToEntity(payload.PoolID, payload.InputAmount, quote))
}

func (ctrl *SwapController) GetPool(c *fiber.Ctx) error {
	pool, err := ctrl.Swaps.Pools.Find(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(helpers.Errors{
			Errors: []string{amm.ErrPoolNotFound.Error()},
		})
	}

	return c.Status(200).JSON(entities.PoolToEntity(pool))
}

func (ctrl *SwapController) GetPools(c *fiber.Ctx) error {
	pools, err := ctrl.Swaps.Pools.All()
	if err != nil {
		return c.Status(500).JSON(helpers.Errors{
			Errors: []string{err.Error()},
		})
	}

	pool_entities := make([]*entities.PoolEntity, 0, len(pools))
	for _, pool := range pools {
		pool_entities = append(pool_entities, entities.PoolToEntity(pool))
	}

	return c.Status(200).JSON(pool_entities)
}
