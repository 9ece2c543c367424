package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/carbonex/carbonex/controllers/entities"
	"github.com/carbonex/carbonex/controllers/helpers"
	"github.com/carbonex/carbonex/matching"
	"github.com/carbonex/carbonex/server"
	"github.com/carbonex/carbonex/types"
)

// TradingController fronts the matching engine over HTTP.
type TradingController struct {
	Engine *server.EngineServer
}

func (ctrl *TradingController) CreateOrder(c *fiber.Ctx) error {
	errs := new(helpers.Errors)
	payload := new(helpers.CreateOrderPayload)

	if err := c.BodyParser(payload); err != nil {
		return c.Status(500).JSON(helpers.Errors{
			Errors: []string{"server.method.invalid_message_body"},
		})
	}

	helpers.Validate(payload, errs)
	if errs.Size() > 0 {
		return c.Status(422).JSON(errs)
	}

	ttl := time.Duration(payload.TTLSeconds) * time.Second

	order, err := ctrl.Engine.SubmitOrder(
		types.OrderSide(payload.Side),
		payload.CreditType,
		payload.Quantity,
		payload.Price,
		payload.Creator,
		ttl,
	)
	if err != nil {
		return c.Status(422).JSON(helpers.Errors{
			Errors: []string{err.Error()},
		})
	}

	return c.Status(201).JSON(entities.OrderToEntity(order))
}

func (ctrl *TradingController) GetOrder(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(422).JSON(helpers.Errors{
			Errors: []string{"market.order.invalid_id"},
		})
	}

	order, err := ctrl.Engine.GetOrder(id)
	if err != nil {
		return c.Status(404).JSON(helpers.Errors{
			Errors: []string{matching.ErrOrderNotFound.Error()},
		})
	}

	return c.Status(200).JSON(entities.OrderToEntity(order))
}

func (ctrl *TradingController) CancelOrder(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(422).JSON(helpers.Errors{
			Errors: []string{"market.order.invalid_id"},
		})
	}

	if err := ctrl.Engine.CancelOrder(id); err != nil {
		status := 422
		if errors.Is(err, matching.ErrOrderNotFound) {
			status = 404
		}

		return c.Status(status).JSON(helpers.Errors{
			Errors: []string{err.Error()},
		})
	}

	order, err := ctrl.Engine.GetOrder(id)
	if err != nil {
		return c.Status(404).JSON(helpers.Errors{
			Errors: []string{matching.ErrOrderNotFound.Error()},
		})
	}

	return c.Status(200).JSON(entities.OrderToEntity(order))
}

func (ctrl *TradingController) GetOrderBook(c *fiber.Ctx) error {
	credit_type := c.Params("credit_type")
	if len(credit_type) == 0 {
		return c.Status(422).JSON(helpers.Errors{
			Errors: []string{"market.order_book.invalid_credit_type"},
		})
	}

	snapshot := ctrl.Engine.OrderBook(credit_type)

	return c.Status(200).JSON(entities.BookToEntity(snapshot))
}
