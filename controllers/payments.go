package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/carbonex/carbonex/controllers/entities"
	"github.com/carbonex/carbonex/controllers/helpers"
	"github.com/carbonex/carbonex/settlement"
)

// PaymentsController drives the settlement pipeline: payment initiation,
// confirmation tracking, batch processing and refunds.
type PaymentsController struct {
	Pipeline *settlement.Pipeline
}

func paymentErrorStatus(err error) int {
	switch {
	case errors.Is(err, settlement.ErrTransactionNotFound),
		errors.Is(err, settlement.ErrBatchNotFound):
		return 404
	default:
		return 422
	}
}

func (ctrl *PaymentsController) InitiatePayment(c *fiber.Ctx) error {
	errs := new(helpers.Errors)
	payload := new(helpers.InitiatePaymentPayload)

	if err := c.BodyParser(payload); err != nil {
		return c.Status(500).JSON(helpers.Errors{
			Errors: []string{"server.method.invalid_message_body"},
		})
	}

	helpers.Validate(payload, errs)
	if errs.Size() > 0 {
		return c.Status(422).JSON(errs)
	}

	transaction, err := ctrl.Pipeline.InitiatePayment(
		payload.ProjectID,
		payload.Credits,
		payload.Amount,
		payload.Currency,
		payload.Buyer,
		payload.Seller,
		payload.PricePerCredit,
	)
	if err != nil {
		return c.Status(paymentErrorStatus(err)).JSON(helpers.Errors{
			Errors: []string{err.Error()},
		})
	}

	return c.Status(201).JSON(entities.TransactionToEntity(transaction))
}

func (ctrl *PaymentsController) GetPayment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(422).JSON(helpers.Errors{
			Errors: []string{"settlement.transaction.invalid_id"},
		})
	}

	transaction, err := ctrl.Pipeline.Transactions.Find(id)
	if err != nil {
		return c.Status(404).JSON(helpers.Errors{
			Errors: []string{settlement.ErrTransactionNotFound.Error()},
		})
	}

	return c.Status(200).JSON(entities.TransactionToEntity(transaction))
}

func (ctrl *PaymentsController) ConfirmPayment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(422).JSON(helpers.Errors{
			Errors: []string{"settlement.transaction.invalid_id"},
		})
	}

	errs := new(helpers.Errors)
	payload := new(helpers.ConfirmPaymentPayload)

	if err := c.BodyParser(payload); err != nil {
		return c.Status(500).JSON(helpers.Errors{
			Errors: []string{"server.method.invalid_message_body"},
		})
	}

	helpers.Validate(payload, errs)
	if errs.Size() > 0 {
		return c.Status(422).JSON(errs)
	}

	transaction, err := ctrl.Pipeline.ConfirmPayment(id, payload.BlockchainRef, payload.Confirmations)
	if err != nil {
		return c.Status(paymentErrorStatus(err)).JSON(helpers.Errors{
			Errors: []string{err.Error()},
		})
	}

	return c.Status(200).JSON(entities.TransactionToEntity(transaction))
}

func (ctrl *PaymentsController) RefundPayment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(422).JSON(helpers.Errors{
			Errors: []string{"settlement.transaction.invalid_id"},
		})
	}

	refund, err := ctrl.Pipeline.RefundTransaction(id, c.Query("reason"))
	if err != nil {
		return c.Status(paymentErrorStatus(err)).JSON(helpers.Errors{
			Errors: []string{err.Error()},
		})
	}

	return c.Status(200).JSON(refund)
}

func (ctrl *PaymentsController) GetBatch(c *fiber.Ctx) error {
	batch, err := ctrl.Pipeline.Batches.Find(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(helpers.Errors{
			Errors: []string{settlement.ErrBatchNotFound.Error()},
		})
	}

	return c.Status(200).JSON(entities.BatchToEntity(batch))
}

func (ctrl *PaymentsController) ProcessBatch(c *fiber.Ctx) error {
	batch, err := ctrl.Pipeline.ProcessBatch(c.Params("id"))
	if err != nil {
		status := paymentErrorStatus(err)

		// A failed payout leaves the batch behind for inspection and
		// retry.
		if batch != nil {
			return c.Status(status).JSON(entities.BatchToEntity(batch))
		}

		return c.Status(status).JSON(helpers.Errors{
			Errors: []string{err.Error()},
		})
	}

	return c.Status(200).JSON(entities.BatchToEntity(batch))
}
