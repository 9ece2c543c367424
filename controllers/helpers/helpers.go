package helpers

import (
	"github.com/gookit/validate"
	"github.com/shopspring/decimal"
)

type Errors struct {
	Errors []string `json:"errors"`
}

func (e Errors) Size() int {
	return len(e.Errors)
}

func Validate(payload interface{}, err_src *Errors) {
	v := validate.Struct(payload)
	if !v.Validate() {
		for _, errs := range v.Errors.All() {
			for _, err := range errs {
				err_src.Errors = append(err_src.Errors, err)
			}
		}
	}
}

type CreateOrderPayload struct {
	Side       string          `json:"side" form:"side" validate:"required"`
	CreditType string          `json:"credit_type" form:"credit_type" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity" form:"quantity"`
	Price      decimal.Decimal `json:"price" form:"price"`
	Creator    string          `json:"creator" form:"creator" validate:"required"`
	TTLSeconds int64           `json:"ttl_seconds" form:"ttl_seconds"`
}

type SwapPayload struct {
	PoolID      string          `json:"pool_id" form:"pool_id" validate:"required"`
	InputAmount decimal.Decimal `json:"input_amount" form:"input_amount"`
	InputAsset  string          `json:"input_asset" form:"input_asset" validate:"required|in:base,quote"`
}

type InitiatePaymentPayload struct {
	ProjectID      string          `json:"project_id" form:"project_id" validate:"required"`
	Credits        decimal.Decimal `json:"credits" form:"credits"`
	Amount         decimal.Decimal `json:"amount" form:"amount"`
	Currency       string          `json:"currency" form:"currency" validate:"required"`
	Buyer          string          `json:"buyer" form:"buyer" validate:"required"`
	Seller         string          `json:"seller" form:"seller" validate:"required"`
	PricePerCredit decimal.Decimal `json:"price_per_credit" form:"price_per_credit"`
}

type ConfirmPaymentPayload struct {
	BlockchainRef string `json:"blockchain_ref" form:"blockchain_ref" validate:"required"`
	Confirmations int    `json:"confirmations" form:"confirmations" validate:"min:0"`
}
