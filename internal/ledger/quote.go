package ledger

import "github.com/shopspring/decimal"

// QuotePricing carries the derived prices of a quotation.  All values
// are exact decimals; CashPrice and the dependent Savings are rounded to
// currency precision, mirroring what is persisted.
type QuotePricing struct {
    InstallmentPrice decimal.Decimal // total price when paying in installments
    CashPrice        decimal.Decimal // discounted price when paying upfront
    Savings          decimal.Decimal // referencePrice - CashPrice
    PerInstallment   decimal.Decimal // InstallmentPrice / installments, for display
}

// ComputeQuote prices a quotation from miles plus fees:
//
//	base        = (miles/1000) * marketMileValue + fees
//	installment = base * installmentFactor
//	cash        = installment * cashDiscountFactor
//	savings     = referencePrice - cash
//
// installmentFactor and cashDiscountFactor are multipliers (1.00 is
// neutral).  installments must be >= 1 or ErrInvalidInstallments is
// returned.  This function re-runs on every quotation save; the derived
// fields on the model are never hand-edited.
func ComputeQuote(miles int64, marketMileValue, fees, installmentFactor, cashDiscountFactor decimal.Decimal, installments int, referencePrice decimal.Decimal) (QuotePricing, error) {
    if installments < 1 {
        return QuotePricing{}, ErrInvalidInstallments
    }
    base := decimal.NewFromInt(miles).DivRound(thousand, 8).Mul(marketMileValue).Add(fees)
    installment := base.Mul(installmentFactor).Round(2)
    cash := installment.Mul(cashDiscountFactor).Round(2)
    return QuotePricing{
        InstallmentPrice: installment,
        CashPrice:        cash,
        Savings:          referencePrice.Sub(cash),
        PerInstallment:   installment.DivRound(decimal.NewFromInt(int64(installments)), 2),
    }, nil
}
