package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
)

var (
	// ErrValidation signals the request violated a domain invariant.
	ErrValidation = errors.New("invalid work order input")
	// ErrForbidden signals the actor's role may not perform the operation at all.
	ErrForbidden = errors.New("actor role not permitted")
)

var validationErrors = []error{
	domain.ErrActorRequired,
	domain.ErrUnknownRole,
	domain.ErrUnknownStatus,
	domain.ErrCustomerNameRequired,
	domain.ErrCustomerPhoneRequired,
	domain.ErrVehicleMakeRequired,
	domain.ErrVehicleModelRequired,
	domain.ErrInvalidVehicleYear,
	domain.ErrInvalidOdometer,
	domain.ErrInvalidActivityType,
	domain.ErrItemDescriptionMissing,
	domain.ErrInvalidQuantity,
	domain.ErrNegativeUnitPrice,
	domain.ErrUnitPricePrecision,
	domain.ErrInvalidItemKind,
	domain.ErrPaintCodeRequired,
	domain.ErrSupplyItemRequired,
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	return err
}
