package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrAlreadyReserved      = errors.New("already_reserved")
	ErrProofRequired        = errors.New("proof_required")
	ErrPaymentConfigMissing = errors.New("payment_config_missing")
	ErrStoreUnavailable     = errors.New("store_unavailable")
	ErrSelfPurchase         = errors.New("cannot buy your own listing")
	ErrInvalidInput         = errors.New("invalid input")
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// storeErr classifies a persistence error: missing rows become ErrNotFound,
// domain sentinels pass through, anything else is a transient store failure.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDomainErr(err):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

func isDomainErr(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrForbidden, ErrAlreadyReserved, ErrProofRequired,
		ErrPaymentConfigMissing, ErrStoreUnavailable, ErrSelfPurchase, ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
