package game

import (
	apperrors "github.com/salzundsand/server/internal/errors"
)

// Validate checks an action request against the fixed shape contract before
// any state is touched. Pure; no side effects.
func Validate(req *ActionRequest, rules Rules) error {
	if req == nil {
		return apperrors.New(apperrors.ErrInvalidInput, "missing request body")
	}

	switch ActionType(req.ActionType) {
	case ActionCollectSalt, ActionCollectSand, ActionSellResources:
	default:
		return apperrors.Newf(apperrors.ErrInvalidInput, "unknown action type %q", req.ActionType)
	}

	if req.Data != nil {
		if err := validateAmount("data.salt", req.Data.Salt, rules.MaxResources); err != nil {
			return err
		}
		if err := validateAmount("data.sand", req.Data.Sand, rules.MaxResources); err != nil {
			return err
		}
	}

	return nil
}

func validateAmount(field string, amount *int64, max int64) error {
	if amount == nil {
		return nil
	}
	if *amount < 0 || *amount > max {
		return apperrors.Newf(apperrors.ErrInvalidInput, "%s out of range [0, %d]", field, max)
	}
	return nil
}

// clampSellAmount normalizes a requested sell amount: absent or negative
// becomes zero, requests above the current holding are cut to the holding.
func clampSellAmount(requested *int64, held int64) int64 {
	if requested == nil || *requested < 0 {
		return 0
	}
	if *requested > held {
		return held
	}
	return *requested
}
