package api

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"househunt/internal/models"
	"househunt/internal/scoring"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by the request types
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err = v.RegisterValidation("criterion_type", validateCriterionType); err != nil {
			return
		}
		err = v.RegisterValidation("property_status", validatePropertyStatus)
	})
	return err
}

func validateCriterionType(fl validator.FieldLevel) bool {
	return scoring.CriterionType(fl.Field().String()).Valid()
}

func validatePropertyStatus(fl validator.FieldLevel) bool {
	return lo.Contains(models.PropertyStatuses, fl.Field().String())
}

// validateRatings accepts booleans, numbers and null (delete) values only
func validateRatings(ratings map[string]interface{}) error {
	for id, value := range ratings {
		switch value.(type) {
		case nil, bool, float64:
		default:
			return fmt.Errorf("rating for %q must be a boolean, a number or null", id)
		}
	}
	return nil
}
