// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"boekhouden/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("pattern_type", validatePatternType)
		_ = v.RegisterValidation("match_field", validateMatchField)
		_ = v.RegisterValidation("match_status", validateMatchStatus)
		_ = v.RegisterValidation("account_type", validateAccountType)
	}
}

func validatePatternType(fl validator.FieldLevel) bool {
	switch models.PatternType(fl.Field().String()) {
	case models.PatternTypeExact, models.PatternTypePrefix, models.PatternTypeContains, models.PatternTypeRegex:
		return true
	}
	return false
}

func validateMatchField(fl validator.FieldLevel) bool {
	return models.MatchField(fl.Field().String()).IsValid()
}

func validateMatchStatus(fl validator.FieldLevel) bool {
	switch models.MatchStatus(fl.Field().String()) {
	case models.MatchStatusAuto, models.MatchStatusManual, models.MatchStatusRejected, models.MatchStatusPending:
		return true
	}
	return false
}

func validateAccountType(fl validator.FieldLevel) bool {
	switch models.AccountType(fl.Field().String()) {
	case models.AccountTypeStandard, models.AccountTypeMaatschap:
		return true
	}
	return false
}

