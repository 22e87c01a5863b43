package validator

import (
	"log"

	"github.com/go-playground/validator/v10"

	"github.com/hanneswrnr/glasschadenmelden/internal/models"
)

// registerCustomRules installs the domain validation tags.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// A rule that fails to register is a startup error.
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// 'is-user-role': the role must be one of the closed role set.
	mustRegister("is-user-role", validateUserRole)
}

func validateUserRole(fl validator.FieldLevel) bool {
	role := models.UserRole(fl.Field().String())
	for _, valid := range models.ValidUserRoles {
		if role == valid {
			return true
		}
	}
	return false
}
