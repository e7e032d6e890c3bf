package reportcard

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/schoolerp/erp/core"
	"github.com/schoolerp/erp/core/grading"
)

var (
	assessmentTag  = "assessment"
	assessmentText = "assessment type must be one of " + strings.Join(grading.AssessmentTypes, ", ")
)

// InitValidators registers the report card validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(assessmentTag, assessmentValidation)
	core.RegisterCustomTranslation(validate, translator, assessmentTag, assessmentText)
}

// assessmentValidation accepts FA and SA, in any case.
func assessmentValidation(fl validator.FieldLevel) bool {
	return grading.IsAssessmentType(strings.ToUpper(core.CleanString(fl.Field().String())))
}
