package runtime

import (
	"k8s.io/apimachinery/pkg/util/validation/field"
	"strings"
)

const (
	lineBreaks      = "\r\n"
	frameDelimiters = ";" + lineBreaks
)

// ValidateCommand checks that cmd can be rendered as a single serial frame.
func ValidateCommand(cmd DeviceCommand, fldPath *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	switch cmd.Kind {
	case SpecialControl:
		allErrs = append(allErrs, validateFrameField(cmd.Payload, lineBreaks, fldPath.Child("payload"))...)
	case Normal:
		allErrs = append(allErrs, validateFrameField(cmd.Family, frameDelimiters, fldPath.Child("family"))...)
		allErrs = append(allErrs, validateFrameField(cmd.DeviceID, frameDelimiters, fldPath.Child("deviceId"))...)
		allErrs = append(allErrs, validateFrameField(cmd.Parameter, frameDelimiters, fldPath.Child("parameter"))...)
		if strings.ContainsAny(cmd.Payload, frameDelimiters) {
			allErrs = append(allErrs, field.Invalid(fldPath.Child("payload"), cmd.Payload, "must not contain ';' or line breaks"))
		}
	default:
		allErrs = append(allErrs, field.NotSupported(fldPath.Child("kind"), cmd.Kind.String(), []string{Normal.String(), SpecialControl.String()}))
	}
	return allErrs
}

func validateFrameField(value string, forbidden string, fldPath *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	if len(value) == 0 {
		allErrs = append(allErrs, field.Required(fldPath, ""))
	} else if strings.ContainsAny(value, forbidden) {
		allErrs = append(allErrs, field.Invalid(fldPath, value, "must not contain frame delimiters"))
	}
	return allErrs
}
