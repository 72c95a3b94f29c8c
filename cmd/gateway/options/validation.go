package options

import (
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"rflinkgateway/pkg/broker"
	"strconv"
	"strings"
)

func Validate(o *Options) []error {
	var errs []error
	if err := o.BaseOptions.ValidateAndApply(); err != nil {
		errs = append(errs, err)
	}
	if fieldErrs := o.validate(); len(fieldErrs) > 0 {
		errs = append(errs, fieldErrs.ToAggregate().Errors()...)
	}
	return errs
}

func (o *Options) validate() field.ErrorList {
	var allErrs field.ErrorList

	if len(o.Port) > 0 {
		port, err := strconv.Atoi(o.Port)
		if err != nil {
			allErrs = append(allErrs, field.Invalid(field.NewPath("port"), o.Port, "must be a port number"))
		} else {
			allErrs = append(allErrs, validatePort(port, field.NewPath("port"))...)
		}
	}
	if o.Wait.Duration <= 0 {
		allErrs = append(allErrs, field.Invalid(field.NewPath("graceful-timeout"), o.Wait.Duration.String(), "must be greater than zero"))
	}
	if (len(o.CertFile) == 0) != (len(o.KeyFile) == 0) {
		allErrs = append(allErrs, field.Required(field.NewPath("tlsPrivateKeyFile"), "tlsCertFile and tlsPrivateKeyFile must be set together"))
	}

	mqttPath := field.NewPath("mqtt")
	if len(strings.TrimSpace(o.Mqtt.Host)) == 0 {
		allErrs = append(allErrs, field.Required(mqttPath.Child("host"), ""))
	}
	allErrs = append(allErrs, validatePort(o.Mqtt.Port, mqttPath.Child("port"))...)
	if !broker.ValidPrefix(o.Mqtt.Prefix) {
		allErrs = append(allErrs, field.Invalid(mqttPath.Child("prefix"), o.Mqtt.Prefix, "must be non-empty and free of the + and # wildcards"))
	}
	if o.Mqtt.KeepAlive.Duration < 0 {
		allErrs = append(allErrs, field.Invalid(mqttPath.Child("keepAlive"), o.Mqtt.KeepAlive.Duration.String(), "must not be negative"))
	}
	if o.Mqtt.PublishTimeout.Duration <= 0 {
		allErrs = append(allErrs, field.Invalid(mqttPath.Child("publishTimeout"), o.Mqtt.PublishTimeout.Duration.String(), "must be greater than zero"))
	}
	if o.Mqtt.RetryInterval.Duration <= 0 {
		allErrs = append(allErrs, field.Invalid(mqttPath.Child("retryInterval"), o.Mqtt.RetryInterval.Duration.String(), "must be greater than zero"))
	}

	serialPath := field.NewPath("serial")
	if len(strings.TrimSpace(o.Serial.Device)) == 0 {
		allErrs = append(allErrs, field.Required(serialPath.Child("device"), ""))
	}
	if o.Serial.BaudRate <= 0 {
		allErrs = append(allErrs, field.Invalid(serialPath.Child("baudRate"), o.Serial.BaudRate, "must be greater than zero"))
	}
	if o.Serial.ReadTimeout.Duration <= 0 {
		allErrs = append(allErrs, field.Invalid(serialPath.Child("readTimeout"), o.Serial.ReadTimeout.Duration.String(), "must be greater than zero"))
	}
	if o.Serial.ReconnectInterval.Duration <= 0 {
		allErrs = append(allErrs, field.Invalid(serialPath.Child("reconnectInterval"), o.Serial.ReconnectInterval.Duration.String(), "must be greater than zero"))
	}
	return allErrs
}

func validatePort(port int, fldPath *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	for _, msg := range validation.IsValidPortNum(port) {
		allErrs = append(allErrs, field.Invalid(fldPath, port, msg))
	}
	return allErrs
}
