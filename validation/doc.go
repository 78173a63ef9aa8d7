// Package validation checks probe configuration and CLI input.
//
// Struct tags are validated with go-playground/validator, reporting field
// names by their configuration key:
//
//	type GatewayConfig struct {
//	    BaseURL string `mapstructure:"base_url" validate:"required,url"`
//	}
//	err := validation.Validate(cfg)
//
// Rules that depend on several fields use the collecting Validator:
//
//	v := validation.New()
//	v.OneOf("report.format", format, "text", "json", "yaml")
//	err := v.Error()
package validation
