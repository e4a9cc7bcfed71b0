// ABOUTME: Webhook record type and advisory field validation
// ABOUTME: Team, channel and seed must be non-blank; the token is never validated

package webhook

import (
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Record is one configured inbound-alert target.
type Record struct {
	// Disabled webhooks must not be used to deliver alerts.
	Disabled bool `json:"disabled"`
	// Team is the target messaging workspace.
	Team string `json:"team" validate:"notblank"`
	// Channel is the target channel within Team.
	Channel string `json:"channel" validate:"notblank"`
	// Seed is the shared secret embedded in the webhook URL.
	Seed string `json:"seed" validate:"notblank"`
	// Token is an optional Pingdom API credential used to enrich alerts.
	Token string `json:"token"`
}

// FieldErrors flags the fields of a Record that failed validation.
type FieldErrors struct {
	Team    bool `json:"team"`
	Channel bool `json:"channel"`
	Seed    bool `json:"seed"`
}

// Valid reports whether no field was flagged.
func (e FieldErrors) Valid() bool {
	return !e.Team && !e.Channel && !e.Seed
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Validate computes the inline error indicators for r. Validation is advisory:
// an invalid record is still stored and reported.
func (r Record) Validate() FieldErrors {
	var fe FieldErrors

	err := validate.Struct(r)
	if err == nil {
		return fe
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fe
	}
	for _, v := range verrs {
		switch v.StructField() {
		case "Team":
			fe.Team = true
		case "Channel":
			fe.Channel = true
		case "Seed":
			fe.Seed = true
		}
	}
	return fe
}

// Valid reports whether r passes validation.
func (r Record) Valid() bool {
	return r.Validate().Valid()
}
