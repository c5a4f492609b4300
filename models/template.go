package models

import (
	"time"

	"github.com/google/uuid"
)

// Transformation types a mapping rule may apply to a resolved value.
const (
	TransformNone          = "none"
	TransformDictAccess    = "dict_access"
	TransformFormatNumber  = "format_number"
	TransformDefaultIfNull = "default_if_null"
	TransformStringFormat  = "string_format"
	TransformMethodCall    = "method_call"
)

// SourceModelSpecial marks rules that invoke a registered method on a live
// object instead of walking a serialized context tree.
const SourceModelSpecial = "special"

// VideoTemplate links a deployment package to its HeyGen template and the
// prompt used for script generation. One active template per package.
type VideoTemplate struct {
	ID                  uuid.UUID `json:"id"`
	DeploymentPackageID int       `json:"deployment_package_id"`
	HeygenTemplateID    string    `json:"heygen_template_id"`
	PromptTemplate      string    `json:"prompt_template"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TransformationConfig carries the per-rule parameters: a format template for
// the formatting transforms, a default for null substitution, or the target
// object and arguments for method_call rules.
type TransformationConfig struct {
	Format       string                 `json:"format,omitempty"`
	DefaultValue *string                `json:"default_value,omitempty"`
	Object       string                 `json:"object,omitempty"`
	Args         []interface{}          `json:"args,omitempty"`
	Kwargs       map[string]interface{} `json:"kwargs,omitempty"`
}

// MappingRule declares how one template variable is produced from the
// mapping context. Rules are independent: each yields at most one variable,
// and rule order only matters when two rules name the same variable
// (last write wins).
type MappingRule struct {
	ID                   uuid.UUID            `json:"id"`
	TemplateID           uuid.UUID            `json:"template_id"`
	VariableName         string               `json:"variable_name"`
	SourceModel          string               `json:"source_model"`
	SourceField          string               `json:"source_field"`
	TransformationType   string               `json:"transformation_type"`
	TransformationConfig TransformationConfig `json:"transformation_config"` // JSONB
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// Default returns the rule's configured default value, or empty when none is
// configured.
func (r *MappingRule) Default() (string, bool) {
	if r.TransformationConfig.DefaultValue == nil {
		return "", false
	}
	return *r.TransformationConfig.DefaultValue, true
}
