package mapping

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"gradereel/api-gateway/models"
)

// Engine resolves mapping rules against a context. Resolution never fails a
// whole payload build: a rule that cannot produce a value yields absent, and
// formatting problems degrade to the rule's default.
type Engine struct {
	log     *logrus.Logger
	methods *MethodRegistry
}

// NewEngine builds an engine with the given method registry for method_call
// rules.
func NewEngine(log *logrus.Logger, methods *MethodRegistry) *Engine {
	return &Engine{log: log, methods: methods}
}

// Resolve produces the rule's variable value. The second return reports
// whether the variable should be emitted at all; suppressed variables are
// omitted from the payload, not sent as empty strings.
func (e *Engine) Resolve(rule models.MappingRule, ctx *Context) (string, bool) {
	if rule.SourceModel == models.SourceModelSpecial {
		return e.resolveSpecial(rule, ctx)
	}

	tree, ok := ctx.Lookup(rule.SourceModel)
	if !ok {
		// Unknown source models are tolerated so templates can reference
		// objects not every deployment has.
		return "", false
	}

	// dict_access threads the configured default through the walk; the other
	// transforms see nil on a missing path.
	var walkDefault interface{}
	if rule.TransformationType == models.TransformDictAccess {
		if d, ok := rule.Default(); ok {
			walkDefault = d
		}
	}
	value := walkPath(tree, rule.SourceField, walkDefault)

	switch rule.TransformationType {
	case models.TransformNone, models.TransformDictAccess, "":
		return stringify(value)

	case models.TransformDefaultIfNull:
		if value == nil {
			if d, ok := rule.Default(); ok {
				return d, true
			}
			return "", false
		}
		return stringify(value)

	case models.TransformFormatNumber:
		return e.resolveFormatNumber(rule, value)

	case models.TransformStringFormat:
		s, ok := stringify(value)
		if !ok {
			return "", false
		}
		out, err := formatString(rule.TransformationConfig.Format, s)
		if err != nil {
			e.log.WithFields(logrus.Fields{
				"variable": rule.VariableName,
				"format":   rule.TransformationConfig.Format,
			}).Warnf("String format failed: %v", err)
			return "", true
		}
		return out, true

	case models.TransformMethodCall:
		// method_call is only valid on the special bucket.
		return "", false

	default:
		e.log.Warnf("Unknown transformation type %q for variable %s", rule.TransformationType, rule.VariableName)
		return "", false
	}
}

// ResolveAll resolves every rule, in order, into a flat variable set.
// When two rules name the same variable the later rule wins.
func (e *Engine) ResolveAll(rules []models.MappingRule, ctx *Context) map[string]string {
	variables := make(map[string]string, len(rules))
	for _, rule := range rules {
		if value, ok := e.Resolve(rule, ctx); ok {
			variables[rule.VariableName] = value
		}
	}
	return variables
}

func (e *Engine) resolveSpecial(rule models.MappingRule, ctx *Context) (string, bool) {
	if rule.TransformationType != models.TransformMethodCall {
		return "", false
	}

	cfg := rule.TransformationConfig
	obj, ok := ctx.Special(cfg.Object)
	if !ok {
		e.log.Debugf("No special object %q registered for variable %s", cfg.Object, rule.VariableName)
		return "", false
	}

	out, err, found := e.methods.Call(cfg.Object, rule.SourceField, obj, cfg.Args, cfg.Kwargs)
	if !found {
		e.log.Warnf("No method %q registered on %q for variable %s", rule.SourceField, cfg.Object, rule.VariableName)
		return "", false
	}
	if err != nil {
		e.log.WithField("variable", rule.VariableName).Warnf("Method call failed: %v", err)
		return "", false
	}
	return out, true
}

func (e *Engine) resolveFormatNumber(rule models.MappingRule, value interface{}) (string, bool) {
	fallback := func() (string, bool) {
		if d, ok := rule.Default(); ok {
			return d, true
		}
		return "", false
	}

	if value == nil {
		return fallback()
	}
	f, err := toFloat(value)
	if err != nil {
		e.log.WithField("variable", rule.VariableName).Debugf("Non-numeric value for format_number: %v", err)
		return fallback()
	}
	out, err := formatNumber(rule.TransformationConfig.Format, f)
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"variable": rule.VariableName,
			"format":   rule.TransformationConfig.Format,
		}).Warnf("Number format failed: %v", err)
		return fallback()
	}
	return out, true
}

// walkPath follows a dot-separated path through nested trees, returning def
// the moment a key is missing or the current node is not a tree.
func walkPath(tree map[string]interface{}, path string, def interface{}) interface{} {
	var current interface{} = tree
	for _, key := range strings.Split(path, ".") {
		node, ok := current.(map[string]interface{})
		if !ok {
			return def
		}
		current, ok = node[key]
		if !ok {
			return def
		}
	}
	return current
}

// stringify renders a resolved value as the provider-facing string. nil
// suppresses the variable.
func stringify(value interface{}) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

func toFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not numeric", value, value)
	}
}
