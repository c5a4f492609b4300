package mapping

import (
	"fmt"

	"gradereel/api-gateway/models"
)

// MethodFunc computes a variable from a live object. args and kwargs come
// straight from the rule's transformation config.
type MethodFunc func(obj interface{}, args []interface{}, kwargs map[string]interface{}) (string, error)

type methodKey struct {
	object string
	method string
}

// MethodRegistry is the closed dispatch table for method_call rules. Only
// explicitly registered (object, method) pairs can be invoked; unknown pairs
// resolve to absent rather than erroring.
type MethodRegistry struct {
	funcs map[methodKey]MethodFunc
}

// NewMethodRegistry returns an empty registry.
func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{funcs: make(map[methodKey]MethodFunc)}
}

// Register adds a callable under (object, method).
func (r *MethodRegistry) Register(object, method string, fn MethodFunc) {
	r.funcs[methodKey{object: object, method: method}] = fn
}

// Call invokes the registered function, if any.
func (r *MethodRegistry) Call(object, method string, obj interface{}, args []interface{}, kwargs map[string]interface{}) (string, error, bool) {
	fn, ok := r.funcs[methodKey{object: object, method: method}]
	if !ok {
		return "", nil, false
	}
	out, err := fn(obj, args, kwargs)
	return out, err, true
}

// PromptDataMethods builds the registry for the text helpers mapping rules
// use on the script prompt data.
func PromptDataMethods() *MethodRegistry {
	r := NewMethodRegistry()

	r.Register("prompt_data", "get_simple_components_text", func(obj interface{}, _ []interface{}, _ map[string]interface{}) (string, error) {
		data, err := asPromptData(obj)
		if err != nil {
			return "", err
		}
		return data.SimpleComponentsText(), nil
	})

	r.Register("prompt_data", "get_simple_steps_text", func(obj interface{}, _ []interface{}, _ map[string]interface{}) (string, error) {
		data, err := asPromptData(obj)
		if err != nil {
			return "", err
		}
		return data.SimpleStepsText(), nil
	})

	r.Register("prompt_data", "get_top_and_bottom_steps_text", func(obj interface{}, args []interface{}, kwargs map[string]interface{}) (string, error) {
		data, err := asPromptData(obj)
		if err != nil {
			return "", err
		}
		topN, bottomN := 4, 4
		if len(args) > 0 {
			topN = intArg(args[0], topN)
		}
		if len(args) > 1 {
			bottomN = intArg(args[1], bottomN)
		}
		if v, ok := kwargs["top_n"]; ok {
			topN = intArg(v, topN)
		}
		if v, ok := kwargs["bottom_n"]; ok {
			bottomN = intArg(v, bottomN)
		}
		return data.TopAndBottomStepsText(topN, bottomN), nil
	})

	return r
}

func asPromptData(obj interface{}) (*models.ScriptPromptData, error) {
	data, ok := obj.(*models.ScriptPromptData)
	if !ok {
		return nil, fmt.Errorf("expected *models.ScriptPromptData, got %T", obj)
	}
	return data, nil
}

// intArg coerces a JSON-decoded argument (float64 or int) to int.
func intArg(v interface{}, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return fallback
	}
}
