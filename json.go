package symplot

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// ============================================================
// JSON Serialization
// ============================================================

// ToJSON encodes e as a tree of {"type": ...} objects.
func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// TreeOf returns the JSON-ready tree form of e.
func TreeOf(e Expr) map[string]interface{} { return e.toJSON() }

// FromJSON decodes the tree produced by ToJSON.
func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	typ, ok := data["type"].(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}

	str := func(field string) (string, error) {
		s, ok := data[field].(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%s: %q must be a non-empty string", typ, field)
		}
		return s, nil
	}
	sub := func(field string) (Expr, error) {
		m, ok := data[field].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		e, err := FromJSON(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", typ, field, err)
		}
		return e, nil
	}
	list := func(field string) ([]Expr, error) {
		var raw []interface{}
		switch v := data[field].(type) {
		case []interface{}:
			raw = v
		case []map[string]interface{}:
			// TreeOf output that has not been through encoding/json.
			for _, m := range v {
				raw = append(raw, m)
			}
		default:
			return nil, fmt.Errorf("%s: %q must be an array", typ, field)
		}
		out := make([]Expr, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%s: %q[%d] must be an object", typ, field, i)
			}
			e, err := FromJSON(m)
			if err != nil {
				return nil, fmt.Errorf("%s: %s[%d]: %w", typ, field, i, err)
			}
			out[i] = e
		}
		return out, nil
	}

	switch typ {
	case "num":
		val, err := str("value")
		if err != nil {
			return nil, err
		}
		r, ok := new(big.Rat).SetString(val)
		if !ok {
			return nil, fmt.Errorf("invalid num value: %s", val)
		}
		return &Num{val: r}, nil

	case "const":
		name, err := str("name")
		if err != nil {
			return nil, err
		}
		c, ok := constants[name]
		if !ok {
			return nil, fmt.Errorf("unknown constant %q", name)
		}
		return c, nil

	case "sym":
		name, err := str("name")
		if err != nil {
			return nil, err
		}
		if err := checkVarName(name); err != nil {
			return nil, fmt.Errorf("sym: %w", err)
		}
		return S(name), nil

	case "add":
		terms, err := list("terms")
		if err != nil {
			return nil, err
		}
		return AddOf(terms...), nil

	case "mul":
		factors, err := list("factors")
		if err != nil {
			return nil, err
		}
		return MulOf(factors...), nil

	case "pow":
		base, err := sub("base")
		if err != nil {
			return nil, err
		}
		exp, err := sub("exp")
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil

	case "call":
		name, err := str("name")
		if err != nil {
			return nil, err
		}
		if _, ok := funcTable[name]; !ok {
			return nil, fmt.Errorf("call: unknown function %q", name)
		}
		arg, err := sub("arg")
		if err != nil {
			return nil, err
		}
		return callOf(name, arg).Simplify(), nil
	}
	return nil, fmt.Errorf("unknown expression type: %s", typ)
}
