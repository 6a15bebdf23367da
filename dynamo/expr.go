package dynamo

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/docket/store"
)

// maxInOperands is the DynamoDB limit on operands of a single IN.
const maxInOperands = 100

// Expression is a raw DynamoDB filter expression for store.Raw.
// Placeholders in Names and Values must not start with "#n", "#p" or ":v".
type Expression struct {
	Condition string
	Names     map[string]string
	Values    map[string]types.AttributeValue
}

// scanExpr is a compiled filter and projection for a Scan.
type scanExpr struct {
	condition  string
	projection string
	names      map[string]string
	values     map[string]types.AttributeValue

	// none is set when the filter cannot match anything (an empty IN).
	none bool
}

func (e *scanExpr) name(field string) string {
	ph := fmt.Sprintf("#n%d", len(e.names))
	e.names[ph] = field
	return ph
}

func (e *scanExpr) value(v any) (string, error) {
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return "", err
	}
	ph := fmt.Sprintf(":v%d", len(e.values))
	e.values[ph] = av
	return ph, nil
}

// compile builds the scan expression for a filter and an optional projection.
func compile(f store.Filter, projection []string) (*scanExpr, error) {
	e := &scanExpr{
		names:  make(map[string]string),
		values: make(map[string]types.AttributeValue),
	}

	switch f.Op {
	case store.OpAll:
	case store.OpEq:
		n := e.name(f.Field)
		v, err := e.value(f.Values[0])
		if err != nil {
			return nil, fmt.Errorf("marshal %s value: %w", f.Field, err)
		}
		e.condition = n + " = " + v
	case store.OpIn:
		if len(f.Values) == 0 {
			e.none = true
			return e, nil
		}
		n := e.name(f.Field)
		var groups []string
		for start := 0; start < len(f.Values); start += maxInOperands {
			end := min(start+maxInOperands, len(f.Values))
			phs := make([]string, 0, end-start)
			for _, val := range f.Values[start:end] {
				v, err := e.value(val)
				if err != nil {
					return nil, fmt.Errorf("marshal %s value: %w", f.Field, err)
				}
				phs = append(phs, v)
			}
			groups = append(groups, n+" IN ("+strings.Join(phs, ", ")+")")
		}
		if len(groups) == 1 {
			e.condition = groups[0]
		} else {
			e.condition = "(" + strings.Join(groups, ") OR (") + ")"
		}
	case store.OpExists:
		e.condition = "attribute_exists(" + e.name(f.Field) + ")"
	case store.OpRaw:
		raw, ok := f.Native.(Expression)
		if !ok {
			if p, isPtr := f.Native.(*Expression); isPtr && p != nil {
				raw, ok = *p, true
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w: %T", store.ErrUnsupportedFilter, f.Native)
		}
		e.condition = raw.Condition
		e.names = mergeNames(e.names, raw.Names)
		e.values = mergeValues(e.values, raw.Values)
	default:
		return nil, fmt.Errorf("%w: %s", store.ErrUnsupportedFilter, f.Op)
	}

	if len(projection) > 0 {
		phs := make([]string, len(projection))
		for i, field := range projection {
			ph := fmt.Sprintf("#p%d", i)
			e.names[ph] = field
			phs[i] = ph
		}
		e.projection = strings.Join(phs, ", ")
	}
	return e, nil
}

// mergeNames merges expression attribute name maps.
func mergeNames(maps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}

// mergeValues merges expression attribute value maps.
func mergeValues(maps ...map[string]types.AttributeValue) map[string]types.AttributeValue {
	result := make(map[string]types.AttributeValue)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}
