package stream

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/docket/store"
)

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// ImageDocument converts a DynamoDB stream image to a document, decoding
// values the same way the dynamo backend does: numbers become float64 and
// maps become nested documents. NULL attributes are dropped.
func ImageDocument(image map[string]events.DynamoDBAttributeValue) (*store.Document, error) {
	m, err := imageMap(image)
	if err != nil {
		return nil, err
	}
	return store.DocumentFromMap(m), nil
}

func imageMap(image map[string]events.DynamoDBAttributeValue) (map[string]any, error) {
	m := make(map[string]any, len(image))
	for k, av := range image {
		v, err := attrValue(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		if v != nil {
			m[k] = v
		}
	}
	return m, nil
}

func attrValue(av events.DynamoDBAttributeValue) (any, error) {
	switch av.DataType() {
	case events.DataTypeString:
		return av.String(), nil
	case events.DataTypeNumber:
		return strconv.ParseFloat(av.Number(), 64)
	case events.DataTypeBoolean:
		return av.Boolean(), nil
	case events.DataTypeBinary:
		return av.Binary(), nil
	case events.DataTypeNull:
		return nil, nil
	case events.DataTypeList:
		list := av.List()
		out := make([]any, 0, len(list))
		for i, e := range list {
			v, err := attrValue(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, v)
		}
		return out, nil
	case events.DataTypeMap:
		return imageMap(av.Map())
	case events.DataTypeStringSet:
		ss := av.StringSet()
		out := make([]any, len(ss))
		for i, s := range ss {
			out[i] = s
		}
		return out, nil
	case events.DataTypeNumberSet:
		ns := av.NumberSet()
		out := make([]any, len(ns))
		for i, n := range ns {
			f, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	case events.DataTypeBinarySet:
		bs := av.BinarySet()
		out := make([]any, len(bs))
		for i, b := range bs {
			out[i] = b
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported attribute type %v", av.DataType())
}
