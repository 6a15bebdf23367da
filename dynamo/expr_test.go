package dynamo

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/docket/store"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name      string
		filter    store.Filter
		condition string
		names     map[string]string
	}{
		{"all", store.All(), "", map[string]string{}},
		{"eq", store.Eq("status", 2), "#n0 = :v0", map[string]string{"#n0": "status"}},
		{"in", store.In("id", "a", "b"), "#n0 IN (:v0, :v1)", map[string]string{"#n0": "id"}},
		{"exists", store.Exists("email"), "attribute_exists(#n0)", map[string]string{"#n0": "email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := compile(tt.filter, nil)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if e.condition != tt.condition {
				t.Errorf("expected condition %q, got %q", tt.condition, e.condition)
			}
			if len(e.names) != len(tt.names) {
				t.Errorf("expected names %v, got %v", tt.names, e.names)
			}
			for k, v := range tt.names {
				if e.names[k] != v {
					t.Errorf("expected %s=%s, got %q", k, v, e.names[k])
				}
			}
			if e.projection != "" {
				t.Errorf("expected no projection, got %q", e.projection)
			}
		})
	}
}

func TestCompile_NumericValue(t *testing.T) {
	e, err := compile(store.Eq("count", 3), nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	n, ok := e.values[":v0"].(*types.AttributeValueMemberN)
	if !ok || n.Value != "3" {
		t.Errorf("expected number 3, got %#v", e.values[":v0"])
	}
}

func TestCompile_LargeInIsSplit(t *testing.T) {
	ids := make([]string, 150)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
	}

	e, err := compile(store.InStrings(store.IDField, ids), nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if strings.Count(e.condition, " IN (") != 2 {
		t.Errorf("expected 2 IN groups, got %q", e.condition)
	}
	if !strings.HasPrefix(e.condition, "(#n0 IN (") || !strings.Contains(e.condition, ") OR (") {
		t.Errorf("expected OR of IN groups, got %q", e.condition)
	}
	if len(e.values) != 150 {
		t.Errorf("expected 150 values, got %d", len(e.values))
	}
}

func TestCompile_EmptyIn(t *testing.T) {
	e, err := compile(store.In(store.IDField), nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !e.none {
		t.Error("expected an empty IN to match nothing")
	}
}

func TestCompile_Projection(t *testing.T) {
	e, err := compile(store.Eq("name", "x"), []string{store.IDField, "name"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if e.projection != "#p0, #p1" {
		t.Errorf("expected '#p0, #p1', got %q", e.projection)
	}
	if e.names["#p0"] != store.IDField || e.names["#p1"] != "name" || e.names["#n0"] != "name" {
		t.Errorf("unexpected names %v", e.names)
	}
}

func TestCompile_Raw(t *testing.T) {
	raw := Expression{
		Condition: "#ttl > :now",
		Names:     map[string]string{"#ttl": "ttl"},
		Values:    map[string]types.AttributeValue{":now": &types.AttributeValueMemberN{Value: "100"}},
	}

	for _, native := range []any{raw, &raw} {
		e, err := compile(store.Raw(native), []string{store.IDField})
		if err != nil {
			t.Fatalf("compile %T: %v", native, err)
		}
		if e.condition != "#ttl > :now" || e.names["#ttl"] != "ttl" || e.names["#p0"] != store.IDField {
			t.Errorf("unexpected raw expression %+v", e)
		}
		if _, ok := e.values[":now"]; !ok {
			t.Errorf("expected :now value, got %v", e.values)
		}
	}

	if _, err := compile(store.Raw("ttl > 100"), nil); !errors.Is(err, store.ErrUnsupportedFilter) {
		t.Errorf("expected ErrUnsupportedFilter, got %v", err)
	}
}

func TestMergeNames(t *testing.T) {
	m := mergeNames(map[string]string{"#a": "a"}, map[string]string{"#b": "b"}, nil)
	if len(m) != 2 || m["#a"] != "a" || m["#b"] != "b" {
		t.Errorf("unexpected merge %v", m)
	}
}

func TestItemConversion(t *testing.T) {
	d := store.NewDocument()
	d.Set(store.IDField, "w1")
	d.Set("count", 4)
	d.Set("tags", []any{"x"})

	item, err := toItem(d)
	if err != nil {
		t.Fatalf("toItem: %v", err)
	}
	if s, ok := item[store.IDField].(*types.AttributeValueMemberS); !ok || s.Value != "w1" {
		t.Errorf("expected string id, got %#v", item[store.IDField])
	}
	if _, ok := item["tags"].(*types.AttributeValueMemberL); !ok {
		t.Errorf("expected list attribute, got %#v", item["tags"])
	}

	back, err := fromItem(item)
	if err != nil {
		t.Fatalf("fromItem: %v", err)
	}
	if v, _ := back.Get("count"); v != float64(4) {
		t.Errorf("expected float64 4, got %#v", v)
	}
}
