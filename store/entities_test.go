package store_test

import (
	"github.com/jacentio/docket/store"
)

// --- Test Entity Types ---

// Status is an enumeration stored by ordinal.
type Status int

const (
	StatusPending Status = iota
	StatusPaid
	StatusShipped
)

var statusEnum = store.Enum("PENDING", "PAID", "SHIPPED")

// Customer is a flat entity.
type Customer struct {
	ID    string
	Name  string
	Email string
	VIP   bool
}

func (c *Customer) GetID() string             { return c.ID }
func (c *Customer) SetID(id string)           { c.ID = id }
func (c *Customer) EntityType() store.TypeTag { return "customer" }

func optString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func customerSchema() store.Schema[*Customer] {
	return store.Schema[*Customer]{
		Type: "customer",
		New:  func() *Customer { return &Customer{} },
		Fields: []store.Field[*Customer]{
			{
				Name: "name",
				Get:  func(c *Customer) any { return optString(c.Name) },
				Set: func(c *Customer, v any) (err error) {
					c.Name, err = store.AsString(v)
					return err
				},
			},
			{
				Name: "email",
				Get:  func(c *Customer) any { return optString(c.Email) },
				Set: func(c *Customer, v any) (err error) {
					c.Email, err = store.AsString(v)
					return err
				},
			},
			{
				Name: "vip",
				Get:  func(c *Customer) any { return c.VIP },
				Set: func(c *Customer, v any) (err error) {
					c.VIP, err = store.AsBool(v)
					return err
				},
			},
		},
	}
}

// Order nests customers, lists and enumerations.
type Order struct {
	ID       string
	Customer *Customer
	Contacts []*Customer
	Tags     []string
	Grid     [][]string
	Status   Status
	History  []Status
	Total    float64
	Quantity int
}

func (o *Order) GetID() string             { return o.ID }
func (o *Order) SetID(id string)           { o.ID = id }
func (o *Order) EntityType() store.TypeTag { return "order" }

func toStatus(v any) (Status, error) {
	i, err := store.AsInt(v)
	return Status(i), err
}

func orderSchema() store.Schema[*Order] {
	return store.Schema[*Order]{
		Type: "order",
		New:  func() *Order { return &Order{} },
		Fields: []store.Field[*Order]{
			{
				Name: "customer",
				Type: "customer",
				Get: func(o *Order) any {
					if o.Customer == nil {
						return nil
					}
					return o.Customer
				},
				Set: func(o *Order, v any) (err error) {
					o.Customer, err = store.AsEntity[*Customer](v)
					return err
				},
			},
			{
				Name: "contacts",
				Get:  func(o *Order) any { return store.ListOf(o.Contacts) },
				Set: func(o *Order, v any) (err error) {
					o.Contacts, err = store.ListAs(v, store.AsEntity[*Customer])
					return err
				},
			},
			{
				Name: "tags",
				Get:  func(o *Order) any { return store.ListOf(o.Tags) },
				Set: func(o *Order, v any) (err error) {
					o.Tags, err = store.ListAs(v, store.AsString)
					return err
				},
			},
			{
				Name: "grid",
				Get: func(o *Order) any {
					if o.Grid == nil {
						return nil
					}
					rows := make([]any, len(o.Grid))
					for i, row := range o.Grid {
						rows[i] = store.ListOf(row)
					}
					return rows
				},
				Set: func(o *Order, v any) (err error) {
					o.Grid, err = store.ListAs(v, func(e any) ([]string, error) {
						return store.ListAs(e, store.AsString)
					})
					return err
				},
			},
			{
				Name: "status",
				Enum: statusEnum,
				Get:  func(o *Order) any { return int(o.Status) },
				Set: func(o *Order, v any) (err error) {
					o.Status, err = toStatus(v)
					return err
				},
			},
			{
				Name: "history",
				Enum: statusEnum,
				Get: func(o *Order) any {
					if o.History == nil {
						return nil
					}
					out := make([]any, len(o.History))
					for i, s := range o.History {
						out[i] = int(s)
					}
					return out
				},
				Set: func(o *Order, v any) (err error) {
					o.History, err = store.ListAs(v, toStatus)
					return err
				},
			},
			{
				Name: "total",
				Get:  func(o *Order) any { return o.Total },
				Set: func(o *Order, v any) (err error) {
					o.Total, err = store.AsFloat64(v)
					return err
				},
			},
			{
				Name: "quantity",
				Get:  func(o *Order) any { return o.Quantity },
				Set: func(o *Order, v any) (err error) {
					o.Quantity, err = store.AsInt(v)
					return err
				},
			},
		},
	}
}

func mustMapper[T store.Entity](schema store.Schema[T], opts ...store.MapperOption) *store.Mapper[T] {
	m, err := store.NewMapper(schema, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// orderMapper returns an order mapper with a customer adapter registered.
func orderMapper(opts ...store.MapperOption) *store.Mapper[*Order] {
	m := mustMapper(orderSchema(), opts...)
	m.Register("customer", mustMapper(customerSchema()))
	return m
}
