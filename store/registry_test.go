package store_test

import (
	"sync"
	"testing"

	"github.com/jacentio/docket/store"
)

func TestNewRegistry(t *testing.T) {
	r := store.NewRegistry()
	if r == nil {
		t.Fatal("expected non-nil Registry")
	}
	if len(r.Types()) != 0 {
		t.Errorf("expected no types, got %v", r.Types())
	}
}

func TestRegistry_RegisterLookup(t *testing.T) {
	r := store.NewRegistry()
	customers := mustMapper(customerSchema())

	r.Register("customer", customers)

	a, ok := r.Lookup("customer")
	if !ok {
		t.Fatal("expected adapter for 'customer'")
	}
	if a.Type() != "customer" {
		t.Errorf("expected type 'customer', got %q", a.Type())
	}

	if _, ok := r.Lookup("order"); ok {
		t.Error("expected no adapter for 'order'")
	}
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := store.NewRegistry()
	first := mustMapper(customerSchema())
	second := mustMapper(customerSchema())

	r.Register("customer", first)
	r.Register("customer", second)

	a, _ := r.Lookup("customer")
	if a != store.Adapter(second) {
		t.Error("expected the second registration to win")
	}
	if len(r.Types()) != 1 {
		t.Errorf("expected 1 type, got %d", len(r.Types()))
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := store.NewRegistry()
	r.Register("customer", mustMapper(customerSchema()))

	r.Unregister("customer")
	if _, ok := r.Lookup("customer"); ok {
		t.Error("expected adapter to be removed")
	}

	// Unregistering an unknown type is a no-op.
	r.Unregister("nothing")
}

func TestRegistry_TypesSorted(t *testing.T) {
	r := store.NewRegistry()
	r.Register("order", mustMapper(orderSchema()))
	r.Register("customer", mustMapper(customerSchema()))

	types := r.Types()
	if len(types) != 2 || types[0] != "customer" || types[1] != "order" {
		t.Errorf("expected [customer order], got %v", types)
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := store.NewRegistry()
	customers := mustMapper(customerSchema())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register("customer", customers)
		}()
		go func() {
			defer wg.Done()
			r.Lookup("customer")
			r.Types()
		}()
	}
	wg.Wait()

	if _, ok := r.Lookup("customer"); !ok {
		t.Error("expected adapter after concurrent registration")
	}
}

// --- Mapper Registry Tests ---

func TestMapper_AdapterPrefersSelf(t *testing.T) {
	m := mustMapper(customerSchema())
	other := mustMapper(customerSchema())
	m.Register("customer", other)

	a, ok := m.Adapter("customer")
	if !ok || a != store.Adapter(m) {
		t.Error("expected the mapper to resolve its own type to itself")
	}
}

func TestMapper_RegistriesAreIndependent(t *testing.T) {
	a := mustMapper(orderSchema())
	b := mustMapper(orderSchema())
	a.Register("customer", mustMapper(customerSchema()))

	if _, ok := b.Adapter("customer"); ok {
		t.Error("expected registrations not to leak between mappers")
	}
}

func TestMapper_Registered(t *testing.T) {
	m := orderMapper()
	m.Register("address", mustMapper(customerSchema()))

	got := m.Registered()
	want := []store.TypeTag{"address", "customer"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}

	m.Unregister("address")
	if got := m.Registered(); len(got) != 1 || got[0] != "customer" {
		t.Errorf("expected [customer], got %v", got)
	}
}

func TestStore_RegisterThroughEmbeddedMapper(t *testing.T) {
	s, err := store.New(nil, orderSchema())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	s.Register("customer", mustMapper(customerSchema()))

	if _, ok := s.Adapter("customer"); !ok {
		t.Error("expected adapter registered on the store")
	}
	s.Unregister("customer")
	if _, ok := s.Adapter("customer"); ok {
		t.Error("expected adapter to be removed from the store")
	}
}
