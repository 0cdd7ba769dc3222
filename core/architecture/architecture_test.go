package architecture

import (
	"reflect"
	"testing"

	"cloud-architect-sim/core/catalog"
	"cloud-architect-sim/core/connection"
	"cloud-architect-sim/core/types"
	"cloud-architect-sim/internal/errors"
)

func newArch() *Architecture {
	c := catalog.Default()
	return New(c, connection.NewValidator(c))
}

func mustPlace(t *testing.T, a *Architecture, id string) Ref {
	t.Helper()
	ref, err := a.Place(id)
	if err != nil {
		t.Fatalf("Place(%s): %v", id, err)
	}
	return ref
}

func mustConnect(t *testing.T, a *Architecture, src, dst Ref) {
	t.Helper()
	if _, err := a.Connect(src, dst); err != nil {
		t.Fatalf("Connect: %v", err)
	}
}

func TestPlace(t *testing.T) {
	a := newArch()

	r1 := mustPlace(t, a, "lambda")
	r2 := mustPlace(t, a, "lambda")
	if r1 == r2 {
		t.Error("instances of the same service need distinct refs")
	}

	if _, err := a.Place("mainframe"); !errors.IsType(err, errors.TypeUnknownService) {
		t.Errorf("expected UNKNOWN_SERVICE, got %v", err)
	}

	a.Restrict([]string{"lambda"})
	if _, err := a.Place("s3"); !errors.IsType(err, errors.TypeInput) {
		t.Errorf("expected INPUT_ERROR outside the available set, got %v", err)
	}
	a.Restrict(nil)
	mustPlace(t, a, "s3")

	if got := a.Snapshot().ServiceList(); !reflect.DeepEqual(got, []string{"lambda", "lambda", "s3"}) {
		t.Errorf("ServiceList() = %v", got)
	}
}

func TestConnect(t *testing.T) {
	a := newArch()
	gw := mustPlace(t, a, "api_gateway")
	fn := mustPlace(t, a, "lambda")
	db := mustPlace(t, a, "rds")

	result, err := a.Connect(gw, fn)
	if err != nil || !result.Valid {
		t.Fatalf("api_gateway -> lambda rejected: %v %+v", err, result)
	}

	result, err = a.Connect(gw, db)
	if !errors.IsType(err, errors.TypeInvalidConnection) {
		t.Fatalf("expected INVALID_CONNECTION, got %v", err)
	}
	if result.Kind != connection.KindRequiresIntermediate {
		t.Errorf("Kind = %s", result.Kind)
	}

	if _, err := a.Connect(gw, fn); !errors.IsType(err, errors.TypeInvalidConnection) {
		t.Errorf("duplicate link should be rejected, got %v", err)
	}
	if _, err := a.Connect(fn, fn); !errors.IsType(err, errors.TypeInvalidConnection) {
		t.Errorf("self link should be rejected, got %v", err)
	}
	if _, err := a.Connect(fn, Ref("missing")); !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("unknown ref should be NOT_FOUND, got %v", err)
	}

	want := []types.Connection{types.Link("api_gateway", "lambda")}
	if got := a.Snapshot().ConnectionList(); !reflect.DeepEqual(got, want) {
		t.Errorf("ConnectionList() = %v, want %v", got, want)
	}
}

func TestRemoveLeavesNoDanglingLinks(t *testing.T) {
	a := newArch()
	gw := mustPlace(t, a, "api_gateway")
	fn1 := mustPlace(t, a, "lambda")
	fn2 := mustPlace(t, a, "lambda")
	db := mustPlace(t, a, "dynamodb")
	iam := mustPlace(t, a, "iam")

	mustConnect(t, a, gw, fn1)
	mustConnect(t, a, gw, fn2)
	mustConnect(t, a, fn1, db)
	mustConnect(t, a, fn2, db)
	mustConnect(t, a, iam, fn1)

	if err := a.Remove(fn1); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	for _, l := range a.Links() {
		if l.Source == fn1 || l.Target == fn1 {
			t.Errorf("dangling link %v after removal", l)
		}
		if _, ok := a.Lookup(l.Source); !ok {
			t.Errorf("link source %s not placed", l.Source)
		}
		if _, ok := a.Lookup(l.Target); !ok {
			t.Errorf("link target %s not placed", l.Target)
		}
	}

	// the second lambda keeps its own links
	want := []types.Connection{types.Link("api_gateway", "lambda"), types.Link("lambda", "dynamodb")}
	if got := a.Snapshot().ConnectionList(); !reflect.DeepEqual(got, want) {
		t.Errorf("ConnectionList() = %v, want %v", got, want)
	}

	if err := a.Remove(fn1); !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("second removal should be NOT_FOUND, got %v", err)
	}
}

func TestDisconnect(t *testing.T) {
	a := newArch()
	gw := mustPlace(t, a, "api_gateway")
	fn := mustPlace(t, a, "lambda")
	mustConnect(t, a, gw, fn)

	if err := a.Disconnect(fn, gw); !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("reverse direction should not match, got %v", err)
	}
	if err := a.DisconnectServices("api_gateway", "lambda"); err != nil {
		t.Fatalf("DisconnectServices: %v", err)
	}
	if len(a.Links()) != 0 {
		t.Errorf("links left: %v", a.Links())
	}
	if err := a.DisconnectServices("api_gateway", "lambda"); !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	a := newArch()
	gw := mustPlace(t, a, "api_gateway")
	fn := mustPlace(t, a, "lambda")
	mustConnect(t, a, gw, fn)

	snap := a.Snapshot()
	if err := a.Remove(gw); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if len(snap.ServiceList()) != 2 || len(snap.ConnectionList()) != 1 {
		t.Errorf("snapshot changed after mutation: %v %v", snap.ServiceList(), snap.ConnectionList())
	}

	a.Reset()
	if a.Len() != 0 || len(a.Links()) != 0 {
		t.Error("Reset should clear everything")
	}
}

func TestFromSpec(t *testing.T) {
	c := catalog.Default()
	v := connection.NewValidator(c)

	spec := types.ArchitectureSpec{
		Services: []string{"api_gateway", "lambda", "dynamodb"},
		Connections: []types.Connection{
			types.Link("api_gateway", "lambda"),
			types.Link("lambda", "dynamodb"),
		},
	}
	a, err := FromSpec(c, v, spec)
	if err != nil {
		t.Fatalf("FromSpec: %v", err)
	}
	if got := a.Snapshot().Spec(); !reflect.DeepEqual(got, spec) {
		t.Errorf("round trip = %+v, want %+v", got, spec)
	}

	tests := []struct {
		name string
		spec types.ArchitectureSpec
		want errors.Type
	}{
		{"unknown service", types.ArchitectureSpec{Services: []string{"mainframe"}}, errors.TypeUnknownService},
		{"unplaced endpoint", types.ArchitectureSpec{
			Services:    []string{"lambda"},
			Connections: []types.Connection{types.Link("lambda", "s3")},
		}, errors.TypeInput},
		{"illegal connection", types.ArchitectureSpec{
			Services:    []string{"dynamodb", "lambda"},
			Connections: []types.Connection{types.Link("dynamodb", "lambda")},
		}, errors.TypeInvalidConnection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromSpec(c, v, tt.spec); !errors.IsType(err, tt.want) {
				t.Errorf("expected %s, got %v", tt.want, err)
			}
		})
	}
}
