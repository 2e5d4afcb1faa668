package recordmodel

import (
	"errors"
	"os"
	"testing"
)

type probe struct{ *Record }

func newProbe(rt *RecordType) *probe { return &probe{NewRecord(rt)} }

// Oid satisfies Identifiable[int32] structurally; the DefineRecord-level
// check this file exercises is about the RecordType lacking a field
// actually named "oid", not about this Go method existing.
func (p *probe) Oid() int32 { return Get[int32](p.Record, 1) }

func TestDefineRecordDuplicateIndex(t *testing.T) {
	_, err := DefineRecord("Dup", nil, []FieldMeta{
		Field(1, "a", TypeInt32).Build(),
		Field(1, "b", TypeInt32).Build(),
	}, func() Trackable { return nil })
	var dup *DuplicateIndexError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want *DuplicateIndexError", err)
	}
}

func TestDefineRecordDuplicateName(t *testing.T) {
	_, err := DefineRecord("Dup", nil, []FieldMeta{
		Field(1, "a", TypeInt32).Build(),
		Field(2, "a", TypeInt32).Build(),
	}, func() Trackable { return nil })
	var dup *DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want *DuplicateNameError", err)
	}
}

func TestDefineRecordStructFieldNeedsNewChild(t *testing.T) {
	child, _ := DefineRecord("Child", nil, []FieldMeta{Field(1, "v", TypeInt32).Build()}, func() Trackable { return nil })
	_, err := DefineRecord("Parent", nil, []FieldMeta{
		{Index: 1, Name: "c", Type: TypeStruct, Cardinality: CardinalityScalar, ChildType: child},
	}, func() Trackable { return nil })
	var defErr *DefineError
	if !errors.As(err, &defErr) {
		t.Fatalf("err = %v, want *DefineError", err)
	}
}

func TestDefineRecordIDMapRequiresOidField(t *testing.T) {
	noOid, _ := DefineRecord("NoOid", nil, []FieldMeta{Field(1, "v", TypeInt32).Build()}, func() Trackable { return nil })
	_, err := DefineRecord("Holder", nil, []FieldMeta{
		IDMapField(1, "m", TypeInt32, noOid, func() any { return newProbe(noOid) }, func() any { return NewIdMap[int32, *probe]() }),
	}, func() Trackable { return nil })
	var defErr *DefineError
	if !errors.As(err, &defErr) {
		t.Fatalf("err = %v, want *DefineError", err)
	}
}

func TestSchemaRegistryBackendOff(t *testing.T) {
	r := NewSchemaRegistry()
	r.Backend = BackendOff
	_, err := r.Define("Missing", func() (*RecordType, error) {
		return DefineRecord("Missing", nil, nil, func() Trackable { return nil })
	})
	if !errors.Is(err, ErrUnknownRecordType) {
		t.Fatalf("err = %v, want ErrUnknownRecordType", err)
	}

	rt, buildErr := DefineRecord("Missing", nil, nil, func() Trackable { return nil })
	if buildErr != nil {
		t.Fatal(buildErr)
	}
	r.Register(rt)
	got, err := r.Define("Missing", func() (*RecordType, error) { return nil, errors.New("should not be called") })
	if err != nil || got != rt {
		t.Fatalf("Define after Register = %v, %v", got, err)
	}
}

func TestSchemaRegistryBackendAutoLazyBuilds(t *testing.T) {
	r := NewSchemaRegistry()
	built := 0
	rt, err := r.Define("Lazy", func() (*RecordType, error) {
		built++
		return DefineRecord("Lazy", nil, nil, func() Trackable { return nil })
	})
	if err != nil || rt == nil {
		t.Fatalf("Define() = %v, %v", rt, err)
	}
	if _, err := r.Define("Lazy", func() (*RecordType, error) {
		built++
		return nil, errors.New("should not rebuild")
	}); err != nil {
		t.Fatal(err)
	}
	if built != 1 {
		t.Fatalf("builder invoked %d times, want 1", built)
	}
}

func TestChangeSetWildcardDroppedOnClear(t *testing.T) {
	cs := NewChangeSet()
	cs.MarkAll()
	if !cs.Has(42) {
		t.Fatal("Has(42) = false with wildcard set, want true")
	}
	cs.Clear(42)
	if cs.Has(43) {
		t.Fatal("Has(43) = true after Clear dropped the wildcard, want false")
	}
}

func TestParseBackend(t *testing.T) {
	for _, ok := range []string{"on", "Auto", " OFF "} {
		if _, err := ParseBackend(ok); err != nil {
			t.Errorf("ParseBackend(%q) = %v, want nil error", ok, err)
		}
	}
	if _, err := ParseBackend("bogus"); err == nil {
		t.Fatal("ParseBackend(\"bogus\") succeeded, want error")
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.toml"
	if err := os.WriteFile(path, []byte("backend = \"off\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(envConfig, path)
	t.Setenv(envBackend, "on")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != BackendOn {
		t.Fatalf("Backend = %q, want %q (env should override file)", cfg.Backend, BackendOn)
	}
}

func TestLoadConfigFileOnly(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.toml"
	if err := os.WriteFile(path, []byte("backend = \"off\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(envConfig, path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != BackendOff {
		t.Fatalf("Backend = %q, want %q", cfg.Backend, BackendOff)
	}
}

func TestLoadConfigDefaultsToAuto(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != BackendAuto {
		t.Fatalf("Backend = %q, want %q", cfg.Backend, BackendAuto)
	}
}
