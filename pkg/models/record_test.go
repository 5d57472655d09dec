package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRecordSet_OverwritesDuplicateKey(t *testing.T) {
	rec := Record{Caption: "Motor"}
	rec.Set("Combustible", Text("Gasolina"))
	rec.Set("Potencia máxima", Text("150 CV"))
	rec.Set("Combustible", Text("Gasóleo"))

	if len(rec.Fields) != 2 {
		t.Fatalf("expected 2 fields after overwrite, got %d", len(rec.Fields))
	}
	if rec.Fields[0].Key != "Combustible" {
		t.Errorf("overwrite moved the field, first key is %q", rec.Fields[0].Key)
	}
	v, ok := rec.Get("Combustible")
	if !ok || v != Text("Gasóleo") {
		t.Errorf("expected overwritten value Gasóleo, got %v", v)
	}
}

func TestSectionSet_PreservesOrder(t *testing.T) {
	sec := Section{}
	sec = sec.Set("Tipo", "Piñón y cremallera")
	sec = sec.Set("Asistencia en función de la velocidad", "Sí")
	sec = sec.Set("Tipo", "Bolas")

	if len(sec) != 2 {
		t.Fatalf("expected 2 sub-entries, got %d", len(sec))
	}
	if sec[0].Key != "Tipo" || sec[0].Value != "Bolas" {
		t.Errorf("unexpected first entry: %+v", sec[0])
	}
}

func TestRecordJSON_RoundTrip(t *testing.T) {
	rec := Record{Caption: "Dirección"}
	rec.Set("Potencia máxima", Text("170 CV / 125 kW"))
	rec.Set("Dirección", Section{
		{Key: "Tipo", Value: "Piñón y cremallera"},
		{Key: "Asistencia en función de la velocidad", Value: "Sí"},
	})
	rec.Set("Paquete Sport", Package{Price: "1.200 €", Addons: []string{"Llantas 19\"", "Suspensión deportiva"}})
	rec.Set("Faros LED", Package{Price: "350 €"})

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var got Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if got.Caption != rec.Caption {
		t.Errorf("caption mismatch: %q != %q", got.Caption, rec.Caption)
	}
	if len(got.Fields) != len(rec.Fields) {
		t.Fatalf("field count mismatch: %d != %d", len(got.Fields), len(rec.Fields))
	}
	for i := range rec.Fields {
		if got.Fields[i].Key != rec.Fields[i].Key {
			t.Errorf("field %d key order lost: %q != %q", i, got.Fields[i].Key, rec.Fields[i].Key)
		}
	}

	v, ok := got.Get("Paquete Sport")
	if !ok {
		t.Fatal("package field missing after round trip")
	}
	pkg, ok := v.(Package)
	if !ok {
		t.Fatalf("expected Package, got %T", v)
	}
	if pkg.Price != "1.200 €" || !reflect.DeepEqual(pkg.Addons, []string{"Llantas 19\"", "Suspensión deportiva"}) {
		t.Errorf("package contents mismatch: %+v", pkg)
	}

	// A package with no addons must decode to an empty, non-nil list.
	v, _ = got.Get("Faros LED")
	if pkg := v.(Package); pkg.Addons == nil || len(pkg.Addons) != 0 {
		t.Errorf("expected empty addon list, got %#v", pkg.Addons)
	}

	v, _ = got.Get("Dirección")
	sec, ok := v.(Section)
	if !ok {
		t.Fatalf("expected Section, got %T", v)
	}
	if sub, _ := sec.Get("Asistencia en función de la velocidad"); sub != "Sí" {
		t.Errorf("section sub-value mismatch: %q", sub)
	}
}

func TestMakeAddModel_DeduplicatesByName(t *testing.T) {
	mk := &Make{ID: 1, Name: "SEAT"}
	if !mk.AddModel(&Model{Name: "León"}) {
		t.Error("first insert rejected")
	}
	if mk.AddModel(&Model{Name: "León"}) {
		t.Error("duplicate name accepted")
	}
	// Case-sensitive exact match: a different casing is a different child.
	if !mk.AddModel(&Model{Name: "LEÓN"}) {
		t.Error("different casing rejected")
	}
	if len(mk.Models) != 2 {
		t.Errorf("expected 2 models, got %d", len(mk.Models))
	}
}
