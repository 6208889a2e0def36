package reference

import (
	"errors"
	"testing"
)

func TestDirectoryLookups(t *testing.T) {
	d := NewDirectory(Data{
		Regionals: []Regional{{ID: "1", Name: "Regional Norte"}},
		Companies: []Company{{ID: "c1", Name: "Limpa Tudo"}},
		Teams:     []Team{{ID: "t1", Name: "Equipe A", CompanyID: "c1"}},
	})

	if r, err := d.Regional("1"); err != nil || r.Name != "Regional Norte" {
		t.Fatalf("unexpected regional %+v %v", r, err)
	}
	if _, err := d.Regional("9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := d.Company("c2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if team, err := d.Team("t1"); err != nil || team.CompanyID != "c1" {
		t.Fatalf("unexpected team %+v %v", team, err)
	}

	names := d.RegionalNames()
	names["1"] = "alterado"
	if r, _ := d.Regional("1"); r.Name != "Regional Norte" {
		t.Fatalf("RegionalNames must return a copy")
	}
}

func TestDirectoryReplace(t *testing.T) {
	d := NewDirectory(Data{Regionals: []Regional{{ID: "1", Name: "Norte"}}})
	d.Replace(Data{Regionals: []Regional{{ID: "2", Name: "Sul"}}})

	if _, err := d.Regional("1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old data should be gone")
	}
	if len(d.RegionalNames()) != 1 {
		t.Fatalf("unexpected names %v", d.RegionalNames())
	}
}
