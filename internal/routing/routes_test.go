package routing

import (
	"errors"
	"testing"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

func TestResolve(t *testing.T) {
	tb, err := NewTable(map[string]string{
		"fleeting":   "notes/fleeting",
		"literature": "notes/literature",
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	dir, err := tb.Resolve(models.TypeFleeting)
	if err != nil || dir != "notes/fleeting" {
		t.Errorf("Resolve = %q, %v", dir, err)
	}

	_, err = tb.Resolve(models.TypePermanent)
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("unmapped type: err = %v, want ErrConfiguration", err)
	}
}

func TestNewTable_RejectsUnknownType(t *testing.T) {
	_, err := NewTable(map[string]string{"journal": "notes/journal"})
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestNewTable_RejectsEmptyDestination(t *testing.T) {
	_, err := NewTable(map[string]string{"fleeting": ""})
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}
