package service_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/avolkov/profilekeeper/internal/models"
	"github.com/avolkov/profilekeeper/internal/service"
)

// fakeReader returns canned components and records which were asked for.
type fakeReader struct {
	asked []string

	settings models.Settings
	loadouts []models.Loadout
	tags     []models.ItemAnnotation
	triumphs []int64
	searches []models.Search

	err error
}

func (f *fakeReader) GetSettings(_ context.Context, _ *sql.Tx, _ models.ProfileKey) (models.Settings, error) {
	f.asked = append(f.asked, service.ComponentSettings)
	return f.settings, f.err
}

func (f *fakeReader) GetLoadouts(_ context.Context, _ *sql.Tx, _ models.ProfileKey) ([]models.Loadout, error) {
	f.asked = append(f.asked, service.ComponentLoadouts)
	return f.loadouts, f.err
}

func (f *fakeReader) GetAnnotations(_ context.Context, _ *sql.Tx, _ models.ProfileKey) ([]models.ItemAnnotation, error) {
	f.asked = append(f.asked, service.ComponentTags)
	return f.tags, f.err
}

func (f *fakeReader) GetTriumphs(_ context.Context, _ *sql.Tx, _ models.ProfileKey) ([]int64, error) {
	f.asked = append(f.asked, service.ComponentTriumphs)
	return f.triumphs, f.err
}

func (f *fakeReader) GetSearches(_ context.Context, _ *sql.Tx, _ models.ProfileKey) ([]models.Search, error) {
	f.asked = append(f.asked, service.ComponentSearches)
	return f.searches, f.err
}

func TestGetProfile_EmptyComponentListMeansAll(t *testing.T) {
	reader := &fakeReader{
		settings: models.Settings{"theme": json.RawMessage(`"dark"`)},
		triumphs: []int64{3441344001},
	}
	svc := service.NewProfileService(&fakeGateway{}, reader)

	resp, err := svc.GetProfile(context.Background(), testKey, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reader.asked) != 5 {
		t.Errorf("asked for %d components; want all 5 (%v)", len(reader.asked), reader.asked)
	}
	if string(resp.Settings["theme"]) != `"dark"` {
		t.Errorf("Settings[theme] = %s; want \"dark\"", resp.Settings["theme"])
	}
	if len(resp.Triumphs) != 1 || resp.Triumphs[0] != 3441344001 {
		t.Errorf("Triumphs = %v; want [3441344001]", resp.Triumphs)
	}
}

func TestGetProfile_LoadsOnlyRequestedComponents(t *testing.T) {
	reader := &fakeReader{}
	svc := service.NewProfileService(&fakeGateway{}, reader)

	_, err := svc.GetProfile(context.Background(), testKey, []string{service.ComponentLoadouts, service.ComponentSearches})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reader.asked) != 2 {
		t.Fatalf("asked = %v; want exactly the requested components", reader.asked)
	}
	if reader.asked[0] != service.ComponentLoadouts || reader.asked[1] != service.ComponentSearches {
		t.Errorf("asked = %v; want [loadouts searches]", reader.asked)
	}
}

func TestGetProfile_UnknownComponentIsValidationError(t *testing.T) {
	svc := service.NewProfileService(&fakeGateway{}, &fakeReader{})

	_, err := svc.GetProfile(context.Background(), testKey, []string{"wishlist"})
	if err == nil {
		t.Fatal("expected error for unknown component")
	}
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("error = %v; want wrapped ErrValidation", err)
	}
}

func TestGetProfile_ReaderErrorPropagates(t *testing.T) {
	reader := &fakeReader{err: errors.New("connection reset")}
	svc := service.NewProfileService(&fakeGateway{}, reader)

	_, err := svc.GetProfile(context.Background(), testKey, []string{service.ComponentSettings})
	if err == nil {
		t.Fatal("expected reader error to propagate")
	}
}
