package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/avolkov/profilekeeper/internal/models"
	handler "github.com/avolkov/profilekeeper/internal/server/handler/http"
)

// fakeUpdateService records calls and returns preconfigured results.
type fakeUpdateService struct {
	called          bool
	receivedKey     models.ProfileKey
	receivedUpdates []models.ProfileUpdate

	results []models.UpdateResult
	err     error
}

func (f *fakeUpdateService) ApplyBatch(
	ctx context.Context,
	key models.ProfileKey,
	updates []models.ProfileUpdate,
) ([]models.UpdateResult, error) {
	f.called = true
	f.receivedKey = key
	f.receivedUpdates = updates
	return f.results, f.err
}

func TestUpdateHandler_BadJSON(t *testing.T) {
	h := &handler.UpdateHandler{UpdateService: &fakeUpdateService{}}
	req := httptest.NewRequest(http.MethodPost, "/api/profile", bytes.NewBufferString("not-a-json"))
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want %d", w.Code, http.StatusBadRequest)
	}
	if body := w.Body.String(); body != "invalid body\n" {
		t.Errorf("body = %q; want %q", body, "invalid body\n")
	}
}

func TestUpdateHandler_MissingMembershipID(t *testing.T) {
	fake := &fakeUpdateService{}
	h := &handler.UpdateHandler{UpdateService: fake}

	b, _ := json.Marshal(models.UpdateRequest{Updates: []models.ProfileUpdate{}})
	req := httptest.NewRequest(http.MethodPost, "/api/profile", bytes.NewReader(b))
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want %d", w.Code, http.StatusBadRequest)
	}
	if fake.called {
		t.Error("service must not be called without a membership id")
	}
}

func TestUpdateHandler_UnknownDestinyVersion(t *testing.T) {
	h := &handler.UpdateHandler{UpdateService: &fakeUpdateService{}}

	b, _ := json.Marshal(models.UpdateRequest{
		PlatformMembershipID: "4611686018467260709",
		DestinyVersion:       3,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/profile", bytes.NewReader(b))
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want %d", w.Code, http.StatusBadRequest)
	}
}

func TestUpdateHandler_ServiceError(t *testing.T) {
	fake := &fakeUpdateService{err: errors.New("sql: database is closed")}
	h := &handler.UpdateHandler{UpdateService: fake}

	b, _ := json.Marshal(models.UpdateRequest{
		PlatformMembershipID: "4611686018467260709",
		Updates:              []models.ProfileUpdate{},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/profile", bytes.NewReader(b))
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d; want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestUpdateHandler_Success(t *testing.T) {
	wantUpdates := []models.ProfileUpdate{
		{Action: models.ActionSetting, Payload: json.RawMessage(`{"theme":"dark"}`)},
		{Action: models.ActionTag, Payload: json.RawMessage(`{}`)},
	}
	wantResults := []models.UpdateResult{
		{Status: models.StatusSuccess},
		{Status: models.StatusValidationError, Message: "tag update requires an item instance id"},
	}
	fake := &fakeUpdateService{results: wantResults}
	h := &handler.UpdateHandler{UpdateService: fake}

	b, _ := json.Marshal(models.UpdateRequest{
		PlatformMembershipID: "4611686018467260709",
		DestinyVersion:       models.Destiny2,
		Updates:              wantUpdates,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/profile", bytes.NewReader(b))
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q; want %q", ct, "application/json")
	}

	var resp models.UpdateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if !reflect.DeepEqual(resp.Results, wantResults) {
		t.Errorf("results = %+v; want %+v", resp.Results, wantResults)
	}

	if !fake.called {
		t.Error("expected UpdateService.ApplyBatch to be called")
	}
	if !reflect.DeepEqual(fake.receivedUpdates, wantUpdates) {
		t.Errorf("receivedUpdates = %+v; want %+v", fake.receivedUpdates, wantUpdates)
	}
	if fake.receivedKey.PlatformMembershipID != "4611686018467260709" {
		t.Errorf("receivedKey.PlatformMembershipID = %q", fake.receivedKey.PlatformMembershipID)
	}
}

func TestUpdateHandler_DestinyVersionDefaultsTo2(t *testing.T) {
	fake := &fakeUpdateService{results: []models.UpdateResult{}}
	h := &handler.UpdateHandler{UpdateService: fake}

	b, _ := json.Marshal(models.UpdateRequest{
		PlatformMembershipID: "4611686018467260709",
		Updates:              []models.ProfileUpdate{},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/profile", bytes.NewReader(b))
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusOK)
	}
	if fake.receivedKey.DestinyVersion != models.Destiny2 {
		t.Errorf("receivedKey.DestinyVersion = %d; want %d", fake.receivedKey.DestinyVersion, models.Destiny2)
	}
}
