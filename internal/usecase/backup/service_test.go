package backup

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"lab-checkout/internal/domain/access"
	"lab-checkout/internal/domain/device"
	"lab-checkout/internal/domain/user"
	"lab-checkout/internal/infrastructure/database/memory"
)

var adminViewer = &user.Viewer{ID: "admin-1", Name: "Admin", Role: user.RoleAdmin}

func newTestService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	_ = store.Users.Create(ctx, &user.User{ID: "u-1", Name: "Ada", Email: "ada@lab.edu", PasswordHashed: "$2a$hash", Role: user.RoleStudent})
	_ = store.Devices.Create(ctx, &device.Device{AssetTag: "LAB-1", Hostname: "lab1", Status: device.StatusAvailable})
	_ = store.Devices.Create(ctx, &device.Device{AssetTag: "LAB-2", Hostname: "lab2", Status: device.StatusAvailable})
	begin := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	_ = store.Devices.SetReservation(ctx, "LAB-2", device.Reservation{Begin: begin, End: begin.Add(time.Hour), UserID: "u-1", UserName: "Ada"})
	_ = store.Logins.Upsert(ctx, &device.Login{AssetTag: "LAB-1", Password: "pw", PIN: "42"})
	_ = store.History.Append(ctx, &device.History{AssetTag: "LAB-1", UserID: "u-1", ReservationBegin: begin, ReservationEnd: begin.Add(time.Hour)})

	return NewService(store.Devices, store.Logins, store.History, store.Users)
}

func TestExportRequiresAdmin(t *testing.T) {
	svc := newTestService(t)
	faculty := &user.Viewer{ID: "f", Role: user.RoleFaculty}

	_, err := svc.Export(context.Background(), faculty, CollectionUsers)
	if denied, ok := access.IsDenied(err); !ok || denied.Required != access.TierAdmin {
		t.Fatalf("expected admin denial, got %v", err)
	}
	if _, err := svc.Collections(context.Background(), nil); !errors.Is(err, access.ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestExportComputers(t *testing.T) {
	svc := newTestService(t)

	data, err := svc.Export(context.Background(), adminViewer, CollectionComputers)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(string(data), "\n    \"LAB-1\": {") {
		t.Fatalf("expected four-space indented document keyed by asset tag, got %s", data)
	}

	var doc map[string]map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("expected valid JSON, got %v", err)
	}
	if len(doc) != 2 {
		t.Fatalf("expected 2 computers, got %d", len(doc))
	}
	if doc["LAB-2"]["reservation_status"] != "in_use" || doc["LAB-2"]["reservation_name"] != "Ada" {
		t.Fatalf("unexpected LAB-2 record %v", doc["LAB-2"])
	}
	if doc["LAB-1"]["reservation_user"] != nil {
		t.Fatalf("expected null reservation user on LAB-1, got %v", doc["LAB-1"]["reservation_user"])
	}
}

func TestExportUsersOmitsPasswordHash(t *testing.T) {
	svc := newTestService(t)

	data, err := svc.Export(context.Background(), adminViewer, CollectionUsers)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if strings.Contains(string(data), "$2a$hash") || strings.Contains(string(data), "password") {
		t.Fatalf("expected no password material, got %s", data)
	}

	var doc map[string]map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("expected valid JSON, got %v", err)
	}
	if doc["u-1"]["role"] != "student" || doc["u-1"]["email"] != "ada@lab.edu" {
		t.Fatalf("unexpected user record %v", doc["u-1"])
	}
}

func TestDumpEveryCollection(t *testing.T) {
	svc := newTestService(t)
	for _, name := range Names() {
		data, err := svc.Dump(context.Background(), name)
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", name, err)
		}
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(data, &doc); err != nil || len(doc) == 0 {
			t.Fatalf("%s: expected non-empty document, got %s (%v)", name, data, err)
		}
	}

	if _, err := svc.Dump(context.Background(), "secrets"); !errors.Is(err, ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
}

func TestExportHistoryNamesOccupantUser(t *testing.T) {
	svc := newTestService(t)

	data, err := svc.Dump(context.Background(), CollectionReservationHistory)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	var doc map[string]map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("expected valid JSON, got %v", err)
	}
	if len(doc) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(doc))
	}
	for id, rec := range doc {
		if rec["user"] != "u-1" || rec["asset_tag"] != "LAB-1" {
			t.Fatalf("unexpected history record %s: %v", id, rec)
		}
		if _, ok := rec["reservation_user"]; ok {
			t.Fatalf("expected no reservation_user key, got %v", rec)
		}
	}
}

func TestCollections(t *testing.T) {
	svc := newTestService(t)
	got, err := svc.Collections(context.Background(), adminViewer)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 4 || got[2].Filename != "reservation_history.json" {
		t.Fatalf("unexpected collections %+v", got)
	}
}
