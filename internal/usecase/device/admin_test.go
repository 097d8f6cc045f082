package device

import (
	"context"
	"testing"
	"time"

	"lab-checkout/internal/domain/access"
	domainDevice "lab-checkout/internal/domain/device"
	appErrors "lab-checkout/pkg/errors"
)

func TestGetForEditNewTemplate(t *testing.T) {
	svc, _ := newTestService(t)

	view, err := svc.GetForEdit(context.Background(), adminViewer, domainDevice.NewDeviceKeyword)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !view.IsNew || view.Form.Status != string(domainDevice.StatusAvailable) || view.Form.AssetTag != "" {
		t.Fatalf("unexpected template %+v", view.Form)
	}
	if len(view.Users) != 4 {
		t.Fatalf("expected 4 user options, got %d", len(view.Users))
	}

	_, err = svc.GetForEdit(context.Background(), facultyViewer, domainDevice.NewDeviceKeyword)
	if denied, ok := access.IsDenied(err); !ok || denied.Required != access.TierAdmin {
		t.Fatalf("expected admin denial, got %v", err)
	}
}

func TestSaveCreatesDevice(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	form := &ComputerForm{
		AssetTag: " LAB-7 ",
		Hostname: "lab7",
		Disks:    []string{"512GB NVMe", "  ", ""},
		GPUs:     []string{"RTX 4090"},
		Status:   string(domainDevice.StatusOffline),
		Password: "secret",
		PIN:      "0000",
	}
	view, err := svc.Save(ctx, adminViewer, domainDevice.NewDeviceKeyword, form)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if view.AssetTag != "LAB-7" || view.Status != domainDevice.StatusAvailable {
		t.Fatalf("expected available LAB-7, got %+v", view)
	}

	d, err := store.Devices.GetByAssetTag(ctx, "LAB-7")
	if err != nil {
		t.Fatalf("expected device to exist, got %v", err)
	}
	if d.Status != domainDevice.StatusAvailable || len(d.Disks) != 1 || d.Disks[0] != "512GB NVMe" {
		t.Fatalf("unexpected stored device %+v", d)
	}
	if login, _ := store.Logins.Get(ctx, "LAB-7"); login == nil || login.Password != "secret" {
		t.Fatalf("expected login to be written, got %+v", login)
	}

	_, err = svc.Save(ctx, adminViewer, domainDevice.NewDeviceKeyword, form)
	if appErrors.Code(err) != appErrors.CodePrecondition {
		t.Fatalf("expected duplicate to fail, got %v", err)
	}
}

func TestSaveRejectsBadAssetTags(t *testing.T) {
	svc, _ := newTestService(t)
	for _, tag := range []string{"", "   ", domainDevice.NewDeviceKeyword} {
		form := &ComputerForm{AssetTag: tag, Status: string(domainDevice.StatusAvailable)}
		_, err := svc.Save(context.Background(), adminViewer, domainDevice.NewDeviceKeyword, form)
		if appErrors.Code(err) != appErrors.CodeValidation {
			t.Fatalf("tag %q: expected validation error, got %v", tag, err)
		}
	}
}

func TestSaveEditsDevice(t *testing.T) {
	svc, store := newTestService(t)
	seedDevice(t, store, "LAB-1", domainDevice.StatusAvailable)
	ctx := context.Background()

	begin, end := fixedNow.Add(-time.Hour), fixedNow.Add(24*time.Hour)
	form := &ComputerForm{
		AssetTag:         "IGNORED",
		Hostname:         "renamed",
		Status:           string(domainDevice.StatusInUse),
		ReservationBegin: &begin,
		ReservationEnd:   &end,
		ReservationUser:  strPtr("stu-2"),
		Password:         "new-pw",
	}
	view, err := svc.Save(ctx, adminViewer, "LAB-1", form)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if view.AssetTag != "LAB-1" || view.Status != domainDevice.StatusInUse {
		t.Fatalf("unexpected view %+v", view)
	}

	d, _ := store.Devices.GetByAssetTag(ctx, "LAB-1")
	if d.Hostname != "renamed" || *d.ReservationName != "Student Two" || *d.ReservationUser != "stu-2" {
		t.Fatalf("unexpected stored device %+v", d)
	}
	if login, _ := store.Logins.Get(ctx, "LAB-1"); login.Password != "new-pw" || login.PIN != "" {
		t.Fatalf("expected login overwrite, got %+v", login)
	}

	// Clearing the user clears the whole reservation.
	form = &ComputerForm{Status: string(domainDevice.StatusOffline)}
	if _, err := svc.Save(ctx, adminViewer, "LAB-1", form); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	d, _ = store.Devices.GetByAssetTag(ctx, "LAB-1")
	if d.Status != domainDevice.StatusOffline || d.ReservationUser != nil || d.ReservationEnd != nil {
		t.Fatalf("expected cleared offline device, got %+v", d)
	}
}

func TestSaveValidation(t *testing.T) {
	svc, store := newTestService(t)
	seedDevice(t, store, "LAB-1", domainDevice.StatusAvailable)
	ctx := context.Background()

	begin := fixedNow
	tests := []struct {
		name string
		form *ComputerForm
	}{
		{"pending is not storable", &ComputerForm{Status: string(domainDevice.StatusPending)}},
		{"in use without user", &ComputerForm{Status: string(domainDevice.StatusInUse)}},
		{"user without dates", &ComputerForm{Status: string(domainDevice.StatusInUse), ReservationUser: strPtr("stu-1")}},
		{"unknown user", &ComputerForm{
			Status: string(domainDevice.StatusInUse), ReservationUser: strPtr("nobody"),
			ReservationBegin: &begin, ReservationEnd: &begin,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Save(ctx, adminViewer, "LAB-1", tt.form)
			if appErrors.Code(err) != appErrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
