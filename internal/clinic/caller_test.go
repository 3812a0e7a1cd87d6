package clinic

import (
	"testing"

	"dental_clinic_backend/platform/apperr"
)

func TestRequireDistinguishesUnauthorizedFromForbidden(t *testing.T) {
	var zero Caller
	if err := zero.Require(RoleDentist); apperr.GetKind(err) != apperr.KindUnauthorized {
		t.Errorf("zero caller: kind = %v, want unauthorized", apperr.GetKind(err))
	}

	patient := Caller{Role: RolePatient, ActorID: 3}
	if err := patient.Require(RoleDentist); apperr.GetKind(err) != apperr.KindForbidden {
		t.Errorf("wrong role: kind = %v, want forbidden", apperr.GetKind(err))
	}

	dentist := Caller{Role: RoleDentist, ActorID: 7}
	if err := dentist.Require(RoleDentist); err != nil {
		t.Errorf("matching role: err = %v, want nil", err)
	}
}
