package errors

import (
	"testing"
)

func TestFieldErrors(t *testing.T) {
	err := Append(
		Field("Owners", ErrInvalidOwnersLen, "too many"),
		Field("Threshold", ErrInvalidThreshold, "zero"),
		Field("Owners", ErrDuplicateOwner, "repeated"),
	)

	if errs := FieldErrors(err, "Owners"); len(errs) != 2 {
		t.Fatalf("want 2 owners errors, got %d", len(errs))
	}
	if errs := FieldErrors(err, "Threshold"); len(errs) != 1 || !ErrInvalidThreshold.Is(errs[0]) {
		t.Fatalf("unexpected threshold errors: %v", errs)
	}
	if errs := FieldErrors(err, "Target"); len(errs) != 0 {
		t.Fatalf("unexpected target errors: %v", errs)
	}
	if errs := FieldErrors(nil, "Owners"); errs != nil {
		t.Fatalf("nil error must not have field errors: %v", errs)
	}
}

func TestFieldNil(t *testing.T) {
	if err := Field("Owners", nil, "unused"); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
	if err := AppendField(nil, "Owners", nil); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
}

func TestAppendFlattens(t *testing.T) {
	inner := Append(ErrNotFound, ErrMsg)
	outer := Append(inner, ErrModel)
	m, ok := outer.(multiErr)
	if !ok {
		t.Fatalf("want a multi error, got %T", outer)
	}
	if len(m) != 3 {
		t.Fatalf("want 3 errors, got %d", len(m))
	}
	if err := Append(nil, ErrMsg, nil); err != ErrMsg {
		t.Fatalf("single error must be returned as it is, got %v", err)
	}
}
