package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestStackTraceSkipsInternalFrames(t *testing.T) {
	err := Wrap(ErrNotFound, "proposal")

	compact := fmt.Sprintf("%v", err)
	if !strings.HasPrefix(compact, "proposal: not found [") {
		t.Fatalf("unexpected compact format: %q", compact)
	}
	if !strings.Contains(compact, "stacktrace_test.go:") {
		t.Fatalf("compact format does not point at the caller: %q", compact)
	}

	full := strings.TrimSpace(fmt.Sprintf("%+v", err))
	const caller = "github.com/iov-one/custody/errors.TestStackTraceSkipsInternalFrames"
	if !strings.HasPrefix(full, caller) {
		t.Fatalf("stack trace does not start with the caller: %q", full)
	}
	if strings.Contains(full, "custody/errors.Wrap\n") {
		t.Fatalf("stack trace contains the wrapping frame: %q", full)
	}
}
