package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rashikacodes/pulstrix/internal/app/system/apperr"
)

func TestConstructorsMatchSentinels(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{apperr.InvalidArgument("bad input %d", 7), apperr.ErrInvalidArgument},
		{apperr.NotFound("missing"), apperr.ErrNotFound},
		{apperr.Conflict("already done"), apperr.ErrConflict},
		{apperr.CollaboratorUnavailable("down"), apperr.ErrCollaboratorUnavailable},
		{apperr.Internal(errors.New("boom")), apperr.ErrInternal},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.sentinel) {
			t.Errorf("errors.Is(%v, %v) = false; want true", tc.err, tc.sentinel)
		}
	}
}

func TestKindsAreDistinct(t *testing.T) {
	if errors.Is(apperr.NotFound("x"), apperr.ErrConflict) {
		t.Error("NotFound should not match ErrConflict")
	}
	if errors.Is(apperr.Conflict("x"), apperr.ErrNotFound) {
		t.Error("Conflict should not match ErrNotFound")
	}
}

func TestInternalWrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := apperr.Internal(cause)
	if !errors.Is(err, cause) {
		t.Error("Internal should preserve the cause chain")
	}
}

func TestMessageFormatting(t *testing.T) {
	err := apperr.InvalidArgument("invalid status %q", "bogus")
	want := `invalid status "bogus"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q; want %q", got, want)
	}
}

func TestWrappedThroughFmt(t *testing.T) {
	inner := apperr.NotFound("report not found")
	outer := fmt.Errorf("loading: %w", inner)
	if !errors.Is(outer, apperr.ErrNotFound) {
		t.Error("wrapping through fmt.Errorf should preserve the kind")
	}
}
