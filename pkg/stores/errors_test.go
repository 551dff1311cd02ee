package stores

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStoreErrorClassification(t *testing.T) {
	err := newStoreError(ErrCodeMigration, "apply migrations", errors.New("boom"))

	if !IsMigration(err) {
		t.Error("expected migration classification")
	}
	if IsNotFound(err) || IsConstraint(err) || IsDecode(err) || IsStoreInit(err) {
		t.Error("unexpected cross-classification")
	}
	if !strings.Contains(err.Error(), "MIGRATION_ERROR") {
		t.Errorf("expected code in message, got %s", err.Error())
	}
}

func TestStoreErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("outer: %w", newStoreError(ErrCodeStoreInit, "open database", cause))

	if !IsStoreInit(err) {
		t.Error("expected classification through wrapping")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause reachable through the chain")
	}
}

func TestNotFoundError(t *testing.T) {
	err := notFoundError("delete plan", int64(7))
	if !IsNotFound(err) {
		t.Error("expected not-found classification")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("plain errors must not classify as not-found")
	}
}
