package settlement

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "settlements_year_month_dealer_code_key"}
	if !isUniqueViolation(unique) {
		t.Fatal("expected 23505 to map to a unique violation")
	}
	if !isUniqueViolation(fmt.Errorf("upsert settlement: %w", unique)) {
		t.Fatal("expected wrapped 23505 to map to a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation must not map to a unique violation")
	}
	if isUniqueViolation(fmt.Errorf("plain error")) {
		t.Fatal("non-pg error must not map to a unique violation")
	}
}
