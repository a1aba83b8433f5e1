package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gastos/internal/core"

	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "gastos.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testExpense(userID, messageID int64, category string) core.Expense {
	return core.Expense{
		MessageID: messageID,
		ChatID:    42,
		UserID:    userID,
		Date:      time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
		Value:     decimal.RequireFromString("12.34"),
		Category:  category,
		Currency:  "ARS",
		Text:      "comida",
	}
}

func TestRegisterUserSeedsCatalog(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seed := []string{"SUPERMERCADO", "TAXI", "OTROS"}

	registered, err := repo.IsRegistered(ctx, 1)
	if err != nil {
		t.Fatalf("IsRegistered: %v", err)
	}
	if registered {
		t.Fatal("user should not be registered yet")
	}

	if err := repo.RegisterUser(ctx, 1, seed); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	registered, err = repo.IsRegistered(ctx, 1)
	if err != nil {
		t.Fatalf("IsRegistered: %v", err)
	}
	if !registered {
		t.Fatal("user should be registered")
	}

	got, err := repo.GetUserCategories(ctx, 1)
	if err != nil {
		t.Fatalf("GetUserCategories: %v", err)
	}
	want := []string{"OTROS", "SUPERMERCADO", "TAXI"} // sorted
	if len(got) != len(want) {
		t.Fatalf("categories = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("categories = %v, want %v", got, want)
		}
	}

	if err := repo.RegisterUser(ctx, 1, seed); !errors.Is(err, core.ErrUserExists) {
		t.Fatalf("second registration error = %v, want ErrUserExists", err)
	}
}

func TestGlobalCategoryNotRetroactive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.RegisterUser(ctx, 1, []string{"OTROS"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	created, err := repo.AddGlobalCategory(ctx, "MASCOTAS")
	if err != nil {
		t.Fatalf("AddGlobalCategory: %v", err)
	}
	if !created {
		t.Fatal("expected new category to report created")
	}

	// Idempotent insert-if-absent.
	created, err = repo.AddGlobalCategory(ctx, "MASCOTAS")
	if err != nil {
		t.Fatalf("AddGlobalCategory: %v", err)
	}
	if created {
		t.Fatal("second insert must not report created")
	}

	cats, err := repo.GetUserCategories(ctx, 1)
	if err != nil {
		t.Fatalf("GetUserCategories: %v", err)
	}
	for _, c := range cats {
		if c == "MASCOTAS" {
			t.Fatal("global addition must not retroactively link existing users")
		}
	}

	// Later users registered with a seed containing it do get the link.
	if err := repo.RegisterUser(ctx, 2, []string{"OTROS", "MASCOTAS"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	cats, err = repo.GetUserCategories(ctx, 2)
	if err != nil {
		t.Fatalf("GetUserCategories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("categories = %v, want 2 entries", cats)
	}
}

func TestLinkUnlinkUserCategory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.RegisterUser(ctx, 1, []string{"OTROS"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	// Linking an unknown global category fails.
	ok, err := repo.LinkUserCategory(ctx, 1, "NO EXISTE")
	if err != nil {
		t.Fatalf("LinkUserCategory: %v", err)
	}
	if ok {
		t.Fatal("linking a non-existent category must return false")
	}

	if _, err := repo.AddGlobalCategory(ctx, "TAXI"); err != nil {
		t.Fatalf("AddGlobalCategory: %v", err)
	}
	ok, err = repo.LinkUserCategory(ctx, 1, "TAXI")
	if err != nil {
		t.Fatalf("LinkUserCategory: %v", err)
	}
	if !ok {
		t.Fatal("expected link to succeed")
	}

	// Re-linking is idempotent.
	ok, err = repo.LinkUserCategory(ctx, 1, "TAXI")
	if err != nil || !ok {
		t.Fatalf("re-link = (%v, %v), want (true, nil)", ok, err)
	}

	removed, err := repo.UnlinkUserCategory(ctx, 1, "TAXI")
	if err != nil {
		t.Fatalf("UnlinkUserCategory: %v", err)
	}
	if !removed {
		t.Fatal("expected unlink to report removal")
	}
	removed, err = repo.UnlinkUserCategory(ctx, 1, "TAXI")
	if err != nil {
		t.Fatalf("UnlinkUserCategory: %v", err)
	}
	if removed {
		t.Fatal("second unlink must report nothing removed")
	}
}

func TestAddExpenseValidation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.RegisterUser(ctx, 1, []string{"SUPERMERCADO"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	// Unknown category: nothing written.
	_, err := repo.AddExpense(ctx, testExpense(1, 100, "NO EXISTE"))
	if !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("error = %v, want ErrUnknownCategory", err)
	}

	// Known globally but not linked to this user.
	if _, err := repo.AddGlobalCategory(ctx, "TAXI"); err != nil {
		t.Fatalf("AddGlobalCategory: %v", err)
	}
	_, err = repo.AddExpense(ctx, testExpense(1, 100, "TAXI"))
	if !errors.Is(err, core.ErrCategoryNotLinked) {
		t.Fatalf("error = %v, want ErrCategoryNotLinked", err)
	}

	rows, err := repo.ListExpenses(ctx, 1)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("failed adds must not write rows, got %d", len(rows))
	}

	id, err := repo.AddExpense(ctx, testExpense(1, 100, "SUPERMERCADO"))
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero surrogate id")
	}
}

func TestRemoveByMessageID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.RegisterUser(ctx, 1, []string{"SUPERMERCADO"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	existed, err := repo.RemoveByMessageID(ctx, 1, 999)
	if err != nil {
		t.Fatalf("RemoveByMessageID: %v", err)
	}
	if existed {
		t.Fatal("nothing stored yet, existed must be false")
	}

	if _, err := repo.AddExpense(ctx, testExpense(1, 100, "SUPERMERCADO")); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}

	existed, err = repo.RemoveByMessageID(ctx, 1, 100)
	if err != nil {
		t.Fatalf("RemoveByMessageID: %v", err)
	}
	if !existed {
		t.Fatal("expected existing row to be reported")
	}

	rows, err := repo.ListExpenses(ctx, 1)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty ledger, got %d rows", len(rows))
	}
}

func TestReplaceExpenseKeepsSingleRecord(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.RegisterUser(ctx, 1, []string{"SUPERMERCADO", "TAXI"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	// Replace with no prior record still creates one (first-failure-tolerant).
	if _, err := repo.ReplaceExpense(ctx, testExpense(1, 100, "SUPERMERCADO")); err != nil {
		t.Fatalf("ReplaceExpense: %v", err)
	}

	edited := testExpense(1, 100, "TAXI")
	edited.Value = decimal.RequireFromString("99")
	if _, err := repo.ReplaceExpense(ctx, edited); err != nil {
		t.Fatalf("ReplaceExpense: %v", err)
	}

	rows, err := repo.ListExpenses(ctx, 1)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one record for (user, message), got %d", len(rows))
	}
	if rows[0].Category != "TAXI" || !rows[0].Value.Equal(decimal.RequireFromString("99")) {
		t.Fatalf("latest edit must win, got %+v", rows[0])
	}

	// A failed replacement must not drop the existing record.
	bad := testExpense(1, 100, "NO EXISTE")
	if _, err := repo.ReplaceExpense(ctx, bad); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("error = %v, want ErrUnknownCategory", err)
	}
	rows, err = repo.ListExpenses(ctx, 1)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(rows) != 1 || rows[0].Category != "TAXI" {
		t.Fatalf("failed replace must roll back, got %+v", rows)
	}
}

func TestListExpensesOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.RegisterUser(ctx, 1, []string{"SUPERMERCADO"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if err := repo.RegisterUser(ctx, 2, []string{"SUPERMERCADO"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	for i := int64(1); i <= 3; i++ {
		if _, err := repo.AddExpense(ctx, testExpense(1, 100+i, "SUPERMERCADO")); err != nil {
			t.Fatalf("AddExpense: %v", err)
		}
	}
	if _, err := repo.AddExpense(ctx, testExpense(2, 500, "SUPERMERCADO")); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}

	rows, err := repo.ListExpenses(ctx, 1)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows for user 1, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].ID <= rows[i].ID {
			t.Fatalf("rows not in descending insertion order: %v then %v", rows[i-1].ID, rows[i].ID)
		}
	}
	if rows[0].MessageID != 103 {
		t.Fatalf("newest first: message_id = %d, want 103", rows[0].MessageID)
	}
}

func TestGetExpenseRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.RegisterUser(ctx, 1, []string{"SUPERMERCADO"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	in := testExpense(1, 100, "SUPERMERCADO")
	id, err := repo.AddExpense(ctx, in)
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}

	out, err := repo.GetExpense(ctx, id)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if out.ID != id || out.MessageID != in.MessageID || out.ChatID != in.ChatID ||
		out.UserID != in.UserID || out.Category != in.Category ||
		out.Currency != in.Currency || out.Text != in.Text {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if !out.Value.Equal(in.Value) {
		t.Fatalf("value = %s, want %s", out.Value, in.Value)
	}
	if !out.Date.Equal(in.Date) {
		t.Fatalf("date = %v, want %v", out.Date, in.Date)
	}
}

func TestGetExpenseNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetExpense(context.Background(), 9999)
	if !errors.Is(err, core.ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}
}
