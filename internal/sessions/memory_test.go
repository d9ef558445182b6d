package sessions

import (
	"context"
	"fmt"
	"testing"

	pkgerrors "github.com/retailgenie/orchestrator/pkg/errors"
)

func TestMemoryRepositoryCreateAndGet(t *testing.T) {
	repo := NewMemoryRepository(0)
	ctx := context.Background()

	id, err := repo.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Fatal("expected a session id")
	}

	session, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if session.ID != id {
		t.Fatalf("session id mismatch: %s vs %s", session.ID, id)
	}
	if len(session.History) != 0 || len(session.Cart) != 0 {
		t.Fatalf("expected empty session, got %+v", session)
	}
}

func TestMemoryRepositoryGetUnknown(t *testing.T) {
	repo := NewMemoryRepository(0)

	if _, err := repo.Get(context.Background(), "missing"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.AppendHistory(context.Background(), "missing", RoleUser, "hi"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryRepositoryAppendHistory(t *testing.T) {
	repo := NewMemoryRepository(0)
	ctx := context.Background()

	id, err := repo.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.AppendHistory(ctx, id, RoleUser, "show me jeans"); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	if err := repo.AppendHistory(ctx, id, RoleBot, "here you go"); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}

	session, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(session.History) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(session.History))
	}
	if session.History[0].Role != RoleUser || session.History[0].Text != "show me jeans" {
		t.Fatalf("unexpected first turn %+v", session.History[0])
	}
	if session.UpdatedAt.Before(session.CreatedAt) {
		t.Fatal("UpdatedAt should not precede CreatedAt")
	}
}

func TestMemoryRepositoryTrimsHistory(t *testing.T) {
	repo := NewMemoryRepository(4)
	ctx := context.Background()

	id, err := repo.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := repo.AppendHistory(ctx, id, RoleUser, fmt.Sprintf("turn %d", i)); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}

	session, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(session.History) != 4 {
		t.Fatalf("expected history trimmed to 4, got %d", len(session.History))
	}
	if session.History[0].Text != "turn 6" {
		t.Fatalf("expected oldest retained turn to be %q, got %q", "turn 6", session.History[0].Text)
	}
}

func TestMemoryRepositoryGetReturnsClone(t *testing.T) {
	repo := NewMemoryRepository(0)
	ctx := context.Background()

	id, _ := repo.Create(ctx)
	_ = repo.AppendHistory(ctx, id, RoleUser, "original")

	session, _ := repo.Get(ctx, id)
	session.History[0].Text = "mutated"
	session.Cart = append(session.Cart, ProductRef{ProductID: "p101"})

	fresh, _ := repo.Get(ctx, id)
	if fresh.History[0].Text != "original" {
		t.Fatal("caller mutation leaked into the store")
	}
	if len(fresh.Cart) != 0 {
		t.Fatal("caller cart mutation leaked into the store")
	}
}

func TestMemoryRepositoryAppendCart(t *testing.T) {
	repo := NewMemoryRepository(0)
	ctx := context.Background()

	id, _ := repo.Create(ctx)
	if err := repo.AppendCart(ctx, id, ProductRef{ProductID: "p104", Name: "Distressed Denim Jacket"}); err != nil {
		t.Fatalf("AppendCart: %v", err)
	}

	session, _ := repo.Get(ctx, id)
	if len(session.Cart) != 1 || session.Cart[0].ProductID != "p104" {
		t.Fatalf("unexpected cart %+v", session.Cart)
	}
}
