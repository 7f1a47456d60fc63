package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/core/ports"
	"github.com/innoshop/platform/internal/infrastructure/db/memory"
)

func price(v float64) *float64 { return &v }

func newProductFixture(guard *OwnershipGuard) (*ProductService, *memory.ProductStore) {
	repo := memory.NewProductStore()
	return NewProductService(repo, guard, newFakeClock(), zerolog.Nop()), repo
}

var (
	alice = domain.Principal{ID: "alice", Roles: []string{domain.RoleUser}}
	bob   = domain.Principal{ID: "bob", Roles: []string{domain.RoleUser}}
	root  = domain.Principal{ID: "root", Roles: []string{domain.RoleUser, domain.RoleAdmin}}
)

func TestProductService_CreateSetsCreator(t *testing.T) {
	svc, _ := newProductFixture(nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, alice, ports.ProductInput{Name: "Lamp", Description: "Warm", Price: price(10), IsAvailable: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" || p.CreatorID != "alice" || p.CreatedAt.IsZero() {
		t.Fatalf("unexpected product: %+v", p)
	}

	got, err := svc.Get(ctx, p.ID)
	if err != nil || got.Name != "Lamp" {
		t.Fatalf("get: %+v %v", got, err)
	}
}

func TestProductService_UpdateByOwner(t *testing.T) {
	svc, _ := newProductFixture(nil)
	ctx := context.Background()
	p, _ := svc.Create(ctx, alice, ports.ProductInput{Name: "Lamp", Description: "Warm", Price: price(10)})

	updated, err := svc.Update(ctx, alice, p.ID, ports.ProductInput{Name: "Lamp v2", Description: "Warmer", IsAvailable: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Lamp v2" || updated.Price != nil || updated.CreatorID != "alice" {
		t.Fatalf("unexpected product: %+v", updated)
	}
}

func TestProductService_NonOwnerDenied(t *testing.T) {
	svc, _ := newProductFixture(nil)
	ctx := context.Background()
	p, _ := svc.Create(ctx, alice, ports.ProductInput{Name: "Lamp", Description: "Warm"})

	if _, err := svc.Update(ctx, bob, p.ID, ports.ProductInput{Name: "Mine now", Description: "x"}); !errors.Is(err, domain.ErrDenied) {
		t.Fatalf("update: expected ErrDenied, got %v", err)
	}
	if err := svc.Delete(ctx, bob, p.ID); !errors.Is(err, domain.ErrDenied) {
		t.Fatalf("delete: expected ErrDenied, got %v", err)
	}
	if err := svc.Delete(ctx, root, p.ID); !errors.Is(err, domain.ErrDenied) {
		t.Fatalf("strict guard: expected ErrDenied for admin, got %v", err)
	}

	got, _ := svc.Get(ctx, p.ID)
	if got.Name != "Lamp" {
		t.Fatalf("denied update must not change the product: %+v", got)
	}
}

func TestProductService_MissingProduct(t *testing.T) {
	svc, _ := newProductFixture(nil)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "nope"); !errors.Is(err, domain.ErrResourceNotFound) {
		t.Fatalf("get: expected ErrResourceNotFound, got %v", err)
	}
	if _, err := svc.Update(ctx, alice, "nope", ports.ProductInput{Name: "x", Description: "y"}); !errors.Is(err, domain.ErrResourceNotFound) {
		t.Fatalf("update: expected ErrResourceNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, alice, "nope"); !errors.Is(err, domain.ErrResourceNotFound) {
		t.Fatalf("delete: expected ErrResourceNotFound, got %v", err)
	}
}

func TestProductService_DeleteByOwner(t *testing.T) {
	svc, _ := newProductFixture(nil)
	ctx := context.Background()
	p, _ := svc.Create(ctx, alice, ports.ProductInput{Name: "Lamp", Description: "Warm"})

	if err := svc.Delete(ctx, alice, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, p.ID); !errors.Is(err, domain.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound after delete, got %v", err)
	}
}

func TestProductService_OverrideRoleMayMutate(t *testing.T) {
	svc, _ := newProductFixture(NewOwnershipGuard().WithOverrideRoles(domain.RoleAdmin))
	ctx := context.Background()
	p, _ := svc.Create(ctx, alice, ports.ProductInput{Name: "Lamp", Description: "Warm"})

	updated, err := svc.Update(ctx, root, p.ID, ports.ProductInput{Name: "Moderated", Description: "Warm"})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if updated.CreatorID != "alice" {
		t.Fatalf("creator must not change, got %q", updated.CreatorID)
	}
	if _, err := svc.Update(ctx, bob, p.ID, ports.ProductInput{Name: "x", Description: "y"}); !errors.Is(err, domain.ErrDenied) {
		t.Fatalf("plain user: expected ErrDenied, got %v", err)
	}
}

func TestProductService_ListFilters(t *testing.T) {
	svc, _ := newProductFixture(nil)
	ctx := context.Background()
	_, _ = svc.Create(ctx, alice, ports.ProductInput{Name: "Desk Lamp", Description: "LED", Price: price(30)})
	_, _ = svc.Create(ctx, bob, ports.ProductInput{Name: "Chair", Description: "Oak", Price: price(80)})

	got, err := svc.List(ctx, ports.ProductFilter{Search: "lamp"})
	if err != nil || len(got) != 1 || got[0].Name != "Desk Lamp" {
		t.Fatalf("search: %+v %v", got, err)
	}
	got, _ = svc.List(ctx, ports.ProductFilter{MinPrice: price(30), MaxPrice: price(80)})
	if len(got) != 2 {
		t.Fatalf("inclusive bounds: expected 2, got %d", len(got))
	}
}
