package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"stockservice/internal/domain"
	"stockservice/internal/repos"
	"stockservice/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStockService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc := services.NewStockService(repos.NewStockRepo(memdb(t)))

	st := domain.Stock{Image: []byte("img"), ContentType: "image/gif", Price: 4.5, Detail: "d"}
	if err := svc.SaveStock(ctx, &st); err != nil {
		t.Fatal(err)
	}

	list, err := svc.ListStocks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != st.ID {
		t.Fatalf("want the saved stock listed, got %+v", list)
	}

	got, err := svc.GetStock(ctx, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Price != 4.5 {
		t.Fatalf("price: %v", got.Price)
	}

	if err := svc.DeleteStock(ctx, st.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetStock(ctx, st.ID); !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

// failingStore checks that store errors come back untouched.
type failingStore struct{ err error }

func (f failingStore) FindAll(context.Context) ([]domain.Stock, error)         { return nil, f.err }
func (f failingStore) FindByID(context.Context, string) (domain.Stock, error) { return domain.Stock{}, f.err }
func (f failingStore) Save(context.Context, *domain.Stock) error               { return f.err }
func (f failingStore) DeleteByID(context.Context, string) error                { return f.err }

func TestStockService_PassesErrorsThrough(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	svc := services.NewStockService(failingStore{err: boom})

	if _, err := svc.ListStocks(ctx); err != boom {
		t.Fatalf("list: %v", err)
	}
	if _, err := svc.GetStock(ctx, "x"); err != boom {
		t.Fatalf("get: %v", err)
	}
	if err := svc.SaveStock(ctx, &domain.Stock{}); err != boom {
		t.Fatalf("save: %v", err)
	}
	if err := svc.DeleteStock(ctx, "x"); err != boom {
		t.Fatalf("delete: %v", err)
	}
}
