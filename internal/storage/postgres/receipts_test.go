package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmockv3 "github.com/pashagolub/pgxmock/v3"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/domain/repository"
)

var notificationColumns = []string{"id", "order_id", "payment_id", "email", "document_url", "status",
	"attempts", "last_error", "created_at", "updated_at"}

func TestReceiptRepositoryEnqueue(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &receiptRepository{db: storage.pool}

	now := time.Now()
	mock.ExpectQuery("INSERT INTO receipt_notifications").
		WithArgs(int64(1), int64(2), "a@b.c", "https://s3/doc.pdf", model.NotificationStatusPending).
		WillReturnRows(pgxmockv3.NewRows([]string{"id", "attempts", "created_at", "updated_at"}).AddRow(int64(5), 0, now, now))

	n := &model.ReceiptNotification{OrderID: 1, PaymentID: 2, Email: "a@b.c", DocumentURL: "https://s3/doc.pdf"}
	if err := repo.Enqueue(context.Background(), n); err != nil || n.ID != 5 || n.Status != model.NotificationStatusPending {
		t.Fatalf("unexpected notification: %+v err=%v", n, err)
	}

	mock.ExpectQuery("INSERT INTO receipt_notifications").
		WithArgs(int64(1), int64(3), "a@b.c", "https://s3/doc.pdf", model.NotificationStatusSending).
		WillReturnRows(pgxmockv3.NewRows([]string{"id", "attempts", "created_at", "updated_at"}).AddRow(int64(6), 0, now, now))
	leased := &model.ReceiptNotification{OrderID: 1, PaymentID: 3, Email: "a@b.c", DocumentURL: "https://s3/doc.pdf",
		Status: model.NotificationStatusSending}
	if err := repo.Enqueue(context.Background(), leased); err != nil || leased.Status != model.NotificationStatusSending {
		t.Fatalf("unexpected leased notification: %+v err=%v", leased, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestReceiptRepositoryClaimPending(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &receiptRepository{db: storage.pool}
	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery("UPDATE receipt_notifications SET status=.+WHERE id IN \\(.+FOR UPDATE SKIP LOCKED.+RETURNING").
		WithArgs(model.NotificationStatusSending, model.NotificationStatusPending, pgxmockv3.AnyArg(), 10).
		WillReturnRows(pgxmockv3.NewRows(notificationColumns).
			AddRow(int64(2), int64(2), int64(2), "d@e.f", "u2", model.NotificationStatusSending, 1, "timeout", now, now).
			AddRow(int64(1), int64(1), int64(1), "a@b.c", "u1", model.NotificationStatusSending, 0, "", now, now))

	claimed, err := repo.ClaimPending(ctx, 10)
	if err != nil || len(claimed) != 2 {
		t.Fatalf("unexpected claim: %+v err=%v", claimed, err)
	}
	if claimed[0].ID != 1 || claimed[1].ID != 2 {
		t.Fatalf("expected claim ordered by id, got %+v", claimed)
	}
	for _, n := range claimed {
		if n.Status != model.NotificationStatusSending {
			t.Fatalf("expected claimed status, got %s", n.Status)
		}
	}

	mock.ExpectQuery("FOR UPDATE SKIP LOCKED").WithArgs(model.NotificationStatusSending, model.NotificationStatusPending, pgxmockv3.AnyArg(), 10).
		WillReturnRows(pgxmockv3.NewRows(notificationColumns))
	claimed, err = repo.ClaimPending(ctx, 10)
	if err != nil || len(claimed) != 0 {
		t.Fatalf("expected empty claim, got %+v err=%v", claimed, err)
	}

	mock.ExpectQuery("FOR UPDATE SKIP LOCKED").WithArgs(model.NotificationStatusSending, model.NotificationStatusPending, pgxmockv3.AnyArg(), 10).
		WillReturnError(errors.New("query"))
	if _, err := repo.ClaimPending(ctx, 10); err == nil {
		t.Fatal("expected query error")
	}

	mock.ExpectQuery("FOR UPDATE SKIP LOCKED").WithArgs(model.NotificationStatusSending, model.NotificationStatusPending, pgxmockv3.AnyArg(), 10).
		WillReturnRows(pgxmockv3.NewRows(notificationColumns).
			AddRow("bad", int64(1), int64(1), "a@b.c", "u1", model.NotificationStatusSending, 0, "", now, now))
	if _, err := repo.ClaimPending(ctx, 10); err == nil {
		t.Fatal("expected scan error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestReceiptRepositoryClaimPendingInTransaction(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE receipt_notifications SET status=.+FOR UPDATE SKIP LOCKED.+RETURNING").
		WithArgs(model.NotificationStatusSending, model.NotificationStatusPending, pgxmockv3.AnyArg(), 5).
		WillReturnRows(pgxmockv3.NewRows(notificationColumns).
			AddRow(int64(7), int64(1), int64(1), "a@b.c", "u1", model.NotificationStatusSending, 0, "", now, now))
	mock.ExpectCommit()

	var claimed []model.ReceiptNotification
	err := storage.WithinTransaction(context.Background(), func(ctx context.Context, repos repository.Factory) error {
		var err error
		claimed, err = repos.Receipts().ClaimPending(ctx, 5)
		return err
	})
	if err != nil || len(claimed) != 1 || claimed[0].ID != 7 {
		t.Fatalf("unexpected claim: %+v err=%v", claimed, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestReceiptRepositoryClaimRowsError(t *testing.T) {
	repo := &receiptRepository{db: &rowsErrorQuerier{rows: &errorRows{err: errors.New("rows err")}}}
	if _, err := repo.ClaimPending(context.Background(), 1); err == nil || err.Error() != "rows err" {
		t.Fatalf("expected rows err, got %v", err)
	}
}

func TestReceiptRepositoryMarks(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &receiptRepository{db: storage.pool}
	ctx := context.Background()

	mock.ExpectExec("UPDATE receipt_notifications SET status=.+attempts=attempts\\+1").
		WithArgs(model.NotificationStatusSent, int64(1)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := repo.MarkSent(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("UPDATE receipt_notifications").WithArgs(model.NotificationStatusSent, int64(2)).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	if err := repo.MarkSent(ctx, 2); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectExec("UPDATE receipt_notifications SET attempts=attempts\\+1").
		WithArgs("smtp down", 5, model.NotificationStatusFailed, model.NotificationStatusPending, int64(1)).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := repo.MarkFailed(ctx, 1, "smtp down", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("UPDATE receipt_notifications SET attempts").
		WithArgs("smtp down", 5, model.NotificationStatusFailed, model.NotificationStatusPending, int64(2)).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	if err := repo.MarkFailed(ctx, 2, "smtp down", 5); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectExec("UPDATE receipt_notifications SET attempts").
		WithArgs("smtp down", 5, model.NotificationStatusFailed, model.NotificationStatusPending, int64(3)).
		WillReturnError(errors.New("update"))
	if err := repo.MarkFailed(ctx, 3, "smtp down", 5); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
