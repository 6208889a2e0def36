package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

type stubTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *stubTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *stubTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type stubBeginner struct {
	tx   *stubTx
	opts pgx.TxOptions
	err  error
}

func (b *stubBeginner) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.opts = opts
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestWithTxCommits(t *testing.T) {
	b := &stubBeginner{tx: &stubTx{}}
	if err := WithTx(context.Background(), b, func(ctx context.Context, tx pgx.Tx) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.tx.committed || b.tx.rolledBack {
		t.Fatalf("expected commit only: %+v", b.tx)
	}
	if b.opts.IsoLevel != pgx.ReadCommitted {
		t.Fatalf("unexpected isolation %s", b.opts.IsoLevel)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	sentinel := errors.New("falhou")
	b := &stubBeginner{tx: &stubTx{}}
	err := WithTx(context.Background(), b, func(ctx context.Context, tx pgx.Tx) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	if b.tx.committed || !b.tx.rolledBack {
		t.Fatalf("expected rollback: %+v", b.tx)
	}

	b = &stubBeginner{err: errors.New("sem conexão")}
	if err := WithTx(context.Background(), b, func(ctx context.Context, tx pgx.Tx) error { return nil }); err == nil {
		t.Fatalf("expected begin error")
	}

	b = &stubBeginner{tx: &stubTx{commitErr: errors.New("serialização")}}
	if err := WithTx(context.Background(), b, func(ctx context.Context, tx pgx.Tx) error { return nil }); err == nil {
		t.Fatalf("expected commit error")
	}
}
