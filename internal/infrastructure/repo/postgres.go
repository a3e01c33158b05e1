package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"homecook-backend/internal/domain"
	"homecook-backend/internal/usecase"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	chef_user_id TEXT,
	amount BIGINT NOT NULL CHECK (amount >= 50),
	currency TEXT NOT NULL,
	delivery_fee_cents BIGINT,
	stripe_payment_intent_id TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL DEFAULT '',
	external_delivery_id TEXT UNIQUE,
	delivery_service TEXT,
	delivery_status TEXT NOT NULL DEFAULT '',
	delivery_tracking_url TEXT,
	pickup_address TEXT NOT NULL DEFAULT '',
	pickup_phone TEXT NOT NULL DEFAULT '',
	pickup_business_name TEXT NOT NULL DEFAULT '',
	pickup_instructions TEXT NOT NULL DEFAULT '',
	dropoff_address TEXT NOT NULL DEFAULT '',
	dropoff_phone TEXT NOT NULL DEFAULT '',
	dropoff_business_name TEXT NOT NULL DEFAULT '',
	dropoff_instructions TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);

CREATE TABLE IF NOT EXISTS payouts (
	id TEXT PRIMARY KEY,
	chef_user_id TEXT NOT NULL,
	amount_cents BIGINT NOT NULL,
	currency TEXT NOT NULL,
	instant BOOLEAN NOT NULL DEFAULT FALSE,
	status TEXT NOT NULL,
	stripe_payout_id TEXT,
	failure_reason TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_payouts_chef ON payouts(chef_user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS chef_accounts (
	user_id TEXT PRIMARY KEY,
	stripe_account_id TEXT NOT NULL DEFAULT '',
	onboarding_complete BOOLEAN NOT NULL DEFAULT FALSE,
	business_name TEXT NOT NULL DEFAULT '',
	pickup_address TEXT NOT NULL DEFAULT '',
	pickup_phone TEXT NOT NULL DEFAULT '',
	pickup_instructions TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL
);`

const orderColumns = `id,user_id,chef_user_id,amount,currency,delivery_fee_cents,stripe_payment_intent_id,status,
	external_delivery_id,delivery_service,delivery_status,delivery_tracking_url,
	pickup_address,pickup_phone,pickup_business_name,pickup_instructions,
	dropoff_address,dropoff_phone,dropoff_business_name,dropoff_instructions,created_at,updated_at`

// orderRow is the flat column layout of the orders table.
type orderRow struct {
	ID                    string    `db:"id"`
	UserID                string    `db:"user_id"`
	ChefUserID            *string   `db:"chef_user_id"`
	Amount                int64     `db:"amount"`
	Currency              string    `db:"currency"`
	DeliveryFeeCents      *int64    `db:"delivery_fee_cents"`
	StripePaymentIntentID string    `db:"stripe_payment_intent_id"`
	Status                string    `db:"status"`
	ExternalDeliveryID    *string   `db:"external_delivery_id"`
	DeliveryService       *string   `db:"delivery_service"`
	DeliveryStatus        string    `db:"delivery_status"`
	DeliveryTrackingURL   *string   `db:"delivery_tracking_url"`
	PickupAddress         string    `db:"pickup_address"`
	PickupPhone           string    `db:"pickup_phone"`
	PickupBusinessName    string    `db:"pickup_business_name"`
	PickupInstructions    string    `db:"pickup_instructions"`
	DropoffAddress        string    `db:"dropoff_address"`
	DropoffPhone          string    `db:"dropoff_phone"`
	DropoffBusinessName   string    `db:"dropoff_business_name"`
	DropoffInstructions   string    `db:"dropoff_instructions"`
	CreatedAt             time.Time `db:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"`
}

func toRow(o *domain.Order) orderRow {
	return orderRow{
		ID:                    o.ID,
		UserID:                o.UserID,
		ChefUserID:            o.ChefUserID,
		Amount:                o.Amount,
		Currency:              o.Currency,
		DeliveryFeeCents:      o.DeliveryFeeCents,
		StripePaymentIntentID: o.StripePaymentIntentID,
		Status:                o.Status,
		ExternalDeliveryID:    o.ExternalDeliveryID,
		DeliveryService:       o.DeliveryService,
		DeliveryStatus:        string(o.DeliveryStatus),
		DeliveryTrackingURL:   o.DeliveryTrackingURL,
		PickupAddress:         o.Pickup.Address,
		PickupPhone:           o.Pickup.Phone,
		PickupBusinessName:    o.Pickup.BusinessName,
		PickupInstructions:    o.Pickup.Instructions,
		DropoffAddress:        o.Dropoff.Address,
		DropoffPhone:          o.Dropoff.Phone,
		DropoffBusinessName:   o.Dropoff.BusinessName,
		DropoffInstructions:   o.Dropoff.Instructions,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
}

func (r orderRow) order() *domain.Order {
	return &domain.Order{
		ID:                    r.ID,
		UserID:                r.UserID,
		ChefUserID:            r.ChefUserID,
		Amount:                r.Amount,
		Currency:              r.Currency,
		DeliveryFeeCents:      r.DeliveryFeeCents,
		StripePaymentIntentID: r.StripePaymentIntentID,
		Status:                r.Status,
		ExternalDeliveryID:    r.ExternalDeliveryID,
		DeliveryService:       r.DeliveryService,
		DeliveryStatus:        domain.DeliveryStatus(r.DeliveryStatus),
		DeliveryTrackingURL:   r.DeliveryTrackingURL,
		Pickup: domain.Stop{
			Address:      r.PickupAddress,
			Phone:        r.PickupPhone,
			BusinessName: r.PickupBusinessName,
			Instructions: r.PickupInstructions,
		},
		Dropoff: domain.Stop{
			Address:      r.DropoffAddress,
			Phone:        r.DropoffPhone,
			BusinessName: r.DropoffBusinessName,
			Instructions: r.DropoffInstructions,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// PostgresRepo implements the order, payout and chef repos on one database.
type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(dsn string) (*PostgresRepo, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	r := &PostgresRepo{db: db}
	if err := r.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *PostgresRepo) init() error {
	_, err := r.db.Exec(schema)
	return err
}

func (r *PostgresRepo) Close() error {
	return r.db.Close()
}

func (r *PostgresRepo) CreateOrder(ctx context.Context, o *domain.Order) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO orders (`+orderColumns+`) VALUES (
		:id,:user_id,:chef_user_id,:amount,:currency,:delivery_fee_cents,:stripe_payment_intent_id,:status,
		:external_delivery_id,:delivery_service,:delivery_status,:delivery_tracking_url,
		:pickup_address,:pickup_phone,:pickup_business_name,:pickup_instructions,
		:dropoff_address,:dropoff_phone,:dropoff_business_name,:dropoff_instructions,:created_at,:updated_at)`, toRow(o))
	if isUniqueViolation(err) {
		return usecase.ErrConflict("order already exists for payment intent")
	}
	return err
}

func (r *PostgresRepo) getOrderWhere(ctx context.Context, q sqlx.QueryerContext, where string, arg any) (*domain.Order, error) {
	var row orderRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+orderColumns+` FROM orders WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrNotFound("order")
	}
	if err != nil {
		return nil, err
	}
	return row.order(), nil
}

func (r *PostgresRepo) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOrderWhere(ctx, r.db, "id=$1", id)
}

func (r *PostgresRepo) GetOrderByIntent(ctx context.Context, intentID string) (*domain.Order, error) {
	return r.getOrderWhere(ctx, r.db, "stripe_payment_intent_id=$1", intentID)
}

func (r *PostgresRepo) GetOrderByExternalDelivery(ctx context.Context, externalID string) (*domain.Order, error) {
	return r.getOrderWhere(ctx, r.db, "external_delivery_id=$1", externalID)
}

func (r *PostgresRepo) SetPaymentStatus(ctx context.Context, intentID, status string, at time.Time) (*domain.Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, `UPDATE orders SET status=$1, updated_at=$2 WHERE stripe_payment_intent_id=$3 RETURNING `+orderColumns, status, at, intentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrNotFound("order")
	}
	if err != nil {
		return nil, err
	}
	return row.order(), nil
}

func (r *PostgresRepo) SetDeliveryFee(ctx context.Context, id string, feeCents int64, at time.Time) (*domain.Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, `UPDATE orders SET delivery_fee_cents=$1, updated_at=$2 WHERE id=$3 RETURNING `+orderColumns, feeCents, at, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrNotFound("order")
	}
	if err != nil {
		return nil, err
	}
	return row.order(), nil
}

func (r *PostgresRepo) ApplyDispatch(ctx context.Context, id string, p domain.DispatchPatch) (*domain.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	cur, err := r.getOrderWhere(ctx, tx, "id=$1 FOR UPDATE", id)
	if err != nil {
		return nil, err
	}
	if cur.ExternalDeliveryID != nil && *cur.ExternalDeliveryID != p.ExternalDeliveryID {
		return nil, usecase.ErrConflict("order already bound to another delivery")
	}
	status := cur.DeliveryStatus
	if status == domain.DeliveryNone || status.CanAdvance(p.DeliveryStatus) {
		status = p.DeliveryStatus
	}
	var row orderRow
	err = tx.GetContext(ctx, &row, `UPDATE orders SET
		external_delivery_id=$2, delivery_service=$3, delivery_status=$4,
		delivery_tracking_url=COALESCE(NULLIF($5,''), delivery_tracking_url), delivery_fee_cents=COALESCE($6, delivery_fee_cents),
		pickup_address=$7, pickup_phone=$8, pickup_business_name=$9, pickup_instructions=$10,
		dropoff_address=$11, dropoff_phone=$12, dropoff_business_name=$13, dropoff_instructions=$14,
		updated_at=$15
		WHERE id=$1 RETURNING `+orderColumns,
		id, p.ExternalDeliveryID, p.DeliveryService, string(status), p.DeliveryTrackingURL, p.DeliveryFeeCents,
		p.Pickup.Address, p.Pickup.Phone, p.Pickup.BusinessName, p.Pickup.Instructions,
		p.Dropoff.Address, p.Dropoff.Phone, p.Dropoff.BusinessName, p.Dropoff.Instructions,
		p.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, usecase.ErrConflict("external delivery id already in use")
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return row.order(), nil
}

func (r *PostgresRepo) CompareAndSetDeliveryStatus(ctx context.Context, externalID string, prev, next domain.DeliveryStatus, at time.Time) (*domain.Order, bool, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, `UPDATE orders SET delivery_status=$1, updated_at=$2
		WHERE external_delivery_id=$3 AND delivery_status=$4 RETURNING `+orderColumns,
		string(next), at, externalID, string(prev))
	if err == nil {
		return row.order(), true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}
	cur, err := r.GetOrderByExternalDelivery(ctx, externalID)
	if err != nil {
		return nil, false, err
	}
	return cur, false, nil
}

func (r *PostgresRepo) CreatePayout(ctx context.Context, p *domain.Payout) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO payouts (id,chef_user_id,amount_cents,currency,instant,status,stripe_payout_id,failure_reason,created_at)
		VALUES (:id,:chef_user_id,:amount_cents,:currency,:instant,:status,:stripe_payout_id,:failure_reason,:created_at)`, p)
	if isUniqueViolation(err) {
		return usecase.ErrConflict("payout already exists")
	}
	return err
}

func (r *PostgresRepo) FinalizePayout(ctx context.Context, id string, status domain.PayoutStatus, stripePayoutID, failureReason *string) (*domain.Payout, error) {
	var p domain.Payout
	err := r.db.GetContext(ctx, &p, `UPDATE payouts SET status=$1, stripe_payout_id=$2, failure_reason=$3
		WHERE id=$4 AND status=$5 RETURNING id,chef_user_id,amount_cents,currency,instant,status,stripe_payout_id,failure_reason,created_at`,
		string(status), stripePayoutID, failureReason, id, string(domain.PayoutProcessing))
	if errors.Is(err, sql.ErrNoRows) {
		if _, gerr := r.GetPayout(ctx, id); gerr != nil {
			return nil, gerr
		}
		return nil, usecase.ErrConflict("payout already finalized")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepo) GetPayout(ctx context.Context, id string) (*domain.Payout, error) {
	var p domain.Payout
	err := r.db.GetContext(ctx, &p, `SELECT id,chef_user_id,amount_cents,currency,instant,status,stripe_payout_id,failure_reason,created_at FROM payouts WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrNotFound("payout")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepo) ListPayouts(ctx context.Context, chefUserID string, limit int) ([]domain.Payout, error) {
	out := []domain.Payout{}
	err := r.db.SelectContext(ctx, &out, `SELECT id,chef_user_id,amount_cents,currency,instant,status,stripe_payout_id,failure_reason,created_at
		FROM payouts WHERE chef_user_id=$1 ORDER BY created_at DESC LIMIT $2`, chefUserID, limit)
	return out, err
}

func (r *PostgresRepo) GetChef(ctx context.Context, userID string) (*domain.ChefAccount, error) {
	var c domain.ChefAccount
	err := r.db.GetContext(ctx, &c, `SELECT user_id,stripe_account_id,onboarding_complete,business_name,pickup_address,pickup_phone,pickup_instructions,updated_at
		FROM chef_accounts WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrNotFound("chef")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepo) PutChef(ctx context.Context, c *domain.ChefAccount) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO chef_accounts (user_id,stripe_account_id,onboarding_complete,business_name,pickup_address,pickup_phone,pickup_instructions,updated_at)
		VALUES (:user_id,:stripe_account_id,:onboarding_complete,:business_name,:pickup_address,:pickup_phone,:pickup_instructions,:updated_at)
		ON CONFLICT (user_id) DO UPDATE SET stripe_account_id=EXCLUDED.stripe_account_id,onboarding_complete=EXCLUDED.onboarding_complete,
		business_name=EXCLUDED.business_name,pickup_address=EXCLUDED.pickup_address,pickup_phone=EXCLUDED.pickup_phone,
		pickup_instructions=EXCLUDED.pickup_instructions,updated_at=EXCLUDED.updated_at`, c)
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
