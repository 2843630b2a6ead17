package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/importcalc/internal/inventory"
	"github.com/Simplici0/importcalc/internal/pricing"
)

// ErrNotFound is returned when a slab or device does not exist.
var ErrNotFound = errors.New("not found")

// createdAtLayout is fixed-width so created_at sorts lexically.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

// Store persists settings, the slab table and the device list.
type Store struct {
	db *sql.DB
}

// New returns a Store backed by db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Settings returns the stored settings, or the defaults when none are stored.
func (s *Store) Settings(ctx context.Context) (pricing.Settings, error) {
	var st pricing.Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT exchange_rate, gst_low_rate, gst_high_rate, gst_threshold_usd, animations_enabled
		FROM settings
		WHERE id = 1
	`).Scan(
		&st.ExchangeRate,
		&st.GSTLowRate,
		&st.GSTHighRate,
		&st.GSTThresholdUSD,
		&st.AnimationsEnabled,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return pricing.DefaultSettings(), nil
	}
	if err != nil {
		return pricing.Settings{}, fmt.Errorf("query settings: %w", err)
	}

	if st.Validate() != nil {
		return pricing.DefaultSettings(), nil
	}
	return st, nil
}

// SaveSettings validates and stores the settings singleton.
func (s *Store) SaveSettings(ctx context.Context, st pricing.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, exchange_rate, gst_low_rate, gst_high_rate, gst_threshold_usd, animations_enabled)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			exchange_rate = excluded.exchange_rate,
			gst_low_rate = excluded.gst_low_rate,
			gst_high_rate = excluded.gst_high_rate,
			gst_threshold_usd = excluded.gst_threshold_usd,
			animations_enabled = excluded.animations_enabled,
			updated_at = CURRENT_TIMESTAMP
	`, st.ExchangeRate, st.GSTLowRate, st.GSTHighRate, st.GSTThresholdUSD, st.AnimationsEnabled)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}

	return nil
}

// Slabs returns the slab table in order, or the default table when none is stored.
func (s *Store) Slabs(ctx context.Context) ([]pricing.Slab, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, range_label, min_usd, max_usd, fee_a, fee_b
		FROM slabs
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query slabs: %w", err)
	}
	defer rows.Close()

	slabs := make([]pricing.Slab, 0)
	for rows.Next() {
		var sl pricing.Slab
		if err := rows.Scan(&sl.ID, &sl.Label, &sl.MinUSD, &sl.MaxUSD, &sl.FeeA, &sl.FeeB); err != nil {
			return nil, fmt.Errorf("scan slab: %w", err)
		}
		slabs = append(slabs, sl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slabs: %w", err)
	}

	if len(slabs) == 0 {
		return pricing.DefaultSlabs(), nil
	}
	return slabs, nil
}

// UpdateSlabFees changes the two fees of one slab. Bounds are not editable.
func (s *Store) UpdateSlabFees(ctx context.Context, id int64, feeA, feeB float64) error {
	if feeA < 0 || feeB < 0 {
		return fmt.Errorf("slab fees must be greater than or equal to 0")
	}
	if feeA > pricing.MaxAmount || feeB > pricing.MaxAmount {
		return fmt.Errorf("slab fees must not exceed %g", pricing.MaxAmount)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE slabs
		SET
			fee_a = ?,
			fee_b = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, feeA, feeB, id)
	if err != nil {
		return fmt.Errorf("update slab fees: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update slab fees: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("slab %d: %w", id, ErrNotFound)
	}

	return nil
}

// Devices returns every stored device in insertion order.
func (s *Store) Devices(ctx context.Context) ([]inventory.Device, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, brand, model, purchase_cost_usd, shipping_cost_usd, expected_sale_price, created_at
		FROM devices
		ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	devices := make([]inventory.Device, 0)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}

	return devices, nil
}

// Device returns one device by id.
func (s *Store) Device(ctx context.Context, id string) (inventory.Device, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, brand, model, purchase_cost_usd, shipping_cost_usd, expected_sale_price, created_at
		FROM devices
		WHERE id = ?
	`, id)

	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.Device{}, fmt.Errorf("device %s: %w", id, ErrNotFound)
	}
	return d, err
}

// AddDevice appends a device to the list.
func (s *Store) AddDevice(ctx context.Context, d inventory.Device) error {
	var sale sql.NullFloat64
	if d.ExpectedSalePrice.Set {
		sale = sql.NullFloat64{Float64: d.ExpectedSalePrice.Value, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (id, brand, model, purchase_cost_usd, shipping_cost_usd, expected_sale_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Brand, d.Model, d.PurchaseCostUSD, d.ShippingCostUSD, sale, d.CreatedAt.UTC().Format(createdAtLayout))
	if err != nil {
		return fmt.Errorf("insert device: %w", err)
	}

	return nil
}

// DeleteDevice removes a device from the list.
func (s *Store) DeleteDevice(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("device %s: %w", id, ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (inventory.Device, error) {
	var (
		d         inventory.Device
		sale      sql.NullFloat64
		createdAt string
	)
	if err := row.Scan(&d.ID, &d.Brand, &d.Model, &d.PurchaseCostUSD, &d.ShippingCostUSD, &sale, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return inventory.Device{}, err
		}
		return inventory.Device{}, fmt.Errorf("scan device: %w", err)
	}

	if sale.Valid {
		d.ExpectedSalePrice = pricing.Some(sale.Float64)
	}

	t, err := time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return inventory.Device{}, fmt.Errorf("parse device %s created_at: %w", d.ID, err)
	}
	d.CreatedAt = t

	return d, nil
}
