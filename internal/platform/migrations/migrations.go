package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the work order schema. Adapters never automigrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&workOrderRecord{},
		&workOrderItemRecord{},
	)
}

// Work order schema mirrors the work orders Postgres adapter.
type workOrderRecord struct {
	ID                  string          `gorm:"primaryKey;column:id;size:64"`
	Status              string          `gorm:"column:status;type:varchar(32);index"`
	CreatedBy           string          `gorm:"column:created_by"`
	AcceptedBy          string          `gorm:"column:accepted_by;index"`
	CustomerName        string          `gorm:"column:customer_name"`
	CustomerPhone       string          `gorm:"column:customer_phone"`
	CustomerEmail       string          `gorm:"column:customer_email"`
	VehicleMake         string          `gorm:"column:vehicle_make"`
	VehicleModel        string          `gorm:"column:vehicle_model"`
	VehicleYear         int             `gorm:"column:vehicle_year"`
	VehicleVIN          string          `gorm:"column:vehicle_vin"`
	VehicleOdometer     int             `gorm:"column:vehicle_odometer"`
	VehicleTrim         string          `gorm:"column:vehicle_trim"`
	ActivityType        string          `gorm:"column:activity_type;type:varchar(32)"`
	ActivityDescription string          `gorm:"column:activity_description"`
	RepairTypes         pq.StringArray  `gorm:"column:repair_types;type:text[]"`
	PaintCodes          []byte          `gorm:"column:paint_codes;type:text"`
	QuoteSubtotal       decimal.Decimal `gorm:"column:quote_subtotal;type:numeric(14,2)"`
	QuoteTax            decimal.Decimal `gorm:"column:quote_tax;type:numeric(14,2)"`
	QuoteTotal          decimal.Decimal `gorm:"column:quote_total;type:numeric(14,2)"`
	Referral            []byte          `gorm:"column:referral;type:text"`
	ConsultantApproval  []byte          `gorm:"column:consultant_approval;type:text"`
	SupplierApproval    []byte          `gorm:"column:supplier_approval;type:text"`
	Version             int64           `gorm:"column:version;not null"`
	CreatedAt           time.Time       `gorm:"column:created_at;index"`
	UpdatedAt           time.Time       `gorm:"column:updated_at"`
}

func (workOrderRecord) TableName() string { return "work_orders" }

// Line items live in their own table, ordered by position within an order.
type workOrderItemRecord struct {
	ID          int64           `gorm:"primaryKey;column:id;autoIncrement"`
	WorkOrderID string          `gorm:"column:work_order_id;size:64;index:idx_work_order_items_order_pos"`
	Position    int             `gorm:"column:position;index:idx_work_order_items_order_pos"`
	Kind        string          `gorm:"column:kind;type:varchar(16)"`
	WorkType    string          `gorm:"column:work_type"`
	Description string          `gorm:"column:description"`
	Quantity    int             `gorm:"column:quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2)"`
}

func (workOrderItemRecord) TableName() string { return "work_order_items" }
