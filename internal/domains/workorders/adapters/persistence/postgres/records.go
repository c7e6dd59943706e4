package postgres

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	"github.com/Apurer/go-gin-workorders/internal/shared/projection"
)

// workOrderRecord maps the work order aggregate to the work_orders table.
type workOrderRecord struct {
	ID                  string              `gorm:"primaryKey;column:id;size:64"`
	Status              string              `gorm:"column:status;type:varchar(32);index"`
	CreatedBy           string              `gorm:"column:created_by"`
	AcceptedBy          string              `gorm:"column:accepted_by;index"`
	CustomerName        string              `gorm:"column:customer_name"`
	CustomerPhone       string              `gorm:"column:customer_phone"`
	CustomerEmail       string              `gorm:"column:customer_email"`
	VehicleMake         string              `gorm:"column:vehicle_make"`
	VehicleModel        string              `gorm:"column:vehicle_model"`
	VehicleYear         int                 `gorm:"column:vehicle_year"`
	VehicleVIN          string              `gorm:"column:vehicle_vin"`
	VehicleOdometer     int                 `gorm:"column:vehicle_odometer"`
	VehicleTrim         string              `gorm:"column:vehicle_trim"`
	ActivityType        string              `gorm:"column:activity_type;type:varchar(32)"`
	ActivityDescription string              `gorm:"column:activity_description"`
	RepairTypes         pq.StringArray      `gorm:"column:repair_types;type:text[]"`
	PaintCodes          []paintCodeDocument `gorm:"column:paint_codes;serializer:json"`
	QuoteSubtotal       decimal.Decimal     `gorm:"column:quote_subtotal;type:numeric(14,2)"`
	QuoteTax            decimal.Decimal     `gorm:"column:quote_tax;type:numeric(14,2)"`
	QuoteTotal          decimal.Decimal     `gorm:"column:quote_total;type:numeric(14,2)"`
	Referral            *referralDocument   `gorm:"column:referral;serializer:json"`
	ConsultantApproval  *approvalDocument   `gorm:"column:consultant_approval;serializer:json"`
	SupplierApproval    *approvalDocument   `gorm:"column:supplier_approval;serializer:json"`
	Version             int64               `gorm:"column:version;not null"`
	CreatedAt           time.Time           `gorm:"column:created_at;index;autoCreateTime:false"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (workOrderRecord) TableName() string { return "work_orders" }

// workOrderItemRecord keeps line items in insertion order via Position.
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

type paintCodeDocument struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
	TriStage bool   `json:"triStage"`
}

type referralDocument struct {
	SupplyItem      string    `json:"supplyItem"`
	ItemDescription string    `json:"itemDescription,omitempty"`
	RequestedBy     string    `json:"requestedBy"`
	RequestedAt     time.Time `json:"requestedAt"`
}

type approvalDocument struct {
	Identity   string    `json:"identity"`
	ApprovedAt time.Time `json:"approvedAt"`
}

func toRecord(order *domain.WorkOrder, meta projection.Metadata) workOrderRecord {
	rec := workOrderRecord{
		ID:                  order.ID,
		Status:              string(order.Status),
		CreatedBy:           order.CreatedBy,
		AcceptedBy:          order.AcceptedBy,
		CustomerName:        order.Customer.Name,
		CustomerPhone:       order.Customer.Phone,
		CustomerEmail:       order.Customer.Email,
		VehicleMake:         order.Vehicle.Make,
		VehicleModel:        order.Vehicle.Model,
		VehicleYear:         order.Vehicle.Year,
		VehicleVIN:          order.Vehicle.VIN,
		VehicleOdometer:     order.Vehicle.Odometer,
		VehicleTrim:         order.Vehicle.Trim,
		ActivityType:        string(order.Activity.Type),
		ActivityDescription: order.Activity.Description,
		RepairTypes:         pq.StringArray(append([]string{}, order.Activity.RepairTypes...)),
		QuoteSubtotal:       order.Quote.Subtotal,
		QuoteTax:            order.Quote.Tax,
		QuoteTotal:          order.Quote.Total,
		Version:             meta.Version,
		CreatedAt:           meta.CreatedAt,
		UpdatedAt:           meta.UpdatedAt,
	}
	rec.PaintCodes = make([]paintCodeDocument, 0, len(order.PaintCodes))
	for _, pc := range order.PaintCodes {
		rec.PaintCodes = append(rec.PaintCodes, paintCodeDocument{Code: pc.Code, Quantity: pc.Quantity, TriStage: pc.TriStage})
	}
	if ref := order.Referral; ref != nil {
		rec.Referral = &referralDocument{
			SupplyItem:      ref.SupplyItem,
			ItemDescription: ref.ItemDescription,
			RequestedBy:     ref.RequestedBy,
			RequestedAt:     ref.RequestedAt,
		}
	}
	rec.ConsultantApproval = toApprovalDocument(order.ConsultantApproval)
	rec.SupplierApproval = toApprovalDocument(order.SupplierApproval)
	return rec
}

func toItemRecords(order *domain.WorkOrder) []workOrderItemRecord {
	items := make([]workOrderItemRecord, 0, len(order.Items))
	for i, item := range order.Items {
		items = append(items, workOrderItemRecord{
			WorkOrderID: order.ID,
			Position:    i,
			Kind:        string(item.Kind),
			WorkType:    item.WorkType,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return items
}

func (r workOrderRecord) toProjection(items []workOrderItemRecord) *projection.Projection[*domain.WorkOrder] {
	order := &domain.WorkOrder{
		ID:         r.ID,
		Status:     domain.Status(r.Status),
		CreatedBy:  r.CreatedBy,
		AcceptedBy: r.AcceptedBy,
		Customer: domain.Customer{
			Name:  r.CustomerName,
			Phone: r.CustomerPhone,
			Email: r.CustomerEmail,
		},
		Vehicle: domain.Vehicle{
			Make:     r.VehicleMake,
			Model:    r.VehicleModel,
			Year:     r.VehicleYear,
			VIN:      r.VehicleVIN,
			Odometer: r.VehicleOdometer,
			Trim:     r.VehicleTrim,
		},
		Activity: domain.Activity{
			Type:        domain.ActivityType(r.ActivityType),
			Description: r.ActivityDescription,
		},
		Quote: domain.Quote{
			Subtotal: r.QuoteSubtotal,
			Tax:      r.QuoteTax,
			Total:    r.QuoteTotal,
		},
		ConsultantApproval: r.ConsultantApproval.toDomain(),
		SupplierApproval:   r.SupplierApproval.toDomain(),
	}
	if len(r.RepairTypes) > 0 {
		order.Activity.RepairTypes = append([]string{}, r.RepairTypes...)
	}
	for _, item := range items {
		order.Items = append(order.Items, domain.LineItem{
			Kind:        domain.ItemKind(item.Kind),
			WorkType:    item.WorkType,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	for _, pc := range r.PaintCodes {
		order.PaintCodes = append(order.PaintCodes, domain.PaintCode{Code: pc.Code, Quantity: pc.Quantity, TriStage: pc.TriStage})
	}
	if r.Referral != nil {
		order.Referral = &domain.Referral{
			SupplyItem:      r.Referral.SupplyItem,
			ItemDescription: r.Referral.ItemDescription,
			RequestedBy:     r.Referral.RequestedBy,
			RequestedAt:     r.Referral.RequestedAt,
		}
	}
	return &projection.Projection[*domain.WorkOrder]{
		Entity: order,
		Metadata: projection.Metadata{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
			Version:   r.Version,
		},
	}
}

func toApprovalDocument(a *domain.Approval) *approvalDocument {
	if a == nil {
		return nil
	}
	return &approvalDocument{Identity: a.Identity, ApprovedAt: a.ApprovedAt}
}

func (d *approvalDocument) toDomain() *domain.Approval {
	if d == nil {
		return nil
	}
	return &domain.Approval{Identity: d.Identity, ApprovedAt: d.ApprovedAt}
}
