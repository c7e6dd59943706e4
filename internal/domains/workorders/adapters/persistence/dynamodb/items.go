package dynamodb

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	"github.com/Apurer/go-gin-workorders/internal/shared/projection"
)

// workOrderItem is the single-item document stored per work order. Money is kept
// as decimal strings and times as RFC 3339 strings.
type workOrderItem struct {
	ID                  string              `dynamodbav:"id"`
	Status              string              `dynamodbav:"status"`
	CreatedBy           string              `dynamodbav:"created_by"`
	AcceptedBy          string              `dynamodbav:"accepted_by,omitempty"`
	CustomerName        string              `dynamodbav:"customer_name"`
	CustomerPhone       string              `dynamodbav:"customer_phone"`
	CustomerEmail       string              `dynamodbav:"customer_email,omitempty"`
	VehicleMake         string              `dynamodbav:"vehicle_make"`
	VehicleModel        string              `dynamodbav:"vehicle_model"`
	VehicleYear         int                 `dynamodbav:"vehicle_year"`
	VehicleVIN          string              `dynamodbav:"vehicle_vin,omitempty"`
	VehicleOdometer     int                 `dynamodbav:"vehicle_odometer"`
	VehicleTrim         string              `dynamodbav:"vehicle_trim,omitempty"`
	ActivityType        string              `dynamodbav:"activity_type,omitempty"`
	ActivityDescription string              `dynamodbav:"activity_description,omitempty"`
	RepairTypes         []string            `dynamodbav:"repair_types,omitempty"`
	Items               []lineItemDocument  `dynamodbav:"items"`
	PaintCodes          []paintCodeDocument `dynamodbav:"paint_codes"`
	QuoteSubtotal       string              `dynamodbav:"quote_subtotal"`
	QuoteTax            string              `dynamodbav:"quote_tax"`
	QuoteTotal          string              `dynamodbav:"quote_total"`
	Referral            *referralDocument   `dynamodbav:"referral,omitempty"`
	ConsultantApproval  *approvalDocument   `dynamodbav:"consultant_approval,omitempty"`
	SupplierApproval    *approvalDocument   `dynamodbav:"supplier_approval,omitempty"`
	Version             int64               `dynamodbav:"version"`
	CreatedAt           string              `dynamodbav:"created_at"`
	UpdatedAt           string              `dynamodbav:"updated_at"`
}

type lineItemDocument struct {
	Kind        string `dynamodbav:"kind"`
	WorkType    string `dynamodbav:"work_type,omitempty"`
	Description string `dynamodbav:"description"`
	Quantity    int    `dynamodbav:"quantity"`
	UnitPrice   string `dynamodbav:"unit_price"`
}

type paintCodeDocument struct {
	Code     string `dynamodbav:"code"`
	Quantity int    `dynamodbav:"quantity"`
	TriStage bool   `dynamodbav:"tri_stage"`
}

type referralDocument struct {
	SupplyItem      string `dynamodbav:"supply_item"`
	ItemDescription string `dynamodbav:"item_description,omitempty"`
	RequestedBy     string `dynamodbav:"requested_by"`
	RequestedAt     string `dynamodbav:"requested_at"`
}

type approvalDocument struct {
	Identity   string `dynamodbav:"identity"`
	ApprovedAt string `dynamodbav:"approved_at"`
}

func toItem(order *domain.WorkOrder, meta projection.Metadata) workOrderItem {
	it := workOrderItem{
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
		RepairTypes:         append([]string(nil), order.Activity.RepairTypes...),
		Items:               make([]lineItemDocument, 0, len(order.Items)),
		PaintCodes:          make([]paintCodeDocument, 0, len(order.PaintCodes)),
		QuoteSubtotal:       order.Quote.Subtotal.StringFixed(2),
		QuoteTax:            order.Quote.Tax.StringFixed(2),
		QuoteTotal:          order.Quote.Total.StringFixed(2),
		Version:             meta.Version,
		CreatedAt:           formatTime(meta.CreatedAt),
		UpdatedAt:           formatTime(meta.UpdatedAt),
	}
	for _, item := range order.Items {
		it.Items = append(it.Items, lineItemDocument{
			Kind:        string(item.Kind),
			WorkType:    item.WorkType,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
		})
	}
	for _, pc := range order.PaintCodes {
		it.PaintCodes = append(it.PaintCodes, paintCodeDocument{Code: pc.Code, Quantity: pc.Quantity, TriStage: pc.TriStage})
	}
	if ref := order.Referral; ref != nil {
		it.Referral = &referralDocument{
			SupplyItem:      ref.SupplyItem,
			ItemDescription: ref.ItemDescription,
			RequestedBy:     ref.RequestedBy,
			RequestedAt:     formatTime(ref.RequestedAt),
		}
	}
	it.ConsultantApproval = toApprovalDocument(order.ConsultantApproval)
	it.SupplierApproval = toApprovalDocument(order.SupplierApproval)
	return it
}

func (it workOrderItem) toProjection() (*projection.Projection[*domain.WorkOrder], error) {
	subtotal, err := decimal.NewFromString(it.QuoteSubtotal)
	if err != nil {
		return nil, err
	}
	tax, err := decimal.NewFromString(it.QuoteTax)
	if err != nil {
		return nil, err
	}
	total, err := decimal.NewFromString(it.QuoteTotal)
	if err != nil {
		return nil, err
	}
	order := &domain.WorkOrder{
		ID:         it.ID,
		Status:     domain.Status(it.Status),
		CreatedBy:  it.CreatedBy,
		AcceptedBy: it.AcceptedBy,
		Customer:   domain.Customer{Name: it.CustomerName, Phone: it.CustomerPhone, Email: it.CustomerEmail},
		Vehicle: domain.Vehicle{
			Make:     it.VehicleMake,
			Model:    it.VehicleModel,
			Year:     it.VehicleYear,
			VIN:      it.VehicleVIN,
			Odometer: it.VehicleOdometer,
			Trim:     it.VehicleTrim,
		},
		Activity: domain.Activity{
			Type:        domain.ActivityType(it.ActivityType),
			Description: it.ActivityDescription,
		},
		Quote:              domain.Quote{Subtotal: subtotal, Tax: tax, Total: total},
		ConsultantApproval: it.ConsultantApproval.toDomain(),
		SupplierApproval:   it.SupplierApproval.toDomain(),
	}
	if len(it.RepairTypes) > 0 {
		order.Activity.RepairTypes = append([]string{}, it.RepairTypes...)
	}
	for _, doc := range it.Items {
		price, err := decimal.NewFromString(doc.UnitPrice)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, domain.LineItem{
			Kind:        domain.ItemKind(doc.Kind),
			WorkType:    doc.WorkType,
			Description: doc.Description,
			Quantity:    doc.Quantity,
			UnitPrice:   price,
		})
	}
	for _, pc := range it.PaintCodes {
		order.PaintCodes = append(order.PaintCodes, domain.PaintCode{Code: pc.Code, Quantity: pc.Quantity, TriStage: pc.TriStage})
	}
	if it.Referral != nil {
		order.Referral = &domain.Referral{
			SupplyItem:      it.Referral.SupplyItem,
			ItemDescription: it.Referral.ItemDescription,
			RequestedBy:     it.Referral.RequestedBy,
			RequestedAt:     parseTime(it.Referral.RequestedAt),
		}
	}
	return &projection.Projection[*domain.WorkOrder]{
		Entity: order,
		Metadata: projection.Metadata{
			CreatedAt: parseTime(it.CreatedAt),
			UpdatedAt: parseTime(it.UpdatedAt),
			Version:   it.Version,
		},
	}, nil
}

func toApprovalDocument(a *domain.Approval) *approvalDocument {
	if a == nil {
		return nil
	}
	return &approvalDocument{Identity: a.Identity, ApprovedAt: formatTime(a.ApprovedAt)}
}

func (d *approvalDocument) toDomain() *domain.Approval {
	if d == nil {
		return nil
	}
	return &domain.Approval{Identity: d.Identity, ApprovedAt: parseTime(d.ApprovedAt)}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, raw)
	return t
}
