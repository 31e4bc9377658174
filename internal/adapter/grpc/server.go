package grpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/taxline-backend/internal/domain"
	"github.com/simaogato/taxline-backend/internal/usecase/pricing"
)

// Server implements the LinePricingService gRPC server
type Server struct {
	PricingService *pricing.PricingService
}

var _ LinePricingServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(pricingService *pricing.PricingService) *Server {
	return &Server{PricingService: pricingService}
}

// QuoteLine handles the QuoteLine RPC
func (s *Server) QuoteLine(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := priceLineInputFromProto(req)
	if err != nil {
		return nil, mapError(err)
	}

	item, err := s.PricingService.Quote(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return lineItemToProto(item)
}

// PriceLine handles the PriceLine RPC
func (s *Server) PriceLine(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := priceLineInputFromProto(req)
	if err != nil {
		return nil, mapError(err)
	}

	item, err := s.PricingService.PriceLine(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return lineItemToProto(item)
}

// GetLineItem handles the GetLineItem RPC
func (s *Server) GetLineItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := uuid.Parse(stringField(req, "id"))
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid id format: %v", err)
	}

	item, err := s.PricingService.GetLineItem(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}

	return lineItemToProto(item)
}

// ListLineItems handles the ListLineItems RPC
func (s *Server) ListLineItems(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	items, err := s.PricingService.ListLineItems(ctx, stringField(req, "document_ref"))
	if err != nil {
		return nil, mapError(err)
	}

	protoItems := make([]interface{}, 0, len(items))
	for _, item := range items {
		protoItems = append(protoItems, lineItemToMap(item))
	}

	resp, err := structpb.NewStruct(map[string]interface{}{"line_items": protoItems})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return resp, nil
}

// ComposeTaxStack handles the ComposeTaxStack RPC
func (s *Server) ComposeTaxStack(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	stack, err := taxStackFromProto(req)
	if err != nil {
		return nil, mapError(err)
	}

	factor, err := s.PricingService.ComposeTaxStack(stack)
	if err != nil {
		return nil, mapError(err)
	}

	resp, err := structpb.NewStruct(map[string]interface{}{
		"factor":   factor.String(),
		"tax_mode": string(stack.Mode),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return resp, nil
}

// priceLineInputFromProto converts a request struct to a pricing input
// Decimal fields must be strings; JSON numbers would already be binary floats
func priceLineInputFromProto(req *structpb.Struct) (pricing.PriceLineInput, error) {
	quantity, err := domain.ParseDecimal("quantity", stringField(req, "quantity"))
	if err != nil {
		return pricing.PriceLineInput{}, err
	}

	price, err := domain.ParseDecimal("price_inclusive", stringField(req, "price_inclusive"))
	if err != nil {
		return pricing.PriceLineInput{}, err
	}

	basis, err := domain.ParsePriceBasis(stringField(req, "basis"))
	if err != nil {
		return pricing.PriceLineInput{}, err
	}

	stack, err := taxStackFromProto(req)
	if err != nil {
		return pricing.PriceLineInput{}, err
	}

	return pricing.PriceLineInput{
		DocumentRef:    stringField(req, "document_ref"),
		CurrencyCode:   stringField(req, "currency"),
		Quantity:       quantity,
		PriceInclusive: price,
		Basis:          basis,
		Taxes:          stack,
	}, nil
}

func taxStackFromProto(req *structpb.Struct) (domain.TaxStack, error) {
	mode, err := domain.ParseTaxMode(stringField(req, "tax_mode"))
	if err != nil {
		return domain.TaxStack{}, err
	}

	values := req.GetFields()["tax_rates"].GetListValue().GetValues()
	raw := make([]string, 0, len(values))
	for i, v := range values {
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return domain.TaxStack{}, fmt.Errorf("%w: tax_rates[%d] must be a string", domain.ErrMalformedInput, i)
		}
		raw = append(raw, sv.StringValue)
	}

	rates, err := domain.ParseDecimals("tax_rates", raw)
	if err != nil {
		return domain.TaxStack{}, err
	}

	return domain.TaxStack{Rates: rates, Mode: mode}, nil
}

func stringField(req *structpb.Struct, key string) string {
	return strings.TrimSpace(req.GetFields()[key].GetStringValue())
}

// lineItemToMap converts a domain line item to its wire representation
// Money values are rendered with exactly the currency precision
func lineItemToMap(item *domain.LineItem) map[string]interface{} {
	rates := make([]interface{}, 0, len(item.Taxes.Rates))
	for _, r := range item.Taxes.Strings() {
		rates = append(rates, r)
	}

	breakdown := make([]interface{}, 0, len(item.TaxBreakdown))
	for _, p := range item.TaxBreakdown {
		breakdown = append(breakdown, map[string]interface{}{
			"rate":   p.Rate.String(),
			"amount": p.Amount.StringFixed(item.Precision),
		})
	}

	return map[string]interface{}{
		"id":               item.ID.String(),
		"document_ref":     item.DocumentRef,
		"currency":         item.CurrencyCode,
		"precision":        int64(item.Precision),
		"quantity":         item.Quantity.String(),
		"price_inclusive":  item.PriceInclusive.StringFixed(item.Precision),
		"basis":            string(item.Basis),
		"tax_mode":         string(item.Taxes.Mode),
		"tax_rates":        rates,
		"factor":           item.Factor.String(),
		"net_rate":         item.NetRate.StringFixed(item.Precision),
		"net_amount":       item.NetAmount.StringFixed(item.Precision),
		"tax_amount":       item.TaxAmount.StringFixed(item.Precision),
		"tax_breakdown":    breakdown,
		"rounding_residue": item.RoundingResidue().StringFixed(item.Precision),
		"created_at":       item.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func lineItemToProto(item *domain.LineItem) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(lineItemToMap(item))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode line item: %v", err)
	}
	return resp, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	errorMsg := err.Error()

	switch {
	case errors.Is(err, domain.ErrCurrencyNotFound),
		errors.Is(err, domain.ErrLineItemNotFound):
		return status.Errorf(codes.NotFound, "%s", errorMsg)
	case errors.Is(err, domain.ErrInvalidTaxRate),
		errors.Is(err, domain.ErrInvalidTaxMode),
		errors.Is(err, domain.ErrInvalidTaxFactor),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPrecision),
		errors.Is(err, domain.ErrInvalidPriceBasis),
		errors.Is(err, domain.ErrMalformedInput):
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	}

	// Map remaining validation errors to InvalidArgument
	if strings.Contains(errorMsg, "must not be empty") {
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	}

	// Default to Internal error for unknown errors, reconciliation mismatches included
	return status.Errorf(codes.Internal, "%s", errorMsg)
}
