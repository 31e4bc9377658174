package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "taxline.v1.LinePricingService"

// LinePricingServiceServer is the server API for the line pricing service.
// Messages are google.protobuf.Struct; decimal fields travel as strings.
type LinePricingServiceServer interface {
	QuoteLine(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PriceLine(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetLineItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListLineItems(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ComposeTaxStack(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(LinePricingServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// LinePricingServiceDesc describes the service for grpc.Server.RegisterService
var LinePricingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LinePricingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc("QuoteLine", LinePricingServiceServer.QuoteLine),
		methodDesc("PriceLine", LinePricingServiceServer.PriceLine),
		methodDesc("GetLineItem", LinePricingServiceServer.GetLineItem),
		methodDesc("ListLineItems", LinePricingServiceServer.ListLineItems),
		methodDesc("ComposeTaxStack", LinePricingServiceServer.ComposeTaxStack),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taxline/v1/line_pricing.proto",
}

// RegisterLinePricingServiceServer registers srv on s
func RegisterLinePricingServiceServer(s grpc.ServiceRegistrar, srv LinePricingServiceServer) {
	s.RegisterService(&LinePricingServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func methodDesc(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LinePricingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(LinePricingServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// LinePricingClient is a thin client for LinePricingServiceDesc
type LinePricingClient struct {
	cc grpc.ClientConnInterface
}

// NewLinePricingClient creates a client over an established connection
func NewLinePricingClient(cc grpc.ClientConnInterface) *LinePricingClient {
	return &LinePricingClient{cc: cc}
}

func (c *LinePricingClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// QuoteLine prices a line without storing it
func (c *LinePricingClient) QuoteLine(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "QuoteLine", in, opts...)
}

// PriceLine prices and stores a line
func (c *LinePricingClient) PriceLine(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "PriceLine", in, opts...)
}

// GetLineItem fetches a stored line
func (c *LinePricingClient) GetLineItem(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetLineItem", in, opts...)
}

// ListLineItems lists the stored lines of a document
func (c *LinePricingClient) ListLineItems(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListLineItems", in, opts...)
}

// ComposeTaxStack returns the inclusion factor of a tax stack
func (c *LinePricingClient) ComposeTaxStack(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ComposeTaxStack", in, opts...)
}
