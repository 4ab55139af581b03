// Package service exposes the compiler over gRPC. The service is described
// by an embedded .proto file parsed at start-up; requests and responses are
// handled as dynamic messages.
package service

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/funvibe/jackc/internal/build"
	"github.com/funvibe/jackc/internal/diagnostics"
)

//go:embed compile.proto
var compileProto string

const (
	protoFile     = "jackc/v1/compile.proto"
	ServiceName   = "jackc.v1.Compiler"
	compileMethod = "Compile"
)

var loadSchema = sync.OnceValues(func() (*desc.ServiceDescriptor, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{protoFile: compileProto}),
	}
	fds, err := parser.ParseFiles(protoFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proto: %w", err)
	}
	sd := fds[0].FindService(ServiceName)
	if sd == nil {
		return nil, fmt.Errorf("service %s not found in %s", ServiceName, protoFile)
	}
	return sd, nil
})

// Schema returns the descriptor of the service definition.
func Schema() (*descriptorpb.FileDescriptorProto, error) {
	sd, err := loadSchema()
	if err != nil {
		return nil, err
	}
	return sd.GetFile().AsFileDescriptorProto(), nil
}

// Server compiles requests with a template builder. Each request gets its
// own copy, so requests never share a program.
type Server struct {
	builder build.Builder
	sd      *desc.ServiceDescriptor
	log     *log.Logger
}

func NewServer(b build.Builder) (*Server, error) {
	sd, err := loadSchema()
	if err != nil {
		return nil, err
	}
	return &Server{builder: b, sd: sd, log: b.Log}, nil
}

// Register adds the service to s.
func (srv *Server) Register(s *grpc.Server) {
	sdesc := &grpc.ServiceDesc{
		ServiceName: srv.sd.GetFullyQualifiedName(),
		HandlerType: (*interface{})(nil),
		Methods:     []grpc.MethodDesc{},
		Streams:     []grpc.StreamDesc{},
		Metadata:    srv.sd.GetFile().GetName(),
	}

	for _, method := range srv.sd.GetMethods() {
		if method.IsClientStreaming() || method.IsServerStreaming() {
			continue
		}
		md := method
		sdesc.Methods = append(sdesc.Methods, grpc.MethodDesc{
			MethodName: md.GetName(),
			Handler: func(impl interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				h := impl.(*Server)
				in := dynamic.NewMessage(md.GetInputType())
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return h.handleUnary(ctx, md, in)
				}
				info := &grpc.UnaryServerInfo{
					Server:     h,
					FullMethod: "/" + srv.sd.GetFullyQualifiedName() + "/" + md.GetName(),
				}
				return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
					return h.handleUnary(ctx, md, req.(*dynamic.Message))
				})
			},
		})
	}

	s.RegisterService(sdesc, srv)
}

func (srv *Server) handleUnary(ctx context.Context, md *desc.MethodDescriptor, in *dynamic.Message) (interface{}, error) {
	if md.GetName() != compileMethod {
		return nil, status.Errorf(codes.Unimplemented, "method %s not implemented", md.GetName())
	}
	req, err := requestFromMessage(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	resp, err := srv.Compile(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := responseToMessage(md.GetOutputType(), resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// Compile compiles the request's units into one program. Compilation
// failures are reported as diagnostics; only malformed requests and
// cancellation are errors.
func (srv *Server) Compile(ctx context.Context, req CompileRequest) (*CompileResponse, error) {
	if len(req.Units) == 0 {
		return nil, status.Error(codes.InvalidArgument, "no units to compile")
	}

	b := srv.builder
	if req.NoBootstrap {
		b.Options.Bootstrap = false
	}

	sources := make([]build.Source, len(req.Units))
	for i, u := range req.Units {
		name := u.Name
		if name == "" {
			name = fmt.Sprintf("unit%d", i)
		}
		sources[i] = build.Source{Path: name, Text: u.Source}
	}

	var buf bytes.Buffer
	report, err := b.Compile(ctx, sources, &buf)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, status.FromContextError(err).Err()
	}

	resp := &CompileResponse{BuildID: report.ID, Classes: report.Classes()}
	if err != nil {
		for _, e := range diagnostics.Flatten(err) {
			d := diagnostics.FromError("", e)
			resp.Diagnostics = append(resp.Diagnostics, Diagnostic{
				Unit:    d.Path,
				Code:    string(d.Code),
				Line:    d.Line,
				Column:  d.Column,
				Message: d.Message,
			})
		}
		if srv.log != nil {
			srv.log.Printf("build %s: %d diagnostics", report.ID, len(resp.Diagnostics))
		}
		return resp, nil
	}

	resp.Code = buf.String()
	if srv.log != nil {
		srv.log.Printf("build %s: %d classes", report.ID, len(resp.Classes))
	}
	return resp, nil
}

// Client calls a remote compile service.
type Client struct {
	conn grpc.ClientConnInterface
	md   *desc.MethodDescriptor
}

func NewClient(conn grpc.ClientConnInterface) (*Client, error) {
	sd, err := loadSchema()
	if err != nil {
		return nil, err
	}
	md := sd.FindMethodByName(compileMethod)
	if md == nil {
		return nil, fmt.Errorf("method %s not found in %s", compileMethod, ServiceName)
	}
	return &Client{conn: conn, md: md}, nil
}

func (c *Client) Compile(ctx context.Context, req CompileRequest, opts ...grpc.CallOption) (*CompileResponse, error) {
	in, err := requestToMessage(c.md.GetInputType(), req)
	if err != nil {
		return nil, err
	}
	out := dynamic.NewMessage(c.md.GetOutputType())
	method := "/" + ServiceName + "/" + compileMethod
	if err := c.conn.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return responseFromMessage(out)
}
