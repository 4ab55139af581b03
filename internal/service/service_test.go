package service

import (
	"context"
	"net"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/funvibe/jackc/internal/build"
	"github.com/funvibe/jackc/internal/compiler"
)

// startServer serves the compile service over an in-memory listener and
// returns a connected client.
func startServer(t *testing.T) *Client {
	t.Helper()

	srv, err := NewServer(build.Builder{Options: compiler.DefaultOptions(), Policy: build.PolicyContinue})
	if err != nil {
		t.Fatal(err)
	}
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	srv.Register(s)
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	client, err := NewClient(conn)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

const mainClass = `class Main {
  function void main() {
    do Output.printString("hi");
    return;
  }
}`

func TestCompile_RoundTrip(t *testing.T) {
	client := startServer(t)

	resp, err := client.Compile(context.Background(), CompileRequest{
		Units: []Unit{{Name: "Main.jack", Source: mainClass}},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"push constant 256",
		"call Sys.init 0",
		"function Main.main 0",
		"push constant 2",
		"call String.new 1",
		"push constant 104",
		"call String.appendChar 2",
		"push constant 105",
		"call String.appendChar 2",
		"call Output.printString 1",
		"pop temp 0",
		"push constant 0",
		"return",
	}, "\n") + "\n"
	if resp.Code != want {
		t.Errorf("code mismatch\ngot:\n%s\nwant:\n%s", resp.Code, want)
	}
	if len(resp.Classes) != 1 || resp.Classes[0] != "Main" {
		t.Errorf("classes = %v", resp.Classes)
	}
	if resp.BuildID == "" || len(resp.Diagnostics) != 0 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestCompile_NoBootstrap(t *testing.T) {
	client := startServer(t)

	resp, err := client.Compile(context.Background(), CompileRequest{
		Units:       []Unit{{Name: "Main.jack", Source: mainClass}},
		NoBootstrap: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.Code, "function Main.main 0\n") {
		t.Errorf("unexpected code:\n%s", resp.Code)
	}
}

func TestCompile_Diagnostics(t *testing.T) {
	client := startServer(t)

	resp, err := client.Compile(context.Background(), CompileRequest{
		Units: []Unit{
			{Name: "A.jack", Source: "class A { function void f() { let x = 1; return; } }"},
			{Name: "Main.jack", Source: mainClass},
			{Name: "B.jack", Source: "class B { ~ }"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Code != "" {
		t.Errorf("no code expected when a unit fails, got:\n%s", resp.Code)
	}
	if len(resp.Diagnostics) != 2 {
		t.Fatalf("diagnostics = %+v", resp.Diagnostics)
	}

	a, b := resp.Diagnostics[0], resp.Diagnostics[1]
	if a.Unit != "A.jack" || a.Code != "S001" || a.Line != 1 || a.Column != 35 {
		t.Errorf("first diagnostic = %+v", a)
	}
	if b.Unit != "B.jack" || b.Code != "P001" || b.Column != 11 {
		t.Errorf("second diagnostic = %+v", b)
	}
	if len(resp.Classes) != 1 || resp.Classes[0] != "Main" {
		t.Errorf("classes = %v", resp.Classes)
	}
}

func TestCompile_NoUnits(t *testing.T) {
	client := startServer(t)

	_, err := client.Compile(context.Background(), CompileRequest{})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("err = %v, want InvalidArgument", err)
	}
}

func TestSchema(t *testing.T) {
	fd, err := Schema()
	if err != nil {
		t.Fatal(err)
	}
	if fd.GetPackage() != "jackc.v1" || len(fd.GetService()) != 1 {
		t.Fatalf("schema = %v", fd)
	}
	if got := fd.GetService()[0].GetMethod()[0].GetName(); got != "Compile" {
		t.Errorf("method = %q", got)
	}

	for _, m := range fd.GetMessageType() {
		if m.GetName() != "Diagnostic" {
			continue
		}
		for _, f := range m.GetField() {
			if f.GetName() == "line" && f.GetType() != descriptorpb.FieldDescriptorProto_TYPE_INT32 {
				t.Errorf("line has type %v", f.GetType())
			}
		}
		return
	}
	t.Error("Diagnostic message not found")
}
