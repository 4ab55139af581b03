package service

import (
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
)

// Unit is one class source sent for compilation.
type Unit struct {
	Name   string
	Source string
}

type CompileRequest struct {
	Units       []Unit
	NoBootstrap bool
}

type Diagnostic struct {
	Unit    string
	Code    string
	Line    int
	Column  int
	Message string
}

type CompileResponse struct {
	// Code is empty when any unit failed.
	Code        string
	Classes     []string
	Diagnostics []Diagnostic
	BuildID     string
}

// =============================================================================
// Dynamic message conversion
// =============================================================================

func stringField(msg *dynamic.Message, name string) (string, error) {
	v, err := msg.TryGetFieldByName(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %s: expected string, got %T", name, v)
	}
	return s, nil
}

func int32Field(msg *dynamic.Message, name string) (int, error) {
	v, err := msg.TryGetFieldByName(name)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int32)
	if !ok {
		return 0, fmt.Errorf("field %s: expected int32, got %T", name, v)
	}
	return int(n), nil
}

func repeatedField(msg *dynamic.Message, name string) ([]interface{}, error) {
	v, err := msg.TryGetFieldByName(name)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("field %s: expected repeated value, got %T", name, v)
	}
	return items, nil
}

// nestedMessage creates an empty message of the type of a message field.
func nestedMessage(parent *desc.MessageDescriptor, field string) (*dynamic.Message, error) {
	fd := parent.FindFieldByName(field)
	if fd == nil || fd.GetMessageType() == nil {
		return nil, fmt.Errorf("%s has no message field %s", parent.GetFullyQualifiedName(), field)
	}
	return dynamic.NewMessage(fd.GetMessageType()), nil
}

func requestToMessage(md *desc.MessageDescriptor, req CompileRequest) (*dynamic.Message, error) {
	msg := dynamic.NewMessage(md)
	for _, u := range req.Units {
		um, err := nestedMessage(md, "units")
		if err != nil {
			return nil, err
		}
		if err := um.TrySetFieldByName("name", u.Name); err != nil {
			return nil, err
		}
		if err := um.TrySetFieldByName("source", u.Source); err != nil {
			return nil, err
		}
		if err := msg.TryAddRepeatedFieldByName("units", um); err != nil {
			return nil, err
		}
	}
	if err := msg.TrySetFieldByName("no_bootstrap", req.NoBootstrap); err != nil {
		return nil, err
	}
	return msg, nil
}

func requestFromMessage(msg *dynamic.Message) (CompileRequest, error) {
	var req CompileRequest
	items, err := repeatedField(msg, "units")
	if err != nil {
		return req, err
	}
	for i, item := range items {
		um, ok := item.(*dynamic.Message)
		if !ok {
			return req, fmt.Errorf("units[%d]: unexpected %T", i, item)
		}
		var u Unit
		if u.Name, err = stringField(um, "name"); err != nil {
			return req, err
		}
		if u.Source, err = stringField(um, "source"); err != nil {
			return req, err
		}
		req.Units = append(req.Units, u)
	}

	v, err := msg.TryGetFieldByName("no_bootstrap")
	if err != nil {
		return req, err
	}
	req.NoBootstrap, _ = v.(bool)
	return req, nil
}

func responseToMessage(md *desc.MessageDescriptor, resp *CompileResponse) (*dynamic.Message, error) {
	msg := dynamic.NewMessage(md)
	if err := msg.TrySetFieldByName("code", resp.Code); err != nil {
		return nil, err
	}
	for _, class := range resp.Classes {
		if err := msg.TryAddRepeatedFieldByName("classes", class); err != nil {
			return nil, err
		}
	}
	for _, d := range resp.Diagnostics {
		dm, err := nestedMessage(md, "diagnostics")
		if err != nil {
			return nil, err
		}
		fields := []struct {
			name  string
			value interface{}
		}{
			{"unit", d.Unit},
			{"code", d.Code},
			{"line", int32(d.Line)},
			{"column", int32(d.Column)},
			{"message", d.Message},
		}
		for _, f := range fields {
			if err := dm.TrySetFieldByName(f.name, f.value); err != nil {
				return nil, err
			}
		}
		if err := msg.TryAddRepeatedFieldByName("diagnostics", dm); err != nil {
			return nil, err
		}
	}
	if err := msg.TrySetFieldByName("build_id", resp.BuildID); err != nil {
		return nil, err
	}
	return msg, nil
}

func responseFromMessage(msg *dynamic.Message) (*CompileResponse, error) {
	resp := &CompileResponse{}
	var err error
	if resp.Code, err = stringField(msg, "code"); err != nil {
		return nil, err
	}
	if resp.BuildID, err = stringField(msg, "build_id"); err != nil {
		return nil, err
	}

	classes, err := repeatedField(msg, "classes")
	if err != nil {
		return nil, err
	}
	for _, c := range classes {
		s, _ := c.(string)
		resp.Classes = append(resp.Classes, s)
	}

	diags, err := repeatedField(msg, "diagnostics")
	if err != nil {
		return nil, err
	}
	for i, item := range diags {
		dm, ok := item.(*dynamic.Message)
		if !ok {
			return nil, fmt.Errorf("diagnostics[%d]: unexpected %T", i, item)
		}
		var d Diagnostic
		if d.Unit, err = stringField(dm, "unit"); err != nil {
			return nil, err
		}
		if d.Code, err = stringField(dm, "code"); err != nil {
			return nil, err
		}
		if d.Line, err = int32Field(dm, "line"); err != nil {
			return nil, err
		}
		if d.Column, err = int32Field(dm, "column"); err != nil {
			return nil, err
		}
		if d.Message, err = stringField(dm, "message"); err != nil {
			return nil, err
		}
		resp.Diagnostics = append(resp.Diagnostics, d)
	}
	return resp, nil
}
