package mcp

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"

	"github.com/kadirpekel/toolrt/pkg/pipeline"
)

func TestTranslateStatus_Table(t *testing.T) {
	cases := []struct {
		code  codes.Code
		token string
	}{
		{codes.NotFound, "resource_not_found"},
		{codes.InvalidArgument, "invalid_params"},
		{codes.PermissionDenied, "invalid_request"},
		{codes.Unauthenticated, "invalid_request"},
		{codes.Internal, "internal_error"},
		{codes.Unknown, "internal_error"},
	}
	for _, c := range cases {
		st := &pipeline.Status{Code: c.code, Message: "boom"}
		err := translateStatus(st)
		var pe *protocolError
		if !errors.As(err, &pe) {
			t.Fatalf("expected *protocolError, got %T", err)
		}
		if pe.token != c.token {
			t.Errorf("code %v: token = %q, want %q", c.code, pe.token, c.token)
		}
	}
}

func TestTranslateStatus_NonStatusError(t *testing.T) {
	err := translateStatus(errors.New("plain error"))
	var pe *protocolError
	if !errors.As(err, &pe) || pe.token != "internal_error" {
		t.Errorf("expected internal_error protocolError for a non-Status error, got %v", err)
	}
}

func TestInvalidParams(t *testing.T) {
	err := invalidParams("bad: %s", "reason")
	var pe *protocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *protocolError, got %T", err)
	}
	if pe.token != "invalid_params" || pe.message != "bad: reason" {
		t.Errorf("unexpected protocolError: %+v", pe)
	}
}
