package main

import (
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestExitCodeMapsStatusCodes(t *testing.T) {
	cases := []struct {
		code codes.Code
		want int
	}{
		{codes.InvalidArgument, 2},
		{codes.NotFound, 2},
		{codes.Unimplemented, 3},
		{codes.FailedPrecondition, 4},
		{codes.Internal, 1},
		{codes.OK, 1},
	}

	for _, c := range cases {
		err := status.Error(c.code, "boom")
		if got := exitCode(err); got != c.want {
			t.Errorf("exitCode(%v) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestNewRootCommandRequiresFlags(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error when required flags are missing")
	}
}
