package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/stallpass/internal/logging"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	s := NewGRPCServer("", logging.Nop{})
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Service/Method"}

	resp, err := s.loggingInterceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp)

	want := status.Error(codes.NotFound, "nope")
	_, err = s.loggingInterceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, want
	})
	assert.True(t, errors.Is(err, want))
}
