package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient lets tests script Generate behavior.
type fakeClient struct {
	model    string
	generate func(ctx context.Context, req Request) (Response, error)
}

func (f *fakeClient) Generate(ctx context.Context, req Request) (Response, error) {
	return f.generate(ctx, req)
}

func (f *fakeClient) ModelName() string {
	return f.model
}

func namedMiddleware(name string, order *[]string) Middleware {
	return func(next Client) Client {
		return WrapClient(
			func(ctx context.Context, req Request) (Response, error) {
				*order = append(*order, name)
				return next.Generate(ctx, req)
			},
			next.ModelName,
		)
	}
}

func TestChainAppliesMiddlewareInOrder(t *testing.T) {
	var order []string
	base := &fakeClient{
		model: "base-model",
		generate: func(_ context.Context, _ Request) (Response, error) {
			order = append(order, "base")
			return Response{Text: "ok"}, nil
		},
	}

	client := Chain(base, namedMiddleware("outer", &order), namedMiddleware("inner", &order))
	resp, err := client.Generate(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, []string{"outer", "inner", "base"}, order)
	assert.Equal(t, "base-model", client.ModelName())
}

func TestChainWithoutMiddlewareReturnsBase(t *testing.T) {
	base := &fakeClient{model: "m"}
	assert.Equal(t, Client(base), Chain(base))
}
