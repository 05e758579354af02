// Package paramstore reads SSM Parameter Store values: the jobs API token
// and the per-kind feature flags.
package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

var ErrNotFound = errors.New("paramstore: parameter not found")

// parameterAPI is the slice of *ssm.Client used here.
type parameterAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type Client struct {
	api parameterAPI
}

func New(api parameterAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

// Lookup returns the decrypted value of name. A missing parameter is
// reported as found=false with a nil error.
func (c *Client) Lookup(ctx context.Context, name string) (string, bool, error) {
	if c == nil || c.api == nil {
		return "", false, errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false, errors.New("paramstore: name is required")
	}

	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	var notFound *types.ParameterNotFound
	switch {
	case errors.As(err, &notFound):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("paramstore: get %q: %w", name, err)
	case out == nil || out.Parameter == nil || out.Parameter.Value == nil:
		return "", false, fmt.Errorf("paramstore: %q has no value", name)
	}
	return aws.ToString(out.Parameter.Value), true, nil
}

// GetParameter is Lookup for parameters that must exist; absence yields an
// error wrapping ErrNotFound.
func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	v, found, err := c.Lookup(ctx, name)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w: %q", ErrNotFound, strings.TrimSpace(name))
	}
	return v, nil
}
