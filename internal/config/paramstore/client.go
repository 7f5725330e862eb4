// Package paramstore 从 AWS Systems Manager Parameter Store 读取机器人密钥。
package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI 是这里用到的 *ssm.Client 方法子集。
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter 按名称获取一个解密后的参数。
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client 封装 SSM API 用于读取参数。
type Client struct {
	api ssmAPI
}

// New 基于给定的 SSM API 实现创建 Client。
func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

// GetParameter 返回参数 name 解密后的值。
func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("paramstore: parameter %q missing value", name)
	}
	return *out.Parameter.Value, nil
}

// ResolveSecret 优先返回 direct，否则读取参数 param。
// 两者都为空时返回空密钥，本地运行示例时允许这样配置。
func ResolveSecret(ctx context.Context, g Getter, direct, param string) (string, error) {
	if direct != "" || param == "" {
		return direct, nil
	}
	if g == nil {
		return "", errors.New("paramstore: no getter for parameter " + param)
	}
	return g.GetParameter(ctx, param)
}

// NewFromDefaultConfig 使用默认 AWS 凭证链创建 Client。
func NewFromDefaultConfig(ctx context.Context) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("paramstore: load aws config: %w", err)
	}
	return New(ssm.NewFromConfig(cfg))
}
