package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
)

// BedrockConfig configures BedrockService. Static credentials are used when
// both keys are set, the default AWS chain otherwise.
type BedrockConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// Temperature is sent when non-zero.
	Temperature float32
}

type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockService completes prompts with the Bedrock Converse API.
type BedrockService struct {
	client      converseAPI
	temperature float32
}

// NewBedrockService loads AWS configuration and returns a Converse service.
func NewBedrockService(ctx context.Context, cfg BedrockConfig) (*BedrockService, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, NewProviderError(ProviderBedrock, "", err)
	}
	return &BedrockService{client: bedrockruntime.NewFromConfig(awsCfg), temperature: cfg.Temperature}, nil
}

// Complete sends prompt as a single user message and joins the reply's text blocks.
func (s *BedrockService) Complete(ctx context.Context, model, prompt string) (string, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(model),
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
		}},
	}
	if s.temperature != 0 {
		input.InferenceConfig = &types.InferenceConfiguration{Temperature: aws.Float32(s.temperature)}
	}

	out, err := s.client.Converse(ctx, input)
	if err != nil {
		return "", wrapBedrockError(err, model)
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", &ProviderError{
			Reason:   FailoverServerError,
			Provider: ProviderBedrock,
			Model:    model,
			Message:  "response has no message",
		}
	}

	var b strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			b.WriteString(text.Value)
		}
	}
	return b.String(), nil
}

func wrapBedrockError(err error, model string) error {
	providerErr := NewProviderError(ProviderBedrock, model, err)

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		providerErr = providerErr.WithStatus(respErr.HTTPStatusCode())
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		providerErr.Message = apiErr.ErrorMessage()
		providerErr = providerErr.WithCode(apiErr.ErrorCode())
	}
	return providerErr
}
