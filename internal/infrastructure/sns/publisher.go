package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-todo-nosql/internal/config"
	awsinfra "github.com/go-todo-nosql/internal/infrastructure/aws"
)

// RecipientAttribute is the message attribute subscribers filter and route on.
const RecipientAttribute = "recipient"

type publishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher hands outbound email to an SNS topic; a subscribed relay delivers it.
type Publisher struct {
	client   publishAPI
	topicARN string
}

func NewPublisher(ctx context.Context, cfg *config.Config) (*Publisher, error) {
	awsCfg, err := awsinfra.LoadConfig(ctx, cfg, cfg.SNSRegion)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if cfg.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		}
	})
	return &Publisher{client: client, topicARN: cfg.SNSTopicARN}, nil
}

func (p *Publisher) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(htmlBody),
		MessageAttributes: map[string]types.MessageAttributeValue{
			RecipientAttribute: {DataType: aws.String("String"), StringValue: aws.String(to)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish email: %w", err)
	}
	return nil
}
