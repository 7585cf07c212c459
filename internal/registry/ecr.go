package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecrpublic"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/log"
)

var ecrPublicKeys = []string{"aws_access_key_id", "aws_secret_access_key", "region_name"}

// loadAWSConfig builds an AWS config from static credentials. Connector
// calls are single-shot, so SDK retries are disabled.
func loadAWSConfig(ctx context.Context, settings Settings) (aws.Config, error) {
	creds := settings.Credentials
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(creds["region_name"]),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			creds["aws_access_key_id"], creds["aws_secret_access_key"], "")),
		awsconfig.WithRetryMaxAttempts(1),
		awsconfig.WithHTTPClient(settings.httpClient()),
	)
}

// PrivateECR lists tags of a private Amazon ECR repository.
type PrivateECR struct {
	client    *ecr.Client
	accountID string
}

// NewPrivateECR creates a private ECR connector. It requires static AWS
// credentials, a region and the registry account id.
func NewPrivateECR(ctx context.Context, settings Settings) (*PrivateECR, error) {
	if err := settings.require(domain.RegistryAWSPrivateECR, append(ecrPublicKeys, "account_id")...); err != nil {
		return nil, err
	}
	cfg, err := loadAWSConfig(ctx, settings)
	if err != nil {
		return nil, &domain.ConfigurationError{Component: component(domain.RegistryAWSPrivateECR), Reason: err.Error()}
	}
	client := ecr.NewFromConfig(cfg, func(o *ecr.Options) {
		if settings.URL != "" {
			o.BaseEndpoint = aws.String(baseURL(settings.URL, ""))
		}
	})
	return &PrivateECR{client: client, accountID: settings.Credentials["account_id"]}, nil
}

var _ Connector = (*PrivateECR)(nil)

// GetTags pages through DescribeImages, newest push first.
func (c *PrivateECR) GetTags(ctx context.Context, image string) ([]string, error) {
	paginator := ecr.NewDescribeImagesPaginator(c.client, &ecr.DescribeImagesInput{
		RepositoryName: aws.String(image),
		RegistryId:     aws.String(c.accountID),
	})

	var groups []timedTags
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, noImage(domain.RegistryAWSPrivateECR, image, fmt.Errorf("describe images: %w", err))
		}
		for _, detail := range page.ImageDetails {
			groups = append(groups, timedTags{tags: detail.ImageTags, at: pushedAt(detail.ImagePushedAt)})
		}
	}

	log.Debug(log.CatRegistry, "private ecr tags", "image", image, "account_id", c.accountID, "images", len(groups))
	return flattenByTimeDesc(groups), nil
}

// PublicECR lists tags of an Amazon ECR Public repository.
type PublicECR struct {
	client *ecrpublic.Client
}

// NewPublicECR creates a public ECR connector. It requires static AWS
// credentials and a region.
func NewPublicECR(ctx context.Context, settings Settings) (*PublicECR, error) {
	if err := settings.require(domain.RegistryAWSPublicECR, ecrPublicKeys...); err != nil {
		return nil, err
	}
	cfg, err := loadAWSConfig(ctx, settings)
	if err != nil {
		return nil, &domain.ConfigurationError{Component: component(domain.RegistryAWSPublicECR), Reason: err.Error()}
	}
	client := ecrpublic.NewFromConfig(cfg, func(o *ecrpublic.Options) {
		if settings.URL != "" {
			o.BaseEndpoint = aws.String(baseURL(settings.URL, ""))
		}
	})
	return &PublicECR{client: client}, nil
}

var _ Connector = (*PublicECR)(nil)

// GetTags pages through DescribeImages, newest push first.
func (c *PublicECR) GetTags(ctx context.Context, image string) ([]string, error) {
	paginator := ecrpublic.NewDescribeImagesPaginator(c.client, &ecrpublic.DescribeImagesInput{
		RepositoryName: aws.String(image),
	})

	var groups []timedTags
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, noImage(domain.RegistryAWSPublicECR, image, fmt.Errorf("describe images: %w", err))
		}
		for _, detail := range page.ImageDetails {
			groups = append(groups, timedTags{tags: detail.ImageTags, at: pushedAt(detail.ImagePushedAt)})
		}
	}

	log.Debug(log.CatRegistry, "public ecr tags", "image", image, "images", len(groups))
	return flattenByTimeDesc(groups), nil
}

func pushedAt(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
