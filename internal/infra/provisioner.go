package infra

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/filedrop/internal/logging"
	"github.com/google/uuid"
)

// cachingOptimizedPolicyID is the AWS managed "CachingOptimized" cache policy.
const cachingOptimizedPolicyID = "658327ea-f89d-4fab-a63d-7e88639e58f6"

const originID = "website-bucket"

// ErrBucketNotOwned is returned when the bucket name is taken by another
// account.
var ErrBucketNotOwned = errors.New("bucket exists but is not owned by this account")

// Outputs are the values printed after a successful Apply.
type Outputs struct {
	BucketName             string `json:"WebsiteBucketName"`
	DistributionDomainName string `json:"CloudFrontURL"`
	DistributionID         string `json:"DistributionId"`
	InvalidationID         string `json:"InvalidationId,omitempty"`
}

type Provisioner struct {
	s3     S3API
	cf     CloudFrontAPI
	region string
	log    logging.Logger
	newRef func() string
}

func NewProvisioner(s3c S3API, cf CloudFrontAPI, region string, log logging.Logger) *Provisioner {
	return &Provisioner{
		s3:     s3c,
		cf:     cf,
		region: region,
		log:    log,
		newRef: uuid.NewString,
	}
}

type originAccessIdentity struct {
	id              string
	canonicalUserID string
}

// Apply brings the account in line with s: bucket, website hosting, origin
// access identity, bucket policy, distribution, deployment of the source
// directory and a cache invalidation. Bucket, identity and distribution are
// reused when they already exist; deployment and invalidation always run.
func (p *Provisioner) Apply(ctx context.Context, s *Stack) (Outputs, error) {
	bucket := s.Bucket.Name

	if err := p.ensureBucket(ctx, bucket); err != nil {
		return Outputs{}, err
	}

	if err := p.configureWebsite(ctx, s.Bucket); err != nil {
		return Outputs{}, err
	}

	oai, err := p.ensureOriginAccessIdentity(ctx, s.Distribution.Comment)
	if err != nil {
		return Outputs{}, err
	}

	policy, err := readPolicy(bucket, oai.canonicalUserID)
	if err != nil {
		return Outputs{}, err
	}
	if _, err := p.s3.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(bucket),
		Policy: aws.String(policy),
	}); err != nil {
		return Outputs{}, fmt.Errorf("put bucket policy: %w", err)
	}
	p.log.Info(ctx, "bucket policy applied", "bucket", bucket, "oai", oai.id)

	distID, domain, err := p.ensureDistribution(ctx, bucket, oai.id, s.Distribution)
	if err != nil {
		return Outputs{}, err
	}

	res, err := p.deploy(ctx, bucket, s.Deployment)
	if err != nil {
		return Outputs{}, fmt.Errorf("deploy: %w", err)
	}
	p.log.Info(ctx, "deployment finished", "source", s.Deployment.Source,
		"uploaded", res.Uploaded, "bytes", res.Bytes, "deleted", res.Deleted)

	invID, err := p.invalidate(ctx, distID, s.Distribution.InvalidationPaths)
	if err != nil {
		return Outputs{}, err
	}

	return Outputs{
		BucketName:             bucket,
		DistributionDomainName: domain,
		DistributionID:         distID,
		InvalidationID:         invID,
	}, nil
}

func (p *Provisioner) ensureBucket(ctx context.Context, bucket string) error {
	_, err := p.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		p.log.Info(ctx, "bucket exists", "bucket", bucket)
		return nil
	}

	var nf *s3types.NotFound
	switch code := errorCode(err); {
	case errors.As(err, &nf), code == "NotFound", code == "NoSuchBucket":
	case code == "Forbidden", code == "AccessDenied":
		return fmt.Errorf("head bucket %s: %w", bucket, ErrBucketNotOwned)
	default:
		return fmt.Errorf("head bucket %s: %w", bucket, err)
	}

	in := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	// us-east-1 rejects an explicit location constraint.
	if p.region != "" && p.region != "us-east-1" {
		in.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(p.region),
		}
	}

	if _, err := p.s3.CreateBucket(ctx, in); err != nil {
		var owned *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) || errorCode(err) == "BucketAlreadyOwnedByYou" {
			return nil
		}
		var exists *s3types.BucketAlreadyExists
		if errors.As(err, &exists) || errorCode(err) == "BucketAlreadyExists" {
			return fmt.Errorf("create bucket %s: %w", bucket, ErrBucketNotOwned)
		}
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}

	p.log.Info(ctx, "bucket created", "bucket", bucket, "region", p.region)
	return nil
}

func (p *Provisioner) configureWebsite(ctx context.Context, b Bucket) error {
	wc := &s3types.WebsiteConfiguration{
		IndexDocument: &s3types.IndexDocument{Suffix: aws.String(b.IndexDocument)},
	}
	if b.ErrorDocument != "" {
		wc.ErrorDocument = &s3types.ErrorDocument{Key: aws.String(b.ErrorDocument)}
	}

	if _, err := p.s3.PutBucketWebsite(ctx, &s3.PutBucketWebsiteInput{
		Bucket:               aws.String(b.Name),
		WebsiteConfiguration: wc,
	}); err != nil {
		return fmt.Errorf("put bucket website: %w", err)
	}
	p.log.Info(ctx, "website hosting configured", "bucket", b.Name, "index", b.IndexDocument)
	return nil
}

// ensureOriginAccessIdentity reuses the identity whose comment matches, or
// creates one.
func (p *Provisioner) ensureOriginAccessIdentity(ctx context.Context, comment string) (originAccessIdentity, error) {
	var marker *string
	for {
		out, err := p.cf.ListCloudFrontOriginAccessIdentities(ctx, &cloudfront.ListCloudFrontOriginAccessIdentitiesInput{Marker: marker})
		if err != nil {
			return originAccessIdentity{}, fmt.Errorf("list origin access identities: %w", err)
		}
		l := out.CloudFrontOriginAccessIdentityList
		if l == nil {
			break
		}
		for _, it := range l.Items {
			if aws.ToString(it.Comment) == comment {
				p.log.Info(ctx, "origin access identity exists", "id", aws.ToString(it.Id))
				return originAccessIdentity{id: aws.ToString(it.Id), canonicalUserID: aws.ToString(it.S3CanonicalUserId)}, nil
			}
		}
		if !aws.ToBool(l.IsTruncated) || l.NextMarker == nil {
			break
		}
		marker = l.NextMarker
	}

	out, err := p.cf.CreateCloudFrontOriginAccessIdentity(ctx, &cloudfront.CreateCloudFrontOriginAccessIdentityInput{
		CloudFrontOriginAccessIdentityConfig: &cftypes.CloudFrontOriginAccessIdentityConfig{
			CallerReference: aws.String(p.newRef()),
			Comment:         aws.String(comment),
		},
	})
	if err != nil {
		return originAccessIdentity{}, fmt.Errorf("create origin access identity: %w", err)
	}
	if out.CloudFrontOriginAccessIdentity == nil {
		return originAccessIdentity{}, errors.New("create origin access identity: empty response")
	}

	oai := originAccessIdentity{
		id:              aws.ToString(out.CloudFrontOriginAccessIdentity.Id),
		canonicalUserID: aws.ToString(out.CloudFrontOriginAccessIdentity.S3CanonicalUserId),
	}
	p.log.Info(ctx, "origin access identity created", "id", oai.id)
	return oai, nil
}

// ensureDistribution reuses the distribution whose comment matches, or
// creates one with the bucket as its only origin.
func (p *Provisioner) ensureDistribution(ctx context.Context, bucket, oaiID string, d Distribution) (string, string, error) {
	var marker *string
	for {
		out, err := p.cf.ListDistributions(ctx, &cloudfront.ListDistributionsInput{Marker: marker})
		if err != nil {
			return "", "", fmt.Errorf("list distributions: %w", err)
		}
		l := out.DistributionList
		if l == nil {
			break
		}
		for _, it := range l.Items {
			if aws.ToString(it.Comment) == d.Comment {
				p.log.Info(ctx, "distribution exists", "id", aws.ToString(it.Id))
				return aws.ToString(it.Id), aws.ToString(it.DomainName), nil
			}
		}
		if !aws.ToBool(l.IsTruncated) || l.NextMarker == nil {
			break
		}
		marker = l.NextMarker
	}

	out, err := p.cf.CreateDistribution(ctx, &cloudfront.CreateDistributionInput{
		DistributionConfig: distributionConfig(p.newRef(), bucket, p.region, oaiID, d),
	})
	if err != nil {
		return "", "", fmt.Errorf("create distribution: %w", err)
	}
	if out.Distribution == nil {
		return "", "", errors.New("create distribution: empty response")
	}

	id, domain := aws.ToString(out.Distribution.Id), aws.ToString(out.Distribution.DomainName)
	p.log.Info(ctx, "distribution created", "id", id, "domain", domain)
	return id, domain, nil
}

func distributionConfig(ref, bucket, region, oaiID string, d Distribution) *cftypes.DistributionConfig {
	return &cftypes.DistributionConfig{
		CallerReference:   aws.String(ref),
		Comment:           aws.String(d.Comment),
		Enabled:           aws.Bool(true),
		DefaultRootObject: aws.String(d.DefaultRootObject),
		PriceClass:        cftypes.PriceClass(d.PriceClass),
		Origins: &cftypes.Origins{
			Quantity: aws.Int32(1),
			Items: []cftypes.Origin{{
				Id:         aws.String(originID),
				DomainName: aws.String(bucketDomainName(bucket, region)),
				S3OriginConfig: &cftypes.S3OriginConfig{
					OriginAccessIdentity: aws.String("origin-access-identity/cloudfront/" + oaiID),
				},
			}},
		},
		DefaultCacheBehavior: &cftypes.DefaultCacheBehavior{
			TargetOriginId:       aws.String(originID),
			ViewerProtocolPolicy: cftypes.ViewerProtocolPolicy(d.ViewerProtocolPolicy),
			Compress:             aws.Bool(d.ShouldCompress()),
			CachePolicyId:        aws.String(cachingOptimizedPolicyID),
		},
	}
}

// bucketDomainName is the regional REST endpoint of bucket, which is what an
// origin access identity can read through.
func bucketDomainName(bucket, region string) string {
	if region == "" || region == "us-east-1" {
		return bucket + ".s3.amazonaws.com"
	}
	return fmt.Sprintf("%s.s3.%s.amazonaws.com", bucket, region)
}

func (p *Provisioner) invalidate(ctx context.Context, distID string, paths []string) (string, error) {
	out, err := p.cf.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(distID),
		InvalidationBatch: &cftypes.InvalidationBatch{
			CallerReference: aws.String(p.newRef()),
			Paths: &cftypes.Paths{
				Quantity: aws.Int32(int32(len(paths))),
				Items:    paths,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create invalidation: %w", err)
	}

	var id string
	if out.Invalidation != nil {
		id = aws.ToString(out.Invalidation.Id)
	}
	p.log.Info(ctx, "invalidation created", "distribution", distID, "id", id, "paths", paths)
	return id, nil
}
