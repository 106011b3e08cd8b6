package infra

import (
	"context"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// callLog records the order of calls across both fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) without(name string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, c := range l.calls {
		if c != name {
			out = append(out, c)
		}
	}
	return out
}

type object struct {
	body         string
	contentType  string
	cacheControl string
	size         int64
}

type fakeS3 struct {
	log *callLog

	mu        sync.Mutex
	headErr   error
	createIn  *s3.CreateBucketInput
	createErr error
	website   *s3.PutBucketWebsiteInput
	policy    string
	putErr    error
	objects   map[string]object
	pageSize  int
	deleted   []string
	delErrs   []s3types.Error
}

func newFakeS3(log *callLog) *fakeS3 {
	return &fakeS3{log: log, objects: map[string]object{}}
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.log.add("HeadBucket")
	return &s3.HeadBucketOutput{}, f.headErr
}

func (f *fakeS3) CreateBucket(ctx context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.log.add("CreateBucket")
	f.createIn = in
	return &s3.CreateBucketOutput{}, f.createErr
}

func (f *fakeS3) PutBucketWebsite(ctx context.Context, in *s3.PutBucketWebsiteInput, _ ...func(*s3.Options)) (*s3.PutBucketWebsiteOutput, error) {
	f.log.add("PutBucketWebsite")
	f.website = in
	return &s3.PutBucketWebsiteOutput{}, nil
}

func (f *fakeS3) PutBucketPolicy(ctx context.Context, in *s3.PutBucketPolicyInput, _ ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error) {
	f.log.add("PutBucketPolicy")
	f.policy = aws.ToString(in.Policy)
	return &s3.PutBucketPolicyOutput{}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.log.add("PutObject")
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = object{
		body:         string(b),
		contentType:  aws.ToString(in.ContentType),
		cacheControl: aws.ToString(in.CacheControl),
		size:         aws.ToInt64(in.ContentLength),
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.log.add("ListObjectsV2")

	f.mu.Lock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	f.mu.Unlock()
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		start, _ = strconv.Atoi(*in.ContinuationToken)
	}
	end := len(keys)
	if f.pageSize > 0 && start+f.pageSize < end {
		end = start + f.pageSize
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (f *fakeS3) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.log.add("DeleteObjects")
	if len(f.delErrs) > 0 {
		return &s3.DeleteObjectsOutput{Errors: f.delErrs}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range in.Delete.Objects {
		k := aws.ToString(o.Key)
		delete(f.objects, k)
		f.deleted = append(f.deleted, k)
	}
	return &s3.DeleteObjectsOutput{}, nil
}

type fakeCF struct {
	log *callLog

	oaiPages   [][]cftypes.CloudFrontOriginAccessIdentitySummary
	distPages  [][]cftypes.DistributionSummary
	oaiIn      *cloudfront.CreateCloudFrontOriginAccessIdentityInput
	distIn     *cloudfront.CreateDistributionInput
	invIn      []*cloudfront.CreateInvalidationInput
	createErr  error
	invErr     error
	oaiMarkers []string
}

func (f *fakeCF) ListCloudFrontOriginAccessIdentities(ctx context.Context, in *cloudfront.ListCloudFrontOriginAccessIdentitiesInput, _ ...func(*cloudfront.Options)) (*cloudfront.ListCloudFrontOriginAccessIdentitiesOutput, error) {
	f.log.add("ListOriginAccessIdentities")
	page := 0
	if in.Marker != nil {
		f.oaiMarkers = append(f.oaiMarkers, *in.Marker)
		page, _ = strconv.Atoi(*in.Marker)
	}
	l := &cftypes.CloudFrontOriginAccessIdentityList{IsTruncated: aws.Bool(false)}
	if page < len(f.oaiPages) {
		l.Items = f.oaiPages[page]
	}
	if page+1 < len(f.oaiPages) {
		l.IsTruncated = aws.Bool(true)
		l.NextMarker = aws.String(strconv.Itoa(page + 1))
	}
	return &cloudfront.ListCloudFrontOriginAccessIdentitiesOutput{CloudFrontOriginAccessIdentityList: l}, nil
}

func (f *fakeCF) CreateCloudFrontOriginAccessIdentity(ctx context.Context, in *cloudfront.CreateCloudFrontOriginAccessIdentityInput, _ ...func(*cloudfront.Options)) (*cloudfront.CreateCloudFrontOriginAccessIdentityOutput, error) {
	f.log.add("CreateOriginAccessIdentity")
	f.oaiIn = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &cloudfront.CreateCloudFrontOriginAccessIdentityOutput{
		CloudFrontOriginAccessIdentity: &cftypes.CloudFrontOriginAccessIdentity{
			Id:                aws.String("E2OAI"),
			S3CanonicalUserId: aws.String("canon-123"),
		},
	}, nil
}

func (f *fakeCF) ListDistributions(ctx context.Context, in *cloudfront.ListDistributionsInput, _ ...func(*cloudfront.Options)) (*cloudfront.ListDistributionsOutput, error) {
	f.log.add("ListDistributions")
	page := 0
	if in.Marker != nil {
		page, _ = strconv.Atoi(*in.Marker)
	}
	l := &cftypes.DistributionList{IsTruncated: aws.Bool(false)}
	if page < len(f.distPages) {
		l.Items = f.distPages[page]
	}
	if page+1 < len(f.distPages) {
		l.IsTruncated = aws.Bool(true)
		l.NextMarker = aws.String(strconv.Itoa(page + 1))
	}
	return &cloudfront.ListDistributionsOutput{DistributionList: l}, nil
}

func (f *fakeCF) CreateDistribution(ctx context.Context, in *cloudfront.CreateDistributionInput, _ ...func(*cloudfront.Options)) (*cloudfront.CreateDistributionOutput, error) {
	f.log.add("CreateDistribution")
	f.distIn = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &cloudfront.CreateDistributionOutput{
		Distribution: &cftypes.Distribution{
			Id:         aws.String("EDIST1"),
			DomainName: aws.String("d111.cloudfront.net"),
		},
	}, nil
}

func (f *fakeCF) CreateInvalidation(ctx context.Context, in *cloudfront.CreateInvalidationInput, _ ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error) {
	f.log.add("CreateInvalidation")
	f.invIn = append(f.invIn, in)
	if f.invErr != nil {
		return nil, f.invErr
	}
	return &cloudfront.CreateInvalidationOutput{
		Invalidation: &cftypes.Invalidation{Id: aws.String("INV" + strconv.Itoa(len(f.invIn)))},
	}, nil
}
