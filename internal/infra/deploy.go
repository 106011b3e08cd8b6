package infra

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/filedrop/internal/filex"
	"golang.org/x/sync/errgroup"
)

// deleteBatch is the DeleteObjects per-request key limit.
const deleteBatch = 1000

// DeployResult summarises one deployment of the source directory.
type DeployResult struct {
	Uploaded int
	Bytes    int64
	Deleted  int
}

type localFile struct {
	path string
	key  string
	size int64
}

// collectFiles lists the regular files under root with their object keys
// (slash-separated paths relative to root), sorted by key.
func collectFiles(root string) ([]localFile, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("deployment source: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("deployment source %s is not a directory", root)
	}

	var files []localFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, localFile{path: path, key: filepath.ToSlash(rel), size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].key < files[j].key })
	return files, nil
}

// deploy uploads every file of the source directory to the bucket and, when
// pruning is on, deletes objects that no longer exist locally.
func (p *Provisioner) deploy(ctx context.Context, bucket string, d Deployment) (DeployResult, error) {
	files, err := collectFiles(d.Source)
	if err != nil {
		return DeployResult{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.Concurrency)

	var res DeployResult
	keep := make(map[string]struct{}, len(files))
	for _, f := range files {
		keep[f.key] = struct{}{}
		res.Uploaded++
		res.Bytes += f.size

		g.Go(func() error {
			return p.putFile(gctx, bucket, f, d.CacheControl)
		})
	}
	if err := g.Wait(); err != nil {
		return DeployResult{}, err
	}

	if d.ShouldPrune() {
		n, err := p.prune(ctx, bucket, keep)
		if err != nil {
			return res, err
		}
		res.Deleted = n
	}

	return res, nil
}

func (p *Provisioner) putFile(ctx context.Context, bucket string, f localFile, cacheControl string) error {
	ct, err := filex.ContentType(f.path)
	if err != nil {
		ct = filex.DefaultContentType
	}

	r, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	defer r.Close()

	in := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(f.key),
		Body:          r,
		ContentType:   aws.String(ct),
		ContentLength: aws.Int64(f.size),
	}
	if cacheControl != "" {
		in.CacheControl = aws.String(cacheControl)
	}

	if _, err := p.s3.PutObject(ctx, in); err != nil {
		return fmt.Errorf("put %s: %w", f.key, err)
	}
	p.log.Debug(ctx, "object uploaded", "key", f.key, "content_type", ct, "size", f.size)
	return nil
}

// prune deletes every object in bucket whose key is not in keep.
func (p *Provisioner) prune(ctx context.Context, bucket string, keep map[string]struct{}) (int, error) {
	var stale []s3types.ObjectIdentifier

	pager := s3.NewListObjectsV2Paginator(p.s3, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("list objects: %w", err)
		}
		for _, o := range page.Contents {
			key := aws.ToString(o.Key)
			if _, ok := keep[key]; !ok {
				stale = append(stale, s3types.ObjectIdentifier{Key: aws.String(key)})
			}
		}
	}

	deleted := 0
	for start := 0; start < len(stale); start += deleteBatch {
		end := min(start+deleteBatch, len(stale))
		out, err := p.s3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &s3types.Delete{Objects: stale[start:end], Quiet: aws.Bool(true)},
		})
		if err != nil {
			return deleted, fmt.Errorf("delete objects: %w", err)
		}
		if len(out.Errors) > 0 {
			var errs []error
			for _, e := range out.Errors {
				errs = append(errs, fmt.Errorf("%s: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
			}
			return deleted, fmt.Errorf("delete objects: %w", errors.Join(errs...))
		}
		deleted += end - start
	}

	return deleted, nil
}
