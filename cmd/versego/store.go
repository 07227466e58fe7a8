package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/hupe1980/versego/blobstore"
	"github.com/hupe1980/versego/blobstore/minio"
	s3store "github.com/hupe1980/versego/blobstore/s3"
)

// openStore resolves a store URI:
//
//	/data or file:///data
//	s3://bucket/prefix?region=eu-central-1&ddb-table=versego-commits
//	minio://host:9000/bucket/prefix?secure=true
//
// MinIO credentials come from the URI user info or MINIO_ACCESS_KEY and
// MINIO_SECRET_KEY.
func openStore(ctx context.Context, uri string) (blobstore.BlobStore, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid store uri %q: %w", uri, err)
	}

	q := u.Query()
	switch u.Scheme {
	case "":
		return blobstore.NewLocalStore(uri), nil
	case "file":
		return blobstore.NewLocalStore(filepath.FromSlash(u.Path)), nil
	case "s3":
		prefix := strings.Trim(u.Path, "/")
		region := q.Get("region")

		st, err := s3store.New(ctx, u.Host, s3store.WithPrefix(prefix), s3store.WithRegion(region))
		if err != nil {
			return nil, err
		}

		table := q.Get("ddb-table")
		if table == "" {
			return st, nil
		}

		var optFns []func(*config.LoadOptions) error
		if region != "" {
			optFns = append(optFns, config.WithRegion(region))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, optFns...)
		if err != nil {
			return nil, err
		}
		return s3store.NewDDBCommitStore(st, dynamodb.NewFromConfig(awsCfg), table, "s3://"+u.Host+"/"+prefix), nil
	case "minio":
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if bucket == "" {
			return nil, fmt.Errorf("invalid store uri %q: missing bucket", uri)
		}

		cfg := minio.Config{
			Endpoint:  u.Host,
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Secure:    q.Get("secure") == "true",
			Region:    q.Get("region"),
		}
		if u.User != nil {
			cfg.AccessKey = u.User.Username()
			if pw, ok := u.User.Password(); ok {
				cfg.SecretKey = pw
			}
		}
		return minio.Connect(ctx, cfg, bucket, prefix)
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}

// splitBlobURI splits a blob URI into its store URI and the blob name.
// The query string stays with the store.
func splitBlobURI(uri string) (store, name string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob uri %q: %w", uri, err)
	}

	if u.Scheme == "" {
		dir, base := filepath.Split(uri)
		if base == "" {
			return "", "", fmt.Errorf("invalid blob uri %q: missing name", uri)
		}
		if dir == "" {
			dir = "."
		}
		return dir, base, nil
	}

	dir, base := path.Split(u.Path)
	if base == "" {
		return "", "", fmt.Errorf("invalid blob uri %q: missing name", uri)
	}
	u.Path = dir
	return u.String(), base, nil
}
