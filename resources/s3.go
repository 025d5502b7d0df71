package resources

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Client is the subset of the S3 API used to fetch corpora. *s3.S3
// satisfies it.
type S3Client interface {
	GetObject(*s3.GetObjectInput) (*s3.GetObjectOutput, error)
	ListObjectsV2(*s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error)
}

// NewS3Client creates an S3 client for the given region using the default
// credential chain.
func NewS3Client(region string) (S3Client, error) {
	if region == "" {
		region = "us-east-1"
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}
	return s3.New(sess), nil
}

func IsS3Uri(uri string) bool {
	return strings.HasPrefix(uri, "s3://")
}

// ParseS3Uri splits `s3://bucket/prefix` into bucket and prefix.
func ParseS3Uri(uri string) (bucket string, prefix string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", errors.New(fmt.Sprintf("invalid S3 URI: %s", uri))
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// ListS3Objects
// Lists every key under prefix, following continuation tokens.
func ListS3Objects(svc S3Client, bucket string, prefix string) ([]string,
	error) {
	keys := make([]string, 0)
	var continuation *string
	for {
		output, err := svc.ListObjectsV2(&s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, err
		}
		for _, obj := range output.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
		if output.IsTruncated == nil || !*output.IsTruncated ||
			output.NextContinuationToken == nil {
			break
		}
		continuation = output.NextContinuationToken
	}
	return keys, nil
}

// FetchS3Object returns the contents of one object.
func FetchS3Object(svc S3Client, bucket string, key string) ([]byte, error) {
	output, err := svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New(fmt.Sprintf("cannot retrieve s3://%s/%s: %s",
			bucket, key, err))
	}
	defer output.Body.Close()
	var size uint
	if output.ContentLength != nil {
		size = uint(*output.ContentLength)
	}
	buf := bytes.NewBuffer(make([]byte, 0, size))
	if _, ioErr := io.Copy(buf, output.Body); ioErr != nil {
		return nil, ioErr
	}
	return buf.Bytes(), nil
}

// FetchS3Corpus
// Concatenates every `.txt` object under prefix, in key order.
func FetchS3Corpus(svc S3Client, bucket string, prefix string) ([]byte,
	error) {
	keys, err := ListS3Objects(svc, bucket, prefix)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(keys))
	for _, key := range keys {
		if strings.HasSuffix(key, ".txt") {
			texts = append(texts, key)
		}
	}
	if len(texts) == 0 {
		return nil, errors.New(fmt.Sprintf(
			"s3://%s/%s does not contain any .txt objects", bucket, prefix))
	}
	sort.Strings(texts)
	corpus := make([]byte, 0)
	for _, key := range texts {
		data, fetchErr := FetchS3Object(svc, bucket, key)
		if fetchErr != nil {
			return nil, fetchErr
		}
		corpus = append(corpus, data...)
	}
	return corpus, nil
}
