package infra

import (
	"encoding/json"
	"fmt"
)

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Sid       string            `json:"Sid"`
	Effect    string            `json:"Effect"`
	Principal map[string]string `json:"Principal"`
	Action    string            `json:"Action"`
	Resource  string            `json:"Resource"`
}

// readPolicy grants s3:GetObject on every object of bucket to the origin
// access identity with the given canonical user id, and to nobody else.
func readPolicy(bucket, canonicalUserID string) (string, error) {
	doc := policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Sid:       "AllowCloudFrontRead",
			Effect:    "Allow",
			Principal: map[string]string{"CanonicalUser": canonicalUserID},
			Action:    "s3:GetObject",
			Resource:  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
		}},
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal bucket policy: %w", err)
	}
	return string(b), nil
}
