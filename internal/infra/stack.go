package infra

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidStack is wrapped by every validation failure returned from
// ParseStack and LoadStack.
var ErrInvalidStack = errors.New("invalid stack")

const (
	defaultIndexDocument   = "index.html"
	defaultSource          = "dist"
	defaultConcurrency     = 8
	defaultViewerPolicy    = "redirect-to-https"
	defaultPriceClass      = "PriceClass_All"
	defaultInvalidatePaths = "/*"
)

var bucketNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// Stack is the declarative description of the static website: one bucket,
// one distribution in front of it and the directory deployed into it.
type Stack struct {
	Name         string       `yaml:"name"`
	Bucket       Bucket       `yaml:"bucket"`
	Deployment   Deployment   `yaml:"deployment"`
	Distribution Distribution `yaml:"distribution"`
}

type Bucket struct {
	Name          string `yaml:"name"`
	IndexDocument string `yaml:"index_document"`
	ErrorDocument string `yaml:"error_document"`
}

type Deployment struct {
	Source       string `yaml:"source"`
	Prune        *bool  `yaml:"prune"`
	CacheControl string `yaml:"cache_control"`
	Concurrency  int    `yaml:"concurrency"`
}

type Distribution struct {
	Comment              string   `yaml:"comment"`
	DefaultRootObject    string   `yaml:"default_root_object"`
	Compress             *bool    `yaml:"compress"`
	ViewerProtocolPolicy string   `yaml:"viewer_protocol_policy"`
	PriceClass           string   `yaml:"price_class"`
	InvalidationPaths    []string `yaml:"invalidation_paths"`
}

// ShouldPrune reports whether objects missing from the source are removed
// from the bucket. Defaults to true.
func (d Deployment) ShouldPrune() bool {
	return d.Prune == nil || *d.Prune
}

// ShouldCompress defaults to true.
func (d Distribution) ShouldCompress() bool {
	return d.Compress == nil || *d.Compress
}

// LoadStack reads and parses the stack file at path.
func LoadStack(path string) (*Stack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stack: %w", err)
	}
	defer f.Close()

	return ParseStack(f)
}

// ParseStack decodes a YAML stack, fills in defaults and validates it.
// Unknown keys are rejected.
func ParseStack(r io.Reader) (*Stack, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stack: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Stack
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidStack)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidStack, err)
	}

	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Stack) applyDefaults() {
	if s.Bucket.IndexDocument == "" {
		s.Bucket.IndexDocument = defaultIndexDocument
	}
	if s.Deployment.Source == "" {
		s.Deployment.Source = defaultSource
	}
	if s.Deployment.Concurrency <= 0 {
		s.Deployment.Concurrency = defaultConcurrency
	}
	if s.Distribution.Comment == "" {
		s.Distribution.Comment = s.Name
	}
	if s.Distribution.DefaultRootObject == "" {
		s.Distribution.DefaultRootObject = s.Bucket.IndexDocument
	}
	if s.Distribution.ViewerProtocolPolicy == "" {
		s.Distribution.ViewerProtocolPolicy = defaultViewerPolicy
	}
	if s.Distribution.PriceClass == "" {
		s.Distribution.PriceClass = defaultPriceClass
	}
	if len(s.Distribution.InvalidationPaths) == 0 {
		s.Distribution.InvalidationPaths = []string{defaultInvalidatePaths}
	}
}

// Validate checks the fields the provisioner relies on.
func (s *Stack) Validate() error {
	var errs []error

	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if !bucketNameRe.MatchString(s.Bucket.Name) || strings.Contains(s.Bucket.Name, "..") {
		errs = append(errs, fmt.Errorf("bucket.name %q is not a valid bucket name", s.Bucket.Name))
	}
	if strings.Contains(s.Bucket.IndexDocument, "/") {
		errs = append(errs, fmt.Errorf("bucket.index_document %q must not contain a slash", s.Bucket.IndexDocument))
	}
	switch s.Distribution.ViewerProtocolPolicy {
	case "allow-all", "https-only", "redirect-to-https":
	default:
		errs = append(errs, fmt.Errorf("distribution.viewer_protocol_policy %q is not supported", s.Distribution.ViewerProtocolPolicy))
	}
	switch s.Distribution.PriceClass {
	case "PriceClass_100", "PriceClass_200", "PriceClass_All":
	default:
		errs = append(errs, fmt.Errorf("distribution.price_class %q is not supported", s.Distribution.PriceClass))
	}
	for _, p := range s.Distribution.InvalidationPaths {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, fmt.Errorf("invalidation path %q must start with /", p))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidStack, errors.Join(errs...))
	}
	return nil
}
