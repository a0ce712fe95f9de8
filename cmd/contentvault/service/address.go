package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// AddressService derives storage paths and public delivery URLs from
// (ownerID, digest, extension). Addresses are pure functions of their
// inputs: no randomness, no timestamps.
type AddressService struct {
	cdnBase *url.URL
	prefix  string
}

// NewAddressService creates an address service for a CDN origin.
// cdnBase must be an absolute URL; prefix is the key prefix content
// objects live under, e.g. "services/content".
func NewAddressService(cdnBase, prefix string) (*AddressService, error) {
	base, err := url.Parse(strings.TrimSuffix(cdnBase, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid CDN base URL %q: %w", cdnBase, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("CDN base URL %q must be absolute", cdnBase)
	}

	return &AddressService{
		cdnBase: base,
		prefix:  strings.Trim(prefix, "/"),
	}, nil
}

// Prefix returns the content key prefix
func (s *AddressService) Prefix() string {
	return s.prefix
}

// NormalizeExtension strips leading separators and lowercases, so the
// path builder always emits exactly one dot
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(ext), "."))
}

// BuildPath derives the object store key for an address
func (s *AddressService) BuildPath(ownerID uuid.UUID, digest, extension string) string {
	return fmt.Sprintf("%s/%s/%s.%s", s.prefix, ownerID, digest, NormalizeExtension(extension))
}

// BuildURL derives the public delivery URL for an address
func (s *AddressService) BuildURL(ownerID uuid.UUID, digest, extension string) string {
	return s.cdnBase.String() + s.BuildPath(ownerID, digest, extension)
}

// Validate reports whether rawURL conforms to the delivery URL pattern:
// correct origin, correct prefix, exactly two path segments after the
// prefix, a UUID owner and a well-formed digest. Malformed input returns
// false, never an error.
func (s *AddressService) Validate(rawURL string) bool {
	_, _, _, err := s.ParseURL(rawURL)
	return err == nil
}

// ParseURL extracts (ownerID, digest, extension) from a delivery URL
func (s *AddressService) ParseURL(rawURL string) (uuid.UUID, string, string, error) {
	rel, err := s.relativePath(rawURL)
	if err != nil {
		return uuid.Nil, "", "", err
	}

	// Exactly two segments after the prefix: {ownerId}/{digest}.{ext}
	segments := strings.Split(rel, "/")
	if len(segments) != 2 {
		return uuid.Nil, "", "", fmt.Errorf("%w: expected two path segments after prefix, got %d", ErrValidation, len(segments))
	}

	ownerID, err := uuid.Parse(segments[0])
	if err != nil {
		return uuid.Nil, "", "", fmt.Errorf("%w: owner segment is not a UUID: %v", ErrValidation, err)
	}

	dot := strings.LastIndex(segments[1], ".")
	if dot <= 0 || dot == len(segments[1])-1 {
		return uuid.Nil, "", "", fmt.Errorf("%w: file segment must be {digest}.{ext}", ErrValidation)
	}

	digest := segments[1][:dot]
	extension := segments[1][dot+1:]
	if !IsValidDigest(digest) {
		return uuid.Nil, "", "", fmt.Errorf("%w: digest must be %d lowercase hex chars", ErrValidation, DigestLength)
	}

	return ownerID, digest, extension, nil
}

// PathFromURL maps a delivery URL back to its object store key. Unlike
// ParseURL it tolerates a malformed file segment, so retrieval can still
// reach the store for legacy keys; the origin and prefix must match.
func (s *AddressService) PathFromURL(rawURL string) (string, error) {
	rel, err := s.relativePath(rawURL)
	if err != nil {
		return "", err
	}
	return s.prefix + "/" + rel, nil
}

// relativePath validates the origin and prefix of rawURL and returns the
// path remainder after the prefix
func (s *AddressService) relativePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: malformed URL: %v", ErrValidation, err)
	}

	if u.Scheme != s.cdnBase.Scheme || u.Host != s.cdnBase.Host {
		return "", fmt.Errorf("%w: URL origin does not match CDN base", ErrValidation)
	}

	basePath := s.cdnBase.Path // always ends with "/"
	if !strings.HasPrefix(u.Path, basePath) {
		return "", fmt.Errorf("%w: URL path outside CDN base", ErrValidation)
	}

	rel := strings.TrimPrefix(u.Path, basePath)
	withPrefix := s.prefix + "/"
	if !strings.HasPrefix(rel, withPrefix) {
		return "", fmt.Errorf("%w: URL path outside content prefix", ErrValidation)
	}

	rel = strings.TrimPrefix(rel, withPrefix)
	if rel == "" {
		return "", fmt.Errorf("%w: URL path missing object segments", ErrValidation)
	}

	return rel, nil
}

// ParsePath extracts (ownerID, digest, extension) from an object store
// key, used by lifecycle scans walking the store
func (s *AddressService) ParsePath(key string) (uuid.UUID, string, string, error) {
	withPrefix := s.prefix + "/"
	if !strings.HasPrefix(key, withPrefix) {
		return uuid.Nil, "", "", fmt.Errorf("%w: key outside content prefix", ErrValidation)
	}

	segments := strings.Split(strings.TrimPrefix(key, withPrefix), "/")
	if len(segments) != 2 {
		return uuid.Nil, "", "", fmt.Errorf("%w: expected two key segments after prefix", ErrValidation)
	}

	ownerID, err := uuid.Parse(segments[0])
	if err != nil {
		return uuid.Nil, "", "", fmt.Errorf("%w: owner segment is not a UUID: %v", ErrValidation, err)
	}

	dot := strings.LastIndex(segments[1], ".")
	if dot <= 0 || dot == len(segments[1])-1 {
		return uuid.Nil, "", "", fmt.Errorf("%w: file segment must be {digest}.{ext}", ErrValidation)
	}

	digest := segments[1][:dot]
	if !IsValidDigest(digest) {
		return uuid.Nil, "", "", fmt.Errorf("%w: digest must be %d lowercase hex chars", ErrValidation, DigestLength)
	}

	return ownerID, digest, segments[1][dot+1:], nil
}
