package photo

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var extensions = map[string]string{
	"image/jpeg":  "jpeg",
	"image/jpg":   "jpg",
	"image/pjpeg": "jpeg",
	"image/png":   "png",
}

// Service uploads case photos and builds their public URLs.
type Service struct {
	store       Store
	baseURL     string
	now         func() time.Time
	idGenerator func() string
}

// NewService builds a Service serving objects under baseURL + "/photos/".
func NewService(store Store, baseURL string) *Service {
	return &Service{
		store:       store,
		baseURL:     strings.TrimRight(baseURL, "/"),
		now:         time.Now,
		idGenerator: func() string { return uuid.NewString() },
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

// Accepts reports whether contentType is an accepted image type.
func (s *Service) Accepts(contentType string) bool {
	_, ok := Extension(contentType)
	return ok
}

// Upload stores data under a generated name and returns its public URL.
func (s *Service) Upload(ctx context.Context, category, contentType string, data []byte) (string, error) {
	ext, ok := Extension(contentType)
	if !ok {
		return "", ErrUnsupportedType
	}
	now := s.now().UTC()
	obj := Object{
		Name:        ObjectName(category, ext, now, s.idGenerator()),
		ContentType: normalizeType(contentType),
		Data:        data,
		CreatedAt:   now,
	}
	if err := s.store.Put(ctx, obj); err != nil {
		return "", fmt.Errorf("photo: upload: %w", err)
	}
	return s.URL(obj.Name), nil
}

// Get fetches a stored object.
func (s *Service) Get(ctx context.Context, name string) (Object, error) {
	if err := ValidateName(name); err != nil {
		return Object{}, err
	}
	return s.store.Get(ctx, name)
}

// Remove deletes the object behind a URL returned by Upload.
func (s *Service) Remove(ctx context.Context, publicURL string) error {
	name, err := s.NameFromURL(publicURL)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("photo: remove: %w", err)
	}
	return nil
}

// NameFromURL is the inverse of URL.
func (s *Service) NameFromURL(publicURL string) (string, error) {
	rest, ok := strings.CutPrefix(publicURL, s.baseURL+"/photos/")
	if !ok {
		return "", ErrInvalidName
	}
	segments := strings.Split(rest, "/")
	for i, seg := range segments {
		unescaped, err := url.PathUnescape(seg)
		if err != nil {
			return "", ErrInvalidName
		}
		segments[i] = unescaped
	}
	name := strings.Join(segments, "/")
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// URL returns the public URL of the object name.
func (s *Service) URL(name string) string {
	segments := strings.Split(name, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/photos/" + strings.Join(segments, "/")
}

// Extension maps an accepted content type to its file extension.
func Extension(contentType string) (string, bool) {
	ext, ok := extensions[normalizeType(contentType)]
	return ext, ok
}

// ObjectName builds cases/<Category_With_Underscores>_<yyyymmddHHMMSS>_<id8>.<ext>.
func ObjectName(category, ext string, at time.Time, id string) string {
	slug := strings.Join(strings.Fields(category), "_")
	if slug == "" {
		slug = "Outro"
	}
	slug = strings.NewReplacer("/", "_", "\\", "_").Replace(slug)
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("cases/%s_%s_%s.%s", slug, at.Format("20060102150405"), short, ext)
}

// ValidateName rejects names outside the cases/ namespace or with traversal.
func ValidateName(name string) error {
	if !strings.HasPrefix(name, "cases/") || strings.Contains(name, "..") || path.Clean(name) != name {
		return ErrInvalidName
	}
	return nil
}

func normalizeType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}
