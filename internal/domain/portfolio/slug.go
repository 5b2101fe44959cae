package portfolio

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"folio/app/internal/domain/errs"
)

const (
	// MaxSlugLength bounds derived and explicit slugs, in runes.
	MaxSlugLength = 64
	// MaxSlugAttempts bounds the suffix probe loop.
	MaxSlugAttempts = 1000
	// fallbackSlugBase is used when a title has no slug-safe characters at all.
	fallbackSlugBase = "portfolio"
)

var (
	explicitSlugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	// Letters that NFKD leaves intact but have a conventional ASCII spelling.
	foldReplacer = strings.NewReplacer(
		"ß", "ss", "æ", "ae", "Æ", "ae", "œ", "oe", "Œ", "oe",
		"ø", "o", "Ø", "o", "ł", "l", "Ł", "l", "đ", "d", "Đ", "d", "þ", "th",
	)
)

// SlugChecker answers whether a slug is already used within an owner's namespace.
// excludeID of zero means no record is excluded.
type SlugChecker interface {
	SlugExists(ctx context.Context, slug string, ownerID, excludeID uint) (bool, error)
}

// ProbeObserver is notified once per existence check.
type ProbeObserver interface {
	SlugProbed()
}

// Slugify derives a URL-safe token from title. The result matches ^[a-z0-9-]*$ and
// is empty when title contains no usable characters.
func Slugify(title string) string {
	folded := foldReplacer.Replace(title)
	stripMarks := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	if decomposed, _, err := transform.String(stripMarks, folded); err == nil {
		folded = decomposed
	}

	var builder strings.Builder
	builder.Grow(len(folded))
	pendingSeparator := false

	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSeparator && builder.Len() > 0 {
				builder.WriteByte('-')
			}
			pendingSeparator = false
			builder.WriteRune(r)
			continue
		}
		pendingSeparator = true
	}

	return truncateSlug(builder.String(), MaxSlugLength)
}

func truncateSlug(slug string, limit int) string {
	if len(slug) <= limit {
		return slug
	}

	cut := slug[:limit]
	if slug[limit] != '-' {
		if idx := strings.LastIndexByte(cut, '-'); idx > 0 {
			cut = cut[:idx]
		}
	}

	return strings.Trim(cut, "-")
}

// ValidateSlug checks an explicitly supplied slug.
func ValidateSlug(slug string) error {
	switch {
	case slug == "":
		return errs.Invalid("slug", "is required", slug)
	case len(slug) > MaxSlugLength:
		return errs.Invalid("slug", "must be at most "+strconv.Itoa(MaxSlugLength)+" characters", slug)
	case !explicitSlugPattern.MatchString(slug):
		return errs.Invalid("slug", "may only contain lowercase letters, digits and single hyphens", slug)
	}
	return nil
}

// SlugAllocator assigns slugs that are unique within an owner's namespace.
// It only reads; callers persist the slug and must handle unique-index races.
type SlugAllocator struct {
	checker     SlugChecker
	observer    ProbeObserver
	maxAttempts int
}

// NewSlugAllocator builds an allocator over checker. observer may be nil.
func NewSlugAllocator(checker SlugChecker, observer ProbeObserver) (*SlugAllocator, error) {
	if checker == nil {
		return nil, eris.New("slug checker is required")
	}

	return &SlugAllocator{
		checker:     checker,
		observer:    observer,
		maxAttempts: MaxSlugAttempts,
	}, nil
}

// Allocate returns Slugify(title), or the first free "<base>-<n>" variant, for ownerID.
func (a *SlugAllocator) Allocate(ctx context.Context, title string, ownerID, excludeID uint) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = fallbackSlugBase
	}

	candidate := base
	for counter := 0; counter < a.maxAttempts; counter++ {
		if counter > 0 {
			candidate = base + "-" + strconv.Itoa(counter)
		}

		taken, err := a.exists(ctx, candidate, ownerID, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", errs.Persistence("allocating slug", eris.Wrapf(ErrSlugExhausted, "base %s after %d attempts", base, a.maxAttempts))
}

// IsAvailable reports whether slug is free for ownerID, ignoring excludeID.
func (a *SlugAllocator) IsAvailable(ctx context.Context, slug string, ownerID, excludeID uint) (bool, error) {
	taken, err := a.exists(ctx, slug, ownerID, excludeID)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (a *SlugAllocator) exists(ctx context.Context, slug string, ownerID, excludeID uint) (bool, error) {
	if a.observer != nil {
		a.observer.SlugProbed()
	}

	taken, err := a.checker.SlugExists(ctx, slug, ownerID, excludeID)
	if err != nil {
		return false, errs.Persistence("checking slug "+slug, err)
	}
	return taken, nil
}
